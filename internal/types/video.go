package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VideoStatus string

const (
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// Terminal reports whether the status admits no further transition. A retry
// of a failed video re-enters processing through an explicit re-score, never
// by mutating the terminal row from the worker side.
func (s VideoStatus) Terminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// Video is one uploaded performance clip. Sport, position and age are
// snapshotted from the player profile at upload time and never recomputed.
// ScoreAttempts and LockedAt drive the background scoring worker's claim
// protocol.
type Video struct {
	ID              uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlayerID        uuid.UUID   `gorm:"type:uuid;not null;index;column:player_id" json:"player_id"`
	Player          *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlayerID;references:ID" json:"player,omitempty"`
	Title           string      `gorm:"not null;column:title" json:"title"`
	Description     string      `gorm:"column:description" json:"description"`
	VideoURL        string      `gorm:"not null;column:video_url" json:"video_url"`
	StorageKey      string      `gorm:"not null;column:storage_key" json:"storage_key"`
	ThumbnailURL    string      `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	DurationSeconds int         `gorm:"column:duration_seconds" json:"duration_seconds"`
	FileSizeMB      float64     `gorm:"column:file_size_mb" json:"file_size_mb"`
	Status          VideoStatus `gorm:"not null;index;default:'processing';column:status" json:"status"`
	IsPublic        bool        `gorm:"not null;default:false;column:is_public" json:"is_public"`
	ViewCount       int64       `gorm:"not null;default:0;column:view_count" json:"view_count"`
	Sport           string      `gorm:"not null;column:sport" json:"sport"`
	Position        string      `gorm:"column:position" json:"position"`
	Age             int         `gorm:"column:age" json:"age"`
	ScoreAttempts   int         `gorm:"not null;default:0;column:score_attempts" json:"-"`
	LockedAt        *time.Time  `gorm:"column:locked_at" json:"-"`
	CreatedAt       time.Time   `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (Video) TableName() string {
	return "video"
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
