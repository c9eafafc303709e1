package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlayerProfile is the player arm of the user role union. Sport is required
// before any video can be submitted; AIScore is a denormalized copy of the
// player's most recent overall score.
type PlayerProfile struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Sport     string     `gorm:"index;column:sport" json:"sport"`
	Position  string     `gorm:"column:position" json:"position"`
	Bio       string     `gorm:"column:bio" json:"bio"`
	AIScore   float64    `gorm:"not null;default:0;column:ai_score" json:"ai_score"`
	HeightCm  float64    `gorm:"column:height_cm" json:"height_cm"`
	WeightKg  float64    `gorm:"column:weight_kg" json:"weight_kg"`
	ParentID  *uuid.UUID `gorm:"type:uuid;column:parent_id" json:"parent_id,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (PlayerProfile) TableName() string {
	return "player_profile"
}

func (p *PlayerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
