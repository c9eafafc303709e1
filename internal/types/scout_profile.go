package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ScoutProfile struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	User               *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ClubName           string         `gorm:"column:club_name" json:"club_name"`
	LicenseNumber      string         `gorm:"column:license_number" json:"license_number"`
	OrganizationType   string         `gorm:"column:organization_type" json:"organization_type"`
	PreferredSports    datatypes.JSON `gorm:"column:preferred_sports;type:jsonb" json:"preferred_sports"`
	PreferredCounties  datatypes.JSON `gorm:"column:preferred_counties;type:jsonb" json:"preferred_counties"`
	VerificationStatus string         `gorm:"column:verification_status;not null;default:'pending'" json:"verification_status"`
	VerifiedAt         *time.Time     `gorm:"column:verified_at" json:"verified_at,omitempty"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ScoutProfile) TableName() string {
	return "scout_profile"
}

func (s *ScoutProfile) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
