package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role discriminates which profile table a user row pairs with. Consumers
// switch on it exhaustively instead of reading optional fields off a shared
// record.
type Role string

const (
	RolePlayer Role = "player"
	RoleScout  Role = "scout"
	RoleParent Role = "parent"
)

func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleScout, RoleParent:
		return true
	}
	return false
}

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email           string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	FirstName       string    `gorm:"not null;column:first_name" json:"first_name"`
	LastName        string    `gorm:"not null;column:last_name" json:"last_name"`
	Phone           string    `gorm:"column:phone" json:"phone"`
	County          string    `gorm:"index;column:county" json:"county"`
	DateOfBirth     time.Time `gorm:"column:date_of_birth" json:"date_of_birth"`
	Role            Role      `gorm:"not null;index;column:role" json:"role"`
	ProfileImageURL string    `gorm:"column:profile_image_url" json:"profile_image_url"`
	IsVerified      bool      `gorm:"not null;default:false;column:is_verified" json:"is_verified"`
	IsActive        bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
