package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDeleted   UserStatus = "deleted"
)

// NewAccountAge is how long an account counts as new for offer limits.
const NewAccountAge = 7 * 24 * time.Hour

// User is never hard-deleted; Status flags removal.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Phone     string     `gorm:"size:20;uniqueIndex;not null" json:"-"`
	Status    UserStatus `gorm:"size:20;not null;default:active;index" json:"status"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Profile   *Profile   `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewV7()
	}
	return
}

// IsNewAccount reports whether the account is younger than NewAccountAge.
func (u *User) IsNewAccount(now time.Time) bool {
	return now.Sub(u.CreatedAt) < NewAccountAge
}

// DisplayName falls back to a neutral label when the profile is missing.
func (u *User) DisplayName() string {
	if u.Profile != nil && u.Profile.DisplayName != "" {
		return u.Profile.DisplayName
	}
	return "Someone"
}

type Profile struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	DisplayName    string    `gorm:"size:50;not null" json:"display_name"`
	Bio            *string   `gorm:"type:text" json:"bio,omitempty"`
	AvatarURL      *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	TrustScore     float64   `gorm:"not null;default:0" json:"trust_score"`
	CompletedSwaps int       `gorm:"not null;default:0" json:"completed_swaps"`
	ResponseRate   float64   `gorm:"not null;default:0" json:"response_rate"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
