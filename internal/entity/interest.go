package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// UserInterest subscribes a user to new listings in one category, optionally
// narrowed by keywords and an override radius.
type UserInterest struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_user_interests_user_category,priority:1" json:"user_id"`
	Category    Category       `gorm:"size:30;not null;uniqueIndex:idx_user_interests_user_category,priority:2;index" json:"category"`
	Keywords    pq.StringArray `gorm:"type:text[]" json:"keywords"`
	RadiusMiles *int           `json:"radius_miles,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *UserInterest) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID, err = uuid.NewV7()
	}
	return
}

// PendingInterestMatch is a match waiting for the next digest run.
type PendingInterestMatch struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ListingID   uuid.UUID  `gorm:"type:uuid;not null" json:"listing_id"`
	Category    Category   `gorm:"size:30;not null" json:"category"`
	Processed   bool       `gorm:"not null;index:idx_pending_matches_processed,priority:1" json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index:idx_pending_matches_processed,priority:2" json:"created_at"`
}

func (m *PendingInterestMatch) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}
