package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferCountered OfferStatus = "countered"
	OfferAccepted  OfferStatus = "accepted"
	OfferDeclined  OfferStatus = "declined"
	OfferCancelled OfferStatus = "cancelled"
	OfferExpired   OfferStatus = "expired"
	OfferCompleted OfferStatus = "completed"
	OfferDisputed  OfferStatus = "disputed"
)

// OfferTTL is how long a pending offer stays open.
const OfferTTL = 72 * time.Hour

var (
	// NegotiableStatuses are the states accept, decline and counter start from.
	NegotiableStatuses = []OfferStatus{OfferPending, OfferCountered}
	// LiveStatuses are cancelled when either party blocks the other.
	LiveStatuses = []OfferStatus{OfferPending, OfferCountered, OfferAccepted}
)

func (s OfferStatus) IsTerminal() bool {
	switch s {
	case OfferDeclined, OfferCancelled, OfferExpired, OfferCompleted, OfferDisputed:
		return true
	}
	return false
}

func (s OfferStatus) IsNegotiable() bool {
	return s == OfferPending || s == OfferCountered
}

// Offer is one proposal in a negotiation. Counter-offers are new rows that
// point at their predecessor through ParentOfferID and share its chat thread.
type Offer struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID        uuid.UUID   `gorm:"type:uuid;not null;index" json:"listing_id"`
	Listing          *Listing    `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	OffererID        uuid.UUID   `gorm:"type:uuid;not null;index" json:"offerer_id"`
	Offerer          *User       `gorm:"foreignKey:OffererID" json:"offerer,omitempty"`
	OwnerID          uuid.UUID   `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner            *User       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Message          *string     `gorm:"size:500" json:"message,omitempty"`
	Status           OfferStatus `gorm:"size:20;not null;index" json:"status"`
	ParentOfferID    *uuid.UUID  `gorm:"type:uuid;index" json:"parent_offer_id,omitempty"`
	ChatThreadID     *uuid.UUID  `gorm:"type:uuid" json:"chat_thread_id,omitempty"`
	OffererCompleted bool        `gorm:"not null" json:"offerer_completed"`
	OwnerCompleted   bool        `gorm:"not null" json:"owner_completed"`
	MeetupLocation   *string     `gorm:"size:500" json:"meetup_location,omitempty"`
	MeetupLatitude   *float64    `json:"meetup_latitude,omitempty"`
	MeetupLongitude  *float64    `json:"meetup_longitude,omitempty"`
	MeetupTime       *time.Time  `json:"meetup_time,omitempty"`
	ExpiresAt        time.Time   `gorm:"not null;index" json:"expires_at"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
	Items            []OfferItem `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt        time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Offer) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID, err = uuid.NewV7()
	}
	return
}

func (o *Offer) IsParticipant(userID uuid.UUID) bool {
	return o.OffererID == userID || o.OwnerID == userID
}

// Counterparty returns the other participant.
func (o *Offer) Counterparty(userID uuid.UUID) uuid.UUID {
	if o.OffererID == userID {
		return o.OwnerID
	}
	return o.OffererID
}

func (o *Offer) BothCompleted() bool {
	return o.OffererCompleted && o.OwnerCompleted
}

// OfferItem is one thing put on the table: another listing, or a free-form
// description with an optional photo.
type OfferItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OfferID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"offer_id"`
	ListingID   *uuid.UUID `gorm:"type:uuid" json:"listing_id,omitempty"`
	Description *string    `gorm:"size:500" json:"description,omitempty"`
	PhotoURL    *string    `gorm:"type:text" json:"photo_url,omitempty"`
}

func (i *OfferItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID, err = uuid.NewV7()
	}
	return
}
