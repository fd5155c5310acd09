package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationOfferReceived      NotificationType = "offer_received"
	NotificationOfferAccepted      NotificationType = "offer_accepted"
	NotificationOfferDeclined      NotificationType = "offer_declined"
	NotificationOfferCountered     NotificationType = "offer_countered"
	NotificationOfferExpired       NotificationType = "offer_expired"
	NotificationMessageReceived    NotificationType = "message_received"
	NotificationReviewReceived     NotificationType = "review_received"
	NotificationTradeCompleted     NotificationType = "trade_completed"
	NotificationNewListingMatch    NotificationType = "new_listing_match"
	NotificationDailyEncouragement NotificationType = "daily_encouragement"
)

// AllNotificationTypes lists every type. Settings flag lookups are tested
// against this list.
var AllNotificationTypes = []NotificationType{
	NotificationOfferReceived,
	NotificationOfferAccepted,
	NotificationOfferDeclined,
	NotificationOfferCountered,
	NotificationOfferExpired,
	NotificationMessageReceived,
	NotificationReviewReceived,
	NotificationTradeCompleted,
	NotificationNewListingMatch,
	NotificationDailyEncouragement,
}

// NotificationTTL is how long a notification lives before the expiry sweep.
const NotificationTTL = 30 * 24 * time.Hour

type Notification struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type             NotificationType `gorm:"size:40;not null" json:"type"`
	Title            string           `gorm:"size:200;not null" json:"title"`
	Body             string           `gorm:"type:text;not null" json:"body"`
	Metadata         datatypes.JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`
	RelatedOfferID   *uuid.UUID       `gorm:"type:uuid" json:"related_offer_id,omitempty"`
	RelatedListingID *uuid.UUID       `gorm:"type:uuid" json:"related_listing_id,omitempty"`
	DeliverAt        *time.Time       `gorm:"index" json:"deliver_at,omitempty"`
	PushedAt         *time.Time       `json:"-"`
	ExpiresAt        time.Time        `gorm:"not null;index" json:"expires_at"`
	IsRead           bool             `gorm:"not null" json:"is_read"`
	ReadAt           *time.Time       `json:"read_at,omitempty"`
	CreatedAt        time.Time        `gorm:"index:idx_notifications_user_created,priority:2" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}

// PushURL is the in-app link a push notification opens.
func (n *Notification) PushURL() string {
	switch {
	case n.RelatedOfferID != nil:
		return "/inbox"
	case n.RelatedListingID != nil:
		return "/listings/" + n.RelatedListingID.String()
	default:
		return "/"
	}
}

type InterestDelivery string

const (
	DeliveryImmediate   InterestDelivery = "immediate"
	DeliveryDailyDigest InterestDelivery = "daily_digest"
)

// QuietHours is a daily window, in Timezone, during which pushes are held.
// Start and End are "HH:MM"; Start > End wraps midnight.
type QuietHours struct {
	Enabled  bool   `gorm:"not null" json:"enabled"`
	Start    string `gorm:"size:5;not null" json:"start"`
	End      string `gorm:"size:5;not null" json:"end"`
	Timezone string `gorm:"size:64;not null" json:"timezone"`
}

// NotificationSettings holds one flag per NotificationType plus a global
// switch. Bool columns have no database default; rows are always written
// from DefaultNotificationSettings.
type NotificationSettings struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	GlobalEnabled bool `gorm:"not null" json:"global_enabled"`

	OfferReceived      bool `gorm:"not null" json:"offer_received"`
	OfferAccepted      bool `gorm:"not null" json:"offer_accepted"`
	OfferDeclined      bool `gorm:"not null" json:"offer_declined"`
	OfferCountered     bool `gorm:"not null" json:"offer_countered"`
	OfferExpired       bool `gorm:"not null" json:"offer_expired"`
	MessageReceived    bool `gorm:"not null" json:"message_received"`
	ReviewReceived     bool `gorm:"not null" json:"review_received"`
	TradeCompleted     bool `gorm:"not null" json:"trade_completed"`
	NewListingMatch    bool `gorm:"not null" json:"new_listing_match"`
	DailyEncouragement bool `gorm:"not null" json:"daily_encouragement"`

	InterestDelivery InterestDelivery `gorm:"size:20;not null" json:"interest_delivery"`
	QuietHours       QuietHours       `gorm:"embedded;embeddedPrefix:quiet_hours_" json:"quiet_hours"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *NotificationSettings) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}

// DefaultNotificationSettings is the row created for a user on first use:
// every type on, immediate interest delivery, quiet hours off.
func DefaultNotificationSettings(userID uuid.UUID) NotificationSettings {
	return NotificationSettings{
		UserID:             userID,
		GlobalEnabled:      true,
		OfferReceived:      true,
		OfferAccepted:      true,
		OfferDeclined:      true,
		OfferCountered:     true,
		OfferExpired:       true,
		MessageReceived:    true,
		ReviewReceived:     true,
		TradeCompleted:     true,
		NewListingMatch:    true,
		DailyEncouragement: true,
		InterestDelivery:   DeliveryImmediate,
		QuietHours: QuietHours{
			Enabled:  false,
			Start:    "22:00",
			End:      "08:00",
			Timezone: "UTC",
		},
	}
}

type PushSubscription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Endpoint  string    `gorm:"type:text;not null;uniqueIndex" json:"endpoint"`
	P256dh    string    `gorm:"type:text;not null" json:"-"`
	Auth      string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *PushSubscription) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
