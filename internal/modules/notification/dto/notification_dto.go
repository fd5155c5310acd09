package dto

import (
	"time"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

type ListNotificationsQuery struct {
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=50"`
	Cursor     string `form:"cursor" binding:"omitempty,uuid"`
	UnreadOnly bool   `form:"unread_only"`
}

type NotificationResponse struct {
	ID               uuid.UUID                   `json:"id"`
	Type             entity.NotificationType     `json:"type"`
	Title            string                      `json:"title"`
	Body             string                      `json:"body"`
	Kind             entity.MetadataKind         `json:"kind,omitempty"`
	Metadata         entity.NotificationMetadata `json:"metadata,omitempty"`
	RelatedOfferID   *uuid.UUID                  `json:"related_offer_id,omitempty"`
	RelatedListingID *uuid.UUID                  `json:"related_listing_id,omitempty"`
	IsRead           bool                        `json:"is_read"`
	ReadAt           *time.Time                  `json:"read_at,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
}

type NotificationPage struct {
	Items      []NotificationResponse `json:"items"`
	NextCursor *uuid.UUID             `json:"next_cursor"`
}

type MarkReadRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1,max=100"`
}

type DeleteNotificationsRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1,max=100"`
}

type QuietHoursRequest struct {
	Enabled  *bool   `json:"enabled"`
	Start    *string `json:"start"`
	End      *string `json:"end"`
	Timezone *string `json:"timezone"`
}

// UpdateSettingsRequest is a partial update; nil fields are left alone.
type UpdateSettingsRequest struct {
	GlobalEnabled      *bool              `json:"global_enabled"`
	OfferReceived      *bool              `json:"offer_received"`
	OfferAccepted      *bool              `json:"offer_accepted"`
	OfferDeclined      *bool              `json:"offer_declined"`
	OfferCountered     *bool              `json:"offer_countered"`
	OfferExpired       *bool              `json:"offer_expired"`
	MessageReceived    *bool              `json:"message_received"`
	ReviewReceived     *bool              `json:"review_received"`
	TradeCompleted     *bool              `json:"trade_completed"`
	NewListingMatch    *bool              `json:"new_listing_match"`
	DailyEncouragement *bool              `json:"daily_encouragement"`
	InterestDelivery   *string            `json:"interest_delivery" binding:"omitempty,oneof=immediate daily_digest"`
	QuietHours         *QuietHoursRequest `json:"quiet_hours"`
}

type PushSubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

type PushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}
