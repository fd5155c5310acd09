package dto

import (
	"time"

	commonDto "anoa.com/localswap/pkg/dto"
	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

type ListMessagesQuery struct {
	commonDto.PageQuery
}

type ThreadSummary struct {
	ID            uuid.UUID  `json:"id"`
	ListingID     *uuid.UUID `json:"listing_id,omitempty"`
	OtherUserID   uuid.UUID  `json:"other_user_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	Unread        bool       `json:"unread"`
}
