package dto

import "github.com/google/uuid"

type BlockUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Reason *string   `json:"reason" binding:"omitempty,max=500"`
}

type BlockUserResponse struct {
	BlockID         uuid.UUID `json:"block_id"`
	CancelledOffers int       `json:"cancelled_offers"`
}
