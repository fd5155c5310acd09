package dto

import (
	commonDto "anoa.com/localswap/pkg/dto"
	"github.com/google/uuid"
)

type CreateReviewRequest struct {
	OfferID uuid.UUID `json:"offer_id" binding:"required"`
	Rating  int       `json:"rating" binding:"required,min=1,max=5"`
	Tags    []string  `json:"tags" binding:"omitempty,max=5,dive,max=30"`
	Comment *string   `json:"comment" binding:"omitempty,max=1000"`
}

type ListReviewsQuery struct {
	UserID uuid.UUID `form:"user_id" binding:"required"`
	commonDto.PageQuery
}

type CreateReviewResponse struct {
	ID uuid.UUID `json:"id"`
	// Visible turns true once the other participant has reviewed too.
	Visible bool `json:"visible"`
}
