package dto

import (
	"time"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
)

type OfferItemRequest struct {
	ListingID   *uuid.UUID `json:"listing_id"`
	Description *string    `json:"description" binding:"omitempty,max=500"`
	PhotoURL    *string    `json:"photo_url" binding:"omitempty,url"`
}

type CreateOfferRequest struct {
	ListingID uuid.UUID          `json:"listing_id" binding:"required"`
	Message   *string            `json:"message" binding:"omitempty,max=500"`
	Items     []OfferItemRequest `json:"items" binding:"required,min=1,max=10,dive"`
}

type CounterOfferRequest struct {
	Message *string            `json:"message" binding:"omitempty,max=500"`
	Items   []OfferItemRequest `json:"items" binding:"required,min=1,max=10,dive"`
}

type ScheduleMeetupRequest struct {
	Location  string    `json:"location" binding:"required,min=1,max=500"`
	Latitude  *float64  `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64  `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Time      time.Time `json:"time" binding:"required"`
}

type ListOffersQuery struct {
	Type   string `form:"type" binding:"omitempty,oneof=sent received"`
	Status string `form:"status" binding:"omitempty,oneof=pending countered accepted declined cancelled expired completed disputed"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// OfferPermissions tells the client which actions the viewer may take now.
type OfferPermissions struct {
	CanAccept   bool `json:"can_accept"`
	CanDecline  bool `json:"can_decline"`
	CanCounter  bool `json:"can_counter"`
	CanSchedule bool `json:"can_schedule"`
	CanComplete bool `json:"can_complete"`
	CanReview   bool `json:"can_review"`
}

type OfferDetailResponse struct {
	*entity.Offer
	IsOfferer   bool             `json:"is_offerer"`
	Permissions OfferPermissions `json:"permissions"`
}

type CompleteOfferResponse struct {
	Offer     *entity.Offer `json:"offer"`
	Completed bool          `json:"completed"`
}
