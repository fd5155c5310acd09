package dto

import (
	"io"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
)

type CreateListingRequest struct {
	// LocationID defaults to the owner's primary active location.
	LocationID       *uuid.UUID `json:"location_id"`
	Title            string     `json:"title" binding:"required,min=3,max=100"`
	Description      *string    `json:"description" binding:"omitempty,max=2000"`
	Category         string     `json:"category" binding:"required"`
	Subcategory      *string    `json:"subcategory" binding:"omitempty,max=50"`
	Condition        *string    `json:"condition" binding:"omitempty,oneof=new like_new good fair for_parts"`
	IsService        bool       `json:"is_service"`
	WantsType        string     `json:"wants_type" binding:"omitempty,oneof=open categories specific"`
	WantsCategories  []string   `json:"wants_categories" binding:"omitempty,max=10"`
	WantsDescription *string    `json:"wants_description" binding:"omitempty,max=500"`
}

// UpdateListingRequest is a partial update; nil fields are left alone.
type UpdateListingRequest struct {
	Title            *string  `json:"title" binding:"omitempty,min=3,max=100"`
	Description      *string  `json:"description" binding:"omitempty,max=2000"`
	Subcategory      *string  `json:"subcategory" binding:"omitempty,max=50"`
	Condition        *string  `json:"condition" binding:"omitempty,oneof=new like_new good fair for_parts"`
	WantsType        *string  `json:"wants_type" binding:"omitempty,oneof=open categories specific"`
	WantsCategories  []string `json:"wants_categories" binding:"omitempty,max=10"`
	WantsDescription *string  `json:"wants_description" binding:"omitempty,max=500"`
}

type SearchListingsQuery struct {
	Query       string   `form:"q" binding:"omitempty,max=100"`
	Latitude    *float64 `form:"lat"`
	Longitude   *float64 `form:"lng"`
	RadiusMiles int      `form:"radius"`
	Category    string   `form:"category"`
	IsService   *bool    `form:"is_service"`
	Limit       int      `form:"limit"`
	Offset      int      `form:"offset"`
}

// PhotoFile is one uploaded image, already opened by the handler.
type PhotoFile struct {
	Reader   io.Reader
	Size     int64
	FileName string
}

type AddPhotosResponse struct {
	Photos    []entity.ListingPhoto `json:"photos"`
	Activated bool                  `json:"activated"`
}
