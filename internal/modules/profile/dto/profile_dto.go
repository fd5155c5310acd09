package dto

import (
	"io"
	"time"

	"github.com/google/uuid"
)

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" form:"display_name" binding:"omitempty,min=1,max=50"`
	Bio         *string `json:"bio" form:"bio" binding:"omitempty,max=500"`
}

type AvatarFile struct {
	Reader   io.Reader
	Size     int64
	FileName string
}

// PublicProfileResponse is what other users see.
type PublicProfileResponse struct {
	ID             uuid.UUID `json:"id"`
	DisplayName    string    `json:"display_name"`
	Bio            *string   `json:"bio,omitempty"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	TrustScore     float64   `json:"trust_score"`
	CompletedSwaps int       `json:"completed_swaps"`
	ResponseRate   float64   `json:"response_rate"`
	MemberSince    time.Time `json:"member_since"`
}
