package dto

import "github.com/google/uuid"

type CreateReportRequest struct {
	ReportedUserID    uuid.UUID  `json:"reported_user_id" binding:"required"`
	ReportedListingID *uuid.UUID `json:"reported_listing_id"`
	OfferID           *uuid.UUID `json:"offer_id"`
	Reason            string     `json:"reason" binding:"required,oneof=no_show not_as_described scam harassment inappropriate_content other"`
	Description       string     `json:"description" binding:"required,min=10,max=2000"`
	EvidenceURLs      []string   `json:"evidence_urls" binding:"omitempty,max=10,dive,url"`
}

type CreateReportResponse struct {
	ReportID uuid.UUID `json:"report_id"`
	Message  string    `json:"message"`
}
