package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Block is a directed edge, but every interaction check treats it as mutual.
type Block struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BlockerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_blocks_pair,priority:1" json:"blocker_id"`
	BlockedID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_blocks_pair,priority:2;index" json:"blocked_id"`
	Reason    *string   `gorm:"size:500" json:"reason,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (b *Block) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID, err = uuid.NewV7()
	}
	return
}

// Review stays hidden until both participants of the offer have reviewed.
type Review struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OfferID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_offer_reviewer,priority:1" json:"offer_id"`
	ReviewerID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_offer_reviewer,priority:2" json:"reviewer_id"`
	RevieweeID uuid.UUID      `gorm:"type:uuid;not null;index" json:"reviewee_id"`
	Rating     int            `gorm:"not null" json:"rating"`
	Tags       pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`
	Comment    *string        `gorm:"type:text" json:"comment,omitempty"`
	IsVisible  bool           `gorm:"not null" json:"is_visible"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

type DailyQuote struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Author    *string    `gorm:"size:100" json:"author,omitempty"`
	Category  string     `gorm:"size:50" json:"category"`
	IsActive  bool       `gorm:"not null" json:"is_active"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (q *DailyQuote) BeforeCreate(tx *gorm.DB) (err error) {
	if q.ID == uuid.Nil {
		q.ID, err = uuid.NewV7()
	}
	return
}

type ReportReason string

const (
	ReportNoShow               ReportReason = "no_show"
	ReportNotAsDescribed       ReportReason = "not_as_described"
	ReportScam                 ReportReason = "scam"
	ReportHarassment           ReportReason = "harassment"
	ReportInappropriateContent ReportReason = "inappropriate_content"
	ReportOther                ReportReason = "other"
)

func (r ReportReason) IsValid() bool {
	switch r {
	case ReportNoShow, ReportNotAsDescribed, ReportScam, ReportHarassment, ReportInappropriateContent, ReportOther:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
)

// ReportCooldown is how long a reporter must wait before reporting the same
// user again.
const ReportCooldown = 24 * time.Hour

type Report struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_reports_pair,priority:1" json:"reporter_id"`
	ReportedUserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_reports_pair,priority:2" json:"reported_user_id"`
	ReportedListingID *uuid.UUID     `gorm:"type:uuid" json:"reported_listing_id,omitempty"`
	OfferID           *uuid.UUID     `gorm:"type:uuid" json:"offer_id,omitempty"`
	Reason            ReportReason   `gorm:"size:30;not null" json:"reason"`
	Description       string         `gorm:"type:text;not null" json:"description"`
	EvidenceURLs      pq.StringArray `gorm:"type:text[]" json:"evidence_urls"`
	Status            ReportStatus   `gorm:"size:20;not null;default:pending;index" json:"status"`
	CreatedAt         time.Time      `gorm:"autoCreateTime;index:idx_reports_pair,priority:3" json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
