package entity

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MetadataKind string

const (
	KindOffer         MetadataKind = "offer"
	KindMessage       MetadataKind = "message"
	KindReview        MetadataKind = "review"
	KindTrade         MetadataKind = "trade"
	KindListingMatch  MetadataKind = "listing_match"
	KindListingDigest MetadataKind = "listing_digest"
	KindEncouragement MetadataKind = "encouragement"
)

// NotificationMetadata is the closed set of metadata shapes a notification
// can carry. It is stored as {"kind": ..., "data": {...}}.
type NotificationMetadata interface {
	MetadataKind() MetadataKind
}

// OfferNotice backs offer_received, offer_accepted, offer_declined,
// offer_countered and offer_expired.
type OfferNotice struct {
	ActorName    string `json:"actor_name"`
	ListingTitle string `json:"listing_title"`
}

type MessageNotice struct {
	SenderName     string    `json:"sender_name"`
	MessagePreview string    `json:"message_preview"`
	ThreadID       uuid.UUID `json:"thread_id"`
}

type ReviewNotice struct {
	ReviewerName string `json:"reviewer_name"`
	Rating       int    `json:"rating"`
}

type TradeNotice struct {
	PartnerName  string `json:"partner_name"`
	ListingTitle string `json:"listing_title"`
}

type ListingMatchNotice struct {
	ListingTitle string   `json:"listing_title"`
	Category     Category `json:"category"`
}

// ListingDigestNotice summarizes several matches delivered in one digest.
type ListingDigestNotice struct {
	ListingIDs []uuid.UUID `json:"listing_ids"`
	Categories []Category  `json:"categories"`
	Count      int         `json:"count"`
}

type EncouragementNotice struct {
	Quote  string `json:"quote"`
	Author string `json:"author,omitempty"`
}

func (OfferNotice) MetadataKind() MetadataKind         { return KindOffer }
func (MessageNotice) MetadataKind() MetadataKind       { return KindMessage }
func (ReviewNotice) MetadataKind() MetadataKind        { return KindReview }
func (TradeNotice) MetadataKind() MetadataKind         { return KindTrade }
func (ListingMatchNotice) MetadataKind() MetadataKind  { return KindListingMatch }
func (ListingDigestNotice) MetadataKind() MetadataKind { return KindListingDigest }
func (EncouragementNotice) MetadataKind() MetadataKind { return KindEncouragement }

type metadataEnvelope struct {
	Kind MetadataKind    `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodeNotificationMetadata wraps m in its kind envelope. A nil m encodes
// to nil.
func EncodeNotificationMetadata(m NotificationMetadata) (datatypes.JSON, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(metadataEnvelope{Kind: m.MetadataKind(), Data: data})
}

// DecodeNotificationMetadata is the inverse of EncodeNotificationMetadata.
func DecodeNotificationMetadata(raw datatypes.JSON) (NotificationMetadata, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var env metadataEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	var target NotificationMetadata
	switch env.Kind {
	case KindOffer:
		target = &OfferNotice{}
	case KindMessage:
		target = &MessageNotice{}
	case KindReview:
		target = &ReviewNotice{}
	case KindTrade:
		target = &TradeNotice{}
	case KindListingMatch:
		target = &ListingMatchNotice{}
	case KindListingDigest:
		target = &ListingDigestNotice{}
	case KindEncouragement:
		target = &EncouragementNotice{}
	default:
		return nil, fmt.Errorf("unknown notification metadata kind %q", env.Kind)
	}

	if err := json.Unmarshal(env.Data, target); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", env.Kind, err)
	}
	return target, nil
}
