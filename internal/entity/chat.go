package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MessageType string

const (
	MessageText      MessageType = "text"
	MessageOfferCard MessageType = "offer_card"
	MessageImage     MessageType = "image"
	MessageSystem    MessageType = "system"
)

type ChatThread struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ListingID     *uuid.UUID        `gorm:"type:uuid;index" json:"listing_id,omitempty"`
	LastMessageAt *time.Time        `json:"last_message_at,omitempty"`
	Participants  []ChatParticipant `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (t *ChatThread) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}

type ChatParticipant struct {
	ThreadID   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"thread_id"`
	UserID     uuid.UUID  `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
}

type Message struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_messages_thread_created,priority:1" json:"thread_id"`
	SenderID  uuid.UUID      `gorm:"type:uuid;not null" json:"sender_id"`
	Type      MessageType    `gorm:"size:20;not null" json:"type"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index:idx_messages_thread_created,priority:2" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

type OfferCardAction string

const (
	OfferCardCreated   OfferCardAction = "created"
	OfferCardCountered OfferCardAction = "countered"
)

// OfferCard is the metadata of an offer_card message.
type OfferCard struct {
	OfferID uuid.UUID       `json:"offer_id"`
	Action  OfferCardAction `json:"action"`
}

func EncodeOfferCard(card OfferCard) (datatypes.JSON, error) {
	return json.Marshal(card)
}

func DecodeOfferCard(raw datatypes.JSON) (*OfferCard, error) {
	var card OfferCard
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// NewSystemMessage builds a system message authored by the acting user.
func NewSystemMessage(threadID, actorID uuid.UUID, content string) *Message {
	return &Message{
		ThreadID: threadID,
		SenderID: actorID,
		Type:     MessageSystem,
		Content:  content,
	}
}

// NewOfferCardMessage builds the offer_card message posted on create and
// counter.
func NewOfferCardMessage(threadID, actorID uuid.UUID, content string, card OfferCard) (*Message, error) {
	meta, err := EncodeOfferCard(card)
	if err != nil {
		return nil, err
	}
	return &Message{
		ThreadID: threadID,
		SenderID: actorID,
		Type:     MessageOfferCard,
		Content:  content,
		Metadata: meta,
	}, nil
}
