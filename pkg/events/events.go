// Package events publishes domain events (listing activation, offer
// transitions, completed trades) for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	ListingActivated = "listing.activated"
	ListingUpdated   = "listing.updated"
	ListingTraded    = "listing.traded"
	OfferCreated     = "offer.created"
	OfferAccepted    = "offer.accepted"
	OfferDeclined    = "offer.declined"
	OfferCountered   = "offer.countered"
	OfferExpired     = "offer.expired"
	OfferCancelled   = "offer.cancelled"
	TradeCompleted   = "trade.completed"
	UserReported     = "user.reported"
)

// Event is the envelope written to the topic.
type Event struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
	Close() error
}

// Encode builds the kafka message for an event.
func Encode(eventType, key string, payload any, now time.Time) (kafka.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	value, err := json.Marshal(Event{
		Type:       eventType,
		OccurredAt: now.UTC(),
		Payload:    body,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s envelope: %w", eventType, err)
	}

	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil
}

type kafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher writes events to topic. Messages are keyed by aggregate id
// so events for one offer or listing stay ordered within a partition.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            3,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("failed to write kafka messages",
					zap.Error(err),
					zap.Int("message_count", len(messages)),
				)
			}
		},
	}

	logger.Info("kafka event publisher initialized",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic),
	)

	return &kafkaPublisher{writer: writer, logger: logger}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	msg, err := Encode(eventType, key, payload, time.Now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher is used when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (noopPublisher) Close() error                                     { return nil }
