// Package push delivers web push notifications to every browser subscription
// a user has registered.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrSubscriptionGone marks a subscription the push service no longer knows.
var ErrSubscriptionGone = errors.New("push subscription gone")

type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

type Result struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// SubscriptionStore is the persistence side the sender needs.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]Subscription, error)
	RemoveSubscription(ctx context.Context, endpoint string) error
}

type Sender interface {
	Send(ctx context.Context, userID uuid.UUID, payload Payload) (Result, error)
}

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
	TTL             int
	RatePerSecond   float64
}

type transport func(ctx context.Context, message []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)

type webPushSender struct {
	store   SubscriptionStore
	options webpush.Options
	limiter *rate.Limiter
	send    transport
	logger  *zap.Logger
}

// NewWebPushSender returns a VAPID web push sender. Outbound requests are paced
// by a token bucket so a large fan-out does not trip push service throttling.
func NewWebPushSender(store SubscriptionStore, cfg Config, logger *zap.Logger) Sender {
	return newWebPushSender(store, cfg, logger, webpush.SendNotificationWithContext)
}

func newWebPushSender(store SubscriptionStore, cfg Config, logger *zap.Logger, send transport) *webPushSender {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 60 * 60 * 24
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 50
	}

	return &webPushSender{
		store: store,
		options: webpush.Options{
			Subscriber:      cfg.Subject,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             ttl,
		},
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1),
		send:    send,
		logger:  logger,
	}
}

// Send fans the payload out to all of the user's subscriptions. Individual
// failures are counted, never returned; a 404/410 response removes the
// subscription.
func (s *webPushSender) Send(ctx context.Context, userID uuid.UUID, payload Payload) (Result, error) {
	var result Result

	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to load push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return result, nil
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return result, fmt.Errorf("failed to encode push payload: %w", err)
	}

	for _, sub := range subs {
		if err := s.limiter.Wait(ctx); err != nil {
			result.Failed++
			continue
		}

		err := s.deliver(ctx, message, sub)
		switch {
		case err == nil:
			result.Success++
		case errors.Is(err, ErrSubscriptionGone):
			result.Failed++
			if rmErr := s.store.RemoveSubscription(ctx, sub.Endpoint); rmErr != nil {
				s.logger.Warn("failed to remove stale push subscription", zap.Error(rmErr))
			}
		default:
			result.Failed++
			s.logger.Debug("push delivery failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

func (s *webPushSender) deliver(ctx context.Context, message []byte, sub Subscription) error {
	opts := s.options
	resp, err := s.send(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service responded with status %d", resp.StatusCode)
	}
	return nil
}
