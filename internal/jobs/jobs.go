package jobs

import (
	"context"
	"time"

	encouragement "anoa.com/localswap/internal/modules/encouragement/service"
	interest "anoa.com/localswap/internal/modules/interest/service"
)

const (
	InterestDigest          = "interest-digest"
	DailyEncouragement      = "daily-encouragement"
	NotificationCleanup     = "notification-cleanup"
	DeliverDueNotifications = "deliver-due-notifications"
	OfferExpiry             = "offer-expiry"
	TravelerExpiry          = "traveler-expiry"
)

type NotificationMaintainer interface {
	DeleteExpiredNotifications(ctx context.Context) (int64, error)
	DeliverDueNotifications(ctx context.Context) (int, error)
}

type OfferExpirer interface {
	ExpireStaleOffers(ctx context.Context) (int, error)
}

type TravelerExpirer interface {
	ExpireTravelers(ctx context.Context) (int64, error)
}

type Deps struct {
	Digest        interest.DigestProcessor
	Encouragement encouragement.Service
	Notifications NotificationMaintainer
	Offers        OfferExpirer
	Travelers     TravelerExpirer
}

func Definitions(d Deps) []Job {
	return []Job{
		{
			Name:     InterestDigest,
			Schedule: "0 9 * * *",
			Timeout:  30 * time.Minute,
			Run: func(ctx context.Context) (any, error) {
				return d.Digest.SendInterestDigests(ctx)
			},
		},
		{
			Name:     DailyEncouragement,
			Schedule: "0 9 * * *",
			Timeout:  30 * time.Minute,
			Run: func(ctx context.Context) (any, error) {
				return d.Encouragement.SendDailyEncouragement(ctx)
			},
		},
		{
			Name:     NotificationCleanup,
			Schedule: "0 3 * * *",
			Timeout:  10 * time.Minute,
			Run: func(ctx context.Context) (any, error) {
				deleted, err := d.Notifications.DeleteExpiredNotifications(ctx)
				return map[string]int64{"deleted": deleted}, err
			},
		},
		{
			Name:     DeliverDueNotifications,
			Schedule: "*/5 * * * *",
			Timeout:  4 * time.Minute,
			Run: func(ctx context.Context) (any, error) {
				delivered, err := d.Notifications.DeliverDueNotifications(ctx)
				return map[string]int{"delivered": delivered}, err
			},
		},
		{
			Name:     OfferExpiry,
			Schedule: "*/15 * * * *",
			Timeout:  10 * time.Minute,
			Run: func(ctx context.Context) (any, error) {
				expired, err := d.Offers.ExpireStaleOffers(ctx)
				return map[string]int{"expired": expired}, err
			},
		},
		{
			Name:     TravelerExpiry,
			Schedule: "30 * * * *",
			Timeout:  5 * time.Minute,
			Run: func(ctx context.Context) (any, error) {
				ended, err := d.Travelers.ExpireTravelers(ctx)
				return map[string]int64{"ended": ended}, err
			},
		},
	}
}

// RegisterAll registers every job definition on s.
func RegisterAll(s *Scheduler, d Deps) error {
	for _, job := range Definitions(d) {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}
