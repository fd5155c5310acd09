package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/localswap/internal/entity"
	quoteRepo "anoa.com/localswap/internal/modules/encouragement/repository"
	encouragement "anoa.com/localswap/internal/modules/encouragement/service"
	userRepo "anoa.com/localswap/internal/modules/user/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Profile{},
		&entity.Location{},
		&entity.TravelerProfile{},
		&entity.Listing{},
		&entity.ListingPhoto{},
		&entity.UserInterest{},
		&entity.PendingInterestMatch{},
		&entity.ChatThread{},
		&entity.ChatParticipant{},
		&entity.Message{},
		&entity.Offer{},
		&entity.OfferItem{},
		&entity.Block{},
		&entity.Report{},
		&entity.Review{},
		&entity.DailyQuote{},
		&entity.Notification{},
		&entity.NotificationSettings{},
		&entity.PushSubscription{},
	)
}

func SeedQuotes(ctx context.Context, quotes quoteRepo.QuoteRepository, logger *zap.Logger) error {
	created, err := quotes.SeedIfEmpty(ctx, encouragement.DefaultQuotes())
	if err != nil {
		return fmt.Errorf("failed to seed quotes: %w", err)
	}
	if created > 0 {
		logger.Info("daily quotes seeded", zap.Int("count", created))
	}
	return nil
}

type demoUser struct {
	phone string
	name  string
}

// SeedDemoUsers creates a pair of traders for local development. Tokens are
// issued elsewhere; the ids are logged so one can be minted by hand.
func SeedDemoUsers(ctx context.Context, users userRepo.UserRepository, logger *zap.Logger) error {
	demo := []demoUser{
		{phone: "+15550000001", name: "Alex Demo"},
		{phone: "+15550000002", name: "Sam Demo"},
	}

	for _, d := range demo {
		existing, err := users.FindByPhone(ctx, d.phone)
		if err == nil {
			logger.Debug("demo user already exists", zap.String("user_id", existing.ID.String()))
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user := &entity.User{Phone: d.phone, Status: entity.UserStatusActive}
		if err := users.Create(ctx, user, &entity.Profile{DisplayName: d.name}); err != nil {
			return fmt.Errorf("failed to seed demo user: %w", err)
		}
		logger.Info("demo user seeded", zap.String("user_id", user.ID.String()), zap.String("name", d.name))
	}

	return nil
}
