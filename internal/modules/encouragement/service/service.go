package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"anoa.com/localswap/internal/entity"
	quoteRepo "anoa.com/localswap/internal/modules/encouragement/repository"
	notification "anoa.com/localswap/internal/modules/notification/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	userPageSize   = 500
	defaultSenders = 8
)

type UserLister interface {
	ActiveUserIDs(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// Encourager is the subset of the notifier this module needs.
type Encourager interface {
	NotifyDailyEncouragement(ctx context.Context, recipientID uuid.UUID, quote, author string) (*notification.CreateResult, error)
}

type Result struct {
	QuoteID uuid.UUID `json:"quote_id"`
	// Recipients counts users considered, Delivered those whose preferences
	// let the notification through.
	Recipients int `json:"recipients"`
	Delivered  int `json:"delivered"`
}

type Service interface {
	SendDailyEncouragement(ctx context.Context) (*Result, error)
}

type service struct {
	quotes   quoteRepo.QuoteRepository
	users    UserLister
	notifier Encourager
	senders  int
	logger   *zap.Logger

	now func() time.Time
}

func NewService(quotes quoteRepo.QuoteRepository, users UserLister, notifier Encourager, logger *zap.Logger) Service {
	return &service{
		quotes:   quotes,
		users:    users,
		notifier: notifier,
		senders:  defaultSenders,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) SendDailyEncouragement(ctx context.Context) (*Result, error) {
	quote, err := s.quotes.ClaimNext(ctx, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("no active quotes, skipping daily encouragement")
			return &Result{}, nil
		}
		return nil, fmt.Errorf("failed to pick quote: %w", err)
	}
	author := ""
	if quote.Author != nil {
		author = *quote.Author
	}

	result := &Result{QuoteID: quote.ID}
	var delivered atomic.Int64

	after := uuid.Nil
	for {
		ids, err := s.users.ActiveUserIDs(ctx, after, userPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.senders)
		for _, id := range ids {
			g.Go(func() error {
				res, err := s.notifier.NotifyDailyEncouragement(gctx, id, quote.Content, author)
				if err != nil {
					s.logger.Warn("failed to send encouragement", zap.String("user_id", id.String()), zap.Error(err))
					return nil
				}
				if res.Created {
					delivered.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		result.Recipients += len(ids)
		after = ids[len(ids)-1]
		if len(ids) < userPageSize {
			break
		}
	}

	result.Delivered = int(delivered.Load())
	s.logger.Info("daily encouragement sent",
		zap.String("quote_id", quote.ID.String()),
		zap.Int("recipients", result.Recipients),
		zap.Int("delivered", result.Delivered),
	)
	return result, nil
}

// DefaultQuotes seeds an empty quote table.
func DefaultQuotes() []entity.DailyQuote {
	author := func(s string) *string { return &s }
	return []entity.DailyQuote{
		{Content: "One person's clutter is another person's treasure.", Category: "swap", IsActive: true},
		{Content: "The greatest threat to our planet is the belief that someone else will save it.", Author: author("Robert Swan"), Category: "sustainability", IsActive: true},
		{Content: "We make a living by what we get, but we make a life by what we give.", Author: author("Winston Churchill"), Category: "community", IsActive: true},
		{Content: "Buy less, choose well, make it last.", Author: author("Vivienne Westwood"), Category: "sustainability", IsActive: true},
		{Content: "Alone we can do so little; together we can do so much.", Author: author("Helen Keller"), Category: "community", IsActive: true},
		{Content: "A good trade leaves both neighbours richer.", Category: "swap", IsActive: true},
		{Content: "Reduce what you use, reuse what you can.", Category: "sustainability", IsActive: true},
	}
}
