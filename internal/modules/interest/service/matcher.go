package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/localswap/internal/entity"
	interestRepo "anoa.com/localswap/internal/modules/interest/repository"
	notification "anoa.com/localswap/internal/modules/notification/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultMatchConcurrency = 8

// ListingReader is the slice of the listing store the matcher and the digest
// need.
type ListingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Listing, error)
}

type LocationFinder interface {
	FindPrimary(ctx context.Context, userID uuid.UUID) (*entity.Location, error)
}

type BlockChecker interface {
	IsBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// Dispatcher is what the matcher and the digest ask to deliver notifications.
type Dispatcher interface {
	GetOrCreateSettings(ctx context.Context, userID uuid.UUID) (*entity.NotificationSettings, error)
	CreateNotification(ctx context.Context, in notification.CreateNotificationInput) (*notification.CreateResult, error)
	NotifyNewListingMatch(ctx context.Context, recipientID, listingID uuid.UUID, title string, category entity.Category) (*notification.CreateResult, error)
}

type MatchResult struct {
	Immediate int `json:"immediate"`
	Queued    int `json:"queued"`
	Skipped   int `json:"skipped"`
}

type Matcher interface {
	OnListingActivated(ctx context.Context, listingID uuid.UUID) (*MatchResult, error)
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeImmediate
	outcomeQueued
)

type matcher struct {
	interests   interestRepo.InterestRepository
	pending     interestRepo.PendingMatchRepository
	listings    ListingReader
	locations   LocationFinder
	blocks      BlockChecker
	dispatcher  Dispatcher
	concurrency int
	logger      *zap.Logger
}

func NewMatcher(
	interests interestRepo.InterestRepository,
	pending interestRepo.PendingMatchRepository,
	listings ListingReader,
	locations LocationFinder,
	blocks BlockChecker,
	dispatcher Dispatcher,
	concurrency int,
	logger *zap.Logger,
) Matcher {
	if concurrency <= 0 {
		concurrency = defaultMatchConcurrency
	}
	return &matcher{
		interests:   interests,
		pending:     pending,
		listings:    listings,
		locations:   locations,
		blocks:      blocks,
		dispatcher:  dispatcher,
		concurrency: concurrency,
		logger:      logger,
	}
}

// MatchesKeywords reports whether any keyword appears in text, ignoring case.
// An empty keyword list always matches.
func MatchesKeywords(keywords []string, text string) bool {
	text = strings.ToLower(text)
	checked := false
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		checked = true
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return !checked
}

// OnListingActivated runs once per activation. Candidates are independent so
// they are evaluated in parallel and tallied afterwards.
func (m *matcher) OnListingActivated(ctx context.Context, listingID uuid.UUID) (*MatchResult, error) {
	listing, err := m.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &MatchResult{}, nil
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing.Status != entity.ListingActive {
		return &MatchResult{}, nil
	}

	candidates, err := m.interests.ListByCategory(ctx, listing.Category, listing.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interests: %w", err)
	}

	outcomes := make([]outcome, len(candidates))
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i := range candidates {
		i := i
		g.Go(func() error {
			o, err := m.evaluate(ctx, listing, &candidates[i])
			if err != nil {
				m.logger.Warn("interest match failed",
					zap.String("listing_id", listing.ID.String()),
					zap.String("user_id", candidates[i].UserID.String()),
					zap.Error(err),
				)
				o = outcomeSkipped
			}
			outcomes[i] = o
			return nil
		})
	}
	_ = g.Wait()

	result := &MatchResult{}
	for _, o := range outcomes {
		switch o {
		case outcomeImmediate:
			result.Immediate++
		case outcomeQueued:
			result.Queued++
		default:
			result.Skipped++
		}
	}

	m.logger.Info("listing matched against interests",
		zap.String("listing_id", listing.ID.String()),
		zap.Int("immediate", result.Immediate),
		zap.Int("queued", result.Queued),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (m *matcher) evaluate(ctx context.Context, listing *entity.Listing, interest *entity.UserInterest) (outcome, error) {
	blocked, err := m.blocks.IsBlockedEitherWay(ctx, interest.UserID, listing.OwnerID)
	if err != nil {
		return outcomeSkipped, err
	}
	if blocked {
		return outcomeSkipped, nil
	}

	if listing.Location != nil {
		home, err := m.locations.FindPrimary(ctx, interest.UserID)
		if err != nil {
			return outcomeSkipped, err
		}
		if home != nil {
			radius := home.RadiusMiles
			if interest.RadiusMiles != nil {
				radius = *interest.RadiusMiles
			}
			if home.DistanceTo(listing.Location) > float64(radius) {
				return outcomeSkipped, nil
			}
		}
	}

	if !MatchesKeywords(interest.Keywords, listing.SearchableText()) {
		return outcomeSkipped, nil
	}

	settings, err := m.dispatcher.GetOrCreateSettings(ctx, interest.UserID)
	if err != nil {
		return outcomeSkipped, err
	}
	if !settings.GlobalEnabled || !settings.NewListingMatch {
		return outcomeSkipped, nil
	}

	switch settings.InterestDelivery {
	case entity.DeliveryImmediate:
		if _, err := m.dispatcher.NotifyNewListingMatch(ctx, interest.UserID, listing.ID, listing.Title, listing.Category); err != nil {
			return outcomeSkipped, err
		}
		return outcomeImmediate, nil
	case entity.DeliveryDailyDigest:
		if err := m.pending.Enqueue(ctx, &entity.PendingInterestMatch{
			UserID:    interest.UserID,
			ListingID: listing.ID,
			Category:  listing.Category,
		}); err != nil {
			return outcomeSkipped, err
		}
		return outcomeQueued, nil
	default:
		return outcomeSkipped, nil
	}
}
