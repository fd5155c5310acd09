package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"anoa.com/localswap/internal/entity"
	notification "anoa.com/localswap/internal/modules/notification/service"
	offerDto "anoa.com/localswap/internal/modules/offer/dto"
	offerRepo "anoa.com/localswap/internal/modules/offer/repository"
	"anoa.com/localswap/pkg/apperror"
	"anoa.com/localswap/pkg/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// NewAccountDailyOffers caps offers per trailing 24h for new accounts.
	NewAccountDailyOffers = 5
	defaultListLimit      = 50
)

const (
	msgOfferCreated   = "New offer"
	msgOfferCountered = "Counter-offer"
	msgOfferAccepted  = "Offer accepted! Schedule a meetup to complete the trade."
	msgOfferDeclined  = "Offer declined."
	msgTradeCompleted = "Trade completed! Please leave a review for each other."
)

type ListingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type BlockChecker interface {
	IsBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// ListingDelister drops traded listings from search.
type ListingDelister interface {
	RemoveListing(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	CreateOffer(ctx context.Context, offererID uuid.UUID, req offerDto.CreateOfferRequest) (*entity.Offer, error)
	GetOffer(ctx context.Context, userID, offerID uuid.UUID) (*offerDto.OfferDetailResponse, error)
	ListOffers(ctx context.Context, userID uuid.UUID, query offerDto.ListOffersQuery) ([]entity.Offer, error)

	AcceptOffer(ctx context.Context, userID, offerID uuid.UUID) (*entity.Offer, error)
	DeclineOffer(ctx context.Context, userID, offerID uuid.UUID) (*entity.Offer, error)
	CounterOffer(ctx context.Context, userID, offerID uuid.UUID, req offerDto.CounterOfferRequest) (*entity.Offer, error)
	ScheduleMeetup(ctx context.Context, userID, offerID uuid.UUID, req offerDto.ScheduleMeetupRequest) (*entity.Offer, error)
	CompleteOffer(ctx context.Context, userID, offerID uuid.UUID) (*offerDto.CompleteOfferResponse, error)

	CancelOffersBetween(ctx context.Context, a, b uuid.UUID) (int, error)
	ExpireStaleOffers(ctx context.Context) (int, error)
}

type service struct {
	repo      offerRepo.OfferRepository
	listings  ListingReader
	users     UserReader
	blocks    BlockChecker
	notifier  notification.Notifier
	delister  ListingDelister
	publisher events.Publisher
	logger    *zap.Logger

	now func() time.Time
}

func NewService(
	repo offerRepo.OfferRepository,
	listings ListingReader,
	users UserReader,
	blocks BlockChecker,
	notifier notification.Notifier,
	delister ListingDelister,
	publisher events.Publisher,
	logger *zap.Logger,
) Service {
	return &service{
		repo:      repo,
		listings:  listings,
		users:     users,
		blocks:    blocks,
		notifier:  notifier,
		delister:  delister,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *service) loadOffer(ctx context.Context, id uuid.UUID) (*entity.Offer, error) {
	offer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	return offer, nil
}

// loadAsParticipant hides offers from everyone outside the negotiation.
func (s *service) loadAsParticipant(ctx context.Context, userID, id uuid.UUID) (*entity.Offer, error) {
	offer, err := s.loadOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offer.IsParticipant(userID) {
		return nil, fmt.Errorf("offer not found: %w", apperror.ErrNotFound)
	}
	return offer, nil
}

func (s *service) displayName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return (&entity.User{}).DisplayName()
	}
	return user.DisplayName()
}

// buildItems checks each item names a listing owned by one of allowedOwners
// or carries a description.
func (s *service) buildItems(ctx context.Context, reqs []offerDto.OfferItemRequest, allowedOwners ...uuid.UUID) ([]entity.OfferItem, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("offer at least one item: %w", apperror.ErrInvalidInput)
	}

	items := make([]entity.OfferItem, 0, len(reqs))
	for _, r := range reqs {
		var description *string
		if r.Description != nil {
			if d := strings.TrimSpace(*r.Description); d != "" {
				description = &d
			}
		}
		if r.ListingID == nil && description == nil {
			return nil, fmt.Errorf("each item needs a listing or a description: %w", apperror.ErrInvalidInput)
		}

		if r.ListingID != nil {
			listing, err := s.listings.FindByID(ctx, *r.ListingID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("offered listing not found: %w", apperror.ErrInvalidInput)
				}
				return nil, fmt.Errorf("failed to load offered listing: %w", err)
			}
			owned := false
			for _, id := range allowedOwners {
				if listing.OwnerID == id {
					owned = true
				}
			}
			if !owned || listing.Status != entity.ListingActive {
				return nil, fmt.Errorf("offered listing is not available: %w", apperror.ErrInvalidInput)
			}
		}

		items = append(items, entity.OfferItem{
			ListingID:   r.ListingID,
			Description: description,
			PhotoURL:    r.PhotoURL,
		})
	}
	return items, nil
}

func (s *service) checkNewAccountLimit(ctx context.Context, offererID uuid.UUID, now time.Time) error {
	user, err := s.users.FindByID(ctx, offererID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsNewAccount(now) {
		return nil
	}

	count, err := s.repo.CountCreatedSince(ctx, offererID, now.Add(-24*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to count offers: %w", err)
	}
	if count >= NewAccountDailyOffers {
		return fmt.Errorf("new accounts can make %d offers a day: %w", NewAccountDailyOffers, apperror.ErrRateLimitExceeded)
	}
	return nil
}

func (s *service) CreateOffer(ctx context.Context, offererID uuid.UUID, req offerDto.CreateOfferRequest) (*entity.Offer, error) {
	listing, err := s.listings.FindByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing.OwnerID == offererID {
		return nil, fmt.Errorf("cannot make an offer on your own listing: %w", apperror.ErrInvalidInput)
	}
	if listing.Status != entity.ListingActive {
		return nil, fmt.Errorf("listing is not available: %w", apperror.ErrConflict)
	}

	blocked, err := s.blocks.IsBlockedEitherWay(ctx, offererID, listing.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocks: %w", err)
	}
	if blocked {
		return nil, fmt.Errorf("cannot make an offer to this user: %w", apperror.ErrForbidden)
	}

	open, err := s.repo.HasOpenOffer(ctx, listing.ID, offererID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open offers: %w", err)
	}
	if open {
		return nil, fmt.Errorf("you already have an open offer on this listing: %w", apperror.ErrConflict)
	}

	now := s.now()
	if err := s.checkNewAccountLimit(ctx, offererID, now); err != nil {
		return nil, err
	}

	items, err := s.buildItems(ctx, req.Items, offererID)
	if err != nil {
		return nil, err
	}

	offer := &entity.Offer{
		ListingID: listing.ID,
		OffererID: offererID,
		OwnerID:   listing.OwnerID,
		Message:   req.Message,
		Status:    entity.OfferPending,
		ExpiresAt: now.Add(entity.OfferTTL),
		Items:     items,
	}
	if err := s.repo.Create(ctx, offer, msgOfferCreated); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.notifyOffer(ctx, "offer_received", s.notifier.NotifyOfferReceived, notification.OfferEvent{
		RecipientID:  listing.OwnerID,
		OfferID:      offer.ID,
		ListingID:    listing.ID,
		ActorName:    s.displayName(ctx, offererID),
		ListingTitle: listing.Title,
	})
	s.publish(ctx, events.OfferCreated, offer)

	return offer, nil
}

func permissionsFor(offer *entity.Offer, userID uuid.UUID) offerDto.OfferPermissions {
	isOwner := offer.OwnerID == userID
	negotiable := offer.Status.IsNegotiable()
	ownFlag := offer.OwnerCompleted
	if offer.OffererID == userID {
		ownFlag = offer.OffererCompleted
	}
	return offerDto.OfferPermissions{
		CanAccept:   isOwner && negotiable,
		CanDecline:  isOwner && negotiable,
		CanCounter:  isOwner && negotiable,
		CanSchedule: offer.Status == entity.OfferAccepted,
		CanComplete: offer.Status == entity.OfferAccepted && !ownFlag,
		CanReview:   offer.Status == entity.OfferCompleted,
	}
}

func (s *service) GetOffer(ctx context.Context, userID, offerID uuid.UUID) (*offerDto.OfferDetailResponse, error) {
	offer, err := s.loadAsParticipant(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}
	return &offerDto.OfferDetailResponse{
		Offer:       offer,
		IsOfferer:   offer.OffererID == userID,
		Permissions: permissionsFor(offer, userID),
	}, nil
}

func (s *service) ListOffers(ctx context.Context, userID uuid.UUID, query offerDto.ListOffersQuery) ([]entity.Offer, error) {
	filter := offerRepo.ListFilter{
		Sent:   query.Type == "sent",
		Status: entity.OfferStatus(query.Status),
		Limit:  query.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	return s.repo.List(ctx, userID, filter)
}

// notifyOffer delivers a best-effort notification. Failures never undo the
// transition that caused them.
func (s *service) notifyOffer(ctx context.Context, kind string, fn func(context.Context, notification.OfferEvent) (*notification.CreateResult, error), ev notification.OfferEvent) {
	if _, err := fn(ctx, ev); err != nil {
		s.logger.Warn("failed to notify",
			zap.String("kind", kind),
			zap.String("offer_id", ev.OfferID.String()),
			zap.String("recipient_id", ev.RecipientID.String()),
			zap.Error(err),
		)
	}
}

func (s *service) publish(ctx context.Context, eventType string, offer *entity.Offer) {
	if err := s.publisher.Publish(ctx, eventType, offer.ID.String(), map[string]any{
		"offer_id":   offer.ID,
		"listing_id": offer.ListingID,
		"offerer_id": offer.OffererID,
		"owner_id":   offer.OwnerID,
		"status":     offer.Status,
	}); err != nil {
		s.logger.Warn("failed to publish offer event", zap.String("type", eventType), zap.Error(err))
	}
}
