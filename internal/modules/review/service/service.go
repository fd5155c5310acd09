package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/localswap/internal/entity"
	notification "anoa.com/localswap/internal/modules/notification/service"
	reviewDto "anoa.com/localswap/internal/modules/review/dto"
	reviewRepo "anoa.com/localswap/internal/modules/review/repository"
	"anoa.com/localswap/pkg/apperror"
	commonDto "anoa.com/localswap/pkg/dto"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OfferReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error)
}

type Service interface {
	CreateReview(ctx context.Context, reviewerID uuid.UUID, req reviewDto.CreateReviewRequest) (*reviewDto.CreateReviewResponse, error)
	ListReviews(ctx context.Context, query reviewDto.ListReviewsQuery) (*commonDto.Paginated[entity.Review], error)
}

type service struct {
	repo     reviewRepo.ReviewRepository
	offers   OfferReader
	notifier notification.Notifier
	logger   *zap.Logger
}

func NewService(repo reviewRepo.ReviewRepository, offers OfferReader, notifier notification.Notifier, logger *zap.Logger) Service {
	return &service{repo: repo, offers: offers, notifier: notifier, logger: logger}
}

func normalizeTags(tags []string) pq.StringArray {
	seen := make(map[string]bool, len(tags))
	out := pq.StringArray{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (s *service) CreateReview(ctx context.Context, reviewerID uuid.UUID, req reviewDto.CreateReviewRequest) (*reviewDto.CreateReviewResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", apperror.ErrInvalidInput)
	}

	offer, err := s.offers.FindByID(ctx, req.OfferID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("offer not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	if !offer.IsParticipant(reviewerID) {
		return nil, fmt.Errorf("offer not found: %w", apperror.ErrNotFound)
	}
	if offer.Status != entity.OfferCompleted {
		return nil, fmt.Errorf("only completed trades can be reviewed: %w", apperror.ErrConflict)
	}

	var comment *string
	if req.Comment != nil {
		if c := strings.TrimSpace(*req.Comment); c != "" {
			comment = &c
		}
	}

	review := &entity.Review{
		OfferID:    offer.ID,
		ReviewerID: reviewerID,
		RevieweeID: offer.Counterparty(reviewerID),
		Rating:     req.Rating,
		Tags:       normalizeTags(req.Tags),
		Comment:    comment,
	}
	revealed, err := s.repo.Create(ctx, review, [2]uuid.UUID{offer.OffererID, offer.OwnerID})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("you already reviewed this trade: %w", apperror.ErrConflict)
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	for i := range revealed {
		s.notifyReceived(ctx, offer, &revealed[i])
	}

	return &reviewDto.CreateReviewResponse{ID: review.ID, Visible: len(revealed) > 0}, nil
}

func (s *service) notifyReceived(ctx context.Context, offer *entity.Offer, review *entity.Review) {
	reviewer := offer.Owner
	if review.ReviewerID == offer.OffererID {
		reviewer = offer.Offerer
	}
	if reviewer == nil {
		reviewer = &entity.User{}
	}

	if _, err := s.notifier.NotifyReviewReceived(ctx, review.RevieweeID, offer.ID, reviewer.DisplayName(), review.Rating); err != nil {
		s.logger.Warn("failed to notify review",
			zap.String("offer_id", offer.ID.String()),
			zap.String("recipient_id", review.RevieweeID.String()),
			zap.Error(err),
		)
	}
}

func (s *service) ListReviews(ctx context.Context, query reviewDto.ListReviewsQuery) (*commonDto.Paginated[entity.Review], error) {
	offset := query.Normalize()
	reviews, total, err := s.repo.ListReceived(ctx, query.UserID, offset, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return &commonDto.Paginated[entity.Review]{
		Data: reviews,
		Meta: commonDto.NewPaginationMeta(query.PageQuery, total),
	}, nil
}
