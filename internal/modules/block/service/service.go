package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/localswap/internal/entity"
	blockDto "anoa.com/localswap/internal/modules/block/dto"
	blockRepo "anoa.com/localswap/internal/modules/block/repository"
	"anoa.com/localswap/pkg/apperror"
	"anoa.com/localswap/pkg/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	BlockUser(ctx context.Context, blockerID uuid.UUID, req blockDto.BlockUserRequest) (*blockDto.BlockUserResponse, error)
	UnblockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error
	ListBlocks(ctx context.Context, blockerID uuid.UUID) ([]entity.Block, error)
	IsBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error)
	RelatedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type service struct {
	repo      blockRepo.BlockRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewService(repo blockRepo.BlockRepository, publisher events.Publisher, logger *zap.Logger) Service {
	return &service{repo: repo, publisher: publisher, logger: logger}
}

func (s *service) BlockUser(ctx context.Context, blockerID uuid.UUID, req blockDto.BlockUserRequest) (*blockDto.BlockUserResponse, error) {
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("user to block is required: %w", apperror.ErrInvalidInput)
	}
	if req.UserID == blockerID {
		return nil, fmt.Errorf("cannot block yourself: %w", apperror.ErrInvalidInput)
	}

	block := &entity.Block{
		BlockerID: blockerID,
		BlockedID: req.UserID,
		Reason:    req.Reason,
	}
	cancelled, err := s.repo.Create(ctx, block)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user already blocked: %w", apperror.ErrConflict)
		}
		return nil, fmt.Errorf("failed to block user: %w", err)
	}

	for _, offer := range cancelled {
		if err := s.publisher.Publish(ctx, events.OfferCancelled, offer.ID.String(), map[string]any{
			"offer_id":   offer.ID,
			"listing_id": offer.ListingID,
			"reason":     "blocked",
		}); err != nil {
			s.logger.Warn("failed to publish offer cancellation", zap.Error(err))
		}
	}

	return &blockDto.BlockUserResponse{
		BlockID:         block.ID,
		CancelledOffers: len(cancelled),
	}, nil
}

func (s *service) UnblockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("block not found: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *service) ListBlocks(ctx context.Context, blockerID uuid.UUID) ([]entity.Block, error) {
	return s.repo.ListByBlocker(ctx, blockerID)
}

func (s *service) IsBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return s.repo.IsBlockedEitherWay(ctx, a, b)
}

func (s *service) RelatedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.RelatedUserIDs(ctx, userID)
}
