package repository

import (
	"context"

	"anoa.com/localswap/internal/entity"
	offerRepo "anoa.com/localswap/internal/modules/offer/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlockRepository interface {
	// Create stores the block and cancels live offers between the two users
	// in the same transaction. It returns the cancelled offers.
	Create(ctx context.Context, block *entity.Block) ([]entity.Offer, error)
	Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (int64, error)
	ListByBlocker(ctx context.Context, blockerID uuid.UUID) ([]entity.Block, error)
	IsBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error)
	// RelatedUserIDs returns everyone userID blocked or was blocked by.
	RelatedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type blockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) Create(ctx context.Context, block *entity.Block) ([]entity.Offer, error) {
	var cancelled []entity.Offer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(block).Error; err != nil {
			return err
		}

		var err error
		cancelled, err = offerRepo.CancelBetween(tx, block.BlockerID, block.BlockedID)
		return err
	})
	return cancelled, err
}

func (r *blockRepository) Delete(ctx context.Context, blockerID, blockedID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&entity.Block{})
	return result.RowsAffected, result.Error
}

func (r *blockRepository) ListByBlocker(ctx context.Context, blockerID uuid.UUID) ([]entity.Block, error) {
	var blocks []entity.Block
	err := r.db.WithContext(ctx).
		Where("blocker_id = ?", blockerID).
		Order("created_at DESC").
		Find(&blocks).Error
	return blocks, err
}

func (r *blockRepository) IsBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (r *blockRepository) RelatedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var blocks []entity.Block
	if err := r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&blocks).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(blocks))
	for _, b := range blocks {
		if b.BlockerID == userID {
			ids = append(ids, b.BlockedID)
		} else {
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}
