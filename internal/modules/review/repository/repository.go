package repository

import (
	"context"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	// Create stores the review and, when it is the second one for the offer,
	// reveals both and recomputes both trust scores in the same transaction.
	// It returns the revealed pair, or nil while the other review is pending.
	Create(ctx context.Context, review *entity.Review, participants [2]uuid.UUID) ([]entity.Review, error)
	ListReceived(ctx context.Context, revieweeID uuid.UUID, offset, limit int) ([]entity.Review, int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review, participants [2]uuid.UUID) ([]entity.Review, error) {
	var revealed []entity.Review
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize the two reviewers of one offer on the offer row so the
		// second insert always sees the first.
		var offer entity.Offer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", review.OfferID).
			First(&offer).Error; err != nil {
			return err
		}

		if err := tx.Create(review).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&entity.Review{}).Where("offer_id = ?", review.OfferID).Count(&count).Error; err != nil {
			return err
		}
		if count < 2 {
			return nil
		}

		if err := tx.Model(&revealed).
			Clauses(clause.Returning{}).
			Where("offer_id = ?", review.OfferID).
			Update("is_visible", true).Error; err != nil {
			return err
		}

		for _, userID := range participants {
			avg := tx.Model(&entity.Review{}).
				Select("COALESCE(AVG(rating), 0)").
				Where("reviewee_id = ? AND is_visible = ?", userID, true)
			if err := tx.Model(&entity.Profile{}).
				Where("user_id = ?", userID).
				Update("trust_score", avg).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revealed, nil
}

func (r *reviewRepository) ListReceived(ctx context.Context, revieweeID uuid.UUID, offset, limit int) ([]entity.Review, int64, error) {
	var reviews []entity.Review
	var total int64

	query := r.db.WithContext(ctx).Where("reviewee_id = ? AND is_visible = ?", revieweeID, true)
	if err := query.Model(&entity.Review{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}
