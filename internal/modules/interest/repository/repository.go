package repository

import (
	"context"
	"time"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterestRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.UserInterest, error)
	// ListByCategory returns every interest in category except those held by
	// excludeUserID.
	ListByCategory(ctx context.Context, category entity.Category, excludeUserID uuid.UUID) ([]entity.UserInterest, error)
	Upsert(ctx context.Context, interest *entity.UserInterest) error
	Delete(ctx context.Context, userID uuid.UUID, category entity.Category) (int64, error)
	Replace(ctx context.Context, userID uuid.UUID, interests []entity.UserInterest) error
}

type interestRepository struct {
	db *gorm.DB
}

func NewInterestRepository(db *gorm.DB) InterestRepository {
	return &interestRepository{db: db}
}

func (r *interestRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.UserInterest, error) {
	var interests []entity.UserInterest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("category ASC").
		Find(&interests).Error
	return interests, err
}

func (r *interestRepository) ListByCategory(ctx context.Context, category entity.Category, excludeUserID uuid.UUID) ([]entity.UserInterest, error) {
	var interests []entity.UserInterest
	err := r.db.WithContext(ctx).
		Where("category = ? AND user_id <> ?", category, excludeUserID).
		Find(&interests).Error
	return interests, err
}

func upsertClause() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"keywords", "radius_miles", "updated_at"}),
	}
}

func (r *interestRepository) Upsert(ctx context.Context, interest *entity.UserInterest) error {
	return r.db.WithContext(ctx).Clauses(upsertClause()).Create(interest).Error
}

func (r *interestRepository) Delete(ctx context.Context, userID uuid.UUID, category entity.Category) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, category).
		Delete(&entity.UserInterest{})
	return result.RowsAffected, result.Error
}

func (r *interestRepository) Replace(ctx context.Context, userID uuid.UUID, interests []entity.UserInterest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entity.UserInterest{}).Error; err != nil {
			return err
		}
		if len(interests) == 0 {
			return nil
		}
		return tx.Create(&interests).Error
	})
}

type PendingMatchRepository interface {
	Enqueue(ctx context.Context, match *entity.PendingInterestMatch) error
	ListUnprocessed(ctx context.Context) ([]entity.PendingInterestMatch, error)
	// Claim marks one row processed. It reports false when another run got
	// there first.
	Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type pendingMatchRepository struct {
	db *gorm.DB
}

func NewPendingMatchRepository(db *gorm.DB) PendingMatchRepository {
	return &pendingMatchRepository{db: db}
}

func (r *pendingMatchRepository) Enqueue(ctx context.Context, match *entity.PendingInterestMatch) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func (r *pendingMatchRepository) ListUnprocessed(ctx context.Context) ([]entity.PendingInterestMatch, error) {
	var matches []entity.PendingInterestMatch
	err := r.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&matches).Error
	return matches, err
}

func (r *pendingMatchRepository) Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.PendingInterestMatch{}).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]interface{}{
			"processed":    true,
			"processed_at": now,
		})
	return result.RowsAffected == 1, result.Error
}
