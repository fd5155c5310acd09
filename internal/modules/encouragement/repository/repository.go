package repository

import (
	"context"
	"time"

	"anoa.com/localswap/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuoteRepository interface {
	// ClaimNext picks the least recently used active quote, never-used first,
	// and stamps it with now.
	ClaimNext(ctx context.Context, now time.Time) (*entity.DailyQuote, error)
	SeedIfEmpty(ctx context.Context, quotes []entity.DailyQuote) (int, error)
}

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) ClaimNext(ctx context.Context, now time.Time) (*entity.DailyQuote, error) {
	var quote entity.DailyQuote
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("is_active = ?", true).
			Order("used_at ASC NULLS FIRST").
			Order("created_at ASC").
			First(&quote).Error; err != nil {
			return err
		}
		quote.UsedAt = &now
		return tx.Model(&quote).Update("used_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) SeedIfEmpty(ctx context.Context, quotes []entity.DailyQuote) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DailyQuote{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 || len(quotes) == 0 {
		return 0, nil
	}
	if err := r.db.WithContext(ctx).Create(&quotes).Error; err != nil {
		return 0, err
	}
	return len(quotes), nil
}
