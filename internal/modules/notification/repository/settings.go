package repository

import (
	"context"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.NotificationSettings, error)
	Save(ctx context.Context, settings *entity.NotificationSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetOrCreate inserts the default row unless one exists, then reads back
// whichever row won. Concurrent callers converge on one row through the
// unique user_id index.
func (r *settingsRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.NotificationSettings, error) {
	defaults := entity.DefaultNotificationSettings(userID)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&defaults).Error
	if err != nil {
		return nil, err
	}

	var settings entity.NotificationSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *entity.NotificationSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
