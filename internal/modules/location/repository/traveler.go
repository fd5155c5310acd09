package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TravelerRepository interface {
	// Activate replaces any active traveler profile and traveler location of
	// the user with profile and loc, in one transaction.
	Activate(ctx context.Context, profile *entity.TravelerProfile, loc *entity.Location) error
	// FindActive returns the user's active profile with its location, or nil.
	FindActive(ctx context.Context, userID uuid.UUID) (*entity.TravelerProfile, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	// Deactivate turns traveler mode off for the user and reports whether a
	// profile was active.
	Deactivate(ctx context.Context, userID uuid.UUID) (bool, error)
	// DeactivateEnded turns off every profile whose end date is before now,
	// along with its location.
	DeactivateEnded(ctx context.Context, now time.Time) (int64, error)
}

type travelerRepository struct {
	db *gorm.DB
}

func NewTravelerRepository(db *gorm.DB) TravelerRepository {
	return &travelerRepository{db: db}
}

func (r *travelerRepository) Activate(ctx context.Context, profile *entity.TravelerProfile, loc *entity.Location) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.TravelerProfile{}).
			Where("user_id = ? AND is_active = ?", profile.UserID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		if err := activate(tx, loc); err != nil {
			return err
		}

		profile.LocationID = loc.ID
		profile.IsActive = true
		return tx.Omit("Location").Create(profile).Error
	})
}

func (r *travelerRepository) FindActive(ctx context.Context, userID uuid.UUID) (*entity.TravelerProfile, error) {
	var profile entity.TravelerProfile
	err := r.db.WithContext(ctx).
		Preload("Location").
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *travelerRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&entity.TravelerProfile{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *travelerRepository) Deactivate(ctx context.Context, userID uuid.UUID) (bool, error) {
	var found bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.TravelerProfile{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false)
		if result.Error != nil {
			return result.Error
		}
		found = result.RowsAffected > 0
		return deactivate(tx, userID, entity.LocationTraveler)
	})
	return found, err
}

func (r *travelerRepository) DeactivateEnded(ctx context.Context, now time.Time) (int64, error) {
	var ended int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profiles []entity.TravelerProfile
		if err := tx.Where("is_active = ? AND end_date < ?", true, now).Find(&profiles).Error; err != nil {
			return err
		}
		if len(profiles) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(profiles))
		locationIDs := make([]uuid.UUID, len(profiles))
		for i, p := range profiles {
			ids[i] = p.ID
			locationIDs[i] = p.LocationID
		}

		result := tx.Model(&entity.TravelerProfile{}).
			Where("id IN ? AND is_active = ?", ids, true).
			Update("is_active", false)
		if result.Error != nil {
			return result.Error
		}
		ended = result.RowsAffected

		return tx.Model(&entity.Location{}).
			Where("id IN ?", locationIDs).
			Update("is_active", false).Error
	})
	return ended, err
}
