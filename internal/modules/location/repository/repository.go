package repository

import (
	"context"
	"errors"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LocationRepository interface {
	// Activate stores loc as the user's active location of its type and
	// deactivates any previous one of the same type.
	Activate(ctx context.Context, loc *entity.Location) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Location, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Location, error)
	// FindPrimary returns the user's active location, home before traveler,
	// or nil when the user has none.
	FindPrimary(ctx context.Context, userID uuid.UUID) (*entity.Location, error)
}

type locationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Activate(ctx context.Context, loc *entity.Location) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return activate(tx, loc)
	})
}

func activate(tx *gorm.DB, loc *entity.Location) error {
	if err := deactivate(tx, loc.UserID, loc.Type); err != nil {
		return err
	}
	loc.IsActive = true
	return tx.Create(loc).Error
}

func deactivate(tx *gorm.DB, userID uuid.UUID, locType entity.LocationType) error {
	return tx.Model(&entity.Location{}).
		Where("user_id = ? AND type = ? AND is_active = ?", userID, locType, true).
		Update("is_active", false).Error
}

func (r *locationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Location, error) {
	var loc entity.Location
	if err := r.db.WithContext(ctx).First(&loc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Location, error) {
	var locations []entity.Location
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_active DESC").
		Order("created_at DESC").
		Find(&locations).Error
	return locations, err
}

func (r *locationRepository) FindPrimary(ctx context.Context, userID uuid.UUID) (*entity.Location, error) {
	var loc entity.Location
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order(homeFirst).
		Order("created_at DESC").
		First(&loc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

const homeFirst = "CASE WHEN type = 'home' THEN 0 ELSE 1 END"
