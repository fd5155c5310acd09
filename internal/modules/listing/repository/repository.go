package repository

import (
	"context"
	"fmt"
	"time"

	"anoa.com/localswap/internal/entity"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Listing, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Listing, error)
	// AddPhotos appends photos and, when the listing is still a draft,
	// activates it. activated is true only for the call that made the
	// draft → active change.
	AddPhotos(ctx context.Context, listingID uuid.UUID, urls []string, now time.Time) (photos []entity.ListingPhoto, activated bool, err error)
	DeletePhoto(ctx context.Context, listingID, photoID uuid.UUID) (*entity.ListingPhoto, error)
	// Update applies fields to a draft or active listing. It reports false
	// when the listing is in any other state.
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (bool, error)
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	return r.db.WithContext(ctx).Omit("Owner", "Location", "Photos").Create(listing).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	var listing entity.Listing
	if err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("Owner.Profile").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var listings []entity.Listing
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&listings).Error
	return listings, err
}

func (r *listingRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]entity.Listing, error) {
	var listings []entity.Listing
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status <> ?", ownerID, entity.ListingDeleted).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

func (r *listingRepository) AddPhotos(ctx context.Context, listingID uuid.UUID, urls []string, now time.Time) ([]entity.ListingPhoto, bool, error) {
	var photos []entity.ListingPhoto
	activated := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing entity.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", listingID).
			First(&listing).Error; err != nil {
			return err
		}

		if listing.Status == entity.ListingDeleted || listing.Status == entity.ListingTraded {
			return fmt.Errorf("listing is %s: %w", listing.Status, apperror.ErrConflict)
		}
		if listing.PhotoCount+len(urls) > entity.MaxListingPhotos {
			return fmt.Errorf("a listing can have at most %d photos: %w", entity.MaxListingPhotos, apperror.ErrInvalidInput)
		}

		photos = make([]entity.ListingPhoto, len(urls))
		for i, url := range urls {
			photos[i] = entity.ListingPhoto{
				ListingID: listingID,
				URL:       url,
				Position:  listing.PhotoCount + i,
			}
		}
		if err := tx.Create(&photos).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"photo_count": listing.PhotoCount + len(urls),
		}
		if listing.PrimaryPhotoURL == nil {
			updates["primary_photo_url"] = urls[0]
		}
		if err := tx.Model(&entity.Listing{}).Where("id = ?", listingID).Updates(updates).Error; err != nil {
			return err
		}

		result := tx.Model(&entity.Listing{}).
			Where("id = ? AND status = ?", listingID, entity.ListingDraft).
			Updates(map[string]interface{}{
				"status":       entity.ListingActive,
				"activated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		activated = result.RowsAffected == 1
		return nil
	})
	return photos, activated, err
}

func (r *listingRepository) DeletePhoto(ctx context.Context, listingID, photoID uuid.UUID) (*entity.ListingPhoto, error) {
	var photo entity.ListingPhoto
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", listingID).
			First(&entity.Listing{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ? AND listing_id = ?", photoID, listingID).First(&photo).Error; err != nil {
			return err
		}
		if err := tx.Delete(&photo).Error; err != nil {
			return err
		}

		var remaining []entity.ListingPhoto
		if err := tx.Where("listing_id = ?", listingID).
			Order("position ASC").
			Order("created_at ASC").
			Find(&remaining).Error; err != nil {
			return err
		}
		for _, moved := range CompactPositions(remaining) {
			if err := tx.Model(&entity.ListingPhoto{}).
				Where("id = ?", moved.ID).
				Update("position", moved.Position).Error; err != nil {
				return err
			}
		}

		var primaryURL interface{}
		if len(remaining) > 0 {
			primaryURL = remaining[0].URL
		}
		return tx.Model(&entity.Listing{}).
			Where("id = ?", listingID).
			Updates(map[string]interface{}{
				"photo_count":       len(remaining),
				"primary_photo_url": primaryURL,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// CompactPositions renumbers photos, already sorted by position, to 0..n-1
// in place and returns the ones whose position changed. AddPhotos appends at
// photo_count, so gaps left by a delete would otherwise produce duplicates.
func CompactPositions(photos []entity.ListingPhoto) []entity.ListingPhoto {
	var moved []entity.ListingPhoto
	for i := range photos {
		if photos[i].Position != i {
			photos[i].Position = i
			moved = append(moved, photos[i])
		}
	}
	return moved
}

func (r *listingRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Listing{}).
		Where("id = ? AND status IN ?", id, []entity.ListingStatus{entity.ListingDraft, entity.ListingActive}).
		Updates(fields)
	return result.RowsAffected == 1, result.Error
}

func (r *listingRepository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Listing{}).
		Where("id = ? AND status IN ?", id, []entity.ListingStatus{entity.ListingDraft, entity.ListingActive}).
		Update("status", entity.ListingDeleted)
	return result.RowsAffected == 1, result.Error
}
