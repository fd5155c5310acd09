package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"anoa.com/localswap/internal/entity"
	interest "anoa.com/localswap/internal/modules/interest/service"
	listingDto "anoa.com/localswap/internal/modules/listing/dto"
	listingRepo "anoa.com/localswap/internal/modules/listing/repository"
	search "anoa.com/localswap/internal/modules/search/service"
	"anoa.com/localswap/pkg/apperror"
	"anoa.com/localswap/pkg/events"
	"anoa.com/localswap/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
	maxSearchRadius    = 100
	activationTimeout  = 30 * time.Second
)

type LocationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Location, error)
	FindPrimary(ctx context.Context, userID uuid.UUID) (*entity.Location, error)
}

type BlockReader interface {
	IsBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error)
	RelatedUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type Service interface {
	CreateListing(ctx context.Context, ownerID uuid.UUID, req listingDto.CreateListingRequest) (*entity.Listing, error)
	GetListing(ctx context.Context, viewerID, id uuid.UUID) (*entity.Listing, error)
	ListMyListings(ctx context.Context, ownerID uuid.UUID) ([]entity.Listing, error)
	AddPhotos(ctx context.Context, ownerID, listingID uuid.UUID, files []listingDto.PhotoFile) (*listingDto.AddPhotosResponse, error)
	DeletePhoto(ctx context.Context, ownerID, listingID, photoID uuid.UUID) error
	UpdateListing(ctx context.Context, ownerID, id uuid.UUID, req listingDto.UpdateListingRequest) (*entity.Listing, error)
	DeleteListing(ctx context.Context, ownerID, id uuid.UUID) error
	SearchListings(ctx context.Context, viewerID uuid.UUID, q listingDto.SearchListingsQuery) (*search.SearchResult, error)
}

type service struct {
	repo      listingRepo.ListingRepository
	locations LocationReader
	blocks    BlockReader
	storage   storage.ImageStorage
	index     search.ListingIndex
	matcher   interest.Matcher
	publisher events.Publisher
	logger    *zap.Logger

	now     func() time.Time
	goAsync func(func())
}

func NewService(
	repo listingRepo.ListingRepository,
	locations LocationReader,
	blocks BlockReader,
	imageStorage storage.ImageStorage,
	index search.ListingIndex,
	matcher interest.Matcher,
	publisher events.Publisher,
	logger *zap.Logger,
) Service {
	return &service{
		repo:      repo,
		locations: locations,
		blocks:    blocks,
		storage:   imageStorage,
		index:     index,
		matcher:   matcher,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		goAsync:   func(fn func()) { go fn() },
	}
}

func (s *service) resolveLocation(ctx context.Context, ownerID uuid.UUID, id *uuid.UUID) (*entity.Location, error) {
	if id == nil {
		loc, err := s.locations.FindPrimary(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load location: %w", err)
		}
		if loc == nil {
			return nil, fmt.Errorf("set a location before listing: %w", apperror.ErrInvalidInput)
		}
		return loc, nil
	}

	loc, err := s.locations.FindByID(ctx, *id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("location not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load location: %w", err)
	}
	if loc.UserID != ownerID {
		return nil, fmt.Errorf("location not found: %w", apperror.ErrNotFound)
	}
	return loc, nil
}

func buildWants(wantsType string, categories []string, description *string, listing *entity.Listing) error {
	listing.WantsType = entity.WantsType(wantsType)
	if listing.WantsType == "" {
		listing.WantsType = entity.WantsOpen
	}
	listing.WantsCategories = nil
	listing.WantsDescription = nil

	switch listing.WantsType {
	case entity.WantsCategories:
		if len(categories) == 0 {
			return fmt.Errorf("wanted categories are required: %w", apperror.ErrInvalidInput)
		}
		for _, c := range categories {
			if !entity.Category(c).IsValid() {
				return fmt.Errorf("unknown wanted category %q: %w", c, apperror.ErrInvalidInput)
			}
		}
		listing.WantsCategories = categories
	case entity.WantsSpecific:
		if description == nil || strings.TrimSpace(*description) == "" {
			return fmt.Errorf("describe what you want in return: %w", apperror.ErrInvalidInput)
		}
		wanted := strings.TrimSpace(*description)
		listing.WantsDescription = &wanted
	}
	return nil
}

func (s *service) CreateListing(ctx context.Context, ownerID uuid.UUID, req listingDto.CreateListingRequest) (*entity.Listing, error) {
	category := entity.Category(req.Category)
	if !category.IsValid() {
		return nil, fmt.Errorf("unknown category %q: %w", req.Category, apperror.ErrInvalidInput)
	}
	title := strings.TrimSpace(req.Title)
	if len([]rune(title)) < 3 {
		return nil, fmt.Errorf("title must be at least 3 characters: %w", apperror.ErrInvalidInput)
	}

	loc, err := s.resolveLocation(ctx, ownerID, req.LocationID)
	if err != nil {
		return nil, err
	}

	listing := &entity.Listing{
		OwnerID:     ownerID,
		LocationID:  loc.ID,
		Title:       title,
		Description: req.Description,
		Category:    category,
		Subcategory: req.Subcategory,
		IsService:   req.IsService || category == entity.CategoryServices,
		Status:      entity.ListingDraft,
	}
	if req.Condition != nil && !listing.IsService {
		condition := entity.Condition(*req.Condition)
		listing.Condition = &condition
	}
	if err := buildWants(req.WantsType, req.WantsCategories, req.WantsDescription, listing); err != nil {
		return nil, err
	}

	// services have nothing to photograph, so they go live immediately
	if listing.IsService {
		now := s.now()
		listing.Status = entity.ListingActive
		listing.ActivatedAt = &now
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	listing.Location = loc

	if listing.Status == entity.ListingActive {
		s.onActivated(listing.ID)
	}
	return listing, nil
}

// onActivated runs the activation side effects for the caller that won the
// draft → active change. It must be called at most once per listing.
func (s *service) onActivated(listingID uuid.UUID) {
	s.goAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), activationTimeout)
		defer cancel()

		listing, err := s.repo.FindByID(ctx, listingID)
		if err != nil {
			s.logger.Error("failed to reload activated listing", zap.String("listing_id", listingID.String()), zap.Error(err))
			return
		}

		if s.matcher != nil {
			if _, err := s.matcher.OnListingActivated(ctx, listingID); err != nil {
				s.logger.Error("interest matching failed", zap.String("listing_id", listingID.String()), zap.Error(err))
			}
		}

		if s.index != nil {
			if err := s.index.IndexListing(ctx, listing); err != nil {
				s.logger.Warn("failed to index listing", zap.String("listing_id", listingID.String()), zap.Error(err))
			}
		}

		if err := s.publisher.Publish(ctx, events.ListingActivated, listingID.String(), map[string]any{
			"listing_id": listing.ID,
			"owner_id":   listing.OwnerID,
			"category":   listing.Category,
			"is_service": listing.IsService,
		}); err != nil {
			s.logger.Warn("failed to publish listing activation", zap.Error(err))
		}
	})
}

func (s *service) findOwned(ctx context.Context, ownerID, id uuid.UUID) (*entity.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing.Status == entity.ListingDeleted {
		return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
	}
	if listing.OwnerID != ownerID {
		return nil, fmt.Errorf("only the owner can change this listing: %w", apperror.ErrForbidden)
	}
	return listing, nil
}

func (s *service) GetListing(ctx context.Context, viewerID, id uuid.UUID) (*entity.Listing, error) {
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing.OwnerID == viewerID {
		return listing, nil
	}
	if listing.Status == entity.ListingDeleted || listing.Status == entity.ListingDraft {
		return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
	}

	blocked, err := s.blocks.IsBlockedEitherWay(ctx, viewerID, listing.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blocks: %w", err)
	}
	if blocked {
		return nil, fmt.Errorf("listing not found: %w", apperror.ErrNotFound)
	}
	return listing, nil
}

func (s *service) ListMyListings(ctx context.Context, ownerID uuid.UUID) ([]entity.Listing, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *service) AddPhotos(ctx context.Context, ownerID, listingID uuid.UUID, files []listingDto.PhotoFile) (*listingDto.AddPhotosResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one photo is required: %w", apperror.ErrInvalidInput)
	}
	if len(files) > entity.MaxListingPhotos {
		return nil, fmt.Errorf("a listing can have at most %d photos: %w", entity.MaxListingPhotos, apperror.ErrInvalidInput)
	}

	listing, err := s.findOwned(ctx, ownerID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.PhotoCount+len(files) > entity.MaxListingPhotos {
		return nil, fmt.Errorf("a listing can have at most %d photos: %w", entity.MaxListingPhotos, apperror.ErrInvalidInput)
	}

	folder := "listings/" + listingID.String()
	urls := make([]string, 0, len(files))
	for _, f := range files {
		name := uuid.NewString() + strings.ToLower(filepath.Ext(f.FileName))
		url, err := s.storage.UploadImage(ctx, f.Reader, f.Size, folder, name)
		if err != nil {
			s.discard(urls)
			return nil, fmt.Errorf("failed to upload photo: %w", err)
		}
		urls = append(urls, url)
	}

	photos, activated, err := s.repo.AddPhotos(ctx, listingID, urls, s.now())
	if err != nil {
		s.discard(urls)
		return nil, err
	}

	if activated {
		s.onActivated(listingID)
	}
	return &listingDto.AddPhotosResponse{Photos: photos, Activated: activated}, nil
}

// discard removes uploads that never made it into the database.
func (s *service) discard(urls []string) {
	for _, url := range urls {
		if err := s.storage.DeleteImage(context.Background(), url); err != nil {
			s.logger.Warn("failed to remove orphaned photo", zap.String("url", url), zap.Error(err))
		}
	}
}

func (s *service) DeletePhoto(ctx context.Context, ownerID, listingID, photoID uuid.UUID) error {
	if _, err := s.findOwned(ctx, ownerID, listingID); err != nil {
		return err
	}

	photo, err := s.repo.DeletePhoto(ctx, listingID, photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("photo not found: %w", apperror.ErrNotFound)
		}
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	if err := s.storage.DeleteImage(ctx, photo.URL); err != nil {
		s.logger.Warn("failed to delete photo from storage", zap.String("url", photo.URL), zap.Error(err))
	}
	return nil
}

func (s *service) UpdateListing(ctx context.Context, ownerID, id uuid.UUID, req listingDto.UpdateListingRequest) (*entity.Listing, error) {
	listing, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if listing.Status == entity.ListingTraded {
		return nil, fmt.Errorf("traded listings cannot be edited: %w", apperror.ErrConflict)
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if len([]rune(title)) < 3 {
			return nil, fmt.Errorf("title must be at least 3 characters: %w", apperror.ErrInvalidInput)
		}
		fields["title"] = title
	}
	if req.Description != nil {
		fields["description"] = normalizeOptional(*req.Description)
	}
	if req.Subcategory != nil {
		fields["subcategory"] = normalizeOptional(*req.Subcategory)
	}
	if req.Condition != nil {
		if listing.IsService {
			return nil, fmt.Errorf("services have no condition: %w", apperror.ErrInvalidInput)
		}
		fields["condition"] = entity.Condition(*req.Condition)
	}

	if req.WantsType != nil || req.WantsCategories != nil || req.WantsDescription != nil {
		wantsType := string(listing.WantsType)
		if req.WantsType != nil {
			wantsType = *req.WantsType
		}
		categories := []string(listing.WantsCategories)
		if req.WantsCategories != nil {
			categories = req.WantsCategories
		}
		description := listing.WantsDescription
		if req.WantsDescription != nil {
			description = req.WantsDescription
		}

		var wants entity.Listing
		if err := buildWants(wantsType, categories, description, &wants); err != nil {
			return nil, err
		}
		fields["wants_type"] = wants.WantsType
		fields["wants_categories"] = wants.WantsCategories
		fields["wants_description"] = wants.WantsDescription
	}

	if len(fields) == 0 {
		return listing, nil
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("listing can no longer be edited: %w", apperror.ErrConflict)
	}

	listing, err = s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload listing: %w", err)
	}

	if listing.Status == entity.ListingActive {
		if s.index != nil {
			if err := s.index.IndexListing(ctx, listing); err != nil {
				s.logger.Warn("failed to reindex listing", zap.String("listing_id", id.String()), zap.Error(err))
			}
		}
		if err := s.publisher.Publish(ctx, events.ListingUpdated, id.String(), map[string]any{
			"listing_id": id,
			"owner_id":   listing.OwnerID,
		}); err != nil {
			s.logger.Warn("failed to publish listing update", zap.Error(err))
		}
	}
	return listing, nil
}

// normalizeOptional maps a blank string to NULL.
func normalizeOptional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func (s *service) DeleteListing(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.findOwned(ctx, ownerID, id); err != nil {
		return err
	}

	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if !deleted {
		return fmt.Errorf("listing can no longer be deleted: %w", apperror.ErrConflict)
	}

	if s.index != nil {
		if err := s.index.RemoveListing(ctx, id); err != nil {
			s.logger.Warn("failed to remove listing from index", zap.String("listing_id", id.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *service) SearchListings(ctx context.Context, viewerID uuid.UUID, q listingDto.SearchListingsQuery) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, fmt.Errorf("search is not configured: %w", apperror.ErrInternal)
	}
	if (q.Latitude == nil) != (q.Longitude == nil) {
		return nil, fmt.Errorf("lat and lng must be given together: %w", apperror.ErrInvalidInput)
	}

	query := search.SearchQuery{
		Query:       strings.TrimSpace(q.Query),
		RadiusMiles: q.RadiusMiles,
		IsService:   q.IsService,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}

	if q.Latitude != nil {
		query.Latitude, query.Longitude = *q.Latitude, *q.Longitude
		if query.Latitude < -90 || query.Latitude > 90 || query.Longitude < -180 || query.Longitude > 180 {
			return nil, fmt.Errorf("coordinates out of range: %w", apperror.ErrInvalidInput)
		}
		if query.RadiusMiles == 0 {
			query.RadiusMiles = entity.DefaultRadiusMiles
		}
	} else {
		loc, err := s.locations.FindPrimary(ctx, viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load location: %w", err)
		}
		if loc == nil {
			return nil, fmt.Errorf("set a location or pass lat and lng: %w", apperror.ErrInvalidInput)
		}
		query.Latitude, query.Longitude = loc.Latitude, loc.Longitude
		if query.RadiusMiles == 0 {
			query.RadiusMiles = loc.RadiusMiles
		}
	}
	if query.RadiusMiles < 1 || query.RadiusMiles > maxSearchRadius {
		return nil, fmt.Errorf("radius must be between 1 and %d miles: %w", maxSearchRadius, apperror.ErrInvalidInput)
	}

	if q.Category != "" {
		query.Category = entity.Category(q.Category)
		if !query.Category.IsValid() {
			return nil, fmt.Errorf("unknown category %q: %w", q.Category, apperror.ErrInvalidInput)
		}
	}
	if query.Limit <= 0 {
		query.Limit = defaultSearchLimit
	}
	if query.Limit > maxSearchLimit {
		query.Limit = maxSearchLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	related, err := s.blocks.RelatedUserIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocks: %w", err)
	}
	query.ExcludeOwners = append(related, viewerID)

	return s.index.SearchListings(ctx, query)
}
