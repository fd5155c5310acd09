package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const listingsIndex = "listings"

const metersPerMile = 1609.344

type SearchQuery struct {
	Query         string
	Latitude      float64
	Longitude     float64
	RadiusMiles   int
	Category      entity.Category
	IsService     *bool
	ExcludeOwners []uuid.UUID
	Limit         int
	Offset        int
}

type ListingHit struct {
	ID              uuid.UUID       `json:"id"`
	OwnerID         uuid.UUID       `json:"owner_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Category        entity.Category `json:"category"`
	Condition       string          `json:"condition,omitempty"`
	IsService       bool            `json:"is_service"`
	City            string          `json:"city"`
	PrimaryPhotoURL string          `json:"primary_photo_url,omitempty"`
	CreatedAt       int64           `json:"created_at"`
	DistanceMiles   float64         `json:"distance_miles"`
}

type SearchResult struct {
	Hits  []ListingHit `json:"hits"`
	Total int64        `json:"total"`
}

type ListingIndex interface {
	IndexListing(ctx context.Context, listing *entity.Listing) error
	RemoveListing(ctx context.Context, id uuid.UUID) error
	SearchListings(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

type meiliListingIndex struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

func NewMeiliListingIndex(client meilisearch.ServiceManager, logger *zap.Logger) ListingIndex {
	s := &meiliListingIndex{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
	s.initIndex()
	return s
}

func (s *meiliListingIndex) initIndex() {
	filterable := []string{"_geo", "status", "category", "is_service", "owner_id"}
	filterableInterface := make([]any, len(filterable))
	for i, v := range filterable {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(listingsIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		s.logger.Warn("failed to update listings filterable attributes", zap.Error(err))
	}

	sortable := []string{"_geo", "created_at"}
	if _, err := s.client.Index(listingsIndex).UpdateSortableAttributes(&sortable); err != nil {
		s.logger.Warn("failed to update listings sortable attributes", zap.Error(err))
	}
}

type meiliGeo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type meiliListingDoc struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Condition       string    `json:"condition,omitempty"`
	IsService       bool      `json:"is_service"`
	Status          string    `json:"status"`
	City            string    `json:"city"`
	PrimaryPhotoURL string    `json:"primary_photo_url,omitempty"`
	CreatedAt       int64     `json:"created_at"`
	Geo             *meiliGeo `json:"_geo,omitempty"`
}

// cleanText strips markup from user text before it is indexed.
func (s *meiliListingIndex) cleanText(content string) string {
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</p>", " ")
	sanitized := s.sanitizer.Sanitize(content)
	return strings.Join(strings.Fields(html.UnescapeString(sanitized)), " ")
}

func (s *meiliListingIndex) IndexListing(ctx context.Context, listing *entity.Listing) error {
	doc := meiliListingDoc{
		ID:        listing.ID.String(),
		OwnerID:   listing.OwnerID.String(),
		Title:     s.cleanText(listing.Title),
		Category:  string(listing.Category),
		IsService: listing.IsService,
		Status:    string(listing.Status),
		CreatedAt: listing.CreatedAt.Unix(),
	}
	if listing.Description != nil {
		doc.Description = s.cleanText(*listing.Description)
	}
	if listing.Condition != nil {
		doc.Condition = string(*listing.Condition)
	}
	if listing.PrimaryPhotoURL != nil {
		doc.PrimaryPhotoURL = *listing.PrimaryPhotoURL
	}
	if listing.Location != nil {
		doc.City = listing.Location.City
		doc.Geo = &meiliGeo{Lat: listing.Location.Latitude, Lng: listing.Location.Longitude}
	}

	task, err := s.client.Index(listingsIndex).AddDocuments([]meiliListingDoc{doc}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("failed to index listing: %w", err)
	}
	s.logger.Debug("indexed listing",
		zap.String("listing_id", listing.ID.String()),
		zap.Int64("task_uid", task.TaskUID),
	)
	return nil
}

func (s *meiliListingIndex) RemoveListing(ctx context.Context, id uuid.UUID) error {
	_, err := s.client.Index(listingsIndex).DeleteDocument(id.String())
	return err
}

// BuildFilter assembles the meilisearch filter expression for a query.
// Only active listings inside the radius are ever returned.
func BuildFilter(q SearchQuery) []string {
	radiusMeters := int64(float64(q.RadiusMiles) * metersPerMile)
	filters := []string{
		fmt.Sprintf("status = %s", entity.ListingActive),
		fmt.Sprintf("_geoRadius(%f, %f, %d)", q.Latitude, q.Longitude, radiusMeters),
	}
	if q.Category != "" {
		filters = append(filters, fmt.Sprintf("category = %q", q.Category))
	}
	if q.IsService != nil {
		filters = append(filters, fmt.Sprintf("is_service = %t", *q.IsService))
	}
	if len(q.ExcludeOwners) > 0 {
		quoted := make([]string, len(q.ExcludeOwners))
		for i, id := range q.ExcludeOwners {
			quoted[i] = fmt.Sprintf("%q", id.String())
		}
		filters = append(filters, fmt.Sprintf("owner_id NOT IN [%s]", strings.Join(quoted, ", ")))
	}
	return filters
}

type rawSearchResponse struct {
	Hits []struct {
		ListingHit
		GeoDistance float64 `json:"_geoDistance"`
	} `json:"hits"`
	EstimatedTotalHits int64 `json:"estimatedTotalHits"`
}

func decodeSearchResponse(raw []byte) (*SearchResult, error) {
	var resp rawSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &SearchResult{
		Hits:  make([]ListingHit, len(resp.Hits)),
		Total: resp.EstimatedTotalHits,
	}
	for i, h := range resp.Hits {
		hit := h.ListingHit
		hit.DistanceMiles = h.GeoDistance / metersPerMile
		result.Hits[i] = hit
	}
	return result, nil
}

func (s *meiliListingIndex) SearchListings(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	raw, err := s.client.Index(listingsIndex).SearchRaw(q.Query, &meilisearch.SearchRequest{
		Filter: BuildFilter(q),
		Sort:   []string{fmt.Sprintf("_geoPoint(%f, %f):asc", q.Latitude, q.Longitude)},
		Limit:  int64(q.Limit),
		Offset: int64(q.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	return decodeSearchResponse(*raw)
}

func strPtr(s string) *string {
	return &s
}
