package service

import (
	"testing"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildFilter(t *testing.T) {
	blocked := uuid.MustParse("0190a4c2-0000-7000-8000-000000000001")
	service := true

	filters := BuildFilter(SearchQuery{
		Latitude:      40.5,
		Longitude:     -73.25,
		RadiusMiles:   10,
		Category:      entity.CategoryBooks,
		IsService:     &service,
		ExcludeOwners: []uuid.UUID{blocked},
	})

	assert.Equal(t, []string{
		"status = active",
		"_geoRadius(40.500000, -73.250000, 16093)",
		`category = "books"`,
		"is_service = true",
		`owner_id NOT IN ["0190a4c2-0000-7000-8000-000000000001"]`,
	}, filters)
}

func TestBuildFilter_Minimal(t *testing.T) {
	filters := BuildFilter(SearchQuery{RadiusMiles: 1})
	assert.Len(t, filters, 2)
}

func TestDecodeSearchResponse(t *testing.T) {
	raw := []byte(`{
		"hits": [
			{"id": "0190a4c2-0000-7000-8000-000000000002", "title": "Desk lamp", "category": "household", "_geoDistance": 3218.688},
			{"id": "0190a4c2-0000-7000-8000-000000000003", "title": "Tent", "category": "sports", "_geoDistance": 0}
		],
		"estimatedTotalHits": 7
	}`)

	result, err := decodeSearchResponse(raw)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.EqualValues(t, 7, result.Total)
	assert.Equal(t, "Desk lamp", result.Hits[0].Title)
	assert.InDelta(t, 2.0, result.Hits[0].DistanceMiles, 1e-9)
	assert.Equal(t, entity.CategorySports, result.Hits[1].Category)

	_, err = decodeSearchResponse([]byte(`not json`))
	assert.Error(t, err)
}

func TestCleanText(t *testing.T) {
	s := &meiliListingIndex{sanitizer: bluemonday.StrictPolicy(), logger: zap.NewNop()}
	got := s.cleanText(`<p>Barely used</p><script>alert(1)</script>  bike &amp; helmet`)
	assert.Equal(t, "Barely used bike & helmet", got)
}
