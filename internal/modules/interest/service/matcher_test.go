package service

import (
	"context"
	"testing"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	baseLat = 40.0
	baseLng = -75.0
)

type matcherFixture struct {
	owner      uuid.UUID
	listing    *entity.Listing
	interests  *fakeInterestRepo
	pending    *fakePendingRepo
	locations  fakeLocations
	blocks     fakeBlocks
	dispatcher *fakeDispatcher
	matcher    Matcher
}

func newMatcherFixture(t *testing.T) *matcherFixture {
	t.Helper()
	owner := uuid.New()
	description := "Hardcover, great condition"
	listing := &entity.Listing{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       "Vintage Science Fiction Novels",
		Description: &description,
		Category:    entity.CategoryBooks,
		Status:      entity.ListingActive,
		Location:    &entity.Location{Latitude: baseLat, Longitude: baseLng, RadiusMiles: 10},
	}
	f := &matcherFixture{
		owner:      owner,
		listing:    listing,
		interests:  &fakeInterestRepo{},
		pending:    &fakePendingRepo{},
		locations:  fakeLocations{},
		blocks:     fakeBlocks{},
		dispatcher: newFakeDispatcher(),
	}
	f.matcher = NewMatcher(f.interests, f.pending, newFakeListings(listing), f.locations, f.blocks, f.dispatcher, 4, zap.NewNop())
	return f
}

// holder adds a user with a books interest living miles north of the listing.
func (f *matcherFixture) holder(miles float64, radius int, mutate func(*entity.UserInterest)) uuid.UUID {
	userID := uuid.New()
	f.locations[userID] = &entity.Location{
		UserID:      userID,
		Type:        entity.LocationHome,
		Latitude:    northOf(baseLat, miles),
		Longitude:   baseLng,
		RadiusMiles: radius,
		IsActive:    true,
	}
	interest := entity.UserInterest{UserID: userID, Category: entity.CategoryBooks}
	if mutate != nil {
		mutate(&interest)
	}
	f.interests.rows = append(f.interests.rows, interest)
	return userID
}

func (f *matcherFixture) run(t *testing.T) *MatchResult {
	t.Helper()
	result, err := f.matcher.OnListingActivated(context.Background(), f.listing.ID)
	require.NoError(t, err)
	return result
}

func TestOnListingActivated_WithinRadiusNotifiesImmediately(t *testing.T) {
	f := newMatcherFixture(t)
	x := f.holder(8, 10, nil)

	result := f.run(t)

	assert.Equal(t, MatchResult{Immediate: 1}, *result)
	require.Len(t, f.dispatcher.matches, 1)
	assert.Equal(t, x, f.dispatcher.matches[0].RecipientID)
	assert.Equal(t, f.listing.ID, f.dispatcher.matches[0].ListingID)
}

func TestOnListingActivated_OutsideRadiusSkipped(t *testing.T) {
	f := newMatcherFixture(t)
	f.holder(15, 10, nil)

	result := f.run(t)

	assert.Equal(t, MatchResult{Skipped: 1}, *result)
	assert.Empty(t, f.dispatcher.matches)
}

func TestOnListingActivated_InterestRadiusOverridesLocation(t *testing.T) {
	f := newMatcherFixture(t)
	wide := 20
	f.holder(15, 10, func(i *entity.UserInterest) { i.RadiusMiles = &wide })
	narrow := 5
	f.holder(8, 10, func(i *entity.UserInterest) { i.RadiusMiles = &narrow })

	result := f.run(t)

	assert.Equal(t, MatchResult{Immediate: 1, Skipped: 1}, *result)
}

func TestOnListingActivated_MissingLocationBypassesRadius(t *testing.T) {
	f := newMatcherFixture(t)
	x := f.holder(500, 10, nil)
	delete(f.locations, x)

	result := f.run(t)
	assert.Equal(t, MatchResult{Immediate: 1}, *result)

	f.listing.Location = nil
	f.locations[x] = &entity.Location{Latitude: northOf(baseLat, 500), Longitude: baseLng, RadiusMiles: 10}
	result = f.run(t)
	assert.Equal(t, MatchResult{Immediate: 1}, *result)
}

func TestOnListingActivated_BlockEitherDirectionSkips(t *testing.T) {
	f := newMatcherFixture(t)
	blocker := f.holder(1, 10, nil)
	blocked := f.holder(1, 10, nil)
	f.blocks[[2]uuid.UUID{blocker, f.owner}] = true
	f.blocks[[2]uuid.UUID{f.owner, blocked}] = true

	result := f.run(t)

	assert.Equal(t, MatchResult{Skipped: 2}, *result)
	assert.Empty(t, f.dispatcher.matches)
	assert.Empty(t, f.pending.rows)
}

func TestOnListingActivated_Keywords(t *testing.T) {
	f := newMatcherFixture(t)
	f.holder(1, 10, func(i *entity.UserInterest) { i.Keywords = []string{"SCIENCE"} })
	f.holder(1, 10, func(i *entity.UserInterest) { i.Keywords = []string{"cookbook", "hardcover"} })
	f.holder(1, 10, func(i *entity.UserInterest) { i.Keywords = []string{"cookbook"} })

	result := f.run(t)

	assert.Equal(t, MatchResult{Immediate: 2, Skipped: 1}, *result)
}

func TestOnListingActivated_RoutesByDeliveryPreference(t *testing.T) {
	f := newMatcherFixture(t)
	immediate := f.holder(1, 10, nil)
	digest := f.holder(1, 10, nil)
	muted := f.holder(1, 10, nil)
	off := f.holder(1, 10, nil)
	f.dispatcher.set(digest, func(s *entity.NotificationSettings) { s.InterestDelivery = entity.DeliveryDailyDigest })
	f.dispatcher.set(muted, func(s *entity.NotificationSettings) { s.NewListingMatch = false })
	f.dispatcher.set(off, func(s *entity.NotificationSettings) { s.GlobalEnabled = false })

	result := f.run(t)

	assert.Equal(t, MatchResult{Immediate: 1, Queued: 1, Skipped: 2}, *result)
	require.Len(t, f.dispatcher.matches, 1)
	assert.Equal(t, immediate, f.dispatcher.matches[0].RecipientID)
	require.Len(t, f.pending.rows, 1)
	assert.Equal(t, digest, f.pending.rows[0].UserID)
	assert.Equal(t, f.listing.ID, f.pending.rows[0].ListingID)
	assert.Equal(t, entity.CategoryBooks, f.pending.rows[0].Category)
	assert.False(t, f.pending.rows[0].Processed)
}

func TestOnListingActivated_ExcludesOwnerAndOtherCategories(t *testing.T) {
	f := newMatcherFixture(t)
	f.interests.rows = append(f.interests.rows,
		entity.UserInterest{UserID: f.owner, Category: entity.CategoryBooks},
		entity.UserInterest{UserID: uuid.New(), Category: entity.CategoryGarden},
	)

	result := f.run(t)

	assert.Equal(t, MatchResult{}, *result)
}

func TestOnListingActivated_InactiveOrMissingListing(t *testing.T) {
	f := newMatcherFixture(t)
	f.holder(1, 10, nil)

	result, err := f.matcher.OnListingActivated(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, MatchResult{}, *result)

	f.listing.Status = entity.ListingDraft
	result = f.run(t)
	assert.Equal(t, MatchResult{}, *result)
	assert.Empty(t, f.dispatcher.matches)
}

func TestOnListingActivated_ManyCandidatesTallyOnce(t *testing.T) {
	f := newMatcherFixture(t)
	for i := 0; i < 40; i++ {
		userID := f.holder(float64(i%20)+0.5, 10, nil)
		if i%2 == 1 {
			f.dispatcher.set(userID, func(s *entity.NotificationSettings) { s.InterestDelivery = entity.DeliveryDailyDigest })
		}
	}

	result := f.run(t)

	// 0.5..9.5 miles are in range, 10.5..19.5 are not
	assert.Equal(t, 40, result.Immediate+result.Queued+result.Skipped)
	assert.Equal(t, 20, result.Skipped)
	assert.Equal(t, 10, result.Immediate)
	assert.Equal(t, 10, result.Queued)
	assert.Len(t, f.dispatcher.matches, result.Immediate)
	assert.Len(t, f.pending.rows, result.Queued)
}

func TestMatchesKeywords(t *testing.T) {
	text := "Vintage Science Fiction Novels Hardcover"
	assert.True(t, MatchesKeywords(nil, text))
	assert.True(t, MatchesKeywords([]string{"", "  "}, text))
	assert.True(t, MatchesKeywords([]string{"fiction"}, text))
	assert.True(t, MatchesKeywords([]string{"lego", "NOVEL"}, text))
	assert.False(t, MatchesKeywords([]string{"lego"}, text))
}
