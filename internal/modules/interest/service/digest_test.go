package service

import (
	"context"
	"sync"
	"testing"

	"anoa.com/localswap/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func listingOf(title string, category entity.Category, status entity.ListingStatus) *entity.Listing {
	return &entity.Listing{ID: uuid.New(), Title: title, Category: category, Status: status}
}

func enqueue(t *testing.T, pending *fakePendingRepo, userID uuid.UUID, listings ...*entity.Listing) {
	t.Helper()
	for _, l := range listings {
		require.NoError(t, pending.Enqueue(context.Background(), &entity.PendingInterestMatch{
			UserID:    userID,
			ListingID: l.ID,
			Category:  l.Category,
		}))
	}
}

func TestSendInterestDigests_InactiveListingProcessedButNotMentioned(t *testing.T) {
	active := listingOf("Kids bike", entity.CategoryKids, entity.ListingActive)
	traded := listingOf("Stroller", entity.CategoryKids, entity.ListingTraded)
	pending := &fakePendingRepo{}
	dispatcher := newFakeDispatcher()
	user := uuid.New()
	enqueue(t, pending, user, traded, active)

	digest := NewDigestProcessor(pending, newFakeListings(active, traded), dispatcher, zap.NewNop())
	result, err := digest.SendInterestDigests(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DigestResult{UsersNotified: 1, MatchesProcessed: 2}, *result)
	require.Len(t, dispatcher.matches, 1)
	assert.Equal(t, active.ID, dispatcher.matches[0].ListingID)
	assert.Equal(t, user, dispatcher.matches[0].RecipientID)
	assert.Empty(t, dispatcher.created)
	assert.Zero(t, pending.unprocessed())
}

func TestSendInterestDigests_SecondRunIsNoop(t *testing.T) {
	a := listingOf("Drill", entity.CategoryTools, entity.ListingActive)
	b := listingOf("Saw", entity.CategoryTools, entity.ListingActive)
	pending := &fakePendingRepo{}
	dispatcher := newFakeDispatcher()
	enqueue(t, pending, uuid.New(), a, b)

	digest := NewDigestProcessor(pending, newFakeListings(a, b), dispatcher, zap.NewNop())
	first, err := digest.SendInterestDigests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DigestResult{UsersNotified: 1, MatchesProcessed: 2}, *first)

	second, err := digest.SendInterestDigests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DigestResult{}, *second)
	assert.Len(t, dispatcher.created, 1)
}

func TestSendInterestDigests_GroupsPerUser(t *testing.T) {
	a := listingOf("Rake", entity.CategoryGarden, entity.ListingActive)
	b := listingOf("Hose", entity.CategoryGarden, entity.ListingActive)
	c := listingOf("Lamp", entity.CategoryHousehold, entity.ListingDeleted)
	pending := &fakePendingRepo{}
	dispatcher := newFakeDispatcher()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	enqueue(t, pending, alice, a)
	enqueue(t, pending, bob, a)
	enqueue(t, pending, alice, b)
	enqueue(t, pending, carol, c)

	digest := NewDigestProcessor(pending, newFakeListings(a, b, c), dispatcher, zap.NewNop())
	result, err := digest.SendInterestDigests(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DigestResult{UsersNotified: 2, MatchesProcessed: 4}, *result)
	require.Len(t, dispatcher.created, 1)
	assert.Equal(t, alice, dispatcher.created[0].UserID)
	require.Len(t, dispatcher.matches, 1)
	assert.Equal(t, bob, dispatcher.matches[0].RecipientID)
}

func TestSendInterestDigests_ConcurrentRunsNeverDoubleDeliver(t *testing.T) {
	pending := &fakePendingRepo{}
	dispatcher := newFakeDispatcher()
	var listings []*entity.Listing
	for i := 0; i < 30; i++ {
		l := listingOf("Item", entity.CategoryOther, entity.ListingActive)
		listings = append(listings, l)
		enqueue(t, pending, uuid.New(), l)
	}
	digest := NewDigestProcessor(pending, newFakeListings(listings...), dispatcher, zap.NewNop())

	var wg sync.WaitGroup
	results := make([]*DigestResult, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := digest.SendInterestDigests(context.Background())
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	processed := 0
	for _, r := range results {
		require.NotNil(t, r)
		processed += r.MatchesProcessed
	}
	assert.Equal(t, 30, processed)
	assert.Len(t, dispatcher.matches, 30)

	seen := make(map[uuid.UUID]bool)
	for _, m := range dispatcher.matches {
		assert.False(t, seen[m.ListingID], "listing delivered twice")
		seen[m.ListingID] = true
	}
}

func TestDigestNotification_ListsTitlesUpToThree(t *testing.T) {
	user := uuid.New()
	listings := []*entity.Listing{
		listingOf("Chess set", entity.CategoryKids, entity.ListingActive),
		listingOf("Puzzle", entity.CategoryKids, entity.ListingActive),
	}

	in := DigestNotification(user, listings)

	assert.Equal(t, "New Listings Match Your Interests", in.Title)
	assert.Equal(t, `Check out these new listings: "Chess set", "Puzzle"`, in.Body)
	assert.Equal(t, entity.NotificationNewListingMatch, in.Type)
	meta, ok := in.Metadata.(entity.ListingDigestNotice)
	require.True(t, ok)
	assert.Equal(t, 2, meta.Count)
	assert.Equal(t, []entity.Category{entity.CategoryKids}, meta.Categories)
	assert.Equal(t, []uuid.UUID{listings[0].ID, listings[1].ID}, meta.ListingIDs)
}

func TestDigestNotification_SummarizesCategoriesAboveThree(t *testing.T) {
	listings := []*entity.Listing{
		listingOf("A", entity.CategoryBooks, entity.ListingActive),
		listingOf("B", entity.CategoryTools, entity.ListingActive),
		listingOf("C", entity.CategoryBooks, entity.ListingActive),
		listingOf("D", entity.CategoryGarden, entity.ListingActive),
		listingOf("E", entity.CategorySports, entity.ListingActive),
	}

	in := DigestNotification(uuid.New(), listings)

	assert.Equal(t, "5 new listings match your interests in books, tools, garden", in.Body)
	meta := in.Metadata.(entity.ListingDigestNotice)
	assert.Equal(t, 5, meta.Count)
	assert.Len(t, meta.ListingIDs, 5)
	assert.Equal(t, []entity.Category{
		entity.CategoryBooks, entity.CategoryTools, entity.CategoryGarden, entity.CategorySports,
	}, meta.Categories)
}
