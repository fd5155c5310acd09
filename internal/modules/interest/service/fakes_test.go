package service

import (
	"context"
	"math"
	"sync"
	"time"

	"anoa.com/localswap/internal/entity"
	notification "anoa.com/localswap/internal/modules/notification/service"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// milesPerDegreeLat is the meridian arc length of one degree at R = 3959 mi.
var milesPerDegreeLat = 3959 * math.Pi / 180

func northOf(lat, miles float64) float64 {
	return lat + miles/milesPerDegreeLat
}

type fakeInterestRepo struct {
	mu   sync.Mutex
	rows []entity.UserInterest
}

func (f *fakeInterestRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]entity.UserInterest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.UserInterest
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeInterestRepo) ListByCategory(_ context.Context, category entity.Category, excludeUserID uuid.UUID) ([]entity.UserInterest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.UserInterest
	for _, r := range f.rows {
		if r.Category == category && r.UserID != excludeUserID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeInterestRepo) Upsert(_ context.Context, interest *entity.UserInterest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].UserID == interest.UserID && f.rows[i].Category == interest.Category {
			f.rows[i].Keywords = interest.Keywords
			f.rows[i].RadiusMiles = interest.RadiusMiles
			*interest = f.rows[i]
			return nil
		}
	}
	interest.ID = uuid.New()
	f.rows = append(f.rows, *interest)
	return nil
}

func (f *fakeInterestRepo) Delete(_ context.Context, userID uuid.UUID, category entity.Category) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []entity.UserInterest
	var removed int64
	for _, r := range f.rows {
		if r.UserID == userID && r.Category == category {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return removed, nil
}

func (f *fakeInterestRepo) Replace(_ context.Context, userID uuid.UUID, interests []entity.UserInterest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []entity.UserInterest
	for _, r := range f.rows {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	f.rows = append(kept, interests...)
	return nil
}

type fakePendingRepo struct {
	mu   sync.Mutex
	rows []entity.PendingInterestMatch
	seq  time.Time
}

func (f *fakePendingRepo) Enqueue(_ context.Context, match *entity.PendingInterestMatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seq.IsZero() {
		f.seq = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	}
	f.seq = f.seq.Add(time.Second)
	match.ID = uuid.New()
	match.CreatedAt = f.seq
	f.rows = append(f.rows, *match)
	return nil
}

func (f *fakePendingRepo) ListUnprocessed(_ context.Context) ([]entity.PendingInterestMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.PendingInterestMatch
	for _, r := range f.rows {
		if !r.Processed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePendingRepo) Claim(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id && !f.rows[i].Processed {
			f.rows[i].Processed = true
			f.rows[i].ProcessedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePendingRepo) unprocessed() int {
	rows, _ := f.ListUnprocessed(context.Background())
	return len(rows)
}

type fakeListings struct {
	byID map[uuid.UUID]*entity.Listing
}

func newFakeListings(listings ...*entity.Listing) *fakeListings {
	f := &fakeListings{byID: make(map[uuid.UUID]*entity.Listing)}
	for _, l := range listings {
		f.byID[l.ID] = l
	}
	return f
}

func (f *fakeListings) FindByID(_ context.Context, id uuid.UUID) (*entity.Listing, error) {
	l, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (f *fakeListings) FindByIDs(_ context.Context, ids []uuid.UUID) ([]entity.Listing, error) {
	var out []entity.Listing
	for _, id := range ids {
		if l, ok := f.byID[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

type fakeLocations map[uuid.UUID]*entity.Location

func (f fakeLocations) FindPrimary(_ context.Context, userID uuid.UUID) (*entity.Location, error) {
	return f[userID], nil
}

type fakeBlocks map[[2]uuid.UUID]bool

func (f fakeBlocks) IsBlockedEitherWay(_ context.Context, a, b uuid.UUID) (bool, error) {
	return f[[2]uuid.UUID{a, b}] || f[[2]uuid.UUID{b, a}], nil
}

type listingMatchCall struct {
	RecipientID uuid.UUID
	ListingID   uuid.UUID
	Title       string
}

type fakeDispatcher struct {
	mu       sync.Mutex
	settings map[uuid.UUID]*entity.NotificationSettings
	matches  []listingMatchCall
	created  []notification.CreateNotificationInput
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{settings: make(map[uuid.UUID]*entity.NotificationSettings)}
}

func (f *fakeDispatcher) set(userID uuid.UUID, mutate func(*entity.NotificationSettings)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := entity.DefaultNotificationSettings(userID)
	mutate(&s)
	f.settings[userID] = &s
}

func (f *fakeDispatcher) GetOrCreateSettings(_ context.Context, userID uuid.UUID) (*entity.NotificationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.settings[userID]; ok {
		return s, nil
	}
	s := entity.DefaultNotificationSettings(userID)
	f.settings[userID] = &s
	return &s, nil
}

func (f *fakeDispatcher) CreateNotification(_ context.Context, in notification.CreateNotificationInput) (*notification.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return &notification.CreateResult{Created: true, ID: uuid.New()}, nil
}

func (f *fakeDispatcher) NotifyNewListingMatch(_ context.Context, recipientID, listingID uuid.UUID, title string, _ entity.Category) (*notification.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches = append(f.matches, listingMatchCall{RecipientID: recipientID, ListingID: listingID, Title: title})
	return &notification.CreateResult{Created: true, ID: uuid.New()}, nil
}
