package service

import (
	"context"
	"testing"
	"time"

	"anoa.com/localswap/internal/entity"
	locationDto "anoa.com/localswap/internal/modules/location/dto"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTravelerRepo shares rows with fakeLocationRepo so the traveler
// location is visible to FindPrimary.
type fakeTravelerRepo struct {
	locations *fakeLocationRepo
	profiles  []entity.TravelerProfile
}

func (f *fakeTravelerRepo) Activate(ctx context.Context, profile *entity.TravelerProfile, loc *entity.Location) error {
	for i := range f.profiles {
		if f.profiles[i].UserID == profile.UserID {
			f.profiles[i].IsActive = false
		}
	}
	if err := f.locations.Activate(ctx, loc); err != nil {
		return err
	}
	profile.ID = uuid.New()
	profile.LocationID = loc.ID
	profile.IsActive = true
	f.profiles = append(f.profiles, *profile)
	return nil
}

func (f *fakeTravelerRepo) FindActive(_ context.Context, userID uuid.UUID) (*entity.TravelerProfile, error) {
	for i := range f.profiles {
		if f.profiles[i].UserID == userID && f.profiles[i].IsActive {
			cp := f.profiles[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTravelerRepo) Update(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	for i := range f.profiles {
		if f.profiles[i].ID != id {
			continue
		}
		if v, ok := fields["end_date"]; ok {
			f.profiles[i].EndDate = v.(time.Time)
		}
	}
	return nil
}

func (f *fakeTravelerRepo) Deactivate(_ context.Context, userID uuid.UUID) (bool, error) {
	found := false
	for i := range f.profiles {
		if f.profiles[i].UserID == userID && f.profiles[i].IsActive {
			f.profiles[i].IsActive = false
			found = true
		}
	}
	f.locations.deactivate(userID, entity.LocationTraveler)
	return found, nil
}

func (f *fakeTravelerRepo) DeactivateEnded(_ context.Context, now time.Time) (int64, error) {
	var ended int64
	for i := range f.profiles {
		p := &f.profiles[i]
		if p.IsActive && p.EndDate.Before(now) {
			p.IsActive = false
			for j := range f.locations.rows {
				if f.locations.rows[j].ID == p.LocationID {
					f.locations.rows[j].IsActive = false
				}
			}
			ended++
		}
	}
	return ended, nil
}

func (f *fakeLocationRepo) deactivate(userID uuid.UUID, locType entity.LocationType) {
	for i := range f.rows {
		if f.rows[i].UserID == userID && f.rows[i].Type == locType {
			f.rows[i].IsActive = false
		}
	}
}

type travelerFixture struct {
	user      uuid.UUID
	clock     time.Time
	locations *fakeLocationRepo
	travelers *fakeTravelerRepo
	svc       *travelerService
}

func newTravelerFixture() *travelerFixture {
	locations := &fakeLocationRepo{}
	f := &travelerFixture{
		user:      uuid.New(),
		clock:     time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC),
		locations: locations,
		travelers: &fakeTravelerRepo{locations: locations},
	}
	f.svc = NewTravelerService(f.travelers, zap.NewNop()).(*travelerService)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *travelerFixture) trip(city string, days int) locationDto.ActivateTravelerRequest {
	return locationDto.ActivateTravelerRequest{
		Latitude:  ptr(38.7223),
		Longitude: ptr(-9.1393),
		City:      city,
		StartDate: f.clock,
		EndDate:   f.clock.Add(time.Duration(days) * 24 * time.Hour),
		AvailabilityWindows: []locationDto.AvailabilityWindowRequest{
			{Day: "sat", Start: "10:00", End: "14:00"},
		},
	}
}

func (f *travelerFixture) activeTravelerLocations() int {
	n := 0
	for _, l := range f.locations.rows {
		if l.UserID == f.user && l.Type == entity.LocationTraveler && l.IsActive {
			n++
		}
	}
	return n
}

func TestActivateTraveler(t *testing.T) {
	ctx := context.Background()
	f := newTravelerFixture()

	profile, err := f.svc.ActivateTraveler(ctx, f.user, f.trip("Lisbon", 5))
	require.NoError(t, err)
	assert.True(t, profile.IsActive)
	require.NotNil(t, profile.Location)
	assert.Equal(t, entity.LocationTraveler, profile.Location.Type)
	assert.Equal(t, profile.Location.ID, profile.LocationID)
	assert.Equal(t, entity.DefaultRadiusMiles, profile.Location.RadiusMiles)
	require.Len(t, profile.AvailabilityWindows, 1)
	assert.Equal(t, "sat", profile.AvailabilityWindows[0].Day)

	primary, err := NewService(f.locations).PrimaryLocation(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, profile.LocationID, primary.ID, "without a home the traveler location is primary")
}

func TestActivateTraveler_ReplacesEarlierProfile(t *testing.T) {
	ctx := context.Background()
	f := newTravelerFixture()

	first, err := f.svc.ActivateTraveler(ctx, f.user, f.trip("Lisbon", 5))
	require.NoError(t, err)
	second, err := f.svc.ActivateTraveler(ctx, f.user, f.trip("Porto", 3))
	require.NoError(t, err)

	active := 0
	for _, p := range f.travelers.profiles {
		if p.IsActive {
			active++
			assert.Equal(t, second.ID, p.ID)
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, f.activeTravelerLocations())
	assert.NotEqual(t, first.LocationID, second.LocationID)

	current, err := f.svc.GetTraveler(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)
}

func TestActivateTraveler_Validation(t *testing.T) {
	ctx := context.Background()
	f := newTravelerFixture()

	tests := []struct {
		name   string
		mutate func(*locationDto.ActivateTravelerRequest)
	}{
		{"end equals start", func(r *locationDto.ActivateTravelerRequest) { r.EndDate = r.StartDate }},
		{"end before start", func(r *locationDto.ActivateTravelerRequest) { r.EndDate = r.StartDate.Add(-time.Hour) }},
		{"already over", func(r *locationDto.ActivateTravelerRequest) {
			r.StartDate = f.clock.Add(-72 * time.Hour)
			r.EndDate = f.clock.Add(-time.Hour)
		}},
		{"bad window day", func(r *locationDto.ActivateTravelerRequest) { r.AvailabilityWindows[0].Day = "someday" }},
		{"bad window time", func(r *locationDto.ActivateTravelerRequest) { r.AvailabilityWindows[0].Start = "10am" }},
		{"inverted window", func(r *locationDto.ActivateTravelerRequest) { r.AvailabilityWindows[0].End = "09:00" }},
		{"blank city", func(r *locationDto.ActivateTravelerRequest) { r.City = " " }},
		{"radius too large", func(r *locationDto.ActivateTravelerRequest) { r.RadiusMiles = ptr(80) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.trip("Lisbon", 5)
			tt.mutate(&req)
			_, err := f.svc.ActivateTraveler(ctx, f.user, req)
			assert.ErrorIs(t, err, apperror.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.travelers.profiles)
}

func TestUpdateTraveler(t *testing.T) {
	ctx := context.Background()
	f := newTravelerFixture()

	_, err := f.svc.UpdateTraveler(ctx, f.user, locationDto.UpdateTravelerRequest{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	profile, err := f.svc.ActivateTraveler(ctx, f.user, f.trip("Lisbon", 5))
	require.NoError(t, err)

	tooEarly := profile.StartDate.Add(-time.Hour)
	_, err = f.svc.UpdateTraveler(ctx, f.user, locationDto.UpdateTravelerRequest{EndDate: &tooEarly})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	extended := profile.EndDate.Add(48 * time.Hour)
	updated, err := f.svc.UpdateTraveler(ctx, f.user, locationDto.UpdateTravelerRequest{
		EndDate:             &extended,
		AvailabilityWindows: []locationDto.AvailabilityWindowRequest{},
	})
	require.NoError(t, err)
	assert.Equal(t, extended, updated.EndDate)
	assert.Empty(t, updated.AvailabilityWindows)
	assert.Equal(t, extended, f.travelers.profiles[0].EndDate)
}

func TestDeactivateTraveler(t *testing.T) {
	ctx := context.Background()
	f := newTravelerFixture()
	_, err := f.svc.ActivateTraveler(ctx, f.user, f.trip("Lisbon", 5))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeactivateTraveler(ctx, f.user))
	assert.Zero(t, f.activeTravelerLocations())
	_, err = f.svc.GetTraveler(ctx, f.user)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.NoError(t, f.svc.DeactivateTraveler(ctx, f.user), "turning it off twice is fine")
}

func TestExpireTravelers(t *testing.T) {
	ctx := context.Background()
	f := newTravelerFixture()
	_, err := f.svc.ActivateTraveler(ctx, f.user, f.trip("Lisbon", 2))
	require.NoError(t, err)

	ended, err := f.svc.ExpireTravelers(ctx)
	require.NoError(t, err)
	assert.Zero(t, ended)

	f.clock = f.clock.Add(49 * time.Hour)
	ended, err = f.svc.ExpireTravelers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ended)
	assert.Zero(t, f.activeTravelerLocations())
}
