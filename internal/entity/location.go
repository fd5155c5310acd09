package entity

import (
	"time"

	"anoa.com/localswap/pkg/geo"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LocationType string

const (
	LocationHome     LocationType = "home"
	LocationTraveler LocationType = "traveler"
)

const (
	DefaultRadiusMiles = 10
	MinRadiusMiles     = 1
	MaxRadiusMiles     = 50
)

type Location struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_locations_user_type,priority:1" json:"user_id"`
	Type         LocationType `gorm:"size:20;not null;index:idx_locations_user_type,priority:2" json:"type"`
	Latitude     float64      `gorm:"not null" json:"latitude"`
	Longitude    float64      `gorm:"not null" json:"longitude"`
	Geohash      string       `gorm:"size:12;not null;index" json:"geohash"`
	RadiusMiles  int          `gorm:"not null" json:"radius_miles"`
	City         string       `gorm:"size:100;not null" json:"city"`
	Neighborhood *string      `gorm:"size:100" json:"neighborhood,omitempty"`
	IsActive     bool         `gorm:"not null;index" json:"is_active"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *Location) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}

// BeforeSave recomputes the geohash from the coordinates on every write.
func (l *Location) BeforeSave(tx *gorm.DB) error {
	l.Geohash = geo.Encode(l.Latitude, l.Longitude, geo.DefaultPrecision)
	return nil
}

// DistanceTo returns the distance in miles between two locations.
func (l *Location) DistanceTo(other *Location) float64 {
	return geo.DistanceMiles(l.Latitude, l.Longitude, other.Latitude, other.Longitude)
}

// AvailabilityWindow is a recurring slot, times as HH:MM in the traveler's
// local time.
type AvailabilityWindow struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// TravelerProfile is a date-bounded stay away from home. A user has at most
// one active profile, and it owns the user's active traveler location.
type TravelerProfile struct {
	ID                  uuid.UUID                               `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              uuid.UUID                               `gorm:"type:uuid;not null;index;uniqueIndex:idx_traveler_profiles_active_user,where:is_active" json:"user_id"`
	LocationID          uuid.UUID                               `gorm:"type:uuid;not null" json:"location_id"`
	Location            *Location                               `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	StartDate           time.Time                               `gorm:"not null" json:"start_date"`
	EndDate             time.Time                               `gorm:"not null;index" json:"end_date"`
	AvailabilityWindows datatypes.JSONSlice[AvailabilityWindow] `gorm:"type:jsonb" json:"availability_windows"`
	IsActive            bool                                    `gorm:"not null" json:"is_active"`
	CreatedAt           time.Time                               `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time                               `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *TravelerProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}
