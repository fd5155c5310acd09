package dto

import "time"

type SetLocationRequest struct {
	Type         string   `json:"type" binding:"required,oneof=home traveler"`
	Latitude     *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude    *float64 `json:"longitude" binding:"required,min=-180,max=180"`
	RadiusMiles  *int     `json:"radius_miles" binding:"omitempty,min=1,max=50"`
	City         string   `json:"city" binding:"required,min=1,max=100"`
	Neighborhood *string  `json:"neighborhood" binding:"omitempty,max=100"`
}

type AvailabilityWindowRequest struct {
	Day   string `json:"day" binding:"required,oneof=mon tue wed thu fri sat sun"`
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

type ActivateTravelerRequest struct {
	Latitude            *float64                    `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude           *float64                    `json:"longitude" binding:"required,min=-180,max=180"`
	City                string                      `json:"city" binding:"required,min=1,max=100"`
	Neighborhood        *string                     `json:"neighborhood" binding:"omitempty,max=100"`
	RadiusMiles         *int                        `json:"radius_miles" binding:"omitempty,min=1,max=50"`
	StartDate           time.Time                   `json:"start_date" binding:"required"`
	EndDate             time.Time                   `json:"end_date" binding:"required"`
	AvailabilityWindows []AvailabilityWindowRequest `json:"availability_windows" binding:"omitempty,max=21,dive"`
}

// UpdateTravelerRequest leaves nil fields untouched; an empty windows list
// clears them.
type UpdateTravelerRequest struct {
	EndDate             *time.Time                  `json:"end_date"`
	AvailabilityWindows []AvailabilityWindowRequest `json:"availability_windows" binding:"omitempty,max=21,dive"`
}
