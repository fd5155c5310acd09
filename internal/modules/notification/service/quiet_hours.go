package service

import (
	"fmt"
	"time"

	"anoa.com/localswap/internal/entity"
	"anoa.com/localswap/pkg/apperror"
)

// parseClock parses "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", s, apperror.ErrInvalidInput)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateQuietHours checks clock formats and the IANA zone name.
func ValidateQuietHours(q entity.QuietHours) error {
	if _, err := parseClock(q.Start); err != nil {
		return err
	}
	if _, err := parseClock(q.End); err != nil {
		return err
	}
	if _, err := time.LoadLocation(q.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", q.Timezone, apperror.ErrInvalidInput)
	}
	return nil
}

// IsWithinQuietHours reports whether now falls in [start, end) on the wall
// clock of the configured timezone. A window with start > end wraps midnight.
// Disabled or malformed settings never suppress delivery.
func IsWithinQuietHours(q entity.QuietHours, now time.Time) bool {
	if !q.Enabled {
		return false
	}

	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return false
	}
	start, err := parseClock(q.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(q.End)
	if err != nil {
		return false
	}

	local := now.In(loc)
	current := local.Hour()*60 + local.Minute()

	if start <= end {
		return current >= start && current < end
	}
	return current >= start || current < end
}

// NextQuietHoursEnd returns the next instant, strictly after now, at which the
// wall clock in the configured timezone reads the end time.
func NextQuietHoursEnd(q entity.QuietHours, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown timezone %q: %w", q.Timezone, apperror.ErrInvalidInput)
	}
	end, err := parseClock(q.End)
	if err != nil {
		return time.Time{}, err
	}

	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), end/60, end%60, 0, 0, loc)
	if !candidate.After(now) {
		candidate = time.Date(local.Year(), local.Month(), local.Day()+1, end/60, end%60, 0, 0, loc)
	}
	return candidate, nil
}
