package service

import (
	"context"
	"fmt"
	"time"

	"anoa.com/localswap/internal/entity"
	locationDto "anoa.com/localswap/internal/modules/location/dto"
	locationRepo "anoa.com/localswap/internal/modules/location/repository"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const clockLayout = "15:04"

var weekdays = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true, "fri": true, "sat": true, "sun": true,
}

type TravelerService interface {
	GetTraveler(ctx context.Context, userID uuid.UUID) (*entity.TravelerProfile, error)
	ActivateTraveler(ctx context.Context, userID uuid.UUID, req locationDto.ActivateTravelerRequest) (*entity.TravelerProfile, error)
	UpdateTraveler(ctx context.Context, userID uuid.UUID, req locationDto.UpdateTravelerRequest) (*entity.TravelerProfile, error)
	// DeactivateTraveler is idempotent.
	DeactivateTraveler(ctx context.Context, userID uuid.UUID) error
	// ExpireTravelers turns off traveler mode for every stay that has ended.
	ExpireTravelers(ctx context.Context) (int64, error)
}

type travelerService struct {
	repo   locationRepo.TravelerRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewTravelerService(repo locationRepo.TravelerRepository, logger *zap.Logger) TravelerService {
	return &travelerService{repo: repo, logger: logger, now: time.Now}
}

func (s *travelerService) GetTraveler(ctx context.Context, userID uuid.UUID) (*entity.TravelerProfile, error) {
	profile, err := s.repo.FindActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load traveler profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("no active traveler profile: %w", apperror.ErrNotFound)
	}
	return profile, nil
}

func (s *travelerService) ActivateTraveler(ctx context.Context, userID uuid.UUID, req locationDto.ActivateTravelerRequest) (*entity.TravelerProfile, error) {
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("end date must be after start date: %w", apperror.ErrInvalidInput)
	}
	if !req.EndDate.After(s.now()) {
		return nil, fmt.Errorf("end date must be in the future: %w", apperror.ErrInvalidInput)
	}
	windows, err := buildWindows(req.AvailabilityWindows)
	if err != nil {
		return nil, err
	}

	loc, err := buildLocation(userID, locationDto.SetLocationRequest{
		Type:         string(entity.LocationTraveler),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMiles:  req.RadiusMiles,
		City:         req.City,
		Neighborhood: req.Neighborhood,
	})
	if err != nil {
		return nil, err
	}

	profile := &entity.TravelerProfile{
		UserID:              userID,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		AvailabilityWindows: windows,
	}
	if err := s.repo.Activate(ctx, profile, loc); err != nil {
		return nil, fmt.Errorf("failed to activate traveler mode: %w", err)
	}
	profile.Location = loc

	s.logger.Info("traveler mode activated",
		zap.String("user_id", userID.String()),
		zap.String("city", loc.City),
		zap.Time("end_date", profile.EndDate),
	)
	return profile, nil
}

func (s *travelerService) UpdateTraveler(ctx context.Context, userID uuid.UUID, req locationDto.UpdateTravelerRequest) (*entity.TravelerProfile, error) {
	profile, err := s.GetTraveler(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.EndDate != nil {
		if !req.EndDate.After(profile.StartDate) {
			return nil, fmt.Errorf("end date must be after start date: %w", apperror.ErrInvalidInput)
		}
		fields["end_date"] = *req.EndDate
		profile.EndDate = *req.EndDate
	}
	if req.AvailabilityWindows != nil {
		windows, err := buildWindows(req.AvailabilityWindows)
		if err != nil {
			return nil, err
		}
		fields["availability_windows"] = windows
		profile.AvailabilityWindows = windows
	}
	if len(fields) == 0 {
		return profile, nil
	}

	if err := s.repo.Update(ctx, profile.ID, fields); err != nil {
		return nil, fmt.Errorf("failed to update traveler profile: %w", err)
	}
	return profile, nil
}

func (s *travelerService) DeactivateTraveler(ctx context.Context, userID uuid.UUID) error {
	found, err := s.repo.Deactivate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate traveler mode: %w", err)
	}
	if found {
		s.logger.Info("traveler mode deactivated", zap.String("user_id", userID.String()))
	}
	return nil
}

func (s *travelerService) ExpireTravelers(ctx context.Context) (int64, error) {
	ended, err := s.repo.DeactivateEnded(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire traveler profiles: %w", err)
	}
	if ended > 0 {
		s.logger.Info("traveler profiles expired", zap.Int64("count", ended))
	}
	return ended, nil
}

func buildWindows(reqs []locationDto.AvailabilityWindowRequest) (datatypes.JSONSlice[entity.AvailabilityWindow], error) {
	windows := make(datatypes.JSONSlice[entity.AvailabilityWindow], 0, len(reqs))
	for _, w := range reqs {
		if !weekdays[w.Day] {
			return nil, fmt.Errorf("unknown day %q: %w", w.Day, apperror.ErrInvalidInput)
		}
		start, err := time.Parse(clockLayout, w.Start)
		if err != nil {
			return nil, fmt.Errorf("window start must be HH:MM: %w", apperror.ErrInvalidInput)
		}
		end, err := time.Parse(clockLayout, w.End)
		if err != nil {
			return nil, fmt.Errorf("window end must be HH:MM: %w", apperror.ErrInvalidInput)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("window on %s ends before it starts: %w", w.Day, apperror.ErrInvalidInput)
		}
		windows = append(windows, entity.AvailabilityWindow{Day: w.Day, Start: w.Start, End: w.End})
	}
	return windows, nil
}
