package service

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/localswap/internal/entity"
	locationDto "anoa.com/localswap/internal/modules/location/dto"
	locationRepo "anoa.com/localswap/internal/modules/location/repository"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
)

type Service interface {
	SetLocation(ctx context.Context, userID uuid.UUID, req locationDto.SetLocationRequest) (*entity.Location, error)
	ListLocations(ctx context.Context, userID uuid.UUID) ([]entity.Location, error)
	PrimaryLocation(ctx context.Context, userID uuid.UUID) (*entity.Location, error)
}

type service struct {
	repo locationRepo.LocationRepository
}

func NewService(repo locationRepo.LocationRepository) Service {
	return &service{repo: repo}
}

func (s *service) SetLocation(ctx context.Context, userID uuid.UUID, req locationDto.SetLocationRequest) (*entity.Location, error) {
	loc, err := buildLocation(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Activate(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to save location: %w", err)
	}
	return loc, nil
}

func buildLocation(userID uuid.UUID, req locationDto.SetLocationRequest) (*entity.Location, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("latitude and longitude are required: %w", apperror.ErrInvalidInput)
	}
	lat, lng := *req.Latitude, *req.Longitude
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("coordinates out of range: %w", apperror.ErrInvalidInput)
	}

	radius := entity.DefaultRadiusMiles
	if req.RadiusMiles != nil {
		radius = *req.RadiusMiles
	}
	if radius < entity.MinRadiusMiles || radius > entity.MaxRadiusMiles {
		return nil, fmt.Errorf("radius must be between %d and %d miles: %w",
			entity.MinRadiusMiles, entity.MaxRadiusMiles, apperror.ErrInvalidInput)
	}

	locType := entity.LocationType(req.Type)
	if locType != entity.LocationHome && locType != entity.LocationTraveler {
		return nil, fmt.Errorf("unknown location type %q: %w", req.Type, apperror.ErrInvalidInput)
	}

	city := strings.TrimSpace(req.City)
	if city == "" {
		return nil, fmt.Errorf("city is required: %w", apperror.ErrInvalidInput)
	}

	return &entity.Location{
		UserID:       userID,
		Type:         locType,
		Latitude:     lat,
		Longitude:    lng,
		RadiusMiles:  radius,
		City:         city,
		Neighborhood: req.Neighborhood,
	}, nil
}

func (s *service) ListLocations(ctx context.Context, userID uuid.UUID) ([]entity.Location, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) PrimaryLocation(ctx context.Context, userID uuid.UUID) (*entity.Location, error) {
	loc, err := s.repo.FindPrimary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, fmt.Errorf("no active location: %w", apperror.ErrNotFound)
	}
	return loc, nil
}
