package service

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/localswap/internal/entity"
	interestDto "anoa.com/localswap/internal/modules/interest/dto"
	interestRepo "anoa.com/localswap/internal/modules/interest/repository"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
)

const (
	maxKeywords      = 10
	maxKeywordLength = 50
	maxInterests     = 20
)

type InterestService interface {
	ListInterests(ctx context.Context, userID uuid.UUID) ([]entity.UserInterest, error)
	AddInterest(ctx context.Context, userID uuid.UUID, req interestDto.InterestRequest) (*entity.UserInterest, error)
	RemoveInterest(ctx context.Context, userID uuid.UUID, category string) error
	ReplaceInterests(ctx context.Context, userID uuid.UUID, req interestDto.ReplaceInterestsRequest) ([]entity.UserInterest, error)
}

type interestService struct {
	repo interestRepo.InterestRepository
}

func NewInterestService(repo interestRepo.InterestRepository) InterestService {
	return &interestService{repo: repo}
}

// normalizeKeywords trims keywords and drops blanks and duplicates.
func normalizeKeywords(raw []string) ([]string, error) {
	keywords := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if len([]rune(k)) > maxKeywordLength {
			return nil, fmt.Errorf("keyword %q is longer than %d characters: %w", k, maxKeywordLength, apperror.ErrInvalidInput)
		}
		key := strings.ToLower(k)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keywords = append(keywords, k)
	}
	if len(keywords) > maxKeywords {
		return nil, fmt.Errorf("at most %d keywords are allowed: %w", maxKeywords, apperror.ErrInvalidInput)
	}
	return keywords, nil
}

func toInterest(userID uuid.UUID, req interestDto.InterestRequest) (*entity.UserInterest, error) {
	category := entity.Category(req.Category)
	if !category.IsValid() {
		return nil, fmt.Errorf("unknown category %q: %w", req.Category, apperror.ErrInvalidInput)
	}
	if req.RadiusMiles != nil && (*req.RadiusMiles < entity.MinRadiusMiles || *req.RadiusMiles > entity.MaxRadiusMiles) {
		return nil, fmt.Errorf("radius must be between %d and %d miles: %w", entity.MinRadiusMiles, entity.MaxRadiusMiles, apperror.ErrInvalidInput)
	}
	keywords, err := normalizeKeywords(req.Keywords)
	if err != nil {
		return nil, err
	}
	return &entity.UserInterest{
		UserID:      userID,
		Category:    category,
		Keywords:    keywords,
		RadiusMiles: req.RadiusMiles,
	}, nil
}

func (s *interestService) ListInterests(ctx context.Context, userID uuid.UUID) ([]entity.UserInterest, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *interestService) AddInterest(ctx context.Context, userID uuid.UUID, req interestDto.InterestRequest) (*entity.UserInterest, error) {
	interest, err := toInterest(userID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, interest); err != nil {
		return nil, fmt.Errorf("failed to save interest: %w", err)
	}
	return interest, nil
}

func (s *interestService) RemoveInterest(ctx context.Context, userID uuid.UUID, category string) error {
	removed, err := s.repo.Delete(ctx, userID, entity.Category(category))
	if err != nil {
		return fmt.Errorf("failed to remove interest: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("interest not found: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *interestService) ReplaceInterests(ctx context.Context, userID uuid.UUID, req interestDto.ReplaceInterestsRequest) ([]entity.UserInterest, error) {
	if len(req.Interests) > maxInterests {
		return nil, fmt.Errorf("at most %d interests are allowed: %w", maxInterests, apperror.ErrInvalidInput)
	}

	interests := make([]entity.UserInterest, 0, len(req.Interests))
	seen := make(map[entity.Category]struct{}, len(req.Interests))
	for _, r := range req.Interests {
		interest, err := toInterest(userID, r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[interest.Category]; dup {
			return nil, fmt.Errorf("category %q listed twice: %w", interest.Category, apperror.ErrInvalidInput)
		}
		seen[interest.Category] = struct{}{}
		interests = append(interests, *interest)
	}

	if err := s.repo.Replace(ctx, userID, interests); err != nil {
		return nil, fmt.Errorf("failed to replace interests: %w", err)
	}
	return interests, nil
}
