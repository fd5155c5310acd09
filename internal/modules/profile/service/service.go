package profile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"anoa.com/localswap/internal/entity"
	profileDto "anoa.com/localswap/internal/modules/profile/dto"
	userRepo "anoa.com/localswap/internal/modules/user/repository"
	"anoa.com/localswap/pkg/apperror"
	"anoa.com/localswap/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BlockChecker interface {
	IsBlockedEitherWay(ctx context.Context, a, b uuid.UUID) (bool, error)
}

type ProfileService interface {
	GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	GetPublicProfile(ctx context.Context, viewerID, userID uuid.UUID) (*profileDto.PublicProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileRequest, avatar *profileDto.AvatarFile) (*entity.User, error)
}

type profileService struct {
	repo         userRepo.UserRepository
	blocks       BlockChecker
	imageStorage storage.ImageStorage
	logger       *zap.Logger
}

func NewProfileService(repo userRepo.UserRepository, blocks BlockChecker, imageStorage storage.ImageStorage, logger *zap.Logger) ProfileService {
	return &profileService{
		repo:         repo,
		blocks:       blocks,
		imageStorage: imageStorage,
		logger:       logger,
	}
}

func (s *profileService) loadUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Status != entity.UserStatusActive || user.Profile == nil {
		return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
	}
	return user, nil
}

func (s *profileService) GetCurrentProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return s.loadUser(ctx, userID)
}

func (s *profileService) GetPublicProfile(ctx context.Context, viewerID, userID uuid.UUID) (*profileDto.PublicProfileResponse, error) {
	if viewerID != userID {
		blocked, err := s.blocks.IsBlockedEitherWay(ctx, viewerID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check blocks: %w", err)
		}
		if blocked {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := user.Profile
	return &profileDto.PublicProfileResponse{
		ID:             user.ID,
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		AvatarURL:      p.AvatarURL,
		TrustScore:     p.TrustScore,
		CompletedSwaps: p.CompletedSwaps,
		ResponseRate:   p.ResponseRate,
		MemberSince:    user.CreatedAt,
	}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input profileDto.UpdateProfileRequest, avatar *profileDto.AvatarFile) (*entity.User, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Profile

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, fmt.Errorf("display name cannot be empty: %w", apperror.ErrInvalidInput)
		}
		profile.DisplayName = name
	}
	if input.Bio != nil {
		profile.Bio = normalizeOptional(input.Bio)
	}

	var previousAvatar *string
	if avatar != nil && avatar.Reader != nil {
		name := uuid.NewString() + strings.ToLower(filepath.Ext(avatar.FileName))
		url, err := s.imageStorage.UploadImage(ctx, avatar.Reader, avatar.Size, "avatars", name)
		if err != nil {
			return nil, fmt.Errorf("failed to upload avatar: %w", err)
		}
		previousAvatar = profile.AvatarURL
		profile.AvatarURL = &url
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if previousAvatar != nil {
		if err := s.imageStorage.DeleteImage(ctx, *previousAvatar); err != nil {
			s.logger.Warn("failed to delete old avatar", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	return user, nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}

	result := trimmed
	return &result
}
