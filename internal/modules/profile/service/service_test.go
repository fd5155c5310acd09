package profile

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"anoa.com/localswap/internal/entity"
	profileDto "anoa.com/localswap/internal/modules/profile/dto"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users   map[uuid.UUID]*entity.User
	updated int
}

func (f *fakeUserRepo) Create(_ context.Context, user *entity.User, profile *entity.Profile) error {
	return errors.New("not implemented")
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	p := *u.Profile
	cp.Profile = &p
	return &cp, nil
}

func (f *fakeUserRepo) FindByPhone(_ context.Context, phone string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, profile *entity.Profile) error {
	f.updated++
	p := *profile
	f.users[profile.UserID].Profile = &p
	return nil
}

func (f *fakeUserRepo) ActiveUserIDs(context.Context, uuid.UUID, int) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeBlocks map[[2]uuid.UUID]bool

func (f fakeBlocks) IsBlockedEitherWay(_ context.Context, a, b uuid.UUID) (bool, error) {
	return f[[2]uuid.UUID{a, b}] || f[[2]uuid.UUID{b, a}], nil
}

type fakeStorage struct {
	uploads []string
	deleted []string
}

func (f *fakeStorage) UploadImage(_ context.Context, r io.Reader, size int64, folder, fileName string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "https://cdn.example/" + folder + "/" + fileName
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeStorage) DeleteImage(_ context.Context, fileURL string) error {
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func strPtr(s string) *string { return &s }

func newUser(repo *fakeUserRepo, name string, status entity.UserStatus) uuid.UUID {
	id := uuid.New()
	repo.users[id] = &entity.User{
		ID:        id,
		Status:    status,
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Profile:   &entity.Profile{UserID: id, DisplayName: name, TrustScore: 4.5, CompletedSwaps: 3},
	}
	return id
}

func TestGetPublicProfile(t *testing.T) {
	ctx := context.Background()
	repo := &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
	viewer := newUser(repo, "Viewer", entity.UserStatusActive)
	target := newUser(repo, "Target", entity.UserStatusActive)
	blocker := newUser(repo, "Blocker", entity.UserStatusActive)
	gone := newUser(repo, "Gone", entity.UserStatusDeleted)
	blocks := fakeBlocks{{blocker, viewer}: true}

	svc := NewProfileService(repo, blocks, &fakeStorage{}, zap.NewNop())

	res, err := svc.GetPublicProfile(ctx, viewer, target)
	require.NoError(t, err)
	assert.Equal(t, "Target", res.DisplayName)
	assert.Equal(t, 4.5, res.TrustScore)
	assert.Equal(t, 3, res.CompletedSwaps)
	assert.Equal(t, 2024, res.MemberSince.Year())

	_, err = svc.GetPublicProfile(ctx, viewer, blocker)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "blocked profiles look missing")

	_, err = svc.GetPublicProfile(ctx, viewer, gone)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.GetPublicProfile(ctx, viewer, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
	userID := newUser(repo, "Before", entity.UserStatusActive)
	repo.users[userID].Profile.AvatarURL = strPtr("https://cdn.example/avatars/old.png")
	images := &fakeStorage{}

	svc := NewProfileService(repo, fakeBlocks{}, images, zap.NewNop())

	user, err := svc.UpdateProfile(ctx, userID, profileDto.UpdateProfileRequest{
		DisplayName: strPtr("  After  "),
		Bio:         strPtr("   "),
	}, &profileDto.AvatarFile{Reader: strings.NewReader("png"), Size: 3, FileName: "Me.PNG"})
	require.NoError(t, err)

	assert.Equal(t, "After", user.Profile.DisplayName)
	assert.Nil(t, user.Profile.Bio, "blank bio clears it")
	require.Len(t, images.uploads, 1)
	assert.True(t, strings.HasSuffix(images.uploads[0], ".png"))
	assert.Equal(t, images.uploads[0], *repo.users[userID].Profile.AvatarURL)
	assert.Equal(t, []string{"https://cdn.example/avatars/old.png"}, images.deleted)

	_, err = svc.UpdateProfile(ctx, userID, profileDto.UpdateProfileRequest{DisplayName: strPtr(" ")}, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, 1, repo.updated)
}
