package service

import (
	"context"
	"strings"
	"testing"

	"anoa.com/localswap/internal/entity"
	interestDto "anoa.com/localswap/internal/modules/interest/dto"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddInterest_UpsertsByCategory(t *testing.T) {
	repo := &fakeInterestRepo{}
	svc := NewInterestService(repo)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.AddInterest(ctx, user, interestDto.InterestRequest{Category: "books", Keywords: []string{" Tolkien ", "", "tolkien"}})
	require.NoError(t, err)
	radius := 5
	saved, err := svc.AddInterest(ctx, user, interestDto.InterestRequest{Category: "books", Keywords: []string{"dune"}, RadiusMiles: &radius})
	require.NoError(t, err)

	interests, err := svc.ListInterests(ctx, user)
	require.NoError(t, err)
	require.Len(t, interests, 1)
	assert.Equal(t, []string{"dune"}, []string(interests[0].Keywords))
	assert.Equal(t, 5, *saved.RadiusMiles)
}

func TestAddInterest_Validation(t *testing.T) {
	svc := NewInterestService(&fakeInterestRepo{})
	user := uuid.New()
	tooFar := 80

	cases := []interestDto.InterestRequest{
		{Category: "spaceships"},
		{Category: "books", RadiusMiles: &tooFar},
		{Category: "books", Keywords: []string{strings.Repeat("x", 51)}},
		{Category: "books", Keywords: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}},
	}
	for _, req := range cases {
		_, err := svc.AddInterest(context.Background(), user, req)
		assert.ErrorIs(t, err, apperror.ErrInvalidInput, "%+v", req)
	}
}

func TestNormalizeKeywords(t *testing.T) {
	got, err := normalizeKeywords([]string{" Lego ", "lego", "", "Duplo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lego", "Duplo"}, got)
}

func TestRemoveInterest(t *testing.T) {
	repo := &fakeInterestRepo{}
	svc := NewInterestService(repo)
	user := uuid.New()
	repo.rows = []entity.UserInterest{{UserID: user, Category: entity.CategoryTools}}

	require.NoError(t, svc.RemoveInterest(context.Background(), user, "tools"))
	assert.ErrorIs(t, svc.RemoveInterest(context.Background(), user, "tools"), apperror.ErrNotFound)
}

func TestReplaceInterests(t *testing.T) {
	repo := &fakeInterestRepo{}
	svc := NewInterestService(repo)
	user, other := uuid.New(), uuid.New()
	repo.rows = []entity.UserInterest{
		{UserID: user, Category: entity.CategoryTools},
		{UserID: other, Category: entity.CategoryTools},
	}

	replaced, err := svc.ReplaceInterests(context.Background(), user, interestDto.ReplaceInterestsRequest{
		Interests: []interestDto.InterestRequest{{Category: "garden"}, {Category: "kids"}},
	})
	require.NoError(t, err)
	assert.Len(t, replaced, 2)

	mine, _ := repo.ListByUser(context.Background(), user)
	assert.Len(t, mine, 2)
	theirs, _ := repo.ListByUser(context.Background(), other)
	assert.Len(t, theirs, 1)

	_, err = svc.ReplaceInterests(context.Background(), user, interestDto.ReplaceInterestsRequest{
		Interests: []interestDto.InterestRequest{{Category: "garden"}, {Category: "garden"}},
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	mine, _ = repo.ListByUser(context.Background(), user)
	assert.Len(t, mine, 2)
}
