package service

import (
	"context"
	"sync"
	"testing"

	"anoa.com/localswap/internal/entity"
	notification "anoa.com/localswap/internal/modules/notification/service"
	reviewDto "anoa.com/localswap/internal/modules/review/dto"
	"anoa.com/localswap/pkg/apperror"
	commonDto "anoa.com/localswap/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeReviewRepo reveals and scores under one lock, like the row lock the
// gorm repository takes on the offer.
type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []entity.Review
	trust   map[uuid.UUID]float64
}

func (f *fakeReviewRepo) Create(_ context.Context, review *entity.Review, participants [2]uuid.UUID) ([]entity.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var forOffer []int
	for i, r := range f.reviews {
		if r.OfferID == review.OfferID {
			if r.ReviewerID == review.ReviewerID {
				return nil, gorm.ErrDuplicatedKey
			}
			forOffer = append(forOffer, i)
		}
	}
	review.ID = uuid.New()
	f.reviews = append(f.reviews, *review)
	forOffer = append(forOffer, len(f.reviews)-1)
	if len(forOffer) < 2 {
		return nil, nil
	}

	var revealed []entity.Review
	for _, i := range forOffer {
		f.reviews[i].IsVisible = true
		revealed = append(revealed, f.reviews[i])
	}
	for _, userID := range participants {
		sum, n := 0, 0
		for _, r := range f.reviews {
			if r.RevieweeID == userID && r.IsVisible {
				sum += r.Rating
				n++
			}
		}
		if n > 0 {
			f.trust[userID] = float64(sum) / float64(n)
		}
	}
	return revealed, nil
}

func (f *fakeReviewRepo) ListReceived(_ context.Context, revieweeID uuid.UUID, offset, limit int) ([]entity.Review, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Review
	for _, r := range f.reviews {
		if r.RevieweeID == revieweeID && r.IsVisible {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

type fakeOffers map[uuid.UUID]*entity.Offer

func (f fakeOffers) FindByID(_ context.Context, id uuid.UUID) (*entity.Offer, error) {
	o, ok := f[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

type reviewNotice struct {
	RecipientID  uuid.UUID
	ReviewerName string
	Rating       int
}

type recordingNotifier struct {
	notification.Notifier

	mu      sync.Mutex
	notices []reviewNotice
}

func (n *recordingNotifier) NotifyReviewReceived(_ context.Context, recipientID, _ uuid.UUID, reviewerName string, rating int) (*notification.CreateResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, reviewNotice{RecipientID: recipientID, ReviewerName: reviewerName, Rating: rating})
	return &notification.CreateResult{Created: true}, nil
}

type reviewFixture struct {
	svc      Service
	repo     *fakeReviewRepo
	notifier *recordingNotifier
	offer    *entity.Offer
}

func newReviewFixture(status entity.OfferStatus) *reviewFixture {
	offerer, owner := uuid.New(), uuid.New()
	offer := &entity.Offer{
		ID:        uuid.New(),
		OffererID: offerer,
		OwnerID:   owner,
		Offerer:   &entity.User{ID: offerer, Profile: &entity.Profile{DisplayName: "Oscar"}},
		Owner:     &entity.User{ID: owner, Profile: &entity.Profile{DisplayName: "Olive"}},
		Status:    status,
	}
	repo := &fakeReviewRepo{trust: map[uuid.UUID]float64{}}
	notifier := &recordingNotifier{}
	return &reviewFixture{
		svc:      NewService(repo, fakeOffers{offer.ID: offer}, notifier, zap.NewNop()),
		repo:     repo,
		notifier: notifier,
		offer:    offer,
	}
}

func TestCreateReview_HiddenUntilBothReview(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture(entity.OfferCompleted)

	first, err := f.svc.CreateReview(ctx, f.offer.OffererID, reviewDto.CreateReviewRequest{
		OfferID: f.offer.ID,
		Rating:  5,
		Tags:    []string{" Punctual ", "punctual", "friendly"},
	})
	require.NoError(t, err)
	assert.False(t, first.Visible)
	assert.Empty(t, f.notifier.notices)

	page, err := f.svc.ListReviews(ctx, reviewDto.ListReviewsQuery{UserID: f.offer.OwnerID})
	require.NoError(t, err)
	assert.Empty(t, page.Data, "a lone review stays hidden")

	second, err := f.svc.CreateReview(ctx, f.offer.OwnerID, reviewDto.CreateReviewRequest{OfferID: f.offer.ID, Rating: 3})
	require.NoError(t, err)
	assert.True(t, second.Visible)

	assert.InDelta(t, 5.0, f.repo.trust[f.offer.OwnerID], 1e-9)
	assert.InDelta(t, 3.0, f.repo.trust[f.offer.OffererID], 1e-9)

	assert.ElementsMatch(t, []reviewNotice{
		{RecipientID: f.offer.OwnerID, ReviewerName: "Oscar", Rating: 5},
		{RecipientID: f.offer.OffererID, ReviewerName: "Olive", Rating: 3},
	}, f.notifier.notices)

	page, err = f.svc.ListReviews(ctx, reviewDto.ListReviewsQuery{UserID: f.offer.OwnerID})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, []string{"punctual", "friendly"}, []string(page.Data[0].Tags))
	assert.Equal(t, commonDto.PaginationMeta{CurrentPage: 1, TotalPages: 1, TotalItems: 1, Limit: commonDto.DefaultPageLimit}, page.Meta)
}

func TestCreateReview_ConcurrentRevealsOnce(t *testing.T) {
	f := newReviewFixture(entity.OfferCompleted)

	var wg sync.WaitGroup
	for _, reviewer := range []uuid.UUID{f.offer.OffererID, f.offer.OwnerID} {
		wg.Add(1)
		go func(reviewer uuid.UUID) {
			defer wg.Done()
			_, err := f.svc.CreateReview(context.Background(), reviewer, reviewDto.CreateReviewRequest{OfferID: f.offer.ID, Rating: 4})
			assert.NoError(t, err)
		}(reviewer)
	}
	wg.Wait()

	assert.Len(t, f.notifier.notices, 2)
	for _, r := range f.repo.reviews {
		assert.True(t, r.IsVisible)
	}
}

func TestCreateReview_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("trade not completed", func(t *testing.T) {
		f := newReviewFixture(entity.OfferAccepted)
		_, err := f.svc.CreateReview(ctx, f.offer.OffererID, reviewDto.CreateReviewRequest{OfferID: f.offer.ID, Rating: 4})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("outsider", func(t *testing.T) {
		f := newReviewFixture(entity.OfferCompleted)
		_, err := f.svc.CreateReview(ctx, uuid.New(), reviewDto.CreateReviewRequest{OfferID: f.offer.ID, Rating: 4})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("second review by the same reviewer", func(t *testing.T) {
		f := newReviewFixture(entity.OfferCompleted)
		req := reviewDto.CreateReviewRequest{OfferID: f.offer.ID, Rating: 4}
		_, err := f.svc.CreateReview(ctx, f.offer.OffererID, req)
		require.NoError(t, err)
		_, err = f.svc.CreateReview(ctx, f.offer.OffererID, req)
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("rating out of range", func(t *testing.T) {
		f := newReviewFixture(entity.OfferCompleted)
		_, err := f.svc.CreateReview(ctx, f.offer.OffererID, reviewDto.CreateReviewRequest{OfferID: f.offer.ID, Rating: 6})
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})
}
