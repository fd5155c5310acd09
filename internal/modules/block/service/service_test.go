package service

import (
	"context"
	"sync"
	"testing"

	"anoa.com/localswap/internal/entity"
	blockDto "anoa.com/localswap/internal/modules/block/dto"
	"anoa.com/localswap/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeBlockRepo keeps blocks and offers in memory and mirrors the
// transactional cancel of the real repository.
type fakeBlockRepo struct {
	blocks []entity.Block
	offers []entity.Offer
}

func (f *fakeBlockRepo) Create(_ context.Context, b *entity.Block) ([]entity.Offer, error) {
	for _, existing := range f.blocks {
		if existing.BlockerID == b.BlockerID && existing.BlockedID == b.BlockedID {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	b.ID = uuid.New()
	f.blocks = append(f.blocks, *b)

	var cancelled []entity.Offer
	for i := range f.offers {
		o := &f.offers[i]
		between := (o.OffererID == b.BlockerID && o.OwnerID == b.BlockedID) ||
			(o.OffererID == b.BlockedID && o.OwnerID == b.BlockerID)
		live := o.Status == entity.OfferPending || o.Status == entity.OfferCountered || o.Status == entity.OfferAccepted
		if between && live {
			o.Status = entity.OfferCancelled
			cancelled = append(cancelled, *o)
		}
	}
	return cancelled, nil
}

func (f *fakeBlockRepo) Delete(_ context.Context, blockerID, blockedID uuid.UUID) (int64, error) {
	for i, b := range f.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeBlockRepo) ListByBlocker(_ context.Context, blockerID uuid.UUID) ([]entity.Block, error) {
	var out []entity.Block
	for _, b := range f.blocks {
		if b.BlockerID == blockerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBlockRepo) IsBlockedEitherWay(_ context.Context, a, b uuid.UUID) (bool, error) {
	for _, blk := range f.blocks {
		if (blk.BlockerID == a && blk.BlockedID == b) || (blk.BlockerID == b && blk.BlockedID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBlockRepo) RelatedUserIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, b := range f.blocks {
		switch userID {
		case b.BlockerID:
			ids = append(ids, b.BlockedID)
		case b.BlockedID:
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestBlockUser_CancelsLiveOffers(t *testing.T) {
	ctx := context.Background()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	repo := &fakeBlockRepo{offers: []entity.Offer{
		{ID: uuid.New(), OffererID: alice, OwnerID: bob, Status: entity.OfferPending},
		{ID: uuid.New(), OffererID: bob, OwnerID: alice, Status: entity.OfferAccepted},
		{ID: uuid.New(), OffererID: bob, OwnerID: alice, Status: entity.OfferCountered},
		{ID: uuid.New(), OffererID: alice, OwnerID: bob, Status: entity.OfferCompleted},
		{ID: uuid.New(), OffererID: alice, OwnerID: carol, Status: entity.OfferPending},
	}}
	pub := &recordingPublisher{}
	svc := NewService(repo, pub, zap.NewNop())

	result, err := svc.BlockUser(ctx, alice, blockDto.BlockUserRequest{UserID: bob})
	require.NoError(t, err)
	assert.Equal(t, 3, result.CancelledOffers)
	assert.Len(t, pub.events, 3)

	statuses := []entity.OfferStatus{}
	for _, o := range repo.offers {
		statuses = append(statuses, o.Status)
	}
	assert.Equal(t, []entity.OfferStatus{
		entity.OfferCancelled,
		entity.OfferCancelled,
		entity.OfferCancelled,
		entity.OfferCompleted,
		entity.OfferPending,
	}, statuses)

	blocked, err := svc.IsBlockedEitherWay(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, blocked, "a block is mutual for interaction checks")

	related, err := svc.RelatedUserIDs(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice}, related)
}

func TestBlockUser_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeBlockRepo{}, &recordingPublisher{}, zap.NewNop())
	alice, bob := uuid.New(), uuid.New()

	_, err := svc.BlockUser(ctx, alice, blockDto.BlockUserRequest{UserID: alice})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = svc.BlockUser(ctx, alice, blockDto.BlockUserRequest{UserID: bob})
	require.NoError(t, err)

	_, err = svc.BlockUser(ctx, alice, blockDto.BlockUserRequest{UserID: bob})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestUnblockUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeBlockRepo{}, &recordingPublisher{}, zap.NewNop())
	alice, bob := uuid.New(), uuid.New()

	err := svc.UnblockUser(ctx, alice, bob)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.BlockUser(ctx, alice, blockDto.BlockUserRequest{UserID: bob})
	require.NoError(t, err)

	// Only the blocker can lift the block.
	err = svc.UnblockUser(ctx, bob, alice)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, svc.UnblockUser(ctx, alice, bob))
	blocks, err := svc.ListBlocks(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}
