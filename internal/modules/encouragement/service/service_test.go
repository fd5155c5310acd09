package service

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"anoa.com/localswap/internal/entity"
	notification "anoa.com/localswap/internal/modules/notification/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeQuotes struct {
	quotes []*entity.DailyQuote
}

func (f *fakeQuotes) ClaimNext(_ context.Context, now time.Time) (*entity.DailyQuote, error) {
	var next *entity.DailyQuote
	for _, q := range f.quotes {
		if !q.IsActive {
			continue
		}
		switch {
		case next == nil:
			next = q
		case q.UsedAt == nil && next.UsedAt != nil:
			next = q
		case q.UsedAt != nil && next.UsedAt != nil && q.UsedAt.Before(*next.UsedAt):
			next = q
		}
	}
	if next == nil {
		return nil, gorm.ErrRecordNotFound
	}
	next.UsedAt = &now
	cp := *next
	return &cp, nil
}

func (f *fakeQuotes) SeedIfEmpty(_ context.Context, quotes []entity.DailyQuote) (int, error) {
	return 0, nil
}

type fakeUsers []uuid.UUID

func (f fakeUsers) ActiveUserIDs(_ context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, id := range f {
		if bytes.Compare(id[:], after[:]) > 0 {
			out = append(out, id)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func sortedUsers(n int) fakeUsers {
	ids := make(fakeUsers, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

type recordingEncourager struct {
	mu       sync.Mutex
	sent     map[uuid.UUID]string
	optedOut map[uuid.UUID]bool
}

func (r *recordingEncourager) NotifyDailyEncouragement(_ context.Context, recipientID uuid.UUID, quote, author string) (*notification.CreateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.optedOut[recipientID] {
		return &notification.CreateResult{Reason: "type_disabled"}, nil
	}
	r.sent[recipientID] = quote + "|" + author
	return &notification.CreateResult{Created: true}, nil
}

func TestSendDailyEncouragement(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)
	author := "Helen Keller"

	quotes := &fakeQuotes{quotes: []*entity.DailyQuote{
		{ID: uuid.New(), Content: "recent", IsActive: true, UsedAt: &yesterday},
		{ID: uuid.New(), Content: "oldest", Author: &author, IsActive: true, UsedAt: &lastWeek},
		{ID: uuid.New(), Content: "retired", IsActive: false},
	}}
	users := sortedUsers(userPageSize + 7)
	encourager := &recordingEncourager{
		sent:     map[uuid.UUID]string{},
		optedOut: map[uuid.UUID]bool{users[3]: true},
	}

	svc := NewService(quotes, users, encourager, zap.NewNop()).(*service)
	svc.now = func() time.Time { return now }

	res, err := svc.SendDailyEncouragement(ctx)
	require.NoError(t, err)
	assert.Equal(t, quotes.quotes[1].ID, res.QuoteID, "least recently used quote wins")
	assert.Equal(t, len(users), res.Recipients)
	assert.Equal(t, len(users)-1, res.Delivered)
	assert.Equal(t, "oldest|Helen Keller", encourager.sent[users[0]])
	assert.Equal(t, now, *quotes.quotes[1].UsedAt)

	res, err = svc.SendDailyEncouragement(ctx)
	require.NoError(t, err)
	assert.Equal(t, quotes.quotes[0].ID, res.QuoteID, "quotes rotate")
}

func TestSendDailyEncouragement_NoQuotes(t *testing.T) {
	encourager := &recordingEncourager{sent: map[uuid.UUID]string{}}
	svc := NewService(&fakeQuotes{}, sortedUsers(3), encourager, zap.NewNop())

	res, err := svc.SendDailyEncouragement(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Recipients)
	assert.Empty(t, encourager.sent)
}
