package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/localswap/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client), mr
}

func TestLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("second call inside the window is rejected", func(t *testing.T) {
		limiter, _ := setupLimiter(t)

		require.NoError(t, limiter.Allow(ctx, userID, "message", 10*time.Second))

		err := limiter.Allow(ctx, userID, "message", 10*time.Second)
		require.Error(t, err)

		var rlErr *RateLimitError
		require.True(t, errors.As(err, &rlErr))
		assert.Greater(t, rlErr.RetryAfter, time.Duration(0))
		assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
	})

	t.Run("window expiry allows again", func(t *testing.T) {
		limiter, mr := setupLimiter(t)

		require.NoError(t, limiter.Allow(ctx, userID, "message", 5*time.Second))
		mr.FastForward(6 * time.Second)
		assert.NoError(t, limiter.Allow(ctx, userID, "message", 5*time.Second))
	})

	t.Run("actions and users are independent", func(t *testing.T) {
		limiter, _ := setupLimiter(t)

		require.NoError(t, limiter.Allow(ctx, userID, "message", time.Minute))
		assert.NoError(t, limiter.Allow(ctx, userID, "offer", time.Minute))
		assert.NoError(t, limiter.Allow(ctx, uuid.New(), "message", time.Minute))
	})

	t.Run("clear releases the cooldown", func(t *testing.T) {
		limiter, _ := setupLimiter(t)

		require.NoError(t, limiter.Allow(ctx, userID, "message", time.Minute))
		require.NoError(t, limiter.Clear(ctx, userID, "message"))
		assert.NoError(t, limiter.Allow(ctx, userID, "message", time.Minute))
	})

	t.Run("nil client never limits", func(t *testing.T) {
		limiter := New(nil)
		assert.NoError(t, limiter.Allow(ctx, userID, "message", time.Minute))
		assert.NoError(t, limiter.Allow(ctx, userID, "message", time.Minute))
	})
}
