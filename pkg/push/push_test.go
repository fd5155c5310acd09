package push

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	mu      sync.Mutex
	subs    []Subscription
	removed []string
}

func (m *memoryStore) ListSubscriptions(_ context.Context, _ uuid.UUID) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Subscription(nil), m.subs...), nil
}

func (m *memoryStore) RemoveSubscription(_ context.Context, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, endpoint)
	return nil
}

func statusTransport(codes map[string]int) transport {
	return func(_ context.Context, _ []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
		code, ok := codes[sub.Endpoint]
		if !ok {
			return nil, errors.New("connection refused")
		}
		return &http.Response{
			StatusCode: code,
			Body:       io.NopCloser(strings.NewReader("")),
		}, nil
	}
}

func TestWebPushSender_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("counts successes and failures and drops gone subscriptions", func(t *testing.T) {
		store := &memoryStore{subs: []Subscription{
			{Endpoint: "https://push.example/ok"},
			{Endpoint: "https://push.example/gone"},
			{Endpoint: "https://push.example/missing"},
			{Endpoint: "https://push.example/error"},
			{Endpoint: "https://push.example/unreachable"},
		}}
		sender := newWebPushSender(store, Config{}, zap.NewNop(), statusTransport(map[string]int{
			"https://push.example/ok":      http.StatusCreated,
			"https://push.example/gone":    http.StatusGone,
			"https://push.example/missing": http.StatusNotFound,
			"https://push.example/error":   http.StatusInternalServerError,
		}))

		result, err := sender.Send(ctx, uuid.New(), Payload{Title: "t", Body: "b", URL: "/"})
		require.NoError(t, err)
		assert.Equal(t, Result{Success: 1, Failed: 4}, result)
		assert.ElementsMatch(t, []string{"https://push.example/gone", "https://push.example/missing"}, store.removed)
	})

	t.Run("no subscriptions is a no-op", func(t *testing.T) {
		sender := newWebPushSender(&memoryStore{}, Config{}, zap.NewNop(), statusTransport(nil))

		result, err := sender.Send(ctx, uuid.New(), Payload{Title: "t"})
		require.NoError(t, err)
		assert.Equal(t, Result{}, result)
	})
}
