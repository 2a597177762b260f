package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/models"
)

func newSession(token string, expiresAt time.Time) models.Session {
	return models.Session{
		Token:       token,
		Username:    "wanderer",
		AccessToken: "user-access-token",
		CreatedAt:   expiresAt.Add(-time.Hour),
		ExpiresAt:   expiresAt,
	}
}

func TestNewToken(t *testing.T) {
	first, err := NewToken()
	require.NoError(t, err)
	second, err := NewToken()
	require.NoError(t, err)

	require.Len(t, first, 64, "32 random bytes hex encoded")
	require.NotEqual(t, first, second)
}

func TestMemoryStore(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	newStore := func() *MemoryStore {
		m := NewMemoryStore(logger.NewNoOpLogger())
		m.now = func() time.Time { return now }
		return m
	}

	t.Run("create and get", func(t *testing.T) {
		m := newStore()
		s := newSession("token-1", now.Add(time.Hour))

		require.NoError(t, m.Create(t.Context(), s))
		got, err := m.Get(t.Context(), "token-1")

		require.NoError(t, err)
		require.Equal(t, s, got)
	})

	t.Run("empty token rejected", func(t *testing.T) {
		m := newStore()

		err := m.Create(t.Context(), newSession("", now.Add(time.Hour)))

		require.Error(t, err)
	})

	t.Run("unknown token", func(t *testing.T) {
		m := newStore()

		_, err := m.Get(t.Context(), "unknown")

		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("expired session removed on read", func(t *testing.T) {
		m := newStore()
		require.NoError(t, m.Create(t.Context(), newSession("token-1", now)))

		_, err := m.Get(t.Context(), "token-1")
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)

		_, err = m.Get(t.Context(), "token-1")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound, "expired session must be deleted on first read")
	})

	t.Run("invalidate", func(t *testing.T) {
		m := newStore()
		require.NoError(t, m.Create(t.Context(), newSession("token-1", now.Add(time.Hour))))

		require.NoError(t, m.Invalidate(t.Context(), "token-1"))
		require.NoError(t, m.Invalidate(t.Context(), "token-1"), "invalidating twice is fine")

		_, err := m.Get(t.Context(), "token-1")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("sweep", func(t *testing.T) {
		m := newStore()
		require.NoError(t, m.Create(t.Context(), newSession("expired", now.Add(-time.Minute))))
		require.NoError(t, m.Create(t.Context(), newSession("expires-now", now)))
		require.NoError(t, m.Create(t.Context(), newSession("alive", now.Add(time.Minute))))

		removed := m.Sweep(now)

		require.Equal(t, 2, removed)
		require.Len(t, m.sessions, 1)
		_, err := m.Get(t.Context(), "alive")
		require.NoError(t, err)
	})

	t.Run("run sweeps until context done", func(t *testing.T) {
		m := newStore()
		require.NoError(t, m.Create(t.Context(), newSession("expired", now.Add(-time.Minute))))

		ctx, cancel := context.WithCancel(t.Context())
		stopped := m.Run(ctx, 10*time.Millisecond)

		require.Eventually(t, func() bool {
			m.mu.Lock()
			defer m.mu.Unlock()
			return len(m.sessions) == 0
		}, time.Second, 10*time.Millisecond)

		cancel()
		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("sweeper must stop when context is done")
		}
	})
}
