package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/models"
)

// Process-local session store
// Expired sessions are removed on read and by Sweep
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session

	logger logger.Logger
	now    func() time.Time
}

func NewMemoryStore(l logger.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.Session),
		logger:   l,
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s models.Session) error {
	if s.Token == "" {
		return errors.New("session token must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.Token] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return models.Session{}, apperrors.ErrSessionNotFound
	}

	if s.ExpiredAt(m.now()) {
		delete(m.sessions, token)
		return models.Session{}, apperrors.ErrSessionExpired
	}

	return s, nil
}

// Invalidating unknown token is not an error
func (m *MemoryStore) Invalidate(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

// Remove every session expired at now; return how many were removed
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, s := range m.sessions {
		if s.ExpiredAt(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Sweep expired sessions every interval until ctx is done
// The returned channel is closed when the sweeper stopped
func (m *MemoryStore) Run(ctx context.Context, interval time.Duration) <-chan struct{} {
	idleStopped := make(chan struct{})
	m.logger.Debug("Starting session sweeper", "interval", interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.logger.Debug("Session sweeper stopped by context")
				return

			case <-ticker.C:
				if removed := m.Sweep(m.now()); removed > 0 {
					m.logger.Debug("Expired sessions removed", "count", removed)
				}
			}
		}
	}()

	return idleStopped
}
