package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/models"
)

const redisKeyPrefix = "trippit:session:"

// Session store shared between processes
// Redis drops a record when its TTL is over, Get also checks ExpiresAt for the clock skew window
type RedisStore struct {
	client redis.UniversalClient
	logger logger.Logger
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, l logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: l,
		now:    time.Now,
	}
}

func redisKey(token string) string {
	return redisKeyPrefix + token
}

func (r *RedisStore) Create(ctx context.Context, s models.Session) error {
	if s.Token == "" {
		return errors.New("session token must not be empty")
	}

	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("error while creating session. Err: %w", apperrors.ErrSessionExpired)
	}

	value, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error while encoding session. Err: %w", err)
	}

	if err := r.client.Set(ctx, redisKey(s.Token), value, ttl).Err(); err != nil {
		return fmt.Errorf("error while saving session. Err: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, token string) (models.Session, error) {
	var s models.Session

	value, err := r.client.Get(ctx, redisKey(token)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return s, apperrors.ErrSessionNotFound
	case err != nil:
		return s, fmt.Errorf("error while reading session. Err: %w", err)
	}

	if err := json.Unmarshal(value, &s); err != nil {
		return models.Session{}, fmt.Errorf("error while decoding session. Err: %w", err)
	}

	if s.ExpiredAt(r.now()) {
		if err := r.client.Del(ctx, redisKey(token)).Err(); err != nil {
			// Redis TTL removes it anyway
			r.logger.Warn("Failed to delete expired session", "error", err)
		}
		return models.Session{}, apperrors.ErrSessionExpired
	}

	return s, nil
}

func (r *RedisStore) Invalidate(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, redisKey(token)).Err(); err != nil {
		return fmt.Errorf("error while deleting session. Err: %w", err)
	}
	return nil
}
