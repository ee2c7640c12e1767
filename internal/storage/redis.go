package storage

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"

	"tarifaluz/internal/types"
)

// Compile-time assertion that RedisStore implements types.Persistence.
var _ types.Persistence = (*RedisStore)(nil)

// RedisStore persists key/value entries in Redis. Values are stored
// without expiry; the notification store manages its own entry lifetimes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a RedisStore around an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the value for key; the boolean is false when absent.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, types.NewAppError(types.ErrCodePersistenceRead, "failed to read redis key", err)
	}
	return value, true, nil
}

// Set stores value under key, overwriting any previous value.
func (s *RedisStore) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return types.NewAppError(types.ErrCodePersistenceWrite, "failed to write redis key", err)
	}
	return nil
}

// Ping verifies connectivity; used at startup to fail fast on a bad
// Redis address.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return types.NewAppError(types.ErrCodePersistenceRead, "redis ping failed", err)
	}
	return nil
}
