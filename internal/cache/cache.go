// Package cache provides an explicitly constructed TTL cache backed by
// Redis. The cache instance is owned by the process's wiring in main and
// injected where needed; there is no package-level singleton.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// SystemStatsTTL is how long the system-wide stats snapshot stays cached.
// There is no invalidation hook; staleness up to the TTL is accepted.
const SystemStatsTTL = 5 * time.Minute

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the minimal key/value surface the cache needs. The Redis
// implementation is used in production; tests inject an in-memory fake.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore implements Store on a Redis client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Cache is a TTL cache over a Store. There is deliberately no invalidation
// hook: up to one TTL period of staleness is the accepted contract.
type Cache struct {
	store Store
	ttl   time.Duration
}

// New creates a cache with the injected store and TTL.
func New(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl}
}

// WithCache returns the cached value for key, or runs produce, stores the
// result under the cache's TTL, and returns it. Store failures degrade to
// calling produce directly; a cache outage never fails the read path.
func WithCache[T any](ctx context.Context, c *Cache, key string, produce func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	data, err := c.store.Get(ctx, key)
	if err == nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		slog.Warn("Discarding undecodable cache entry", "key", key, "error", err)
	} else if !errors.Is(err, ErrMiss) {
		slog.Warn("Cache read failed, computing fresh value", "key", key, "error", err)
	}

	value, err := produce(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Failed to encode value for caching", "key", key, "error", err)
		return value, nil
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
	return value, nil
}
