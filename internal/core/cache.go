package core

import (
	"context"
	"time"
)

// Cache is a TTL key-value store holding values of type T.
// Backends live in internal/cache (memory, redis, redis-aside).
type Cache[T any] interface {
	// Get returns cache.ErrCacheMiss for absent or expired keys.
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// MGet returns only the keys that are present.
	MGet(ctx context.Context, keys []string) (map[string]T, error)

	// GetWithFetch loads key through fetchFunc on a miss and stores the
	// result for ttl. Redis-aside collapses concurrent misses into one fetch.
	GetWithFetch(
		ctx context.Context,
		key string,
		ttl time.Duration,
		fetchFunc func(ctx context.Context, key string) (T, error),
	) (T, error)

	Health(ctx context.Context) error
	Close() error
}
