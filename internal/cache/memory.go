package cache

import (
	"context"
	"sync"
	"time"

	"github.com/adsynq/adsynq/internal/core"
)

var _ core.Cache[struct{}] = (*MemoryCache[struct{}])(nil)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) live(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// MemoryCache keeps values in process memory with lazy expiry.
// Single instance only: tokens and plans are not shared across replicas.
type MemoryCache[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	now   func() time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) {
		o.now = now
	}
}

// NewMemoryCache creates a new memory cache instance.
func NewMemoryCache[T any](opts ...MemoryOption) *MemoryCache[T] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryCache[T]{
		items: make(map[string]entry[T]),
		now:   o.now,
	}
}

func (m *MemoryCache[T]) Get(_ context.Context, key string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.items[key]
	if !ok || !e.live(m.now()) {
		var zero T
		return zero, ErrCacheMiss
	}
	return e.value, nil
}

func (m *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = entry[T]{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryCache[T]) MGet(_ context.Context, keys []string) (map[string]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	out := make(map[string]T, len(keys))
	for _, key := range keys {
		if e, ok := m.items[key]; ok && e.live(now) {
			out[key] = e.value
		}
	}
	return out, nil
}

func (m *MemoryCache[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// GetWithFetch has no stampede protection; concurrent misses each fetch.
func (m *MemoryCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	if value, err := m.Get(ctx, key); err == nil {
		return value, nil
	}
	value, err := fetchFunc(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	_ = m.Set(ctx, key, value, ttl)
	return value, nil
}

func (m *MemoryCache[T]) Health(context.Context) error {
	return nil
}

// Close drops every entry.
func (m *MemoryCache[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[string]entry[T])
	return nil
}
