package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidisaside"

	"github.com/adsynq/adsynq/internal/core"
)

var _ core.Cache[struct{}] = (*RueidisAsideCache[struct{}])(nil)

// RueidisAsideCache layers rueidis client-side caching (RESP3 invalidation)
// over Redis. Concurrent misses for one key share a single fetch, which
// keeps a burst of dashboard loads from hammering the backend plan endpoint.
type RueidisAsideCache[T any] struct {
	client    rueidisaside.CacheAsideClient
	keyPrefix string
	clientTTL time.Duration
}

// NewRueidisAsideCache creates the client. clientTTL bounds how long a
// value stays in the local cache; sizePerConnMB is the local cache budget
// per connection.
func NewRueidisAsideCache[T any](
	ctx context.Context,
	addr, password string,
	db int,
	keyPrefix string,
	clientTTL time.Duration,
	sizePerConnMB int,
) (*RueidisAsideCache[T], error) {
	client, err := rueidisaside.NewClient(rueidisaside.ClientOption{
		ClientOption: rueidis.ClientOption{
			InitAddress:       []string{addr},
			Password:          password,
			SelectDB:          db,
			CacheSizeEachConn: sizePerConnMB * 1024 * 1024,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rueidisaside client: %w", err)
	}

	if err := client.Client().Do(ctx, client.Client().B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RueidisAsideCache[T]{
		client:    client,
		keyPrefix: keyPrefix,
		clientTTL: clientTTL,
	}, nil
}

func (r *RueidisAsideCache[T]) key(k string) string {
	return r.keyPrefix + k
}

// Get reads through the local cache but never populates Redis.
func (r *RueidisAsideCache[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	raw, err := r.client.Get(ctx, r.clientTTL, r.key(key),
		func(context.Context, string) (string, error) {
			return "", ErrCacheMiss
		},
	)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return zero, ErrCacheMiss
		}
		return zero, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if raw == "" {
		return zero, ErrCacheMiss
	}
	return decode[T](raw)
}

func (r *RueidisAsideCache[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	var zero T

	raw, err := r.client.Get(ctx, ttl, r.key(key),
		func(ctx context.Context, _ string) (string, error) {
			value, err := fetchFunc(ctx, key)
			if err != nil {
				return "", err
			}
			return encode(value)
		},
	)
	if err != nil {
		return zero, fmt.Errorf("failed to get with fetch: %w", err)
	}
	return decode[T](raw)
}

func (r *RueidisAsideCache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}

	c := r.client.Client()
	if err := c.Do(ctx, c.B().Set().Key(r.key(key)).Value(raw).Ex(ttl).Build()).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (r *RueidisAsideCache[T]) MGet(ctx context.Context, keys []string) (map[string]T, error) {
	out := make(map[string]T, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}

	c := r.client.Client()
	values, err := c.DoCache(ctx, c.B().Mget().Key(full...).Cache(), r.clientTTL).ToArray()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	for i, v := range values {
		if v.IsNil() {
			continue
		}
		raw, err := v.ToString()
		if err != nil {
			continue
		}
		if item, err := decode[T](raw); err == nil {
			out[keys[i]] = item
		}
	}
	return out, nil
}

// Delete removes the key from Redis; other replicas drop their local copy
// through server-assisted invalidation.
func (r *RueidisAsideCache[T]) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (r *RueidisAsideCache[T]) Health(ctx context.Context) error {
	c := r.client.Client()
	if err := c.Do(ctx, c.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (r *RueidisAsideCache[T]) Close() error {
	r.client.Close()
	return nil
}
