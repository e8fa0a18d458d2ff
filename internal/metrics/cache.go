package metrics

import (
	"context"
	"time"

	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/models"
)

// CacheWrapper provides a read-through cache for gauge counts, so several
// replicas do not all run the same COUNT query every interval.
type CacheWrapper struct {
	store core.ConnectionCounter
	cache core.Cache[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store core.ConnectionCounter, cache core.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// GetConnectionsCount returns the number of stored connections of platform.
func (m *CacheWrapper) GetConnectionsCount(
	ctx context.Context,
	platform models.Platform,
	ttl time.Duration,
) (int64, error) {
	return m.cache.GetWithFetch(
		ctx,
		"connections:"+platform.String(),
		ttl,
		func(context.Context, string) (int64, error) {
			return m.store.CountConnectionsByPlatform(platform.String())
		},
	)
}

// UpdateGauges refreshes the connection gauges of every platform. Errors
// are counted and returned as a slice so one failing platform does not
// hide the others.
func (m *CacheWrapper) UpdateGauges(ctx context.Context, r Recorder, ttl time.Duration) []error {
	var errs []error
	for _, p := range models.Platforms {
		n, err := m.GetConnectionsCount(ctx, p, ttl)
		if err != nil {
			r.RecordDatabaseQueryError("count_connections_" + p.String())
			errs = append(errs, err)
			continue
		}
		r.SetConnectionsCount(p.String(), int(n))
	}
	return errs
}
