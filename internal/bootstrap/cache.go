package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/cache"
	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/metrics"
	"github.com/adsynq/adsynq/internal/models"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config, log *zap.Logger) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Info("Prometheus metrics initialized")
	} else {
		log.Info("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeMetricsCache returns the cache behind the gauge updater, or nil
// when gauges are not updated.
func initializeMetricsCache(cfg *config.Config) core.Cache[int64] {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return nil
	}
	return cache.NewMemoryCache[int64]()
}

// cacheSpec describes one cache backend selection.
type cacheSpec struct {
	name          string
	kind          string
	prefix        string
	clientTTL     time.Duration
	sizePerConnMB int
}

// newCache builds the cache selected by opts.kind.
func newCache[T any](
	ctx context.Context,
	cfg *config.Config,
	opts cacheSpec,
	log *zap.Logger,
) (core.Cache[T], error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()

	switch opts.kind {
	case config.CacheTypeRedisAside:
		c, err := cache.NewRueidisAsideCache[T](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			opts.prefix,
			opts.clientTTL,
			opts.sizePerConnMB,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis-aside %s cache: %w", opts.name, err)
		}
		log.Info("cache ready",
			zap.String("cache", opts.name),
			zap.String("type", opts.kind),
			zap.String("addr", cfg.RedisAddr),
			zap.Int("db", cfg.RedisDB),
			zap.Duration("client_ttl", opts.clientTTL),
			zap.Int("size_per_conn_mb", opts.sizePerConnMB))
		return c, nil

	case config.CacheTypeRedis:
		c, err := cache.NewRueidisCache[T](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			opts.prefix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis %s cache: %w", opts.name, err)
		}
		log.Info("cache ready",
			zap.String("cache", opts.name),
			zap.String("type", opts.kind),
			zap.String("addr", cfg.RedisAddr),
			zap.Int("db", cfg.RedisDB))
		return c, nil

	default: // memory
		log.Info("cache ready (single instance only)",
			zap.String("cache", opts.name),
			zap.String("type", config.CacheTypeMemory))
		return cache.NewMemoryCache[T](), nil
	}
}

// initializeTokenCache backs the token store
func initializeTokenCache(
	ctx context.Context,
	cfg *config.Config,
	log *zap.Logger,
) (core.Cache[models.TokenSet], error) {
	return newCache[models.TokenSet](ctx, cfg, cacheSpec{
		name:   "token",
		kind:   cfg.TokenStoreType,
		prefix: "adsynq:tokens:",
	}, log)
}

// initializePlanCache backs the subscription plan lookups
func initializePlanCache(
	ctx context.Context,
	cfg *config.Config,
	log *zap.Logger,
) (core.Cache[models.SubscriptionPlan], error) {
	return newCache[models.SubscriptionPlan](ctx, cfg, cacheSpec{
		name:          "plan",
		kind:          cfg.PlanCacheType,
		prefix:        "adsynq:plans:",
		clientTTL:     cfg.PlanCacheClientTTL,
		sizePerConnMB: cfg.PlanCacheSizePerConn,
	}, log)
}
