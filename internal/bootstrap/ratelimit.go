package bootstrap

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/middleware"
)

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	api     gin.HandlerFunc
	connect gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration
// Accepts an optional go-redis client
func setupRateLimiting(
	cfg *config.Config,
	redisClient *redis.Client,
	log *zap.Logger,
) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		noOp := func(c *gin.Context) { c.Next() }
		return rateLimitMiddlewares{api: noOp, connect: noOp}, nil
	}

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	log.Info("rate limiting enabled",
		zap.String("store", cfg.RateLimitStore),
		zap.Int("api_per_minute", cfg.APIRateLimit),
		zap.Int("connect_per_minute", cfg.ConnectRateLimit))

	createLimiter := func(requestsPerMinute int, name string) (gin.HandlerFunc, error) {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			StoreType:         storeType,
			Redis:             redisClient,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
			Prefix:            "adsynq:ratelimit:" + name,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s rate limiter: %w", name, err)
		}
		return limiter, nil
	}

	api, err := createLimiter(cfg.APIRateLimit, "api")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}
	connect, err := createLimiter(cfg.ConnectRateLimit, "connect")
	if err != nil {
		return rateLimitMiddlewares{}, err
	}
	return rateLimitMiddlewares{api: api, connect: connect}, nil
}
