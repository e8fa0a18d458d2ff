package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/metrics"
	"github.com/adsynq/adsynq/internal/store"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second, // insights fan out to several platforms
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server, log *zap.Logger) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal("failed to start server", zap.Error(err))
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server, timeout time.Duration, log *zap.Logger) {
	m.AddShutdownJob(func() error {
		log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
			return err
		}

		log.Info("server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client, log *zap.Logger) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := redisClient.Close(); err != nil {
			log.Error("error closing Redis client", zap.Error(err))
			return err
		}
		log.Info("Redis connection closed")
		return nil
	})
}

// addDatabaseShutdownJob closes the database after the server stopped
func addDatabaseShutdownJob(m *graceful.Manager, db *store.Store, log *zap.Logger) {
	m.AddShutdownJob(func() error {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
			return err
		}
		return nil
	})
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder metrics.Recorder,
	metricsCache core.Cache[int64],
	log *zap.Logger,
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled || metricsCache == nil {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeUpdateInterval)
		defer ticker.Stop()

		wrapper := metrics.NewCacheWrapper(db, metricsCache)
		errLog := newErrorLogger(log)

		update := func() {
			for _, err := range wrapper.UpdateGauges(ctx, recorder, cfg.MetricsGaugeUpdateInterval) {
				errLog.logIfNeeded("count_connections", err)
			}
		}

		// Update immediately on startup
		update()
		for {
			select {
			case <-ticker.C:
				update()
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addCacheCleanupJob closes a cache on shutdown
func addCacheCleanupJob(m *graceful.Manager, name string, c interface{ Close() error }, log *zap.Logger) {
	if c == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := c.Close(); err != nil {
			log.Error("error closing cache", zap.String("cache", name), zap.Error(err))
		} else {
			log.Info("cache closed", zap.String("cache", name))
		}
		return nil
	})
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	mu              sync.Mutex
	log             *zap.Logger
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
	now             func() time.Time
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger(log *zap.Logger) *errorLogger {
	return &errorLogger{
		log:             log,
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: 5 * time.Minute, // Log at most once per 5 minutes per operation
		now:             time.Now,
	}
}

// logIfNeeded logs an error only if rate limit allows. It reports whether
// the error was logged.
func (e *errorLogger) logIfNeeded(operation string, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if last, ok := e.lastErrorTimes[operation]; ok && now.Sub(last) < e.rateLimitWindow {
		return false
	}
	e.log.Warn("gauge query failed, further errors suppressed",
		zap.String("operation", operation),
		zap.Duration("window", e.rateLimitWindow),
		zap.Error(err))
	e.lastErrorTimes[operation] = now
	return true
}

// redisPinger reports the rate limit Redis in /healthz
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Health(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
