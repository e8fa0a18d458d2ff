package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/apiclient"
	"github.com/adsynq/adsynq/internal/backend"
	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/logger"
	"github.com/adsynq/adsynq/internal/metrics"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/store"
	"github.com/adsynq/adsynq/internal/tokens"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config
	Logger *zap.Logger

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	MetricsCache         core.Cache[int64]
	TokenCache           core.Cache[models.TokenSet]
	PlanCache            core.Cache[models.SubscriptionPlan]
	RateLimitRedisClient *redis.Client

	// Domain
	Tokens    *tokens.Store
	Platforms *platform.Registry
	Clients   *apiclient.Manager
	Backend   *backend.API
	Services  serviceSet

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	log, err := logger.New(cfg.LogLevel, environment(cfg))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	app := &Application{Config: cfg, Logger: log}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	ctx := context.Background()

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		app.closeInfrastructure()
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

func environment(cfg *config.Config) string {
	if cfg.IsProduction {
		return "production"
	}
	return "development"
}

// initializeInfrastructure sets up database, metrics, caches, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config, app.Logger)
	app.MetricsCache = initializeMetricsCache(app.Config)

	// Caches
	app.TokenCache, err = initializeTokenCache(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}
	app.PlanCache, err = initializePlanCache(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}

	return nil
}

// closeInfrastructure releases whatever was opened before a startup failure
func (app *Application) closeInfrastructure() {
	if app.RateLimitRedisClient != nil {
		_ = app.RateLimitRedisClient.Close()
	}
	for _, c := range []interface{ Close() error }{app.PlanCache, app.TokenCache, app.MetricsCache} {
		if c != nil {
			_ = c.Close()
		}
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}

// initializeBusinessLayer sets up the token store, platform clients and services
func (app *Application) initializeBusinessLayer() error {
	app.Tokens = tokens.NewStore(app.TokenCache, app.Config.TokenStoreTTL)

	var err error
	app.Platforms, err = initializePlatforms(app.Config, app.MetricsRecorder, app.Logger)
	if err != nil {
		return err
	}
	logPlatformStatus(app.Logger, app.Platforms)

	app.Clients, err = initializeBackendClients(app.Config, app.Tokens, app.MetricsRecorder, app.Logger)
	if err != nil {
		return err
	}
	app.Backend = backend.New(app.Clients, app.PlanCache, app.Config.PlanCacheTTL)

	app.Services = initializeServices(
		app.Config,
		app.DB,
		app.Tokens,
		app.Platforms,
		app.Clients,
		app.Backend,
		app.MetricsRecorder,
		app.Logger,
	)
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(app.Config, app.Services, healthChecks(app))

	var err error
	app.Router, err = setupRouter(
		app.Config,
		app.HandlerSet,
		app.MetricsRecorder,
		app.RateLimitRedisClient,
		app.Logger,
	)
	if err != nil {
		return err
	}

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server, app.Logger)
	addServerShutdownJob(m, app.Server, app.Config.ServerShutdownTimeout, app.Logger)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient, app.Logger)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache, app.Logger)
	addCacheCleanupJob(m, "token", app.TokenCache, app.Logger)
	addCacheCleanupJob(m, "plan", app.PlanCache, app.Logger)
	addCacheCleanupJob(m, "metrics", app.MetricsCache, app.Logger)
	addDatabaseShutdownJob(m, app.DB, app.Logger)

	// Wait for graceful shutdown
	<-m.Done()
}
