package bootstrap

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/metrics"
	"github.com/adsynq/adsynq/internal/middleware"
)

const sessionCookieName = "adsynq_session"

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	recorder metrics.Recorder,
	rateLimitRedisClient *redis.Client,
	log *zap.Logger,
) (*gin.Engine, error) {
	setupGinMode(cfg)
	middleware.LoginPath = cfg.LoginURL

	r := gin.New()
	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(middleware.RequestLogger(log), gin.Recovery())
	setupSessionMiddleware(r, cfg)

	r.GET("/healthz", h.health.Health)
	setupMetricsEndpoint(r, cfg, log)

	limiters, err := setupRateLimiting(cfg, rateLimitRedisClient, log)
	if err != nil {
		return nil, err
	}
	setupAllRoutes(r, h, limiters)

	log.Info("adsynq connector starting",
		zap.String("addr", cfg.ServerAddr),
		zap.String("base_url", cfg.BaseURL),
		zap.String("backend_url", cfg.BackendURL))
	return r, nil
}

// setupSessionMiddleware configures the cookie session that carries the
// signed-in user and the pending OAuth state
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config, log *zap.Logger) {
	switch {
	case !cfg.MetricsEnabled:
		log.Info("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Info("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Info("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet, limiters rateLimitMiddlewares) {
	// The login boundary hands over backend tokens before any session
	// exists, so this one mutation carries no CSRF token.
	r.POST("/api/session", limiters.api, h.session.Attach)

	// The provider redirects the browser here; the query is stripped by
	// the redirect that follows.
	r.GET("/oauth/callback", middleware.RequireSession(), limiters.connect, h.connection.Callback)

	api := r.Group("/api")
	api.Use(middleware.RequireSession(), limiters.api, middleware.CSRFMiddleware())
	{
		api.DELETE("/session", h.session.Drop)

		api.GET("/connect/:platform", limiters.connect, h.connection.Connect)
		api.GET("/connections", h.connection.List)
		api.POST("/connections/:id/refresh", h.connection.Refresh)
		api.DELETE("/connections/:id", h.connection.Disconnect)
		api.GET("/connections/:id/selection", h.selection.Get)
		api.POST("/connections/:id/selection", h.selection.Submit)

		api.POST("/selection/toggle", h.selection.Toggle)
		api.GET("/insights", h.insights.Summary)
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
		return
	}
	gin.SetMode(gin.DebugMode)
}
