package bootstrap

import (
	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/handlers"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	connection *handlers.ConnectionHandler
	selection  *handlers.SelectionHandler
	insights   *handlers.InsightsHandler
	session    *handlers.SessionHandler
	health     *handlers.HealthHandler
}

// initializeHandlers initializes all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	s serviceSet,
	checks map[string]handlers.HealthChecker,
) handlerSet {
	return handlerSet{
		connection: handlers.NewConnectionHandler(s.connection, cfg.PostConnectRedirect, cfg.BaseURL),
		selection:  handlers.NewSelectionHandler(s.selection),
		insights:   handlers.NewInsightsHandler(s.insights),
		session:    handlers.NewSessionHandler(s.session),
		health:     handlers.NewHealthHandler(checks),
	}
}

// healthChecks lists the dependencies reported by /healthz
func healthChecks(app *Application) map[string]handlers.HealthChecker {
	checks := map[string]handlers.HealthChecker{
		"database":    app.DB,
		"token_cache": app.TokenCache,
		"plan_cache":  app.PlanCache,
	}
	if app.RateLimitRedisClient != nil {
		checks["rate_limit_redis"] = redisPinger{app.RateLimitRedisClient}
	}
	return checks
}
