package bootstrap

import (
	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/apiclient"
	"github.com/adsynq/adsynq/internal/backend"
	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/insights"
	"github.com/adsynq/adsynq/internal/logger"
	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/services"
	"github.com/adsynq/adsynq/internal/store"
	"github.com/adsynq/adsynq/internal/tokens"
)

// serviceSet holds all business services
type serviceSet struct {
	connection *services.ConnectionService
	selection  *services.SelectionService
	insights   *services.InsightsService
	session    *services.SessionService
}

// initializeServices initializes all business services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	ts *tokens.Store,
	providers *platform.Registry,
	clients *apiclient.Manager,
	api *backend.API,
	recorder core.Recorder,
	log *zap.Logger,
) serviceSet {
	collector := insights.NewCollector(api, cfg.InsightsConcurrency, logger.WithComponent(log, "insights"))

	return serviceSet{
		connection: services.NewConnectionService(
			providers, api, db, ts, recorder,
			logger.WithComponent(log, "connections"),
			cfg.CallbackMaxAge,
		),
		selection: services.NewSelectionService(api, db, recorder, logger.WithComponent(log, "selection")),
		insights:  services.NewInsightsService(db, collector),
		session: services.NewSessionService(
			ts, clients, api, []byte(cfg.BackendJWTSecret),
			logger.WithComponent(log, "session"),
		),
	}
}
