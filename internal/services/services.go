package services

import (
	"context"
	"time"

	"github.com/adsynq/adsynq/internal/backend"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/selection"
)

// Backend is the part of backend.API the services call.
type Backend interface {
	CurrentSubscription(ctx context.Context, userID string) (models.SubscriptionPlan, error)
	InvalidatePlan(ctx context.Context, userID string) error
	SaveConnection(ctx context.Context, userID string, p models.Platform, data *platform.ConnectionData) (*backend.SavedConnection, error)
	DeleteConnection(ctx context.Context, userID string, p models.Platform, externalID string) error
	SaveSelection(ctx context.Context, userID string, p models.Platform, externalID string, customerIDs, campaignIDs []string) error
	RefreshPlatformToken(ctx context.Context, userID string, p models.Platform, externalID string) (models.TokenSet, error)
	FetchStats(ctx context.Context, userID string, p models.Platform, from, to time.Time) (models.PlatformStats, error)
}

// Store is the part of store.Store the services call.
type Store interface {
	UpsertConnection(ctx context.Context, conn *models.PlatformConnection, ts models.TokenSet) ([]string, error)
	GetConnection(ctx context.Context, userID, id string) (*models.PlatformConnection, error)
	ListConnections(ctx context.Context, userID string) ([]models.PlatformConnection, error)
	ConnectionTokens(conn *models.PlatformConnection) (models.TokenSet, error)
	UpdateConnectionTokens(ctx context.Context, id string, ts models.TokenSet) error
	DeleteConnection(ctx context.Context, userID, id string) error
	ReplaceSelection(ctx context.Context, connectionID string, sel selection.Selection) error
	LoadSelection(ctx context.Context, connectionID string) (selection.Selection, error)
}

// Providers resolves the provider of a platform.
type Providers interface {
	Get(p models.Platform) (platform.Provider, error)
}

var (
	_ Backend   = (*backend.API)(nil)
	_ Providers = (*platform.Registry)(nil)
)
