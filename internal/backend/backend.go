// Package backend wraps the REST API that owns subscriptions, connections
// and reporting data. Every call goes through the user's apiclient.Client.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/adsynq/adsynq/internal/apiclient"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/platform"
)

const dateLayout = "2006-01-02"

// ClientSource yields the authenticated client of a user.
type ClientSource interface {
	Client(userID string) *apiclient.Client
}

// API is the typed backend.
type API struct {
	clients ClientSource
	plans   core.Cache[models.SubscriptionPlan]
	planTTL time.Duration
}

// New creates the backend API. Subscription plans are cached in plans for
// planTTL.
func New(clients ClientSource, plans core.Cache[models.SubscriptionPlan], planTTL time.Duration) *API {
	return &API{clients: clients, plans: plans, planTTL: planTTL}
}

func planKey(userID string) string {
	return "plan:" + userID
}

// CurrentSubscription returns the user's plan, read through the cache.
func (a *API) CurrentSubscription(ctx context.Context, userID string) (models.SubscriptionPlan, error) {
	return a.plans.GetWithFetch(ctx, planKey(userID), a.planTTL,
		func(ctx context.Context, _ string) (models.SubscriptionPlan, error) {
			var plan models.SubscriptionPlan
			if err := a.clients.Client(userID).Get(ctx, "subscription", "/subscriptions/current/", nil, &plan); err != nil {
				return models.SubscriptionPlan{}, fmt.Errorf("failed to load subscription: %w", err)
			}
			if plan.PlanType == "" {
				plan.PlanType = models.PlanFree
			}
			return plan, nil
		})
}

// InvalidatePlan drops the cached plan, e.g. after an upgrade.
func (a *API) InvalidatePlan(ctx context.Context, userID string) error {
	return a.plans.Delete(ctx, planKey(userID))
}

// SavedConnection is the backend's record of a connection.
type SavedConnection struct {
	ID string `json:"id"`
}

type saveConnectionRequest struct {
	ExternalAccountID string             `json:"external_account_id"`
	UserData          models.UserProfile `json:"user_data"`
	TokenData         models.TokenSet    `json:"token_data"`
	AdvertisingData   []models.AdAccount `json:"advertising_data"`
	PagesData         []models.Page      `json:"pages_data,omitempty"`
}

func connectionPath(p models.Platform, externalID string) string {
	return fmt.Sprintf("/platforms/%s/connections/%s/", p, url.PathEscape(externalID))
}

// SaveConnection hands a completed authorization to the backend, which
// confirms the connection.
func (a *API) SaveConnection(
	ctx context.Context,
	userID string,
	p models.Platform,
	data *platform.ConnectionData,
) (*SavedConnection, error) {
	in := saveConnectionRequest{
		ExternalAccountID: data.UserData.ID,
		UserData:          data.UserData,
		TokenData:         data.TokenData,
		AdvertisingData:   data.AdvertisingData,
		PagesData:         data.PagesData,
	}
	var out SavedConnection
	path := fmt.Sprintf("/platforms/%s/connections/", p)
	if err := a.clients.Client(userID).Send(ctx, "save_connection", http.MethodPost, path, in, &out); err != nil {
		return nil, fmt.Errorf("failed to save connection: %w", err)
	}
	return &out, nil
}

// DeleteConnection removes the connection; the backend also deletes its
// selection state.
func (a *API) DeleteConnection(ctx context.Context, userID string, p models.Platform, externalID string) error {
	err := a.clients.Client(userID).Send(ctx, "delete_connection", http.MethodDelete,
		connectionPath(p, externalID), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

type selectionRequest struct {
	CustomerIDs []string `json:"customer_ids"`
	CampaignIDs []string `json:"campaign_ids"`
}

// SaveSelection stores the selected accounts and campaigns.
func (a *API) SaveSelection(
	ctx context.Context,
	userID string,
	p models.Platform,
	externalID string,
	customerIDs, campaignIDs []string,
) error {
	in := selectionRequest{CustomerIDs: customerIDs, CampaignIDs: campaignIDs}
	if in.CampaignIDs == nil {
		in.CampaignIDs = []string{}
	}
	err := a.clients.Client(userID).Send(ctx, "save_selection", http.MethodPost,
		connectionPath(p, externalID)+"selection/", in, nil)
	if err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

// RefreshPlatformToken asks the backend to renew a platform token it
// holds, for platforms whose provider cannot refresh locally.
func (a *API) RefreshPlatformToken(
	ctx context.Context,
	userID string,
	p models.Platform,
	externalID string,
) (models.TokenSet, error) {
	var ts models.TokenSet
	err := a.clients.Client(userID).Send(ctx, "refresh_platform_token", http.MethodPost,
		connectionPath(p, externalID)+"refresh/", struct{}{}, &ts)
	if err != nil {
		return models.TokenSet{}, fmt.Errorf("failed to refresh platform token: %w", err)
	}
	return ts, nil
}

// FetchStats returns the platform totals between from and to, inclusive.
func (a *API) FetchStats(
	ctx context.Context,
	userID string,
	p models.Platform,
	from, to time.Time,
) (models.PlatformStats, error) {
	q := url.Values{
		"from": {from.Format(dateLayout)},
		"to":   {to.Format(dateLayout)},
	}
	var stats models.PlatformStats
	path := fmt.Sprintf("/platforms/%s/stats/", p)
	if err := a.clients.Client(userID).Get(ctx, "stats", path, q, &stats); err != nil {
		return models.PlatformStats{}, fmt.Errorf("failed to fetch %s stats: %w", p, err)
	}
	stats.Platform = p
	return stats, nil
}
