package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsynq/adsynq/internal/apiclient"
	"github.com/adsynq/adsynq/internal/cache"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/tokens"
)

func newTestAPI(t *testing.T, h http.Handler) *API {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := tokens.NewStore(cache.NewMemoryCache[models.TokenSet](), time.Hour)
	require.NoError(t, store.SetTokens(context.Background(), "u1", tokens.SessionSlot,
		models.NewTokenSet(time.Now(), "session-token", "refresh", 300)))

	mgr := apiclient.NewManager(store, apiclient.Options{BaseURL: srv.URL}, nil)
	return New(mgr, cache.NewMemoryCache[models.SubscriptionPlan](), time.Minute)
}

func TestCurrentSubscription_Cached(t *testing.T) {
	var calls atomic.Int32
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/subscriptions/current/", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"result":{"id":2,"plan_type":"premium","max_ad_accounts":2,"max_campaigns":0}}`))
	}))

	ctx := context.Background()
	plan, err := api.CurrentSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, plan.PlanType)
	assert.Equal(t, 2, plan.ID)

	_, err = api.CurrentSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, api.InvalidatePlan(ctx, "u1"))
	_, err = api.CurrentSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCurrentSubscription_MalformedEnvelope(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":2,"plan_type":"premium"}`))
	}))

	_, err := api.CurrentSubscription(context.Background(), "u1")
	assert.ErrorIs(t, err, apiclient.ErrMalformedResponse)
}

func TestSaveConnectionAndSelection(t *testing.T) {
	var selection map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /platforms/google/connections/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "1170", body["external_account_id"])
		_, _ = w.Write([]byte(`{"result":{"id":"bk-1"}}`))
	})
	mux.HandleFunc("POST /platforms/google/connections/1170/selection/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&selection)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /platforms/google/connections/1170/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	api := newTestAPI(t, mux)
	ctx := context.Background()

	saved, err := api.SaveConnection(ctx, "u1", models.PlatformGoogle, &platform.ConnectionData{
		UserData:  models.UserProfile{ID: "1170", Name: "Ana"},
		TokenData: models.TokenSet{AccessToken: "ya29"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bk-1", saved.ID)

	require.NoError(t, api.SaveSelection(ctx, "u1", models.PlatformGoogle, "1170", []string{"111"}, nil))
	assert.Equal(t, []string{"111"}, selection["customer_ids"])
	assert.Equal(t, []string{}, selection["campaign_ids"])

	require.NoError(t, api.DeleteConnection(ctx, "u1", models.PlatformGoogle, "1170"))
}

func TestFetchStats(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/platforms/meta/stats/", r.URL.Path)
		assert.Equal(t, "2026-01-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-01-31", r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(`{"result":{"spend":12.5,"impressions":1000,"clicks":20,"conversions":2}}`))
	}))

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stats, err := api.FetchStats(context.Background(), "u1", models.PlatformMeta, from, from.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, models.PlatformMeta, stats.Platform)
	assert.Equal(t, int64(1000), stats.Impressions)
}

func TestRefreshPlatformToken(t *testing.T) {
	api := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/platforms/tiktok/connections/adv-1/refresh/", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":{"access_token":"tt-2","expires_in":86400}}`))
	}))

	ts, err := api.RefreshPlatformToken(context.Background(), "u1", models.PlatformTikTok, "adv-1")
	require.NoError(t, err)
	assert.Equal(t, "tt-2", ts.AccessToken)
	assert.Equal(t, int64(86400), ts.ExpiresIn)
}
