package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/backend"
	"github.com/adsynq/adsynq/internal/cache"
	"github.com/adsynq/adsynq/internal/metrics"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/selection"
	"github.com/adsynq/adsynq/internal/tokens"
)

// MockBackend mocks backend.API.
type MockBackend struct{ mock.Mock }

func (m *MockBackend) CurrentSubscription(ctx context.Context, userID string) (models.SubscriptionPlan, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.SubscriptionPlan), args.Error(1)
}

func (m *MockBackend) InvalidatePlan(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockBackend) SaveConnection(
	ctx context.Context,
	userID string,
	p models.Platform,
	data *platform.ConnectionData,
) (*backend.SavedConnection, error) {
	args := m.Called(ctx, userID, p, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.SavedConnection), args.Error(1)
}

func (m *MockBackend) DeleteConnection(ctx context.Context, userID string, p models.Platform, externalID string) error {
	return m.Called(ctx, userID, p, externalID).Error(0)
}

func (m *MockBackend) SaveSelection(
	ctx context.Context,
	userID string,
	p models.Platform,
	externalID string,
	customerIDs, campaignIDs []string,
) error {
	return m.Called(ctx, userID, p, externalID, customerIDs, campaignIDs).Error(0)
}

func (m *MockBackend) RefreshPlatformToken(
	ctx context.Context,
	userID string,
	p models.Platform,
	externalID string,
) (models.TokenSet, error) {
	args := m.Called(ctx, userID, p, externalID)
	return args.Get(0).(models.TokenSet), args.Error(1)
}

func (m *MockBackend) FetchStats(
	ctx context.Context,
	userID string,
	p models.Platform,
	from, to time.Time,
) (models.PlatformStats, error) {
	args := m.Called(ctx, userID, p, from, to)
	return args.Get(0).(models.PlatformStats), args.Error(1)
}

// MockStore mocks store.Store.
type MockStore struct{ mock.Mock }

func (m *MockStore) UpsertConnection(
	ctx context.Context,
	conn *models.PlatformConnection,
	ts models.TokenSet,
) ([]string, error) {
	args := m.Called(ctx, conn, ts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) GetConnection(ctx context.Context, userID, id string) (*models.PlatformConnection, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformConnection), args.Error(1)
}

func (m *MockStore) ListConnections(ctx context.Context, userID string) ([]models.PlatformConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlatformConnection), args.Error(1)
}

func (m *MockStore) ConnectionTokens(conn *models.PlatformConnection) (models.TokenSet, error) {
	args := m.Called(conn)
	return args.Get(0).(models.TokenSet), args.Error(1)
}

func (m *MockStore) UpdateConnectionTokens(ctx context.Context, id string, ts models.TokenSet) error {
	return m.Called(ctx, id, ts).Error(0)
}

func (m *MockStore) DeleteConnection(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockStore) ReplaceSelection(ctx context.Context, connectionID string, sel selection.Selection) error {
	return m.Called(ctx, connectionID, sel).Error(0)
}

func (m *MockStore) LoadSelection(ctx context.Context, connectionID string) (selection.Selection, error) {
	args := m.Called(ctx, connectionID)
	return args.Get(0).(selection.Selection), args.Error(1)
}

// fakeProvider records exchanges and answers from its fields.
type fakeProvider struct {
	platform     models.Platform
	data         *platform.ConnectionData
	exchangeErr  error
	profile      *models.UserProfile
	profileErr   error
	exchanges    []string
	refreshed    models.TokenSet
	refreshErr   error
	refreshCalls int
}

func (f *fakeProvider) Platform() models.Platform { return f.platform }

func (f *fakeProvider) AuthURL(state string, _ ...platform.Option) (string, error) {
	return "https://auth.example.com/?state=" + state, nil
}

func (f *fakeProvider) FetchOAuthProfile(_ context.Context, code string, _ ...platform.Option) (*platform.ConnectionData, error) {
	f.exchanges = append(f.exchanges, code)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.data, nil
}

func (f *fakeProvider) FetchProfile(context.Context, models.TokenSet, ...platform.Option) (*models.UserProfile, error) {
	return f.profile, f.profileErr
}

// refreshingProvider is a fakeProvider that also refreshes tokens itself.
type refreshingProvider struct{ *fakeProvider }

func (r refreshingProvider) RefreshTokens(context.Context, models.TokenSet) (models.TokenSet, error) {
	r.refreshCalls++
	return r.refreshed, r.refreshErr
}

func newTokenStore() *tokens.Store {
	return tokens.NewStore(cache.NewMemoryCache[models.TokenSet](), time.Hour)
}

func newConnectionService(prov platform.Provider, b Backend, s Store, ts *tokens.Store) *ConnectionService {
	return NewConnectionService(platform.NewRegistry(prov), b, s, ts,
		metrics.NewNoopMetrics(), zap.NewNop(), 10*time.Minute)
}
