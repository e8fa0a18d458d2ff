package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adsynq/adsynq/internal/apiclient"
	"github.com/adsynq/adsynq/internal/backend"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/tokens"
)

func googleData() *platform.ConnectionData {
	return &platform.ConnectionData{
		UserData: models.UserProfile{ID: "g-100", Name: "Jane", Email: "jane@example.com"},
		TokenData: models.TokenSet{
			AccessToken:  "ya29.access",
			RefreshToken: "1//refresh",
			ExpiresIn:    3599,
		},
		AdvertisingData: []models.AdAccount{{ID: "123-456-7890"}},
	}
}

func TestConnect_StateCarriesPlatform(t *testing.T) {
	svc := newConnectionService(&fakeProvider{platform: models.PlatformGoogle}, nil, nil, newTokenStore())

	authURL, state, err := svc.Connect(models.PlatformGoogle, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(state, "google."))
	assert.Contains(t, authURL, state)

	p, err := PlatformFromState(state)
	require.NoError(t, err)
	assert.Equal(t, models.PlatformGoogle, p)

	_, state2, err := svc.Connect(models.PlatformGoogle, "")
	require.NoError(t, err)
	assert.NotEqual(t, state, state2)
}

func TestConnect_DisabledPlatform(t *testing.T) {
	svc := newConnectionService(&fakeProvider{platform: models.PlatformGoogle}, nil, nil, newTokenStore())

	_, _, err := svc.Connect(models.PlatformTikTok, "")
	assert.ErrorIs(t, err, platform.ErrPlatformDisabled)
}

func TestHandleCallback_Validation(t *testing.T) {
	const state = "google.nonce"

	tests := []struct {
		name     string
		params   CallbackParams
		expected string
		wantErr  error
	}{
		{
			name:     "provider error",
			params:   CallbackParams{Error: "access_denied", ErrorDescription: "user cancelled", State: state},
			expected: state,
			wantErr:  ErrProviderDenied,
		},
		{
			name:     "missing state",
			params:   CallbackParams{Code: "abc123"},
			expected: state,
			wantErr:  ErrInvalidCallback,
		},
		{
			name:     "no state in session",
			params:   CallbackParams{Code: "abc123", State: state},
			expected: "",
			wantErr:  ErrInvalidCallback,
		},
		{
			name:     "state mismatch",
			params:   CallbackParams{Code: "abc123", State: "google.other"},
			expected: state,
			wantErr:  ErrStateMismatch,
		},
		{
			name:     "unknown platform in state",
			params:   CallbackParams{Code: "abc123", State: "myspace.nonce"},
			expected: "myspace.nonce",
			wantErr:  ErrInvalidCallback,
		},
		{
			name:     "missing code",
			params:   CallbackParams{State: state},
			expected: state,
			wantErr:  platform.ErrMissingCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prov := &fakeProvider{platform: models.PlatformGoogle, data: googleData()}
			svc := newConnectionService(prov, new(MockBackend), new(MockStore), newTokenStore())

			_, err := svc.HandleCallback(context.Background(), "u1", tt.params, tt.expected)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrOAuthValidation)
			assert.Empty(t, prov.exchanges, "no exchange may happen for an invalid callback")
		})
	}
}

func TestHandleCallback_Success(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{platform: models.PlatformGoogle, data: googleData()}
	be := new(MockBackend)
	st := new(MockStore)
	ts := newTokenStore()

	be.On("SaveConnection", ctx, "u1", models.PlatformGoogle, prov.data).
		Return(&backend.SavedConnection{ID: "b-1"}, nil)
	st.On("UpsertConnection", ctx, mock.MatchedBy(func(c *models.PlatformConnection) bool {
		return c.UserID == "u1" && c.ExternalAccountID == "g-100" && c.BackendID == "b-1"
	}), prov.data.TokenData).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.PlatformConnection).ID = "conn-1"
		}).
		Return([]string(nil), nil)

	svc := newConnectionService(prov, be, st, ts)
	res, err := svc.HandleCallback(ctx, "u1", CallbackParams{Code: "abc123", State: "google.n"}, "google.n")
	require.NoError(t, err)

	assert.Equal(t, "conn-1", res.Connection.ID)
	assert.Equal(t, "Jane", res.Connection.ProfileName)
	assert.Len(t, res.Accounts, 1)
	assert.Equal(t, []string{"abc123"}, prov.exchanges)

	stored, err := ts.Get(ctx, "u1", "conn-1")
	require.NoError(t, err)
	assert.Equal(t, "ya29.access", stored.AccessToken)
	assert.True(t, ts.IsValid(ctx, "u1", "conn-1"))

	be.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestHandleCallback_ExchangeFailureStops(t *testing.T) {
	ctx := context.Background()
	exchangeErr := &platform.ExchangeError{
		Platform: models.PlatformGoogle,
		Stage:    platform.StageExchangeFailed,
		Code:     "invalid_grant",
	}
	prov := &fakeProvider{platform: models.PlatformGoogle, exchangeErr: exchangeErr}
	be := new(MockBackend)
	st := new(MockStore)

	svc := newConnectionService(prov, be, st, newTokenStore())
	_, err := svc.HandleCallback(ctx, "u1", CallbackParams{Code: "abc123", State: "google.n"}, "google.n")
	assert.ErrorIs(t, err, platform.ErrTokenExchange)
	assert.Len(t, prov.exchanges, 1, "a rejected code is never retried")

	be.AssertNotCalled(t, "SaveConnection", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "UpsertConnection", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCallback_ProfileRetry(t *testing.T) {
	ctx := context.Background()
	tok := models.TokenSet{AccessToken: "EAAB", ExpiresIn: 5184000}
	prov := &fakeProvider{
		platform:    models.PlatformMeta,
		exchangeErr: &platform.ProfileFetchError{Platform: models.PlatformMeta, Tokens: tok, Err: errors.New("502")},
		profile:     &models.UserProfile{ID: "m-1", Name: "Jane"},
	}
	be := new(MockBackend)
	st := new(MockStore)

	be.On("SaveConnection", ctx, "u1", models.PlatformMeta, mock.MatchedBy(func(d *platform.ConnectionData) bool {
		return d.UserData.ID == "m-1" && d.TokenData.AccessToken == "EAAB"
	})).Return(&backend.SavedConnection{ID: "b-2"}, nil)
	st.On("UpsertConnection", ctx, mock.Anything, tok).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.PlatformConnection).ID = "conn-2"
		}).
		Return([]string(nil), nil)

	svc := newConnectionService(prov, be, st, newTokenStore())
	res, err := svc.HandleCallback(ctx, "u1", CallbackParams{Code: "c", State: "meta.n"}, "meta.n")
	require.NoError(t, err)
	assert.Equal(t, "conn-2", res.Connection.ID)
	assert.Len(t, prov.exchanges, 1)
}

func TestHandleCallback_ProfileRetryFails(t *testing.T) {
	pfe := &platform.ProfileFetchError{Platform: models.PlatformMeta, Err: errors.New("502")}
	prov := &fakeProvider{
		platform:    models.PlatformMeta,
		exchangeErr: pfe,
		profileErr:  errors.New("still down"),
	}

	svc := newConnectionService(prov, new(MockBackend), new(MockStore), newTokenStore())
	_, err := svc.HandleCallback(context.Background(), "u1", CallbackParams{Code: "c", State: "meta.n"}, "meta.n")
	assert.ErrorIs(t, err, platform.ErrProfileFetch)
}

func TestHandleCallback_ReplacedConnectionTokensCleared(t *testing.T) {
	ctx := context.Background()
	ts := newTokenStore()
	require.NoError(t, ts.SetTokens(ctx, "u1", "old-conn", models.TokenSet{AccessToken: "old", ExpiresIn: 60}))

	data := &platform.ConnectionData{
		UserData:  models.UserProfile{ID: "adv-9"},
		TokenData: models.TokenSet{AccessToken: "tt-access"},
	}
	prov := &fakeProvider{platform: models.PlatformTikTok, data: data}
	be := new(MockBackend)
	st := new(MockStore)
	be.On("SaveConnection", ctx, "u1", models.PlatformTikTok, data).Return(&backend.SavedConnection{ID: "b"}, nil)
	st.On("UpsertConnection", ctx, mock.Anything, data.TokenData).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.PlatformConnection).ID = "new-conn"
		}).
		Return([]string{"old-conn"}, nil)

	svc := newConnectionService(prov, be, st, ts)
	_, err := svc.HandleCallback(ctx, "u1", CallbackParams{Code: "c", State: "tiktok.n"}, "tiktok.n")
	require.NoError(t, err)

	_, err = ts.Get(ctx, "u1", "old-conn")
	assert.ErrorIs(t, err, tokens.ErrNoTokens)
	_, err = ts.Get(ctx, "u1", "new-conn")
	assert.NoError(t, err)
}

func TestRefreshToken_ProviderRefresh(t *testing.T) {
	ctx := context.Background()
	ts := newTokenStore()
	require.NoError(t, ts.SetTokens(ctx, "u1", "conn-1", models.TokenSet{
		AccessToken:  "ya29.old",
		RefreshToken: "1//refresh",
		ExpiresIn:    1,
	}))

	prov := refreshingProvider{&fakeProvider{
		platform:  models.PlatformGoogle,
		refreshed: models.TokenSet{AccessToken: "ya29.new", ExpiresIn: 3599},
	}}
	conn := &models.PlatformConnection{ID: "conn-1", UserID: "u1", Platform: models.PlatformGoogle, ExternalAccountID: "g-100"}
	be := new(MockBackend)
	st := new(MockStore)
	st.On("GetConnection", ctx, "u1", "conn-1").Return(conn, nil)
	st.On("UpdateConnectionTokens", ctx, "conn-1", mock.MatchedBy(func(t models.TokenSet) bool {
		return t.AccessToken == "ya29.new" && t.RefreshToken == "1//refresh"
	})).Return(nil)

	svc := newConnectionService(prov, be, st, ts)
	got, err := svc.RefreshToken(ctx, "u1", "conn-1")
	require.NoError(t, err)
	assert.Equal(t, "ya29.new", got.AccessToken)
	assert.Equal(t, "1//refresh", got.RefreshToken)
	assert.Equal(t, 1, prov.refreshCalls)

	be.AssertNotCalled(t, "RefreshPlatformToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	st.AssertExpectations(t)
}

func TestRefreshToken_BackendFallback(t *testing.T) {
	ctx := context.Background()
	ts := newTokenStore()
	prov := &fakeProvider{platform: models.PlatformTikTok}
	conn := &models.PlatformConnection{ID: "conn-3", UserID: "u1", Platform: models.PlatformTikTok, ExternalAccountID: "adv-1"}

	be := new(MockBackend)
	st := new(MockStore)
	st.On("GetConnection", ctx, "u1", "conn-3").Return(conn, nil)
	st.On("ConnectionTokens", conn).Return(models.TokenSet{AccessToken: "sealed-copy"}, nil)
	st.On("UpdateConnectionTokens", ctx, "conn-3", mock.Anything).Return(nil)
	be.On("RefreshPlatformToken", ctx, "u1", models.PlatformTikTok, "adv-1").
		Return(models.TokenSet{AccessToken: "tt-new", ExpiresIn: 86400}, nil)

	svc := newConnectionService(prov, be, st, ts)
	got, err := svc.RefreshToken(ctx, "u1", "conn-3")
	require.NoError(t, err)
	assert.Equal(t, "tt-new", got.AccessToken)
	assert.True(t, ts.IsValid(ctx, "u1", "conn-3"))

	be.AssertExpectations(t)
}

func TestRefreshToken_UnknownConnection(t *testing.T) {
	ctx := context.Background()
	st := new(MockStore)
	st.On("GetConnection", ctx, "u1", "nope").Return(nil, ErrConnectionNotFound)

	svc := newConnectionService(&fakeProvider{platform: models.PlatformGoogle}, new(MockBackend), st, newTokenStore())
	_, err := svc.RefreshToken(ctx, "u1", "nope")
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestDisconnect(t *testing.T) {
	conn := &models.PlatformConnection{ID: "conn-1", UserID: "u1", Platform: models.PlatformMeta, ExternalAccountID: "act_1"}

	tests := []struct {
		name       string
		backendErr error
		wantErr    bool
	}{
		{name: "removed everywhere"},
		{
			name:       "backend already forgot it",
			backendErr: &apiclient.APIError{Method: http.MethodDelete, StatusCode: http.StatusNotFound},
		},
		{
			name:       "backend failure keeps local state",
			backendErr: &apiclient.APIError{Method: http.MethodDelete, StatusCode: http.StatusBadGateway},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ts := newTokenStore()
			require.NoError(t, ts.SetTokens(ctx, "u1", "conn-1", models.TokenSet{AccessToken: "EAAB", ExpiresIn: 60}))

			be := new(MockBackend)
			st := new(MockStore)
			st.On("GetConnection", ctx, "u1", "conn-1").Return(conn, nil)
			be.On("DeleteConnection", ctx, "u1", models.PlatformMeta, "act_1").Return(tt.backendErr)
			st.On("DeleteConnection", ctx, "u1", "conn-1").Return(nil)

			svc := newConnectionService(&fakeProvider{platform: models.PlatformMeta}, be, st, ts)
			err := svc.Disconnect(ctx, "u1", "conn-1")

			if tt.wantErr {
				require.Error(t, err)
				st.AssertNotCalled(t, "DeleteConnection", mock.Anything, mock.Anything, mock.Anything)
				_, err = ts.Get(ctx, "u1", "conn-1")
				assert.NoError(t, err)
				return
			}
			require.NoError(t, err)
			st.AssertCalled(t, "DeleteConnection", ctx, "u1", "conn-1")
			_, err = ts.Get(ctx, "u1", "conn-1")
			assert.ErrorIs(t, err, tokens.ErrNoTokens)
		})
	}
}

func TestList_ReportsTokenValidity(t *testing.T) {
	ctx := context.Background()
	ts := newTokenStore()
	require.NoError(t, ts.SetTokens(ctx, "u1", "a", models.TokenSet{AccessToken: "x", ExpiresIn: 3600}))
	require.NoError(t, ts.SetTokens(ctx, "u1", "b", models.TokenSet{AccessToken: "y"}))

	st := new(MockStore)
	st.On("ListConnections", ctx, "u1").Return([]models.PlatformConnection{
		{ID: "a", Platform: models.PlatformGoogle},
		{ID: "b", Platform: models.PlatformTikTok},
		{ID: "c", Platform: models.PlatformMeta},
	}, nil)

	svc := newConnectionService(&fakeProvider{platform: models.PlatformGoogle}, new(MockBackend), st, ts)
	views, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.True(t, views[0].TokenValid)
	assert.False(t, views[1].TokenValid, "no expiry means not valid")
	assert.False(t, views[2].TokenValid)
}
