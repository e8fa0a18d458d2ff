package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/apiclient"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/store"
	"github.com/adsynq/adsynq/internal/tokens"
	"github.com/adsynq/adsynq/internal/util"
)

var _ Store = (*store.Store)(nil)

const stateNonceLength = 32

// callbackVerifier is implemented by providers that sign their callbacks.
type callbackVerifier interface {
	VerifyCallback(query url.Values, now time.Time, maxAge time.Duration) error
}

// CallbackParams is the query a provider redirects back with.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
	Shop             string
	// Query is the raw callback query, needed for signed callbacks.
	Query url.Values
}

// ConnectResult is a completed connection.
type ConnectResult struct {
	Connection *models.PlatformConnection `json:"connection"`
	Accounts   []models.AdAccount         `json:"advertising_data"`
	Pages      []models.Page              `json:"pages_data,omitempty"`
}

// ConnectionView is a stored connection plus whether its token is usable.
type ConnectionView struct {
	models.PlatformConnection
	TokenValid bool `json:"token_valid"`
}

// ConnectionService drives the authorize, callback, refresh and disconnect
// flow of platform connections.
type ConnectionService struct {
	providers      Providers
	backend        Backend
	store          Store
	tokens         *tokens.Store
	metrics        core.Recorder
	log            *zap.Logger
	callbackMaxAge time.Duration
	now            func() time.Time
}

// NewConnectionService creates the service. callbackMaxAge bounds the age
// of signed callbacks.
func NewConnectionService(
	providers Providers,
	b Backend,
	s Store,
	ts *tokens.Store,
	m core.Recorder,
	logger *zap.Logger,
	callbackMaxAge time.Duration,
) *ConnectionService {
	return &ConnectionService{
		providers:      providers,
		backend:        b,
		store:          s,
		tokens:         ts,
		metrics:        m,
		log:            logger,
		callbackMaxAge: callbackMaxAge,
		now:            time.Now,
	}
}

// Connect returns the authorization URL of p and the state the callback
// must echo. The caller keeps the state in the user's session.
func (s *ConnectionService) Connect(p models.Platform, shop string) (authURL, state string, err error) {
	prov, err := s.providers.Get(p)
	if err != nil {
		return "", "", err
	}

	nonce, err := util.CryptoRandomString(stateNonceLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	state = p.String() + "." + nonce

	authURL, err = prov.AuthURL(state, shopOptions(shop)...)
	if err != nil {
		return "", "", err
	}
	return authURL, state, nil
}

func shopOptions(shop string) []platform.Option {
	if shop == "" {
		return nil
	}
	return []platform.Option{platform.WithShop(shop)}
}

// PlatformFromState returns the platform encoded in a state value.
func PlatformFromState(state string) (models.Platform, error) {
	name, nonce, ok := strings.Cut(state, ".")
	if !ok || nonce == "" {
		return "", ErrInvalidCallback
	}
	p, err := models.ParsePlatform(name)
	if err != nil {
		return "", ErrInvalidCallback
	}
	return p, nil
}

// validateCallback checks the callback before any network call.
func validateCallback(params CallbackParams, expectedState string) (models.Platform, error) {
	if params.Error != "" {
		detail := params.Error
		if params.ErrorDescription != "" {
			detail += ": " + params.ErrorDescription
		}
		return "", fmt.Errorf("%w: %s", ErrProviderDenied, detail)
	}
	if params.State == "" || expectedState == "" {
		return "", ErrInvalidCallback
	}
	if subtle.ConstantTimeCompare([]byte(params.State), []byte(expectedState)) != 1 {
		return "", ErrStateMismatch
	}
	p, err := PlatformFromState(params.State)
	if err != nil {
		return "", err
	}
	if params.Code == "" {
		return "", platform.ErrMissingCode
	}
	return p, nil
}

// HandleCallback completes a connection: it validates the callback,
// exchanges the code once, saves the result to the backend, persists it
// and seeds the token store.
func (s *ConnectionService) HandleCallback(
	ctx context.Context,
	userID string,
	params CallbackParams,
	expectedState string,
) (*ConnectResult, error) {
	p, err := validateCallback(params, expectedState)
	if err != nil {
		s.log.Warn("oauth callback rejected", zap.String("user_id", userID), zap.Error(err))
		if p != "" {
			s.metrics.RecordOAuthCallback(p.String(), false)
		}
		return nil, err
	}

	result, err := s.complete(ctx, userID, p, params)
	s.metrics.RecordOAuthCallback(p.String(), err == nil)
	if err != nil {
		s.log.Error("oauth callback failed",
			zap.String("platform", p.String()),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("platform connected",
		zap.String("platform", p.String()),
		zap.String("user_id", userID),
		zap.String("connection_id", result.Connection.ID))
	return result, nil
}

func (s *ConnectionService) complete(
	ctx context.Context,
	userID string,
	p models.Platform,
	params CallbackParams,
) (*ConnectResult, error) {
	prov, err := s.providers.Get(p)
	if err != nil {
		return nil, err
	}

	if v, ok := prov.(callbackVerifier); ok && params.Query != nil {
		if err := v.VerifyCallback(params.Query, s.now(), s.callbackMaxAge); err != nil {
			return nil, err
		}
	}

	opts := shopOptions(params.Shop)
	data, err := prov.FetchOAuthProfile(ctx, params.Code, opts...)
	if err != nil {
		data, err = s.retryProfile(ctx, prov, err, opts)
		if err != nil {
			return nil, err
		}
	}

	saved, err := s.backend.SaveConnection(ctx, userID, p, data)
	if err != nil {
		return nil, err
	}

	conn := &models.PlatformConnection{
		UserID:            userID,
		Platform:          p,
		ExternalAccountID: data.UserData.ID,
		ProfileName:       data.UserData.Name,
		ProfileEmail:      data.UserData.Email,
		PictureURL:        data.UserData.PictureURL,
		BackendID:         saved.ID,
	}
	replaced, err := s.store.UpsertConnection(ctx, conn, data.TokenData)
	if err != nil {
		return nil, err
	}

	for _, id := range replaced {
		if err := s.tokens.Clear(ctx, userID, id); err != nil {
			s.log.Warn("failed to clear replaced connection tokens",
				zap.String("connection_id", id), zap.Error(err))
		}
	}
	if err := s.tokens.SetTokens(ctx, userID, conn.ID, data.TokenData); err != nil {
		return nil, err
	}

	return &ConnectResult{
		Connection: conn,
		Accounts:   data.AdvertisingData,
		Pages:      data.PagesData,
	}, nil
}

// retryProfile repeats the identity call once when only the profile step
// failed. The code is spent at that point, so the tokens from the error
// are all there is to work with.
func (s *ConnectionService) retryProfile(
	ctx context.Context,
	prov platform.Provider,
	cause error,
	opts []platform.Option,
) (*platform.ConnectionData, error) {
	var pfe *platform.ProfileFetchError
	if !errors.As(cause, &pfe) {
		return nil, cause
	}

	profile, err := prov.FetchProfile(ctx, pfe.Tokens, opts...)
	if err != nil {
		return nil, cause
	}
	return &platform.ConnectionData{UserData: *profile, TokenData: pfe.Tokens}, nil
}

// RefreshToken renews the platform token of a connection. Providers that
// can refresh do so directly, the rest go through the backend.
func (s *ConnectionService) RefreshToken(ctx context.Context, userID, connectionID string) (models.TokenSet, error) {
	conn, err := s.store.GetConnection(ctx, userID, connectionID)
	if err != nil {
		return models.TokenSet{}, err
	}

	current, err := s.currentTokens(ctx, conn)
	if err != nil {
		return models.TokenSet{}, err
	}

	prov, err := s.providers.Get(conn.Platform)
	if err != nil {
		return models.TokenSet{}, err
	}

	var fresh models.TokenSet
	if r, ok := prov.(platform.Refresher); ok {
		fresh, err = r.RefreshTokens(ctx, current)
	} else {
		fresh, err = s.backend.RefreshPlatformToken(ctx, userID, conn.Platform, conn.ExternalAccountID)
	}
	if err != nil {
		s.log.Error("platform token refresh failed",
			zap.String("platform", conn.Platform.String()),
			zap.String("connection_id", conn.ID),
			zap.Error(err))
		return models.TokenSet{}, err
	}

	if err := s.tokens.SetTokens(ctx, userID, conn.ID, fresh); err != nil {
		return models.TokenSet{}, err
	}
	stored, err := s.tokens.Get(ctx, userID, conn.ID)
	if err != nil {
		return models.TokenSet{}, err
	}
	if err := s.store.UpdateConnectionTokens(ctx, conn.ID, stored); err != nil {
		return models.TokenSet{}, err
	}
	return stored, nil
}

// currentTokens prefers the token store and falls back to the sealed copy
// after a cache eviction.
func (s *ConnectionService) currentTokens(ctx context.Context, conn *models.PlatformConnection) (models.TokenSet, error) {
	ts, err := s.tokens.Get(ctx, conn.UserID, conn.ID)
	if err == nil {
		return ts, nil
	}
	if !errors.Is(err, tokens.ErrNoTokens) {
		return models.TokenSet{}, err
	}
	return s.store.ConnectionTokens(conn)
}

// Disconnect removes a connection from the backend, the database and the
// token store. A connection the backend no longer knows is still removed
// locally.
func (s *ConnectionService) Disconnect(ctx context.Context, userID, connectionID string) error {
	conn, err := s.store.GetConnection(ctx, userID, connectionID)
	if err != nil {
		return err
	}

	if err := s.backend.DeleteConnection(ctx, userID, conn.Platform, conn.ExternalAccountID); err != nil {
		var apiErr *apiclient.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			return err
		}
	}

	if err := s.store.DeleteConnection(ctx, userID, conn.ID); err != nil {
		return err
	}
	if err := s.tokens.Clear(ctx, userID, conn.ID); err != nil {
		s.log.Warn("failed to clear connection tokens", zap.String("connection_id", conn.ID), zap.Error(err))
	}

	s.log.Info("platform disconnected",
		zap.String("platform", conn.Platform.String()),
		zap.String("user_id", userID),
		zap.String("connection_id", conn.ID))
	return nil
}

// List returns the user's connections with their token validity.
func (s *ConnectionService) List(ctx context.Context, userID string) ([]ConnectionView, error) {
	conns, err := s.store.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}

	slots := make([]string, len(conns))
	for i, c := range conns {
		slots[i] = c.ID
	}
	valid, err := s.tokens.ValidSlots(ctx, userID, slots)
	if err != nil {
		return nil, err
	}

	views := make([]ConnectionView, len(conns))
	for i, c := range conns {
		views[i] = ConnectionView{PlatformConnection: c, TokenValid: valid[c.ID]}
	}
	return views, nil
}
