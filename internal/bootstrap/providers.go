package bootstrap

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/apiclient"
	"github.com/adsynq/adsynq/internal/client"
	"github.com/adsynq/adsynq/internal/config"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/logger"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/platform"
	"github.com/adsynq/adsynq/internal/retry"
	"github.com/adsynq/adsynq/internal/signing"
	"github.com/adsynq/adsynq/internal/tokens"
)

// platformDoer wraps the shared client with retries and a breaker per platform
func platformDoer(
	cfg *config.Config,
	p models.Platform,
	httpClient *http.Client,
	recorder core.Recorder,
	log *zap.Logger,
) client.Doer {
	retrying := retry.NewClient(
		retry.WithHTTPClient(httpClient),
		retry.WithMaxRetries(cfg.PlatformMaxRetries),
		retry.WithInitialRetryDelay(cfg.PlatformRetryDelay),
		retry.WithMaxRetryDelay(cfg.PlatformMaxRetryDelay),
		retry.WithOnRetry(func(attempt int, err error, resp *http.Response) {
			fields := []zap.Field{zap.String("platform", p.String()), zap.Int("attempt", attempt)}
			if resp != nil {
				fields = append(fields, zap.Int("status", resp.StatusCode))
			}
			log.Debug("retrying platform request", append(fields, zap.Error(err))...)
		}),
	)
	return client.NewBreakerClient(p.String(), retrying, client.BreakerConfig{
		MaxRequests:      cfg.BreakerMaxRequests,
		Interval:         cfg.BreakerInterval,
		Timeout:          cfg.BreakerTimeout,
		FailureThreshold: cfg.BreakerFailureThreshold,
	}, recorder, log)
}

// initializePlatforms registers a provider for every enabled platform
func initializePlatforms(
	cfg *config.Config,
	recorder core.Recorder,
	log *zap.Logger,
) (*platform.Registry, error) {
	if cfg.OAuthInsecureSkipVerify {
		log.Warn("OAuth TLS verification is disabled (OAUTH_INSECURE_SKIP_VERIFY=true)")
	}

	httpClient, err := client.NewHTTPClient(cfg.OAuthTimeout, cfg.OAuthInsecureSkipVerify)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth HTTP client: %w", err)
	}

	deps := func(p models.Platform) platform.Deps {
		return platform.Deps{
			HTTPClient: httpClient,
			API:        platformDoer(cfg, p, httpClient, recorder, log),
			Recorder:   recorder,
			Logger:     log.With(zap.String("platform", p.String())),
		}
	}

	var providers []platform.Provider
	if cfg.GoogleOAuthEnabled {
		providers = append(providers, platform.NewGoogle(platform.GoogleConfig{
			ClientID:       cfg.GoogleClientID,
			ClientSecret:   cfg.GoogleClientSecret,
			RedirectURL:    cfg.GoogleRedirectURL,
			Scopes:         cfg.GoogleScopes,
			AuthURL:        cfg.GoogleAuthURL,
			TokenURL:       cfg.GoogleTokenURL,
			UserInfoURL:    cfg.GoogleUserInfoURL,
			AdsAPIURL:      cfg.GoogleAdsAPIURL,
			DeveloperToken: cfg.GoogleAdsDeveloperToken,
		}, deps(models.PlatformGoogle)))
	}
	if cfg.MetaOAuthEnabled {
		providers = append(providers, platform.NewMeta(platform.MetaConfig{
			AppID:       cfg.MetaAppID,
			AppSecret:   cfg.MetaAppSecret,
			RedirectURL: cfg.MetaRedirectURL,
			Scopes:      cfg.MetaScopes,
			DialogURL:   cfg.MetaDialogURL,
			GraphURL:    cfg.MetaGraphURL,
		}, deps(models.PlatformMeta)))
	}
	if cfg.TikTokOAuthEnabled {
		providers = append(providers, platform.NewTikTok(platform.TikTokConfig{
			AppID:       cfg.TikTokAppID,
			Secret:      cfg.TikTokSecret,
			RedirectURL: cfg.TikTokRedirectURL,
			AuthURL:     cfg.TikTokAuthURL,
			APIURL:      cfg.TikTokAPIURL,
		}, deps(models.PlatformTikTok)))
	}
	if cfg.ShopifyOAuthEnabled {
		providers = append(providers, platform.NewShopify(platform.ShopifyConfig{
			ClientID:     cfg.ShopifyClientID,
			ClientSecret: cfg.ShopifyClientSecret,
			RedirectURL:  cfg.ShopifyRedirectURL,
			Scopes:       cfg.ShopifyScopes,
			ShopDomain:   cfg.ShopifyShopDomain,
			APIVersion:   cfg.ShopifyAPIVersion,
		}, deps(models.PlatformShopify)))
	}

	return platform.NewRegistry(providers...), nil
}

// logPlatformStatus logs enabled platforms
func logPlatformStatus(log *zap.Logger, r *platform.Registry) {
	enabled := r.Enabled()
	if len(enabled) == 0 {
		log.Warn("no advertising platform is enabled")
		return
	}
	names := make([]string, 0, len(enabled))
	for _, p := range enabled {
		names = append(names, p.String())
	}
	log.Info("platforms enabled", zap.Strings("platforms", names))
}

// initializeBackendClients builds the per-user authenticated backend clients
func initializeBackendClients(
	cfg *config.Config,
	store *tokens.Store,
	recorder core.Recorder,
	log *zap.Logger,
) (*apiclient.Manager, error) {
	httpClient, err := client.NewHTTPClient(cfg.BackendTimeout, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend HTTP client: %w", err)
	}

	signer, err := signing.New(cfg.BackendAuthMode, cfg.BackendAuthSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend request signer: %w", err)
	}
	retrying := retry.NewClient(
		retry.WithHTTPClient(httpClient),
		retry.WithMaxRetries(cfg.PlatformMaxRetries),
		retry.WithInitialRetryDelay(cfg.PlatformRetryDelay),
		retry.WithMaxRetryDelay(cfg.PlatformMaxRetryDelay),
	)

	backendLog := logger.WithComponent(log, "backend")
	return apiclient.NewManager(store, apiclient.Options{
		BaseURL:  cfg.BackendURL,
		Doer:     signing.Wrap(retrying, signer),
		Recorder: recorder,
		Logger:   backendLog,
	}, func(userID string, err error) {
		backendLog.Info("backend session ended", zap.String("user_id", userID), zap.Error(err))
	}), nil
}
