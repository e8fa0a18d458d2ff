package bootstrap

import (
	"errors"
	"fmt"

	"github.com/adsynq/adsynq/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validatePlatformConfig(cfg); err != nil {
		return fmt.Errorf("invalid platform configuration: %w", err)
	}
	if cfg.IsProduction {
		if err := validateProductionSecrets(cfg); err != nil {
			return fmt.Errorf("invalid production configuration: %w", err)
		}
	}
	return nil
}

// validatePlatformConfig checks that every enabled platform has credentials
func validatePlatformConfig(cfg *config.Config) error {
	var errs []error
	if cfg.GoogleOAuthEnabled && (cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required when GOOGLE_OAUTH_ENABLED=true"))
	}
	if cfg.MetaOAuthEnabled && (cfg.MetaAppID == "" || cfg.MetaAppSecret == "") {
		errs = append(errs, errors.New("META_APP_ID and META_APP_SECRET are required when META_OAUTH_ENABLED=true"))
	}
	if cfg.TikTokOAuthEnabled && (cfg.TikTokAppID == "" || cfg.TikTokSecret == "") {
		errs = append(errs, errors.New("TIKTOK_APP_ID and TIKTOK_SECRET are required when TIKTOK_OAUTH_ENABLED=true"))
	}
	if cfg.ShopifyOAuthEnabled && (cfg.ShopifyClientID == "" || cfg.ShopifyClientSecret == "") {
		errs = append(errs, errors.New("SHOPIFY_CLIENT_ID and SHOPIFY_CLIENT_SECRET are required when SHOPIFY_OAUTH_ENABLED=true"))
	}
	return errors.Join(errs...)
}

const (
	defaultSessionSecret = "session-secret-change-in-production"
	defaultSealSecret    = "token-seal-secret-change-in-production"
	defaultJWTSecret     = "backend-jwt-secret-change-in-production"
)

// validateProductionSecrets refuses to run production with the shipped secrets
func validateProductionSecrets(cfg *config.Config) error {
	switch {
	case cfg.SessionSecret == defaultSessionSecret:
		return errors.New("SESSION_SECRET must be changed in production")
	case cfg.TokenSealSecret == defaultSealSecret:
		return errors.New("TOKEN_SEAL_SECRET must be changed in production")
	case cfg.BackendJWTSecret == defaultJWTSecret:
		return errors.New("BACKEND_JWT_SECRET must be changed in production")
	}
	return nil
}
