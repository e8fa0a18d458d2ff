package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		RateLimitStore:   RateLimitStoreMemory,
		TokenStoreType:   CacheTypeMemory,
		TokenStoreTTL:    time.Hour,
		PlanCacheType:    CacheTypeMemory,
		BackendURL:       "http://backend",
		TokenSealSecret:  "secret",
		BackendJWTSecret: "jwt-key",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid memory stores",
			mutate: func(*Config) {},
		},
		{
			name: "valid redis stores",
			mutate: func(c *Config) {
				c.RateLimitStore = RateLimitStoreRedis
				c.TokenStoreType = CacheTypeRedis
				c.PlanCacheType = CacheTypeRedisAside
				c.PlanCacheClientTTL = 30 * time.Second
			},
		},
		{
			name:        "invalid rate limit store",
			mutate:      func(c *Config) { c.RateLimitStore = "reddis" },
			expectError: true,
			errorMsg:    `invalid RATE_LIMIT_STORE value: "reddis"`,
		},
		{
			name:        "token store cannot be redis-aside",
			mutate:      func(c *Config) { c.TokenStoreType = CacheTypeRedisAside },
			expectError: true,
			errorMsg:    `invalid TOKEN_STORE value: "redis-aside"`,
		},
		{
			name:        "invalid plan cache",
			mutate:      func(c *Config) { c.PlanCacheType = "memcache" },
			expectError: true,
			errorMsg:    `invalid PLAN_CACHE_TYPE value: "memcache"`,
		},
		{
			name: "redis-aside needs client ttl",
			mutate: func(c *Config) {
				c.PlanCacheType = CacheTypeRedisAside
				c.PlanCacheClientTTL = 0
			},
			expectError: true,
			errorMsg:    "PLAN_CACHE_CLIENT_TTL must be positive",
		},
		{
			name:        "token store ttl required",
			mutate:      func(c *Config) { c.TokenStoreTTL = 0 },
			expectError: true,
			errorMsg:    "TOKEN_STORE_TTL must be positive",
		},
		{
			name:        "backend url required",
			mutate:      func(c *Config) { c.BackendURL = "" },
			expectError: true,
			errorMsg:    "BACKEND_URL is required",
		},
		{
			name:        "seal secret required",
			mutate:      func(c *Config) { c.TokenSealSecret = "" },
			expectError: true,
			errorMsg:    "TOKEN_SEAL_SECRET is required",
		},
		{
			name:        "session jwt key required",
			mutate:      func(c *Config) { c.BackendJWTSecret = "" },
			expectError: true,
			errorMsg:    "BACKEND_JWT_SECRET is required",
		},
		{
			name: "backend hmac signing",
			mutate: func(c *Config) {
				c.BackendAuthMode = "hmac"
				c.BackendAuthSecret = "shared"
			},
		},
		{
			name:        "backend signing needs secret",
			mutate:      func(c *Config) { c.BackendAuthMode = "simple" },
			expectError: true,
			errorMsg:    "BACKEND_AUTH_SECRET is required",
		},
		{
			name:        "invalid backend signing mode",
			mutate:      func(c *Config) { c.BackendAuthMode = "rsa" },
			expectError: true,
			errorMsg:    `invalid BACKEND_AUTH_MODE value: "rsa"`,
		},
		{
			name: "shopify needs shop domain",
			mutate: func(c *Config) {
				c.ShopifyOAuthEnabled = true
			},
			expectError: true,
			errorMsg:    "SHOPIFY_SHOP_DOMAIN is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BASE_URL", "https://app.example.com")
	t.Setenv("BACKEND_URL", "https://api.example.com/api/")

	cfg := Load()

	assert.Equal(t, "https://api.example.com/api", cfg.BackendURL, "trailing slash is trimmed")
	assert.Equal(t, "https://app.example.com/oauth/callback", cfg.GoogleRedirectURL)
	assert.Equal(t, "https://graph.facebook.com/v23.0", cfg.MetaGraphURL)
	assert.Equal(t, 720*time.Hour, cfg.TokenStoreTTL)
	assert.Equal(t, 3, cfg.PlatformMaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RedisConnTimeout)
	assert.Equal(t, 30*time.Second, cfg.DBInitTimeout)
	assert.Equal(t, 5*time.Second, cfg.ServerShutdownTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CallbackMaxAge)
	assert.Equal(t, 4, cfg.InsightsConcurrency)
	assert.True(t, cfg.MetricsGaugeUpdateEnabled)
	assert.Equal(t, "/login", cfg.LoginURL)
	assert.NoError(t, cfg.Validate())
}

func TestGetEnvSlice(t *testing.T) {
	t.Setenv("TEST_SCOPES", " ads_read, ,email ")
	assert.Equal(t, []string{"ads_read", "email"}, getEnvSlice("TEST_SCOPES", nil))

	t.Setenv("TEST_SCOPES_EMPTY", " , ")
	assert.Equal(t, []string{"x"}, getEnvSlice("TEST_SCOPES_EMPTY", []string{"x"}))
}

func TestGetEnvInt_Invalid(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))
}
