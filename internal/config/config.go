package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend constants shared by the token store and the plan cache
const (
	CacheTypeMemory     = "memory"
	CacheTypeRedis      = "redis"
	CacheTypeRedisAside = "redis-aside"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool
	LogLevel     string

	// Where the browser lands after a callback completes
	PostConnectRedirect string
	LoginURL            string

	// Session settings
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Provider tokens are sealed before they hit the database
	TokenSealSecret string
	TokenSealSalt   string

	// Token store
	TokenStoreType string // memory or redis
	TokenStoreTTL  time.Duration

	// Subscription plan cache
	PlanCacheType        string // memory, redis or redis-aside
	PlanCacheTTL         time.Duration
	PlanCacheClientTTL   time.Duration
	PlanCacheSizePerConn int // MB

	// Redis
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisConnTimeout  time.Duration
	RedisCloseTimeout time.Duration
	CacheInitTimeout  time.Duration

	// Backend REST API
	BackendURL     string
	BackendTimeout time.Duration
	// Connector credentials on backend calls: none, simple or hmac
	BackendAuthMode   string
	BackendAuthSecret string
	// Key the backend signs session JWTs with (HS256/384/512)
	BackendJWTSecret string

	// Google Ads / SA360
	GoogleOAuthEnabled      bool
	GoogleClientID          string
	GoogleClientSecret      string
	GoogleRedirectURL       string
	GoogleScopes            []string
	GoogleAdsDeveloperToken string
	GoogleAuthURL           string
	GoogleTokenURL          string
	GoogleUserInfoURL       string
	GoogleAdsAPIURL         string

	// Meta (Facebook) Ads
	MetaOAuthEnabled bool
	MetaAppID        string
	MetaAppSecret    string
	MetaRedirectURL  string
	MetaScopes       []string
	MetaDialogURL    string
	MetaGraphURL     string

	// TikTok Business
	TikTokOAuthEnabled bool
	TikTokAppID        string
	TikTokSecret       string
	TikTokRedirectURL  string
	TikTokAuthURL      string
	TikTokAPIURL       string

	// Shopify
	ShopifyOAuthEnabled bool
	ShopifyClientID     string
	ShopifyClientSecret string
	ShopifyRedirectURL  string
	ShopifyScopes       []string
	ShopifyShopDomain   string
	ShopifyAPIVersion   string

	// Oldest signed callback accepted
	CallbackMaxAge time.Duration

	// OAuth HTTP client settings
	OAuthTimeout            time.Duration
	OAuthInsecureSkipVerify bool

	// Retry for idempotent provider GETs (code exchanges are never retried)
	PlatformMaxRetries    int
	PlatformRetryDelay    time.Duration
	PlatformMaxRetryDelay time.Duration

	// Circuit breaker around provider APIs
	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold uint32

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string
	RateLimitCleanupInterval time.Duration
	APIRateLimit             int // requests per minute
	ConnectRateLimit         int // requests per minute

	// Insights fan-out
	InsightsConcurrency int

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration

	// Timeouts
	DBInitTimeout         time.Duration
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "adsynq.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      baseURL,
		IsProduction: getEnv("ENVIRONMENT", "development") == "production",
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		PostConnectRedirect: getEnv("POST_CONNECT_REDIRECT", "/connections"),
		LoginURL:            getEnv("LOGIN_URL", "/login"),

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 86400),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		TokenSealSecret: getEnv("TOKEN_SEAL_SECRET", "token-seal-secret-change-in-production"),
		TokenSealSalt:   getEnv("TOKEN_SEAL_SALT", "adsynq"),

		TokenStoreType: getEnv("TOKEN_STORE", CacheTypeMemory),
		TokenStoreTTL:  getEnvDuration("TOKEN_STORE_TTL", 720*time.Hour),

		PlanCacheType:        getEnv("PLAN_CACHE_TYPE", CacheTypeMemory),
		PlanCacheTTL:         getEnvDuration("PLAN_CACHE_TTL", 5*time.Minute),
		PlanCacheClientTTL:   getEnvDuration("PLAN_CACHE_CLIENT_TTL", 30*time.Second),
		PlanCacheSizePerConn: getEnvInt("PLAN_CACHE_SIZE_PER_CONN", 8),

		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisConnTimeout:  getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		RedisCloseTimeout: getEnvDuration("REDIS_CLOSE_TIMEOUT", 5*time.Second),
		CacheInitTimeout:  getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),

		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000/api"), "/"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),

		BackendAuthMode:   getEnv("BACKEND_AUTH_MODE", "none"),
		BackendAuthSecret: getEnv("BACKEND_AUTH_SECRET", ""),
		BackendJWTSecret:  getEnv("BACKEND_JWT_SECRET", "backend-jwt-secret-change-in-production"),

		GoogleOAuthEnabled:      getEnvBool("GOOGLE_OAUTH_ENABLED", false),
		GoogleClientID:          getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:      getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:       getEnv("GOOGLE_REDIRECT_URL", baseURL+"/oauth/callback"),
		GoogleScopes:            getEnvSlice("GOOGLE_SCOPES", []string{"openid", "email", "profile", "https://www.googleapis.com/auth/adwords"}),
		GoogleAdsDeveloperToken: getEnv("GOOGLE_ADS_DEVELOPER_TOKEN", ""),
		GoogleAuthURL:           getEnv("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/auth"),
		GoogleTokenURL:          getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		GoogleUserInfoURL:       getEnv("GOOGLE_USERINFO_URL", "https://www.googleapis.com/oauth2/v2/userinfo"),
		GoogleAdsAPIURL:         getEnv("GOOGLE_ADS_API_URL", "https://googleads.googleapis.com/v17"),

		MetaOAuthEnabled: getEnvBool("META_OAUTH_ENABLED", false),
		MetaAppID:        getEnv("META_APP_ID", ""),
		MetaAppSecret:    getEnv("META_APP_SECRET", ""),
		MetaRedirectURL:  getEnv("META_REDIRECT_URL", baseURL+"/oauth/callback"),
		MetaScopes:       getEnvSlice("META_SCOPES", []string{"email", "ads_read", "ads_management", "pages_show_list", "business_management"}),
		MetaDialogURL:    getEnv("META_DIALOG_URL", "https://www.facebook.com/v23.0/dialog/oauth"),
		MetaGraphURL:     getEnv("META_GRAPH_URL", "https://graph.facebook.com/v23.0"),

		TikTokOAuthEnabled: getEnvBool("TIKTOK_OAUTH_ENABLED", false),
		TikTokAppID:        getEnv("TIKTOK_APP_ID", ""),
		TikTokSecret:       getEnv("TIKTOK_SECRET", ""),
		TikTokRedirectURL:  getEnv("TIKTOK_REDIRECT_URL", baseURL+"/oauth/callback"),
		TikTokAuthURL:      getEnv("TIKTOK_AUTH_URL", "https://business-api.tiktok.com/portal/auth"),
		TikTokAPIURL:       getEnv("TIKTOK_API_URL", "https://business-api.tiktok.com/open_api/v1.3"),

		ShopifyOAuthEnabled: getEnvBool("SHOPIFY_OAUTH_ENABLED", false),
		ShopifyClientID:     getEnv("SHOPIFY_CLIENT_ID", ""),
		ShopifyClientSecret: getEnv("SHOPIFY_CLIENT_SECRET", ""),
		ShopifyRedirectURL:  getEnv("SHOPIFY_REDIRECT_URL", baseURL+"/oauth/callback"),
		ShopifyScopes:       getEnvSlice("SHOPIFY_SCOPES", []string{"read_orders", "read_products", "read_analytics"}),
		ShopifyShopDomain:   getEnv("SHOPIFY_SHOP_DOMAIN", ""),
		ShopifyAPIVersion:   getEnv("SHOPIFY_API_VERSION", "2024-10"),

		CallbackMaxAge: getEnvDuration("CALLBACK_MAX_AGE", 10*time.Minute),

		OAuthTimeout:            getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),
		OAuthInsecureSkipVerify: getEnvBool("OAUTH_INSECURE_SKIP_VERIFY", false),

		PlatformMaxRetries:    getEnvInt("PLATFORM_MAX_RETRIES", 3),
		PlatformRetryDelay:    getEnvDuration("PLATFORM_RETRY_DELAY", 500*time.Millisecond),
		PlatformMaxRetryDelay: getEnvDuration("PLATFORM_MAX_RETRY_DELAY", 5*time.Second),

		BreakerMaxRequests:      uint32(getEnvInt("BREAKER_MAX_REQUESTS", 1)),
		BreakerInterval:         getEnvDuration("BREAKER_INTERVAL", time.Minute),
		BreakerTimeout:          getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
		BreakerFailureThreshold: uint32(getEnvInt("BREAKER_FAILURE_THRESHOLD", 5)),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		APIRateLimit:             getEnvInt("API_RATE_LIMIT", 120),
		ConnectRateLimit:         getEnvInt("CONNECT_RATE_LIMIT", 10),

		InsightsConcurrency: getEnvInt("INSIGHTS_CONCURRENCY", 4),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),

		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		)
	}

	switch c.TokenStoreType {
	case CacheTypeMemory, CacheTypeRedis:
	default:
		return fmt.Errorf(
			"invalid TOKEN_STORE value: %q (must be %q or %q)",
			c.TokenStoreType, CacheTypeMemory, CacheTypeRedis,
		)
	}

	switch c.PlanCacheType {
	case CacheTypeMemory, CacheTypeRedis, CacheTypeRedisAside:
	default:
		return fmt.Errorf(
			"invalid PLAN_CACHE_TYPE value: %q (must be %q, %q or %q)",
			c.PlanCacheType, CacheTypeMemory, CacheTypeRedis, CacheTypeRedisAside,
		)
	}

	if c.PlanCacheType == CacheTypeRedisAside && c.PlanCacheClientTTL <= 0 {
		return errors.New("PLAN_CACHE_CLIENT_TTL must be positive when PLAN_CACHE_TYPE=redis-aside")
	}

	if c.TokenStoreTTL <= 0 {
		return errors.New("TOKEN_STORE_TTL must be positive")
	}

	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}

	switch c.BackendAuthMode {
	case "", "none":
	case "simple", "hmac":
		if c.BackendAuthSecret == "" {
			return fmt.Errorf("BACKEND_AUTH_SECRET is required when BACKEND_AUTH_MODE=%s", c.BackendAuthMode)
		}
	default:
		return fmt.Errorf(
			"invalid BACKEND_AUTH_MODE value: %q (must be none, simple or hmac)",
			c.BackendAuthMode,
		)
	}

	if c.TokenSealSecret == "" {
		return errors.New("TOKEN_SEAL_SECRET is required")
	}

	if c.BackendJWTSecret == "" {
		return errors.New("BACKEND_JWT_SECRET is required")
	}

	if c.ShopifyOAuthEnabled && c.ShopifyShopDomain == "" {
		return errors.New("SHOPIFY_SHOP_DOMAIN is required when SHOPIFY_OAUTH_ENABLED=true")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
