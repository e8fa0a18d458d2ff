package platform

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/client"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/metrics"
	"github.com/adsynq/adsynq/internal/models"
)

// Stage is a state of one connection attempt. Errors report the terminal
// stage they stopped in.
type Stage string

const (
	StageIdle                     Stage = "idle"
	StageCodeReceived             Stage = "code_received"
	StageTokenExchangePending     Stage = "token_exchange_pending"
	StageTokenObtained            Stage = "token_obtained"
	StageExchangeFailed           Stage = "exchange_failed"
	StageLongLivedExchangePending Stage = "long_lived_exchange_pending"
	StageLongLivedObtained        Stage = "long_lived_obtained"
	StageLongLivedExchangeFailed  Stage = "long_lived_exchange_failed"
	StageProfileFetchPending      Stage = "profile_fetch_pending"
	StageProfileObtained          Stage = "profile_obtained"
	StageProfileFetchFailed       Stage = "profile_fetch_failed"
	StageRefreshFailed            Stage = "refresh_failed"
)

// ConnectionData is the normalized result of a completed authorization.
// AdvertisingData is nil when the platform has none or its fetch failed.
type ConnectionData struct {
	UserData        models.UserProfile `json:"user_data"`
	TokenData       models.TokenSet    `json:"token_data"`
	AdvertisingData []models.AdAccount `json:"advertising_data"`
	PagesData       []models.Page      `json:"pages_data,omitempty"`
}

// Provider is one advertising platform's OAuth protocol.
type Provider interface {
	Platform() models.Platform
	// AuthURL builds the interactive authorization URL carrying state.
	AuthURL(state string, opts ...Option) (string, error)
	// FetchOAuthProfile exchanges code exactly once and loads the profile
	// and auxiliary data.
	FetchOAuthProfile(ctx context.Context, code string, opts ...Option) (*ConnectionData, error)
	// FetchProfile retries the identity call alone after a ProfileFetchError.
	FetchProfile(ctx context.Context, tokens models.TokenSet, opts ...Option) (*models.UserProfile, error)
}

// Refresher is implemented by providers that can renew a token themselves.
type Refresher interface {
	RefreshTokens(ctx context.Context, tokens models.TokenSet) (models.TokenSet, error)
}

// Option adjusts one call.
type Option func(*options)

type options struct {
	shop string
}

// WithShop names the Shopify store a call is for.
func WithShop(domain string) Option {
	return func(o *options) {
		o.shop = domain
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Deps are the collaborators every provider shares.
type Deps struct {
	// HTTPClient sends code exchanges. It must not retry.
	HTTPClient *http.Client
	// API sends idempotent profile and account reads.
	API      client.Doer
	Recorder core.Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.HTTPClient == nil {
		d.HTTPClient = http.DefaultClient
	}
	if d.API == nil {
		d.API = client.HTTPDoer{Client: d.HTTPClient}
	}
	if d.Recorder == nil {
		d.Recorder = metrics.NewNoopMetrics()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
