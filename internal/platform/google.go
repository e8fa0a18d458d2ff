package platform

import (
	"context"
	"strings"

	"golang.org/x/oauth2"

	"github.com/adsynq/adsynq/internal/models"
)

// GoogleConfig configures the Google Ads / SA360 provider.
type GoogleConfig struct {
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	Scopes         []string
	AuthURL        string
	TokenURL       string
	UserInfoURL    string
	AdsAPIURL      string
	DeveloperToken string // listAccessibleCustomers is skipped when empty
}

// Google implements Provider for Google Ads.
type Google struct {
	base
	oauth *oauth2.Config
	cfg   GoogleConfig
}

var (
	_ Provider  = (*Google)(nil)
	_ Refresher = (*Google)(nil)
)

// NewGoogle creates the Google provider.
func NewGoogle(cfg GoogleConfig, deps Deps) *Google {
	return &Google{
		base: newBase(models.PlatformGoogle, deps),
		cfg:  cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
				// Auto-detection would probe twice, burning the single-use code.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// AuthURL requests offline access and forces the consent screen so a
// refresh token is issued on every connect.
func (g *Google) AuthURL(state string, _ ...Option) (string, error) {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (g *Google) FetchOAuthProfile(ctx context.Context, code string, _ ...Option) (*ConnectionData, error) {
	return g.run(ctx, code, flow{
		exchange: func(ctx context.Context, code string) (models.TokenSet, error) {
			tok, err := g.oauth.Exchange(g.exchangeContext(ctx), code)
			if err != nil {
				return models.TokenSet{}, err
			}
			return g.tokenSet(tok), nil
		},
		profile: func(ctx context.Context, ts models.TokenSet) (*models.UserProfile, error) {
			return g.FetchProfile(ctx, ts)
		},
		aux: g.fetchCustomers,
	})
}

type googleUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (g *Google) FetchProfile(ctx context.Context, ts models.TokenSet, _ ...Option) (*models.UserProfile, error) {
	var u googleUser
	if err := g.getJSON(ctx, "userinfo", g.cfg.UserInfoURL, bearer(ts.AccessToken), &u); err != nil {
		return nil, err
	}
	return &models.UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, PictureURL: u.Picture}, nil
}

type googleCustomers struct {
	ResourceNames []string `json:"resourceNames"`
}

func (g *Google) fetchCustomers(ctx context.Context, ts models.TokenSet, data *ConnectionData) error {
	if g.cfg.DeveloperToken == "" {
		return nil
	}
	h := bearer(ts.AccessToken)
	h.Set("developer-token", g.cfg.DeveloperToken)

	var out googleCustomers
	if err := g.getJSON(ctx, "list_customers", g.cfg.AdsAPIURL+"/customers:listAccessibleCustomers", h, &out); err != nil {
		return err
	}
	accounts := make([]models.AdAccount, 0, len(out.ResourceNames))
	for _, rn := range out.ResourceNames {
		accounts = append(accounts, models.AdAccount{
			ID:   strings.TrimPrefix(rn, "customers/"),
			Name: rn,
		})
	}
	data.AdvertisingData = accounts
	return nil
}

// RefreshTokens trades the refresh token for a new access token. Google
// keeps the refresh token unless it rotates one.
func (g *Google) RefreshTokens(ctx context.Context, ts models.TokenSet) (models.TokenSet, error) {
	if !ts.CanRefresh() {
		return models.TokenSet{}, ErrRefreshUnsupported
	}
	src := g.oauth.TokenSource(g.exchangeContext(ctx), &oauth2.Token{RefreshToken: ts.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return models.TokenSet{}, g.exchangeError(StageRefreshFailed, err)
	}
	next := g.tokenSet(tok)
	if next.RefreshToken == "" {
		next.RefreshToken = ts.RefreshToken
	}
	return next, nil
}
