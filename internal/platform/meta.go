package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/adsynq/adsynq/internal/models"
)

// MetaLongLivedExpiresIn is the lifetime Meta gives long-lived user tokens
// (60 days). Used when the upgrade response omits expires_in.
const MetaLongLivedExpiresIn int64 = 60 * 24 * 60 * 60

// MetaConfig configures the Meta (Facebook) Ads provider.
type MetaConfig struct {
	AppID       string
	AppSecret   string
	RedirectURL string
	Scopes      []string
	DialogURL   string
	GraphURL    string // versioned, e.g. https://graph.facebook.com/v23.0
}

// Meta implements Provider for the Graph API. A code yields a short-lived
// token that must be upgraded before it is stored.
type Meta struct {
	base
	oauth *oauth2.Config
	cfg   MetaConfig
}

var (
	_ Provider  = (*Meta)(nil)
	_ Refresher = (*Meta)(nil)
)

// NewMeta creates the Meta provider.
func NewMeta(cfg MetaConfig, deps Deps) *Meta {
	return &Meta{
		base: newBase(models.PlatformMeta, deps),
		cfg:  cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.AppID,
			ClientSecret: cfg.AppSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.DialogURL,
				TokenURL:  cfg.GraphURL + "/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func (m *Meta) AuthURL(state string, _ ...Option) (string, error) {
	return m.oauth.AuthCodeURL(state), nil
}

func (m *Meta) FetchOAuthProfile(ctx context.Context, code string, _ ...Option) (*ConnectionData, error) {
	return m.run(ctx, code, flow{
		exchange: func(ctx context.Context, code string) (models.TokenSet, error) {
			tok, err := m.oauth.Exchange(m.exchangeContext(ctx), code)
			if err != nil {
				return models.TokenSet{}, err
			}
			return m.tokenSet(tok), nil
		},
		upgrade: m.exchangeLongLived,
		profile: func(ctx context.Context, ts models.TokenSet) (*models.UserProfile, error) {
			return m.FetchProfile(ctx, ts)
		},
		aux: m.fetchAccounts,
	})
}

type metaTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// exchangeLongLived trades a short-lived token for a long-lived one via
// grant_type=fb_exchange_token.
func (m *Meta) exchangeLongLived(ctx context.Context, short models.TokenSet) (models.TokenSet, error) {
	q := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {m.cfg.AppID},
		"client_secret":     {m.cfg.AppSecret},
		"fb_exchange_token": {short.AccessToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		m.cfg.GraphURL+"/oauth/access_token?"+q.Encode(), nil)
	if err != nil {
		return models.TokenSet{}, fmt.Errorf("failed to create request: %w", err)
	}

	var out metaTokenResponse
	if err := m.sendExchange(req, "long_lived_exchange", &out); err != nil {
		return models.TokenSet{}, err
	}
	if out.AccessToken == "" {
		return models.TokenSet{}, fmt.Errorf("long_lived_exchange: response missing access_token")
	}

	expires := out.ExpiresIn
	if expires <= 0 {
		expires = MetaLongLivedExpiresIn
	}
	ts := models.NewTokenSet(m.deps.Now(), out.AccessToken, "", expires)
	if out.TokenType != "" {
		ts.TokenType = out.TokenType
	}
	ts.Scope = short.Scope
	return ts, nil
}

type metaUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (m *Meta) FetchProfile(ctx context.Context, ts models.TokenSet, _ ...Option) (*models.UserProfile, error) {
	var u metaUser
	endpoint := m.cfg.GraphURL + "/me?fields=" + url.QueryEscape("id,name,email,picture.type(large)")
	if err := m.getJSON(ctx, "me", endpoint, bearer(ts.AccessToken), &u); err != nil {
		return nil, err
	}
	return &models.UserProfile{ID: u.ID, Name: u.Name, Email: u.Email, PictureURL: u.Picture.Data.URL}, nil
}

type metaPages struct {
	Data []models.Page `json:"data"`
}

type metaAdAccount struct {
	AccountID     string `json:"account_id"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	AccountStatus int    `json:"account_status"`
}

type metaAdAccounts struct {
	Data []metaAdAccount `json:"data"`
}

// fetchAccounts loads pages and ad accounts. Pages failing does not stop
// the ad account call.
func (m *Meta) fetchAccounts(ctx context.Context, ts models.TokenSet, data *ConnectionData) error {
	h := bearer(ts.AccessToken)

	var pages metaPages
	pagesErr := m.getJSON(ctx, "pages", m.cfg.GraphURL+"/me/accounts?fields=id,name,category", h, &pages)
	if pagesErr == nil {
		data.PagesData = pages.Data
	}

	var accounts metaAdAccounts
	endpoint := m.cfg.GraphURL + "/me/adaccounts?fields=account_id,name,currency,account_status"
	if err := m.getJSON(ctx, "ad_accounts", endpoint, h, &accounts); err != nil {
		return err
	}
	out := make([]models.AdAccount, 0, len(accounts.Data))
	for _, a := range accounts.Data {
		out = append(out, models.AdAccount{
			ID:       a.AccountID,
			Name:     a.Name,
			Currency: a.Currency,
			Status:   metaAccountStatus(a.AccountStatus),
		})
	}
	data.AdvertisingData = out
	return pagesErr
}

func metaAccountStatus(code int) string {
	switch code {
	case 1:
		return "active"
	case 2:
		return "disabled"
	case 3:
		return "unsettled"
	default:
		return "other"
	}
}

// RefreshTokens re-runs the long-lived exchange with the current token,
// which Meta answers with a fresh 60-day token.
func (m *Meta) RefreshTokens(ctx context.Context, ts models.TokenSet) (models.TokenSet, error) {
	if ts.AccessToken == "" {
		return models.TokenSet{}, ErrRefreshUnsupported
	}
	next, err := m.exchangeLongLived(ctx, ts)
	if err != nil {
		return models.TokenSet{}, m.exchangeError(StageRefreshFailed, err)
	}
	return next, nil
}
