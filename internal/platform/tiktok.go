package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/adsynq/adsynq/internal/models"
)

// TikTokConfig configures the TikTok Business provider.
type TikTokConfig struct {
	AppID       string
	Secret      string
	RedirectURL string
	AuthURL     string
	APIURL      string // e.g. https://business-api.tiktok.com/open_api/v1.3
}

// TikTok implements Provider for the TikTok Business API. Its tokens carry
// no expiry and cannot be refreshed by the provider.
type TikTok struct {
	base
	cfg TikTokConfig
}

var _ Provider = (*TikTok)(nil)

// NewTikTok creates the TikTok provider.
func NewTikTok(cfg TikTokConfig, deps Deps) *TikTok {
	return &TikTok{base: newBase(models.PlatformTikTok, deps), cfg: cfg}
}

func (t *TikTok) AuthURL(state string, _ ...Option) (string, error) {
	u, err := url.Parse(t.cfg.AuthURL)
	if err != nil {
		return "", fmt.Errorf("invalid tiktok auth url: %w", err)
	}
	q := u.Query()
	q.Set("app_id", t.cfg.AppID)
	q.Set("client_id", t.cfg.AppID)
	q.Set("redirect_uri", t.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// tiktokEnvelope is the {code, message, data} wrapper of every response.
// A non-zero code is a failure even on HTTP 200.
type tiktokEnvelope[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Data      T      `json:"data"`
}

type tiktokToken struct {
	AccessToken   string   `json:"access_token"`
	AdvertiserIDs []string `json:"advertiser_ids"`
	Scope         []int    `json:"scope"`
}

func (t *TikTok) FetchOAuthProfile(ctx context.Context, code string, _ ...Option) (*ConnectionData, error) {
	var advertisers []string
	return t.run(ctx, code, flow{
		exchange: func(ctx context.Context, code string) (models.TokenSet, error) {
			tok, err := t.exchange(ctx, code)
			if err != nil {
				return models.TokenSet{}, err
			}
			advertisers = tok.AdvertiserIDs
			return models.NewTokenSet(t.deps.Now(), tok.AccessToken, "", 0), nil
		},
		profile: func(ctx context.Context, ts models.TokenSet) (*models.UserProfile, error) {
			return t.FetchProfile(ctx, ts)
		},
		aux: func(_ context.Context, _ models.TokenSet, data *ConnectionData) error {
			if len(advertisers) == 0 {
				return nil
			}
			data.AdvertisingData = make([]models.AdAccount, 0, len(advertisers))
			for _, id := range advertisers {
				data.AdvertisingData = append(data.AdvertisingData, models.AdAccount{ID: id})
			}
			return nil
		},
	})
}

func (t *TikTok) exchange(ctx context.Context, code string) (*tiktokToken, error) {
	body, err := json.Marshal(map[string]string{
		"app_id":    t.cfg.AppID,
		"secret":    t.cfg.Secret,
		"auth_code": code,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(t.cfg.APIURL, "/")+"/oauth2/access_token/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var env tiktokEnvelope[tiktokToken]
	if err := t.sendExchange(req, "access_token", &env); err != nil {
		return nil, err
	}
	if env.Code != 0 || env.Data.AccessToken == "" {
		return nil, &ExchangeError{
			Platform:    t.platform,
			Code:        strconv.Itoa(env.Code),
			Description: env.Message,
		}
	}
	return &env.Data, nil
}

type tiktokUser struct {
	ID          string `json:"core_user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

func (t *TikTok) FetchProfile(ctx context.Context, ts models.TokenSet, _ ...Option) (*models.UserProfile, error) {
	var env tiktokEnvelope[tiktokUser]
	h := http.Header{"Access-Token": {ts.AccessToken}}
	if err := t.getJSON(ctx, "user_info", strings.TrimRight(t.cfg.APIURL, "/")+"/user/info/", h, &env); err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("user_info: tiktok error %d: %s", env.Code, env.Message)
	}
	u := env.Data
	return &models.UserProfile{ID: u.ID, Name: u.DisplayName, Email: u.Email, PictureURL: u.AvatarURL}, nil
}
