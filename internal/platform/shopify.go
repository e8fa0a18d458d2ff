package platform

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adsynq/adsynq/internal/models"
)

const (
	shopifyTokenExchangeGrant = "urn:ietf:params:oauth:grant-type:token-exchange"
	shopifyIDTokenType        = "urn:ietf:params:oauth:token-type:id_token"
	shopifyOfflineTokenType   = "urn:shopify:params:oauth:token-type:offline-access-token"
)

var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-]*\.myshopify\.com$`)

// ShopifyConfig configures the Shopify provider.
type ShopifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	ShopDomain   string // default shop when a call names none
	APIVersion   string
	// BaseURL replaces https://{shop} and skips the domain check. Tests only.
	BaseURL string
}

// Shopify implements Provider using the token-exchange grant: the "code"
// handed to FetchOAuthProfile is the session id token of the embedded app.
type Shopify struct {
	base
	cfg ShopifyConfig
}

var _ Provider = (*Shopify)(nil)

// NewShopify creates the Shopify provider.
func NewShopify(cfg ShopifyConfig, deps Deps) *Shopify {
	return &Shopify{base: newBase(models.PlatformShopify, deps), cfg: cfg}
}

func (s *Shopify) shopURL(opts []Option) (string, error) {
	if s.cfg.BaseURL != "" {
		return strings.TrimRight(s.cfg.BaseURL, "/"), nil
	}
	shop := applyOptions(opts).shop
	if shop == "" {
		shop = s.cfg.ShopDomain
	}
	if shop == "" {
		return "", ErrMissingShop
	}
	if !shopDomainPattern.MatchString(shop) {
		return "", fmt.Errorf("%w: invalid shop domain %q", ErrOAuthValidation, shop)
	}
	return "https://" + shop, nil
}

func (s *Shopify) AuthURL(state string, opts ...Option) (string, error) {
	base, err := s.shopURL(opts)
	if err != nil {
		return "", err
	}
	q := url.Values{
		"client_id":     {s.cfg.ClientID},
		"scope":         {strings.Join(s.cfg.Scopes, ",")},
		"redirect_uri":  {s.cfg.RedirectURL},
		"response_type": {"code"},
		"state":         {state},
	}
	return base + "/admin/oauth/authorize?" + q.Encode(), nil
}

type shopifyToken struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *Shopify) FetchOAuthProfile(ctx context.Context, code string, opts ...Option) (*ConnectionData, error) {
	base, err := s.shopURL(opts)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, code, flow{
		exchange: func(ctx context.Context, subject string) (models.TokenSet, error) {
			form := url.Values{
				"client_id":            {s.cfg.ClientID},
				"client_secret":        {s.cfg.ClientSecret},
				"grant_type":           {shopifyTokenExchangeGrant},
				"subject_token":        {subject},
				"subject_token_type":   {shopifyIDTokenType},
				"requested_token_type": {shopifyOfflineTokenType},
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				base+"/admin/oauth/access_token", strings.NewReader(form.Encode()))
			if err != nil {
				return models.TokenSet{}, fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("Accept", "application/json")

			var tok shopifyToken
			if err := s.sendExchange(req, "token_exchange", &tok); err != nil {
				return models.TokenSet{}, err
			}
			if tok.AccessToken == "" {
				return models.TokenSet{}, fmt.Errorf("token_exchange: response missing access_token")
			}
			ts := models.NewTokenSet(s.deps.Now(), tok.AccessToken, "", tok.ExpiresIn)
			ts.Scope = tok.Scope
			return ts, nil
		},
		profile: func(ctx context.Context, ts models.TokenSet) (*models.UserProfile, error) {
			return s.FetchProfile(ctx, ts, opts...)
		},
	})
}

type shopifyShop struct {
	Shop struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Email  string `json:"email"`
		Domain string `json:"domain"`
	} `json:"shop"`
}

func (s *Shopify) FetchProfile(ctx context.Context, ts models.TokenSet, opts ...Option) (*models.UserProfile, error) {
	base, err := s.shopURL(opts)
	if err != nil {
		return nil, err
	}
	var out shopifyShop
	h := http.Header{"X-Shopify-Access-Token": {ts.AccessToken}}
	endpoint := fmt.Sprintf("%s/admin/api/%s/shop.json", base, s.cfg.APIVersion)
	if err := s.getJSON(ctx, "shop", endpoint, h, &out); err != nil {
		return nil, err
	}
	return &models.UserProfile{
		ID:    strconv.FormatInt(out.Shop.ID, 10),
		Name:  out.Shop.Name,
		Email: out.Shop.Email,
	}, nil
}

// VerifyCallback checks the hmac query parameter Shopify signs callbacks
// with and rejects timestamps older than maxAge.
func (s *Shopify) VerifyCallback(query url.Values, now time.Time, maxAge time.Duration) error {
	signature := query.Get("hmac")
	if signature == "" {
		return ErrInvalidCallbackHMAC
	}
	if ts := query.Get("timestamp"); ts != "" && maxAge > 0 {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil || now.Sub(time.Unix(sec, 0)) > maxAge {
			return fmt.Errorf("%w: callback timestamp expired", ErrOAuthValidation)
		}
	}

	expected := SignShopifyQuery(query, s.cfg.ClientSecret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidCallbackHMAC
	}
	return nil
}

// SignShopifyQuery computes the hex HMAC-SHA256 of the sorted query
// without its hmac parameter.
func SignShopifyQuery(query url.Values, secret string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(h.Sum(nil))
}
