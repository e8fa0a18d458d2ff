package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/adsynq/adsynq/internal/models"
)

const maxErrorBody = 4096

// base holds what every provider shares: its deps and the exchange flow.
type base struct {
	platform models.Platform
	deps     Deps
	log      *zap.Logger
}

func newBase(p models.Platform, deps Deps) base {
	deps = deps.withDefaults()
	return base{
		platform: p,
		deps:     deps,
		log:      deps.Logger.With(zap.String("platform", p.String())),
	}
}

func (b *base) Platform() models.Platform {
	return b.platform
}

// exchangeContext makes x/oauth2 send through the non-retrying client.
func (b *base) exchangeContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, b.deps.HTTPClient)
}

// flow is one provider's connection attempt split into its hops.
type flow struct {
	exchange func(ctx context.Context, code string) (models.TokenSet, error)
	upgrade  func(ctx context.Context, short models.TokenSet) (models.TokenSet, error)
	profile  func(ctx context.Context, tokens models.TokenSet) (*models.UserProfile, error)
	aux      func(ctx context.Context, tokens models.TokenSet, data *ConnectionData) error
}

// run drives code -> token -> (long-lived) -> profile -> aux. The code is
// sent once; any exchange failure ends the attempt.
func (b *base) run(ctx context.Context, code string, f flow) (*ConnectionData, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	b.log.Debug("oauth stage", zap.String("stage", string(StageCodeReceived)))

	start := time.Now()
	tokens, err := f.exchange(ctx, code)
	b.deps.Recorder.RecordOAuthExchange(b.platform.String(), "code", err == nil, time.Since(start))
	if err != nil {
		return nil, b.exchangeError(StageExchangeFailed, err)
	}
	b.log.Debug("oauth stage", zap.String("stage", string(StageTokenObtained)))

	if f.upgrade != nil {
		start = time.Now()
		tokens, err = f.upgrade(ctx, tokens)
		b.deps.Recorder.RecordOAuthExchange(b.platform.String(), "long_lived", err == nil, time.Since(start))
		if err != nil {
			return nil, b.exchangeError(StageLongLivedExchangeFailed, err)
		}
		b.log.Debug("oauth stage", zap.String("stage", string(StageLongLivedObtained)))
	}

	start = time.Now()
	profile, err := f.profile(ctx, tokens)
	b.deps.Recorder.RecordOAuthExchange(b.platform.String(), "profile", err == nil, time.Since(start))
	if err != nil {
		return nil, &ProfileFetchError{Platform: b.platform, Tokens: tokens, Err: err}
	}

	data := &ConnectionData{UserData: *profile, TokenData: tokens}
	if f.aux != nil {
		if err := f.aux(ctx, tokens, data); err != nil {
			b.log.Warn("auxiliary data fetch failed, continuing without it", zap.Error(err))
		}
	}
	return data, nil
}

func (b *base) exchangeError(stage Stage, err error) error {
	var ee *ExchangeError
	if errors.As(err, &ee) {
		ee.Stage = stage
		return ee
	}
	ee = &ExchangeError{Platform: b.platform, Stage: stage, Err: err}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		ee.Code = re.ErrorCode
		ee.Description = re.ErrorDescription
	}
	return ee
}

// tokenSet converts an x/oauth2 token. expires_in is taken from the raw
// response when present, else derived from Expiry.
func (b *base) tokenSet(tok *oauth2.Token) models.TokenSet {
	now := b.deps.Now()
	ts := models.NewTokenSet(now, tok.AccessToken, tok.RefreshToken, expiresIn(tok, now))
	if tok.TokenType != "" {
		ts.TokenType = tok.TokenType
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		ts.Scope = scope
	}
	return ts
}

func expiresIn(tok *oauth2.Token, now time.Time) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	if !tok.Expiry.IsZero() {
		return int64(tok.Expiry.Sub(now).Round(time.Second) / time.Second)
	}
	return 0
}

// getJSON performs an idempotent GET through the API doer and decodes the
// JSON body into out.
func (b *base) getJSON(ctx context.Context, op, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := b.deps.API.Do(ctx, req)
	if err != nil {
		b.deps.Recorder.RecordPlatformAPICall(b.platform.String(), op, false, time.Since(start))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	b.deps.Recorder.RecordPlatformAPICall(b.platform.String(), op, ok, time.Since(start))
	if !ok {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// sendExchange posts one exchange request through the non-retrying client.
func (b *base) sendExchange(req *http.Request, op string, out any) error {
	resp, err := b.deps.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}
