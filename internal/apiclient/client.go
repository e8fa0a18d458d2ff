package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/client"
	"github.com/adsynq/adsynq/internal/core"
	"github.com/adsynq/adsynq/internal/metrics"
	"github.com/adsynq/adsynq/internal/models"
	"github.com/adsynq/adsynq/internal/tokens"
)

// RefreshPath is the unauthenticated refresh endpoint under the base URL.
const RefreshPath = "/auth/token/refresh/"

const maxBody = 1 << 20

// Request is one backend call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Op labels the call in metrics; defaults to the method.
	Op string

	retried bool
}

// Response is a fully read 2xx answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unpacks the {result}/{results} envelope into out.
func (r *Response) Decode(out any) error {
	return DecodeEnvelope(r.Body, out)
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Doer     client.Doer
	Recorder core.Recorder
	Logger   *zap.Logger
	// OnLogout is called once per lost session: no token at all, or a
	// failed refresh. It is where the login redirect is triggered.
	OnLogout func(err error)
}

// Client attaches the bearer token to backend calls and recovers from an
// expired access token with one shared refresh.
type Client struct {
	baseURL   string
	doer      client.Doer
	tokens    core.TokenSource
	refresher *Refresher
	recorder  core.Recorder
	log       *zap.Logger
	onLogout  func(error)
}

// New creates a client reading and writing tokens through src.
func New(src core.TokenSource, opts Options) *Client {
	if opts.Doer == nil {
		opts.Doer = client.HTTPDoer{Client: http.DefaultClient}
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NewNoopMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		doer:     opts.Doer,
		tokens:   src,
		recorder: opts.Recorder,
		log:      opts.Logger,
		onLogout: opts.OnLogout,
	}
	c.refresher = NewRefresher(func(err error, waiters int) {
		c.recorder.RecordTokenRefresh(err == nil, waiters)
	})
	return c
}

// Do sends req with the stored access token. A 401 triggers one refresh
// cycle shared with every concurrent caller, then a single retry.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	ts, err := c.tokens.Get(ctx)
	if err != nil && !errors.Is(err, tokens.ErrNoTokens) {
		return nil, err
	}
	if ts.AccessToken == "" {
		c.logout("no_token", ErrLoginRequired)
		return nil, ErrLoginRequired
	}

	resp, err := c.send(ctx, req, ts.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return c.check(req, resp)
	}
	if req.retried {
		return nil, ErrUnauthorized
	}

	access, err := c.recover(ctx, ts.AccessToken)
	if err != nil {
		return nil, err
	}

	retry := *req
	retry.retried = true
	resp, err = c.send(ctx, &retry, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	return c.check(&retry, resp)
}

// recover returns an access token newer than stale. When another cycle
// already replaced it, that token is used without refreshing again.
func (c *Client) recover(ctx context.Context, stale string) (string, error) {
	cur, err := c.tokens.Get(ctx)
	switch {
	case errors.Is(err, tokens.ErrNoTokens):
		// a cycle that finished meanwhile failed and dropped the session
		return "", &RefreshError{Err: errSessionEnded}
	case err == nil && cur.AccessToken != "" && cur.AccessToken != stale:
		return cur.AccessToken, nil
	}
	return c.refresher.Do(ctx, stale, c.refresh)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refresh runs as the cycle leader. On failure the session is dropped.
func (c *Client) refresh(ctx context.Context) (string, error) {
	access, err := c.doRefresh(ctx)
	if err != nil {
		if clearErr := c.tokens.Clear(ctx); clearErr != nil {
			c.log.Error("failed to clear tokens after refresh failure", zap.Error(clearErr))
		}
		c.logout("refresh_failed", err)
		return "", err
	}
	return access, nil
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	ts, err := c.tokens.Get(ctx)
	if err != nil || !ts.CanRefresh() {
		return "", &RefreshError{Err: errNoRefreshToken}
	}

	payload, _ := json.Marshal(refreshRequest{Refresh: ts.RefreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RefreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", &RefreshError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		c.recorder.RecordBackendCall("refresh", 0, time.Since(start))
		return "", &RefreshError{Err: err}
	}
	defer resp.Body.Close()
	c.recorder.RecordBackendCall("refresh", resp.StatusCode, time.Since(start))

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RefreshError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out refreshResponse
	if err := json.Unmarshal(body, &out); err != nil || out.Access == "" {
		return "", &RefreshError{StatusCode: resp.StatusCode, Err: ErrMalformedResponse}
	}

	next := models.TokenSet{AccessToken: out.Access, RefreshToken: out.Refresh, TokenType: "Bearer"}
	if err := c.tokens.Set(ctx, next); err != nil {
		return "", &RefreshError{Err: err}
	}
	c.log.Debug("backend session refreshed")
	return out.Access, nil
}

func (c *Client) logout(reason string, err error) {
	c.recorder.RecordLoginRequired(reason)
	c.log.Info("session lost, login required", zap.String("reason", reason), zap.Error(err))
	if c.onLogout != nil {
		c.onLogout(err)
	}
}

func (c *Client) send(ctx context.Context, req *Request, access string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+access)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	op := req.Op
	if op == "" {
		op = strings.ToLower(method)
	}

	start := time.Now()
	resp, err := c.doer.Do(ctx, httpReq)
	if err != nil {
		c.recorder.RecordBackendCall(op, 0, time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}
	defer resp.Body.Close()
	c.recorder.RecordBackendCall(op, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, req.Path, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) check(req *Request, resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	return nil, &APIError{Method: method, Path: req.Path, StatusCode: resp.StatusCode, Body: string(resp.Body)}
}

// Get is Do for a GET decoding the envelope into out.
func (c *Client) Get(ctx context.Context, op, path string, query url.Values, out any) error {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query, Op: op})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// Send is Do for a request with a JSON body. out may be nil; a 204 answer
// is not decoded.
func (c *Client) Send(ctx context.Context, op, method, path string, in, out any) error {
	resp, err := c.Do(ctx, &Request{Method: method, Path: path, Body: in, Op: op})
	if err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return resp.Decode(out)
}
