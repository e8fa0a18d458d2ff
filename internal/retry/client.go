package retry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Default retry configuration
const (
	defaultMaxRetries         = 3
	defaultInitialRetryDelay  = 500 * time.Millisecond
	defaultMaxRetryDelay      = 5 * time.Second
	defaultRetryDelayMultiple = 2.0
)

// Client retries idempotent platform API calls with exponential backoff.
// Requests with other methods are sent exactly once: an authorization code
// is single-use, so a replayed exchange can only fail.
type Client struct {
	maxRetries         int
	initialRetryDelay  time.Duration
	maxRetryDelay      time.Duration
	retryDelayMultiple float64
	httpClient         *http.Client
	retryableChecker   RetryableChecker
	onRetry            func(attempt int, err error, resp *http.Response)
}

// RetryableChecker determines if an error or response should trigger a retry
type RetryableChecker func(err error, resp *http.Response) bool

// Option configures a Client
type Option func(*Client)

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialRetryDelay sets the initial delay before the first retry
func WithInitialRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialRetryDelay = d
		}
	}
}

// WithMaxRetryDelay caps the delay between retries, Retry-After included
func WithMaxRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.maxRetryDelay = d
		}
	}
}

// WithRetryDelayMultiple sets the exponential backoff multiplier
func WithRetryDelayMultiple(multiplier float64) Option {
	return func(c *Client) {
		if multiplier > 1.0 {
			c.retryDelayMultiple = multiplier
		}
	}
}

// WithHTTPClient sets a custom http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithRetryableChecker sets a custom function to determine retryable errors
func WithRetryableChecker(checker RetryableChecker) Option {
	return func(c *Client) {
		if checker != nil {
			c.retryableChecker = checker
		}
	}
}

// WithOnRetry registers a hook called before each retry, for logging.
func WithOnRetry(fn func(attempt int, err error, resp *http.Response)) Option {
	return func(c *Client) {
		c.onRetry = fn
	}
}

// NewClient creates a new retry-enabled HTTP client with the given options
func NewClient(opts ...Option) *Client {
	c := &Client{
		maxRetries:         defaultMaxRetries,
		initialRetryDelay:  defaultInitialRetryDelay,
		maxRetryDelay:      defaultMaxRetryDelay,
		retryDelayMultiple: defaultRetryDelayMultiple,
		httpClient:         http.DefaultClient,
		retryableChecker:   DefaultRetryableChecker,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HTTPClient exposes the underlying client for calls that must not retry.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// DefaultRetryableChecker retries network errors, 5xx and 429.
func DefaultRetryableChecker(err error, resp *http.Response) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// Idempotent reports whether a request with method may be replayed.
func Idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Do executes req, retrying idempotent requests with exponential backoff.
// A 429 with Retry-After waits for the advertised delay, capped at the
// maximum retry delay.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if !Idempotent(req.Method) {
		return c.httpClient.Do(req.WithContext(ctx))
	}

	var lastErr error
	var resp *http.Response
	delay := c.initialRetryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := delay
			if ra := retryAfter(resp); ra > 0 {
				wait = min(ra, c.maxRetryDelay)
			}
			if resp != nil && resp.Body != nil {
				resp.Body.Close()
			}
			if c.onRetry != nil {
				c.onRetry(attempt, lastErr, resp)
			}

			select {
			case <-ctx.Done():
				if lastErr != nil {
					return nil, fmt.Errorf("context cancelled after %d attempts: %w", attempt, lastErr)
				}
				return nil, ctx.Err()
			case <-time.After(wait):
				delay = min(time.Duration(float64(delay)*c.retryDelayMultiple), c.maxRetryDelay)
			}
		}

		resp, lastErr = c.httpClient.Do(req.Clone(ctx))

		if !c.retryableChecker(lastErr, resp) {
			return resp, lastErr
		}
	}

	// All retries exhausted: hand back the last response untouched
	if lastErr != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
	}
	return resp, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at)
	}
	return 0
}
