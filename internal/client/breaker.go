package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/adsynq/adsynq/internal/core"
)

// ErrCircuitOpen is returned while a platform breaker rejects calls.
var ErrCircuitOpen = gobreaker.ErrOpenState

// ErrUpstream marks a 5xx answer from a platform API.
var ErrUpstream = errors.New("upstream server error")

// UpstreamError carries the status and body of a 5xx answer.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream server error %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// Doer sends a request; *retry.Client and *http.Client adapters satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// BreakerConfig holds the gobreaker settings of one platform.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32 // consecutive failures that open the breaker
}

// BreakerClient stops calling a platform API that keeps failing, so a
// Graph API outage does not stall every dashboard request on timeouts.
type BreakerClient struct {
	name    string
	doer    Doer
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// NewBreakerClient wraps doer with a circuit breaker named name.
func NewBreakerClient(
	name string,
	doer Doer,
	cfg BreakerConfig,
	recorder core.Recorder,
	logger *zap.Logger,
) *BreakerClient {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			recorder.RecordBreakerState(name, to.String())
		},
	}

	recorder.RecordBreakerState(name, gobreaker.StateClosed.String())

	return &BreakerClient{
		name:    name,
		doer:    doer,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// Do sends req through the breaker. 5xx answers count as failures and are
// returned as *UpstreamError; 4xx answers pass through untouched.
func (c *BreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.doer.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
			return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return resp, nil
	})
}

// State returns the breaker state.
func (c *BreakerClient) State() gobreaker.State {
	return c.breaker.State()
}

// Name returns the breaker name.
func (c *BreakerClient) Name() string {
	return c.name
}

// HTTPDoer adapts a plain *http.Client to Doer.
type HTTPDoer struct {
	Client *http.Client
}

func (d HTTPDoer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return d.Client.Do(req.WithContext(ctx))
}
