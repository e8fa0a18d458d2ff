package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/adsynq/adsynq/internal/core"
)

// Recorder is re-exported so callers need not import core for it.
type Recorder = core.Recorder

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// OAuth connect flow
	OAuthExchangesTotal      *prometheus.CounterVec
	OAuthExchangeDuration    *prometheus.HistogramVec
	OAuthCallbacksTotal      *prometheus.CounterVec
	PlatformAPICallsTotal    *prometheus.CounterVec
	PlatformAPICallDuration  *prometheus.HistogramVec
	CircuitBreakerState      *prometheus.GaugeVec
	PlatformConnectionsTotal *prometheus.GaugeVec

	// Backend session
	TokenRefreshesTotal *prometheus.CounterVec
	TokenRefreshWaiters prometheus.Histogram
	LoginRequiredTotal  *prometheus.CounterVec
	BackendCallsTotal   *prometheus.CounterVec
	BackendCallDuration *prometheus.HistogramVec

	// Selection policy
	SelectionDecisionsTotal *prometheus.CounterVec
	SelectionSubmitsTotal   *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

var latencyBuckets = []float64{0.005, 0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0, 10.0}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		OAuthExchangesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adsynq_oauth_exchanges_total",
				Help: "OAuth exchange steps by platform, stage and result",
			},
			[]string{"platform", "stage", "result"}, // stage: code, long_lived, profile
		),
		OAuthExchangeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adsynq_oauth_exchange_duration_seconds",
				Help:    "Duration of OAuth exchange steps",
				Buckets: latencyBuckets,
			},
			[]string{"platform", "stage"},
		),
		OAuthCallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adsynq_oauth_callbacks_total",
				Help: "OAuth callbacks handled",
			},
			[]string{"platform", "result"},
		),
		PlatformAPICallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adsynq_platform_api_calls_total",
				Help: "Calls to platform APIs",
			},
			[]string{"platform", "operation", "result"},
		),
		PlatformAPICallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adsynq_platform_api_call_duration_seconds",
				Help:    "Latency of platform API calls",
				Buckets: latencyBuckets,
			},
			[]string{"platform", "operation"},
		),
		CircuitBreakerState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "adsynq_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		PlatformConnectionsTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "adsynq_platform_connections",
				Help: "Stored platform connections",
			},
			[]string{"platform"},
		),

		TokenRefreshesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adsynq_session_token_refreshes_total",
				Help: "Backend session refresh cycles",
			},
			[]string{"result"},
		),
		TokenRefreshWaiters: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "adsynq_session_token_refresh_waiters",
				Help:    "Requests queued behind one refresh cycle",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),
		LoginRequiredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adsynq_login_required_total",
				Help: "Requests sent back to the login boundary",
			},
			[]string{"reason"}, // no_token, refresh_failed
		),
		BackendCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adsynq_backend_calls_total",
				Help: "Calls to the backend REST API",
			},
			[]string{"operation", "status"},
		),
		BackendCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adsynq_backend_call_duration_seconds",
				Help:    "Latency of backend REST calls",
				Buckets: latencyBuckets,
			},
			[]string{"operation"},
		),

		SelectionDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adsynq_selection_decisions_total",
				Help: "Picker toggles by outcome",
			},
			[]string{"picker", "decision"}, // applied, swapped, rejected
		),
		SelectionSubmitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adsynq_selection_submits_total",
				Help: "Selection submissions by outcome",
			},
			[]string{"platform", "result"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"},
		),
	}
}
