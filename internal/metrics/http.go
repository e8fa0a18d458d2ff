package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

func result(ok bool) string {
	if ok {
		return resultSuccess
	}
	return resultError
}

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	metrics, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath() // route pattern, keeps :id out of the label set
		if path == "" {
			path = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) RecordOAuthExchange(platform, stage string, success bool, duration time.Duration) {
	m.OAuthExchangesTotal.WithLabelValues(platform, stage, result(success)).Inc()
	m.OAuthExchangeDuration.WithLabelValues(platform, stage).Observe(duration.Seconds())
}

func (m *Metrics) RecordOAuthCallback(platform string, success bool) {
	m.OAuthCallbacksTotal.WithLabelValues(platform, result(success)).Inc()
}

func (m *Metrics) RecordPlatformAPICall(platform, operation string, success bool, duration time.Duration) {
	m.PlatformAPICallsTotal.WithLabelValues(platform, operation, result(success)).Inc()
	m.PlatformAPICallDuration.WithLabelValues(platform, operation).Observe(duration.Seconds())
}

// RecordBreakerState maps gobreaker state names to gauge values
func (m *Metrics) RecordBreakerState(name, state string) {
	var v float64
	switch state {
	case "closed":
		v = 0
	case "half-open":
		v = 1
	case "open":
		v = 2
	default:
		v = -1
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(v)
}

// RecordTokenRefresh records one refresh cycle and how many requests waited on it
func (m *Metrics) RecordTokenRefresh(success bool, waiters int) {
	m.TokenRefreshesTotal.WithLabelValues(result(success)).Inc()
	m.TokenRefreshWaiters.Observe(float64(waiters))
}

func (m *Metrics) RecordLoginRequired(reason string) {
	m.LoginRequiredTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordBackendCall(operation string, status int, duration time.Duration) {
	m.BackendCallsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	m.BackendCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordSelectionDecision(picker, decision string) {
	m.SelectionDecisionsTotal.WithLabelValues(picker, decision).Inc()
}

func (m *Metrics) RecordSelectionSubmit(platform string, accepted bool) {
	res := "accepted"
	if !accepted {
		res = "rejected"
	}
	m.SelectionSubmitsTotal.WithLabelValues(platform, res).Inc()
}

func (m *Metrics) SetConnectionsCount(platform string, count int) {
	m.PlatformConnectionsTotal.WithLabelValues(platform).Set(float64(count))
}

// RecordDatabaseQueryError records a database query error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
