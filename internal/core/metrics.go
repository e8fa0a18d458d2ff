package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// OAuth connect flow
	RecordOAuthExchange(platform, stage string, success bool, duration time.Duration)
	RecordOAuthCallback(platform string, success bool)
	RecordPlatformAPICall(platform, operation string, success bool, duration time.Duration)
	RecordBreakerState(name, state string)

	// Backend session tokens
	RecordTokenRefresh(success bool, waiters int)
	RecordLoginRequired(reason string)
	RecordBackendCall(operation string, status int, duration time.Duration)

	// Selection policy
	RecordSelectionDecision(picker, decision string)
	RecordSelectionSubmit(platform string, accepted bool)

	// Gauges (periodic updates)
	SetConnectionsCount(platform string, count int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// ConnectionCounter defines the DB operation needed by the gauge updater.
type ConnectionCounter interface {
	CountConnectionsByPlatform(platform string) (int64, error)
}
