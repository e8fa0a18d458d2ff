package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder, used when
// metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordOAuthExchange(string, string, bool, time.Duration)   {}
func (n *NoopMetrics) RecordOAuthCallback(string, bool)                          {}
func (n *NoopMetrics) RecordPlatformAPICall(string, string, bool, time.Duration) {}
func (n *NoopMetrics) RecordBreakerState(string, string)                         {}
func (n *NoopMetrics) RecordTokenRefresh(bool, int)                              {}
func (n *NoopMetrics) RecordLoginRequired(string)                                {}
func (n *NoopMetrics) RecordBackendCall(string, int, time.Duration)              {}
func (n *NoopMetrics) RecordSelectionDecision(string, string)                    {}
func (n *NoopMetrics) RecordSelectionSubmit(string, bool)                        {}
func (n *NoopMetrics) SetConnectionsCount(string, int)                           {}
func (n *NoopMetrics) RecordDatabaseQueryError(string)                           {}
