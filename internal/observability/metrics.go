package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for session and stream health.
type Metrics struct {
	mu       sync.Mutex
	counters map[string]int64
}

// Counter names recorded by the core.
const (
	MetricResolveAuthenticated   = "bootstrap_resolve_authenticated"
	MetricResolveUnauthenticated = "bootstrap_resolve_unauthenticated"
	MetricCredentialEvicted      = "bootstrap_credential_evicted"
	MetricRedirectRejected       = "bootstrap_redirect_rejected"
	MetricSTTReconnectAttempt    = "stt_reconnect_attempt"
	MetricSTTTransportDropped    = "stt_transport_dropped"
	MetricSTTAuthRejected        = "stt_auth_rejected"
	MetricSTTFramesSent          = "stt_frames_sent"
)

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{counters: make(map[string]int64)}
}

// Inc increments the named counter.
func (m *Metrics) Inc(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

// Value reads the named counter.
func (m *Metrics) Value(name string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}
