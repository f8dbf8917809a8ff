// Package metrics exposes Prometheus counters for authentication events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Event names recorded by the auth service.
const (
	EventLogin          = "login"
	EventLoginFailed    = "login_failed"
	EventRegister       = "register"
	EventRefresh        = "refresh"
	EventRefreshFailed  = "refresh_failed"
	EventReuseDetected  = "refresh_reuse_detected"
	EventLogout         = "logout"
	EventSessionRevoked = "session_revoked"
	EventRevokeAll      = "revoke_all"
	EventDeviceEviction = "device_eviction"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry     *prometheus.Registry
	authEvents   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authentication lifecycle events by type.",
		}, []string{"event"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	m.registry.MustRegister(m.authEvents, m.httpRequests)
	return m
}

// Inc increments the counter for event by one.
func (m *Metrics) Inc(event string) {
	m.Add(event, 1)
}

func (m *Metrics) Add(event string, n float64) {
	if m == nil || n <= 0 {
		return
	}
	m.authEvents.WithLabelValues(event).Add(n)
}

func (m *Metrics) ObserveRequest(method, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, code).Inc()
}

// AuthEvents exposes the underlying vector for assertions.
func (m *Metrics) AuthEvents() *prometheus.CounterVec {
	return m.authEvents
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
