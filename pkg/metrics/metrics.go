package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dqbreaks"

// Metrics holds the service collectors.
// A nil *Metrics is valid and records nothing (METRICS_ENABLED=false).
// ⭐ SSOT: 모든 prometheus collector는 여기서만 등록
type Metrics struct {
	registry *prometheus.Registry

	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec
	queryRetries  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	fetchOutcomes *prometheus.CounterVec
	liveSessions  prometheus.Gauge
	probeUp       prometheus.Gauge
}

// New creates the collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Wall time of database queries by query name.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"query"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Failed database queries by query name and kind (connectivity, query).",
		}, []string{"query", "kind"}),
		queryRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_retries_total",
			Help:      "Connectivity retries by query name.",
		}, []string{"query"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		fetchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_guard_outcomes_total",
			Help:      "Fetch guard decisions by view and outcome.",
		}, []string{"view", "outcome"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Open websocket live sessions.",
		}),
		probeUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_probe_up",
			Help:      "1 when the last scheduled database probe succeeded.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.queryDuration,
		m.queryErrors,
		m.queryRetries,
		m.httpRequests,
		m.httpDuration,
		m.fetchOutcomes,
		m.liveSessions,
		m.probeUp,
	)

	return m
}

// Handler serves the exposition format for /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests, extra collectors)
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveQuery records one query execution
func (m *Metrics) ObserveQuery(name string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// QueryFailed counts a failed query; kind is "connectivity" or "query"
func (m *Metrics) QueryFailed(name, kind string) {
	if m == nil {
		return
	}
	m.queryErrors.WithLabelValues(name, kind).Inc()
}

// QueryRetried counts one retry of a query
func (m *Metrics) QueryRetried(name string) {
	if m == nil {
		return
	}
	m.queryRetries.WithLabelValues(name).Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// FetchOutcome counts a fetch guard decision
func (m *Metrics) FetchOutcome(view, outcome string) {
	if m == nil {
		return
	}
	m.fetchOutcomes.WithLabelValues(view, outcome).Inc()
}

// LiveSessionOpened / LiveSessionClosed track websocket sessions
func (m *Metrics) LiveSessionOpened() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

func (m *Metrics) LiveSessionClosed() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}

// SetProbeUp records the latest probe result
func (m *Metrics) SetProbeUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.probeUp.Set(1)
		return
	}
	m.probeUp.Set(0)
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
