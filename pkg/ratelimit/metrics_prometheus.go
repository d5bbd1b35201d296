package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements RateLimitMetrics using Prometheus.
//
// All metrics live in a custom registry so tests get isolated instances;
// cmd/api merges it with the default gatherer on /metrics.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// requestsTotal labels: route_class, status ("allowed" | "denied").
	requestsTotal *prometheus.CounterVec

	// checkDuration buckets target sub-millisecond memory checks and
	// single-digit millisecond Redis checks.
	checkDuration *prometheus.HistogramVec

	activeKeys *prometheus.GaugeVec

	// circuitState values: 0 closed, 1 open, 2 half-open.
	circuitState *prometheus.GaugeVec

	evictionsTotal       *prometheus.CounterVec
	activeEvictionsTotal *prometheus.CounterVec
	failoversTotal       *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance with a custom registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limit_requests_total",
				Help: "Total rate limit checks by route class and status",
			},
			[]string{"route_class", "status"},
		),
		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_rate_limit_check_duration_seconds",
				Help:    "Duration of rate limit check operations",
				Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"route_class"},
		),
		activeKeys: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_rate_limit_active_keys",
				Help: "Current number of window records by store",
			},
			[]string{"store"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_rate_limit_circuit_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"store"},
		),
		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limit_evictions_total",
				Help: "Expired records dropped to stay under the key cap, by store",
			},
			[]string{"store"},
		),
		activeEvictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limit_active_evictions_total",
				Help: "Records evicted while their window was still running, by store",
			},
			[]string{"store"},
		),
		failoversTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_rate_limit_store_failovers_total",
				Help: "Checks answered by the fallback store because the primary store failed",
			},
			[]string{"store"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.checkDuration,
		m.activeKeys,
		m.circuitState,
		m.evictionsTotal,
		m.activeEvictionsTotal,
		m.failoversTotal,
	)
	return m
}

// Registry returns the Prometheus registry containing all rate limit metrics.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAllowed implements RateLimitMetrics.
func (m *PrometheusMetrics) RecordAllowed(class string) {
	m.requestsTotal.WithLabelValues(class, "allowed").Inc()
}

// RecordDenied implements RateLimitMetrics.
func (m *PrometheusMetrics) RecordDenied(class string) {
	m.requestsTotal.WithLabelValues(class, "denied").Inc()
}

// RecordCheckDuration implements RateLimitMetrics.
func (m *PrometheusMetrics) RecordCheckDuration(class string, duration time.Duration) {
	m.checkDuration.WithLabelValues(class).Observe(duration.Seconds())
}

// SetActiveKeys implements RateLimitMetrics.
func (m *PrometheusMetrics) SetActiveKeys(store string, count int) {
	m.activeKeys.WithLabelValues(store).Set(float64(count))
}

// RecordCircuitState implements RateLimitMetrics.
func (m *PrometheusMetrics) RecordCircuitState(name, state string) {
	var value float64
	switch state {
	case "open":
		value = 1
	case "half-open":
		value = 2
	}
	m.circuitState.WithLabelValues(name).Set(value)
}

// RecordEviction implements RateLimitMetrics.
func (m *PrometheusMetrics) RecordEviction(store string, count int) {
	m.evictionsTotal.WithLabelValues(store).Add(float64(count))
}

// RecordActiveEviction implements RateLimitMetrics.
func (m *PrometheusMetrics) RecordActiveEviction(store string, count int) {
	m.activeEvictionsTotal.WithLabelValues(store).Add(float64(count))
}

// RecordStoreFailover implements RateLimitMetrics.
func (m *PrometheusMetrics) RecordStoreFailover(store string) {
	m.failoversTotal.WithLabelValues(store).Inc()
}
