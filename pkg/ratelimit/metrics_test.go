package ratelimit

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheusMetrics_Counters(t *testing.T) {
	m := NewPrometheusMetrics()

	m.RecordAllowed("public")
	m.RecordAllowed("public")
	m.RecordDenied("ai_heavy")
	m.RecordEviction("memory", 3)
	m.RecordActiveEviction("memory", 2)
	m.RecordStoreFailover("redis")

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("public", "allowed")); got != 2 {
		t.Errorf("allowed public = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("ai_heavy", "denied")); got != 1 {
		t.Errorf("denied ai_heavy = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.evictionsTotal.WithLabelValues("memory")); got != 3 {
		t.Errorf("evictions = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.activeEvictionsTotal.WithLabelValues("memory")); got != 2 {
		t.Errorf("active evictions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.failoversTotal.WithLabelValues("redis")); got != 1 {
		t.Errorf("failovers = %v, want 1", got)
	}
}

func TestPrometheusMetrics_CircuitState(t *testing.T) {
	m := NewPrometheusMetrics()

	tests := []struct {
		state string
		want  float64
	}{
		{"closed", 0},
		{"open", 1},
		{"half-open", 2},
		{"bogus", 0},
	}
	for _, tt := range tests {
		m.RecordCircuitState("redis", tt.state)
		if got := testutil.ToFloat64(m.circuitState.WithLabelValues("redis")); got != tt.want {
			t.Errorf("state %q = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestPrometheusMetrics_RegistryGathersHistogram(t *testing.T) {
	m := NewPrometheusMetrics()
	m.RecordCheckDuration("standard", 2*time.Millisecond)
	m.SetActiveKeys("memory", 42)

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	var hist *dto.Histogram
	var gauge *dto.Gauge
	for _, f := range families {
		switch f.GetName() {
		case "http_rate_limit_check_duration_seconds":
			hist = f.GetMetric()[0].GetHistogram()
		case "http_rate_limit_active_keys":
			gauge = f.GetMetric()[0].GetGauge()
		}
	}
	if hist == nil || hist.GetSampleCount() != 1 {
		t.Errorf("histogram sample count = %v, want 1", hist.GetSampleCount())
	}
	if gauge == nil || gauge.GetValue() != 42 {
		t.Errorf("active keys gauge = %v, want 42", gauge.GetValue())
	}
}

func TestNoOpMetrics_ImplementsInterface(t *testing.T) {
	var m RateLimitMetrics = NewNoOpMetrics()
	m.RecordAllowed("public")
	m.RecordCircuitState("redis", "open")
}
