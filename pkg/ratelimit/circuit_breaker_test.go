package ratelimit

import (
	"errors"
	"testing"
	"time"
)

// stateRecorder keeps the last circuit state reported to metrics.
type stateRecorder struct {
	NoOpMetrics
	states []string
}

func (r *stateRecorder) RecordCircuitState(name, state string) {
	r.states = append(r.states, state)
}

func TestCircuitState_String(t *testing.T) {
	tests := []struct {
		name  string
		state CircuitState
		want  string
	}{
		{"closed state", StateClosed, "closed"},
		{"open state", StateOpen, "open"},
		{"half-open state", StateHalfOpen, "half-open"},
		{"unknown state", CircuitState(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.cfg.FailureThreshold != 10 {
		t.Errorf("FailureThreshold = %d, want 10", cb.cfg.FailureThreshold)
	}
	if cb.cfg.RecoveryTimeout != 30*time.Second {
		t.Errorf("RecoveryTimeout = %s, want 30s", cb.cfg.RecoveryTimeout)
	}
	if cb.State() != StateClosed {
		t.Errorf("initial state = %s, want closed", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := NewMockClock(time.Unix(1_700_000_000, 0))
	metrics := &stateRecorder{}
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  10 * time.Second,
		Clock:            clock,
		Metrics:          metrics,
		Name:             "redis",
	})
	failure := errors.New("store failure")

	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return failure }); !errors.Is(err, failure) {
			t.Fatalf("attempt %d: got %v, want store failure", i, err)
		}
	}
	if !cb.IsOpen() {
		t.Fatal("circuit should be open after 3 failures")
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() on open circuit = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("operation must not run while open")
	}

	want := []string{"closed", "open"}
	if len(metrics.states) != len(want) || metrics.states[0] != want[0] || metrics.states[1] != want[1] {
		t.Errorf("recorded states = %v, want %v", metrics.states, want)
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2})
	failure := errors.New("x")

	_ = cb.Execute(func() error { return failure })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return failure })

	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed (failures were not consecutive)", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	failure := errors.New("x")

	t.Run("successful probe closes the circuit", func(t *testing.T) {
		clock := NewMockClock(time.Unix(1_700_000_000, 0))
		cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: 5 * time.Second, Clock: clock})

		_ = cb.Execute(func() error { return failure })
		clock.Advance(5 * time.Second)

		if cb.State() != StateHalfOpen {
			t.Fatalf("state = %s, want half-open", cb.State())
		}
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("probe error = %v", err)
		}
		if cb.State() != StateClosed {
			t.Errorf("state = %s, want closed", cb.State())
		}
	})

	t.Run("failed probe reopens the circuit", func(t *testing.T) {
		clock := NewMockClock(time.Unix(1_700_000_000, 0))
		cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: 5 * time.Second, Clock: clock})

		_ = cb.Execute(func() error { return failure })
		clock.Advance(6 * time.Second)
		_ = cb.Execute(func() error { return failure })

		if !cb.IsOpen() {
			t.Errorf("state = %s, want open", cb.State())
		}
	})
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Execute(func() error { return errors.New("x") })

	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("state after Reset = %s, want closed", cb.State())
	}
}

func TestCircuitBreaker_SingleProbeWhileHalfOpen(t *testing.T) {
	clock := NewMockClock(time.Unix(1_700_000_000, 0))
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Second, Clock: clock})

	_ = cb.Execute(func() error { return errors.New("x") })
	clock.Advance(time.Second)

	var nested error
	err := cb.Execute(func() error {
		nested = cb.Execute(func() error {
			t.Error("second probe must not run")
			return nil
		})
		return nil
	})

	if err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if !errors.Is(nested, ErrCircuitOpen) {
		t.Errorf("concurrent probe = %v, want ErrCircuitOpen", nested)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed", cb.State())
	}
}
