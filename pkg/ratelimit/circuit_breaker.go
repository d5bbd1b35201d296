package ratelimit

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by CircuitBreaker.Execute while the circuit is open.
var ErrCircuitOpen = errors.New("ratelimit: circuit breaker is open")

// CircuitState is the position of a store breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

var circuitStateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(circuitStateNames) {
		return "unknown"
	}
	return circuitStateNames[s]
}

// CircuitBreakerConfig configures the breaker in front of a remote
// WindowStore. Zero fields take the defaults noted.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures that open the circuit (10)
	RecoveryTimeout  time.Duration // open time before a probe is let through (30s)
	Clock            Clock         // SystemClock
	Metrics          RateLimitMetrics
	Name             string // store name for logs and the circuit state gauge
}

// CircuitBreaker counts consecutive store failures. Once open, Execute
// fails fast with ErrCircuitOpen so the limiter answers from its fallback
// store. After RecoveryTimeout a single probe runs: success closes the
// circuit, failure opens it for another RecoveryTimeout.
//
// It is separate from internal/resilience/circuitbreaker because this
// package is importable on its own and needs the injectable Clock.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu       sync.Mutex
	state    CircuitState
	failures int
	since    time.Time
	probing  bool
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 10
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = &SystemClock{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &NoOpMetrics{}
	}

	cfg.Metrics.RecordCircuitState(cfg.Name, StateClosed.String())
	return &CircuitBreaker{cfg: cfg, state: StateClosed, since: cfg.Clock.Now()}
}

// Execute runs operation unless the circuit is open or a half-open probe
// is already in flight, in which case it returns ErrCircuitOpen.
func (cb *CircuitBreaker) Execute(operation func() error) error {
	if !cb.admit() {
		return ErrCircuitOpen
	}
	err := operation()
	cb.settle(err)
	return err
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.refreshLocked()
	switch cb.state {
	case StateOpen:
		return false
	case StateHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
	}
	return true
}

func (cb *CircuitBreaker) settle(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probing = false
	if err == nil {
		cb.failures = 0
		cb.moveLocked(StateClosed)
		return
	}

	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.moveLocked(StateOpen)
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refreshLocked()
	return cb.state
}

func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.moveLocked(StateClosed)
}

// refreshLocked turns an expired open circuit into half-open.
func (cb *CircuitBreaker) refreshLocked() {
	if cb.state == StateOpen && cb.cfg.Clock.Now().Sub(cb.since) >= cb.cfg.RecoveryTimeout {
		cb.moveLocked(StateHalfOpen)
	}
}

func (cb *CircuitBreaker) moveLocked(next CircuitState) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	cb.since = cb.cfg.Clock.Now()
	cb.cfg.Metrics.RecordCircuitState(cb.cfg.Name, next.String())

	slog.Warn("rate limit store breaker state changed",
		slog.String("store", cb.cfg.Name),
		slog.String("from", prev.String()),
		slog.String("to", next.String()),
		slog.Int("consecutive_failures", cb.failures))
}
