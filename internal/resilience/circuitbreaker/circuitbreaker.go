// Package circuitbreaker guards calls to Postgres and the AI providers with
// github.com/sony/gobreaker so that a failing dependency is skipped quickly
// instead of stalling every request.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"blog-api/internal/observability/metrics"
)

// Config controls when a breaker opens and how it probes for recovery.
type Config struct {
	Name string

	// MaxRequests is how many probes pass while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counts; zero never resets.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// The breaker opens once at least MinRequests calls were seen and the
	// failure ratio reaches FailureThreshold.
	FailureThreshold float64
	MinRequests      uint32
}

// ProviderConfig is the breaker for an AI provider. A provider that fails
// most calls is skipped for 30s so the chat chain moves on to the next one.
func ProviderConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// StateChangeFunc observes breaker transitions.
type StateChangeFunc func(name string, from, to gobreaker.State)

type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New builds a breaker. Transitions are logged, published as the
// circuit_breaker_state gauge and then passed to observers.
func New(cfg Config, observers ...StateChangeFunc) *CircuitBreaker {
	metrics.SetCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))

	return &CircuitBreaker{
		name: cfg.Name,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.Requests >= cfg.MinRequests &&
					float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
				metrics.SetCircuitBreakerState(name, int(to))
				for _, fn := range observers {
					fn(name, from, to)
				}
			},
		}),
	}
}

// Do runs fn through cb. While the breaker is open fn is not called and
// the error satisfies IsOpenError.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	out, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

func (cb *CircuitBreaker) State() gobreaker.State { return cb.breaker.State() }

func (cb *CircuitBreaker) Name() string { return cb.name }

func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}

// IsOpenError reports whether err was returned because a breaker rejected the call.
func IsOpenError(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
