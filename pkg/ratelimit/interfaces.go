// Package ratelimit provides fixed-window rate limiting keyed by client
// identity and route class.
//
// The limiter is framework-agnostic: storage backends (in-memory, Redis),
// the clock and the metrics collector are injected, which keeps the HTTP
// middleware thin and the counting logic testable without a server.
package ratelimit

import (
	"context"
	"time"
)

// WindowStore holds fixed-window counters.
//
// Implementations must make CheckAndIncrement atomic: the comparison with
// the limit and the increment happen as one step, so N concurrent callers
// against a limit L accept exactly min(N, L) requests.
type WindowStore interface {
	// CheckAndIncrement counts one request against key for the window
	// starting at windowStart.
	//
	// A stored counter that belongs to a different window (earlier or later)
	// is reset before counting. When the counter already reached limit the
	// request is rejected and the counter is left unchanged.
	//
	// Returns:
	//   - allowed: true if the request was counted
	//   - count: counter value after the call
	//   - err: backend failure; allowed and count are meaningless when set
	CheckAndIncrement(ctx context.Context, key string, windowStart time.Time, window time.Duration, limit int) (allowed bool, count int, err error)

	// Name identifies the backend in logs and metrics ("memory", "redis").
	Name() string
}

// MaintainableStore is a WindowStore that keeps its records in process and
// needs periodic cleanup.
type MaintainableStore interface {
	WindowStore

	// Cleanup removes records whose window ended at or before now.
	// Returns the number of removed records.
	Cleanup(ctx context.Context, now time.Time) (int, error)

	// KeyCount returns the number of records currently held.
	KeyCount(ctx context.Context) (int, error)
}

// RateLimitMetrics records rate limiting activity.
type RateLimitMetrics interface {
	// RecordAllowed records an accepted request for a route class.
	RecordAllowed(class string)

	// RecordDenied records a rejected request for a route class.
	RecordDenied(class string)

	// RecordCheckDuration records how long a limiter check took.
	RecordCheckDuration(class string, duration time.Duration)

	// SetActiveKeys records the number of live records in a store.
	SetActiveKeys(store string, count int)

	// RecordCircuitState records a circuit breaker state ("closed", "open", "half-open").
	RecordCircuitState(name, state string)

	// RecordEviction records expired keys dropped to stay under the key cap.
	RecordEviction(store string, count int)

	// RecordActiveEviction records keys dropped while their window was still
	// running. Those callers get a fresh budget.
	RecordActiveEviction(store string, count int)

	// RecordStoreFailover records a check answered by the fallback store.
	RecordStoreFailover(store string)
}

// Clock provides an abstraction for time operations to enable testing.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}
