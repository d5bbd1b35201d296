package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// LimiterConfig wires a Limiter.
type LimiterConfig struct {
	// Policies maps each route class to its budget.
	// Default: DefaultPolicies()
	Policies map[RouteClass]Policy

	// Store is the primary window store.
	// Default: a new InMemoryWindowStore
	Store WindowStore

	// Fallback answers checks while Store fails. Optional; without it a
	// failing store lets requests through.
	Fallback WindowStore

	// Breaker guards Store. Optional.
	Breaker *CircuitBreaker

	// Clock provides time operations for testing.
	// Default: SystemClock
	Clock Clock

	// Metrics receives check results.
	// Default: NoOpMetrics
	Metrics RateLimitMetrics
}

// Limiter is a fixed-window rate limiter keyed by identity and route class.
type Limiter struct {
	policies map[RouteClass]Policy
	store    WindowStore
	fallback WindowStore
	breaker  *CircuitBreaker
	clock    Clock
	metrics  RateLimitMetrics
}

// NewLimiter creates a Limiter from config.
func NewLimiter(config LimiterConfig) *Limiter {
	if config.Policies == nil {
		config.Policies = DefaultPolicies()
	}
	if config.Metrics == nil {
		config.Metrics = &NoOpMetrics{}
	}
	if config.Store == nil {
		config.Store = NewInMemoryWindowStore(InMemoryStoreConfig{Metrics: config.Metrics})
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}

	return &Limiter{
		policies: config.Policies,
		store:    config.Store,
		fallback: config.Fallback,
		breaker:  config.Breaker,
		clock:    config.Clock,
		metrics:  config.Metrics,
	}
}

// Policy returns the policy of class.
func (l *Limiter) Policy(class RouteClass) (Policy, bool) {
	p, ok := l.policies[class]
	return p, ok
}

// Check counts one request from identity against class and returns the
// verdict. It never fails: store errors fall back to the fallback store,
// then to allowing the request.
func (l *Limiter) Check(ctx context.Context, identity string, class RouteClass) *RateLimitDecision {
	started := time.Now()
	defer func() {
		l.metrics.RecordCheckDuration(class.String(), time.Since(started))
	}()

	now := l.clock.Now()
	key := class.String() + ":" + identity

	policy, ok := l.policies[class]
	if !ok {
		slog.Warn("unknown route class, allowing request",
			slog.String("route_class", class.String()),
			slog.String("identity", identity))
		return NewAllowedDecision(key, class, 0, 0, now, now)
	}

	windowStart := WindowStart(now, policy.Window)
	resetAt := windowStart.Add(policy.Window)

	allowed, count, err := l.increment(ctx, key, windowStart, policy)
	if err != nil {
		slog.Error("rate limit store unavailable, allowing request",
			slog.String("route_class", class.String()),
			slog.String("store", l.store.Name()),
			slog.Any("error", err))
		l.metrics.RecordAllowed(class.String())
		return NewAllowedDecision(key, class, policy.Limit, policy.Limit, resetAt, now)
	}

	if !allowed {
		l.metrics.RecordDenied(class.String())
		return NewDeniedDecision(key, class, policy.Limit, resetAt, now)
	}
	l.metrics.RecordAllowed(class.String())
	return NewAllowedDecision(key, class, policy.Limit, policy.Limit-count, resetAt, now)
}

// increment asks the primary store and, on failure, the fallback store.
func (l *Limiter) increment(ctx context.Context, key string, windowStart time.Time, policy Policy) (bool, int, error) {
	var (
		allowed bool
		count   int
	)
	run := func() error {
		var err error
		allowed, count, err = l.store.CheckAndIncrement(ctx, key, windowStart, policy.Window, policy.Limit)
		return err
	}

	var err error
	if l.breaker != nil {
		err = l.breaker.Execute(run)
	} else {
		err = run()
	}
	if err == nil {
		return allowed, count, nil
	}
	if l.fallback == nil {
		return false, 0, err
	}

	if !errors.Is(err, ErrCircuitOpen) {
		slog.Error("rate limit store failed, using fallback store",
			slog.String("store", l.store.Name()),
			slog.String("fallback", l.fallback.Name()),
			slog.Any("error", err))
	}
	l.metrics.RecordStoreFailover(l.store.Name())
	return l.fallback.CheckAndIncrement(ctx, key, windowStart, policy.Window, policy.Limit)
}

// Cleanup removes expired records from in-process stores and refreshes the
// active key gauge. Returns the number of removed records.
func (l *Limiter) Cleanup(ctx context.Context) (int, error) {
	now := l.clock.Now()
	total := 0
	for _, store := range []WindowStore{l.store, l.fallback} {
		maintainable, ok := store.(MaintainableStore)
		if !ok {
			continue
		}
		removed, err := maintainable.Cleanup(ctx, now)
		if err != nil {
			return total, err
		}
		total += removed
		if count, err := maintainable.KeyCount(ctx); err == nil {
			l.metrics.SetActiveKeys(maintainable.Name(), count)
		}
	}
	return total, nil
}
