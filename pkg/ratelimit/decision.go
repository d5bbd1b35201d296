package ratelimit

import (
	"fmt"
	"time"
)

// RateLimitDecision represents the result of a rate limit check.
//
// Besides the verdict it carries the metadata clients need to pace
// themselves (remaining budget, reset time, retry delay).
type RateLimitDecision struct {
	// Key is the counter key (route class and client identity).
	Key string

	// Allowed indicates whether the request should be permitted.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAt is the end of the current window.
	ResetAt time.Time

	// RetryAfter is the time left until ResetAt, measured at decision time.
	RetryAfter time.Duration

	// Class is the route class the decision was made for.
	Class RouteClass
}

// String returns a human-readable representation of the decision.
func (d *RateLimitDecision) String() string {
	if d.Allowed {
		return fmt.Sprintf(
			"RateLimitDecision{Allowed: true, Key: %s, Class: %s, Remaining: %d/%d, ResetAt: %s}",
			d.Key,
			d.Class,
			d.Remaining,
			d.Limit,
			d.ResetAt.Format(time.RFC3339),
		)
	}

	return fmt.Sprintf(
		"RateLimitDecision{Allowed: false, Key: %s, Class: %s, Limit: %d, RetryAfter: %s, ResetAt: %s}",
		d.Key,
		d.Class,
		d.Limit,
		d.RetryAfter.String(),
		d.ResetAt.Format(time.RFC3339),
	)
}

// ResetAtUnix returns the reset time as a Unix timestamp.
//
// This is useful for HTTP headers like X-RateLimit-Reset.
func (d *RateLimitDecision) ResetAtUnix() int64 {
	return d.ResetAt.Unix()
}

// RetryAfterSeconds returns the retry delay in whole seconds, rounded up.
//
// A rejected request always reports at least 1 second so clients never
// retry immediately into the same window.
func (d *RateLimitDecision) RetryAfterSeconds() int64 {
	seconds := int64(d.RetryAfter / time.Second)
	if d.RetryAfter%time.Second > 0 {
		seconds++
	}
	if seconds < 0 {
		seconds = 0
	}
	if !d.Allowed && seconds < 1 {
		return 1
	}
	return seconds
}

// NewAllowedDecision creates a RateLimitDecision for an allowed request.
func NewAllowedDecision(key string, class RouteClass, limit, remaining int, resetAt, now time.Time) *RateLimitDecision {
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitDecision{
		Key:        key,
		Allowed:    true,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    resetAt,
		RetryAfter: untilReset(resetAt, now),
		Class:      class,
	}
}

// NewDeniedDecision creates a RateLimitDecision for a rejected request.
func NewDeniedDecision(key string, class RouteClass, limit int, resetAt, now time.Time) *RateLimitDecision {
	return &RateLimitDecision{
		Key:        key,
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: untilReset(resetAt, now),
		Class:      class,
	}
}

func untilReset(resetAt, now time.Time) time.Duration {
	d := resetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
