package ratelimit

import (
	"fmt"
	"time"
)

// RouteClass groups API routes that share one rate limit policy.
type RouteClass string

const (
	// ClassPublic covers read-only routes.
	ClassPublic RouteClass = "public"

	// ClassStandard covers routes that mutate engagement counters.
	ClassStandard RouteClass = "standard"

	// ClassAIHeavy covers routes that call embedding or chat models.
	ClassAIHeavy RouteClass = "ai_heavy"
)

// AllClasses lists every known route class in a stable order.
var AllClasses = []RouteClass{ClassPublic, ClassStandard, ClassAIHeavy}

// String returns the string representation of the route class.
func (c RouteClass) String() string {
	return string(c)
}

// IsValid reports whether c is a known route class.
func (c RouteClass) IsValid() bool {
	switch c {
	case ClassPublic, ClassStandard, ClassAIHeavy:
		return true
	default:
		return false
	}
}

// Policy is the request budget of a route class: Limit requests per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Validate checks the policy values.
func (p Policy) Validate() error {
	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", p.Limit)
	}
	if p.Window < time.Second {
		return fmt.Errorf("window must be at least 1s, got %s", p.Window)
	}
	if p.Window%time.Second != 0 {
		return fmt.Errorf("window must be a whole number of seconds, got %s", p.Window)
	}
	return nil
}

// DefaultPolicies returns the built-in policy for every route class.
func DefaultPolicies() map[RouteClass]Policy {
	return map[RouteClass]Policy{
		ClassPublic:   {Limit: 100, Window: time.Minute},
		ClassStandard: {Limit: 30, Window: time.Minute},
		ClassAIHeavy:  {Limit: 5, Window: time.Minute},
	}
}

// WindowStart returns the start of the fixed window containing now.
//
// Windows are aligned to the Unix epoch: index = floor(unix / windowSeconds).
func WindowStart(now time.Time, window time.Duration) time.Time {
	seconds := int64(window / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	index := now.Unix() / seconds
	if now.Unix() < 0 && now.Unix()%seconds != 0 {
		index--
	}
	return time.Unix(index*seconds, 0)
}
