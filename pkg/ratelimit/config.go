package ratelimit

import (
	"fmt"
	"time"
)

// Backend names accepted by RateLimitConfig.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// RateLimitConfig contains the configuration for rate limiting.
type RateLimitConfig struct {
	// Enabled turns rate limiting on. When false every request passes.
	Enabled bool

	// Backend selects the primary store: "memory" or "redis".
	Backend string

	// Policies maps each route class to its budget.
	Policies map[RouteClass]Policy

	// Maximum number of window records kept by the in-memory store
	MaxActiveKeys int

	// How often to remove expired in-memory records
	CleanupInterval time.Duration

	// Circuit breaker settings for the Redis store
	CircuitBreakerFailureThreshold int
	CircuitBreakerResetTimeout     time.Duration

	// Redis connection settings, used when Backend is "redis"
	RedisURL    string
	RedisPrefix string
}

// Validate checks if the RateLimitConfig is valid.
func (c *RateLimitConfig) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("Backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Backend)
	}

	for _, class := range AllClasses {
		policy, ok := c.Policies[class]
		if !ok {
			return fmt.Errorf("Policies[%s] is missing", class)
		}
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("Policies[%s]: %w", class, err)
		}
	}
	for class := range c.Policies {
		if !class.IsValid() {
			return fmt.Errorf("Policies has unknown route class %q", class)
		}
	}

	if c.MaxActiveKeys < 0 {
		return fmt.Errorf("MaxActiveKeys must be non-negative, got %d", c.MaxActiveKeys)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("CleanupInterval must be non-negative, got %s", c.CleanupInterval)
	}
	if c.CircuitBreakerFailureThreshold < 0 {
		return fmt.Errorf("CircuitBreakerFailureThreshold must be non-negative, got %d", c.CircuitBreakerFailureThreshold)
	}
	if c.CircuitBreakerResetTimeout < 0 {
		return fmt.Errorf("CircuitBreakerResetTimeout must be non-negative, got %s", c.CircuitBreakerResetTimeout)
	}
	if c.Backend == BackendRedis && c.RedisURL == "" {
		return fmt.Errorf("RedisURL is required for the redis backend")
	}
	return nil
}

// ApplyDefaults fills zero values with safe defaults.
func (c *RateLimitConfig) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Policies == nil {
		c.Policies = make(map[RouteClass]Policy)
	}
	for class, policy := range DefaultPolicies() {
		current, ok := c.Policies[class]
		if !ok || current.Validate() != nil {
			c.Policies[class] = policy
		}
	}
	if c.MaxActiveKeys == 0 {
		c.MaxActiveKeys = 10000
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = 5 * time.Minute
	}
	if c.CircuitBreakerFailureThreshold == 0 {
		c.CircuitBreakerFailureThreshold = 10
	}
	if c.CircuitBreakerResetTimeout == 0 {
		c.CircuitBreakerResetTimeout = 30 * time.Second
	}
	if c.RedisPrefix == "" {
		c.RedisPrefix = "blog"
	}
}

// DefaultConfig returns an enabled in-memory configuration with default policies.
func DefaultConfig() *RateLimitConfig {
	config := &RateLimitConfig{Enabled: true}
	config.ApplyDefaults()
	return config
}
