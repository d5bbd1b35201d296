package config

import (
	"log/slog"
	"strings"
	"time"

	"blog-api/pkg/ratelimit"
)

// LoadRateLimitConfig loads rate limiting configuration from environment variables.
//
// Invalid values are logged and replaced by defaults; the function never fails
// startup.
//
// Environment variables:
//   - RATELIMIT_ENABLED: Enable/disable rate limiting (default: true)
//   - RATELIMIT_BACKEND: "memory" or "redis" (default: memory)
//   - RATELIMIT_PUBLIC_LIMIT / RATELIMIT_PUBLIC_WINDOW (default: 100 / 1m)
//   - RATELIMIT_STANDARD_LIMIT / RATELIMIT_STANDARD_WINDOW (default: 30 / 1m)
//   - RATELIMIT_AI_HEAVY_LIMIT / RATELIMIT_AI_HEAVY_WINDOW (default: 5 / 1m)
//   - RATELIMIT_MAX_KEYS: Maximum keys in memory (default: 10000)
//   - RATELIMIT_CLEANUP_INTERVAL: Cleanup interval (default: 5m)
//   - RATELIMIT_CB_FAILURE_THRESHOLD: Circuit breaker failure threshold (default: 10)
//   - RATELIMIT_CB_RECOVERY_TIMEOUT: Circuit breaker recovery timeout (default: 30s)
//   - RATELIMIT_REDIS_PREFIX: Redis key prefix (default: blog)
//   - REDIS_URL: Redis connection URL (default: redis://localhost:6379/0)
func LoadRateLimitConfig() *ratelimit.RateLimitConfig {
	cfg := &ratelimit.RateLimitConfig{
		Enabled:  GetEnvBool("RATELIMIT_ENABLED", true),
		Backend:  strings.ToLower(GetEnvString("RATELIMIT_BACKEND", ratelimit.BackendMemory)),
		Policies: make(map[ratelimit.RouteClass]ratelimit.Policy),
	}

	for class, def := range ratelimit.DefaultPolicies() {
		prefix := "RATELIMIT_" + strings.ToUpper(class.String())
		cfg.Policies[class] = ratelimit.Policy{
			Limit:  positiveInt(prefix+"_LIMIT", def.Limit),
			Window: positiveDuration(prefix+"_WINDOW", def.Window),
		}
	}

	cfg.MaxActiveKeys = positiveInt("RATELIMIT_MAX_KEYS", 10000)
	cfg.CleanupInterval = positiveDuration("RATELIMIT_CLEANUP_INTERVAL", 5*time.Minute)
	cfg.CircuitBreakerFailureThreshold = positiveInt("RATELIMIT_CB_FAILURE_THRESHOLD", 10)
	cfg.CircuitBreakerResetTimeout = positiveDuration("RATELIMIT_CB_RECOVERY_TIMEOUT", 30*time.Second)
	cfg.RedisPrefix = GetEnvString("RATELIMIT_REDIS_PREFIX", "blog")
	cfg.RedisURL = GetEnvString("REDIS_URL", "redis://localhost:6379/0")

	if err := cfg.Validate(); err != nil {
		slog.Warn("rate limit configuration validation failed, applying defaults",
			slog.String("error", err.Error()))
		if cfg.Backend != ratelimit.BackendMemory && cfg.Backend != ratelimit.BackendRedis {
			cfg.Backend = ratelimit.BackendMemory
		}
		cfg.ApplyDefaults()
	}

	return cfg
}
