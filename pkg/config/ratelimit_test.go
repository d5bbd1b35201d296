package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"blog-api/pkg/ratelimit"
)

func clearRateLimitEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RATELIMIT_ENABLED", "RATELIMIT_BACKEND",
		"RATELIMIT_PUBLIC_LIMIT", "RATELIMIT_PUBLIC_WINDOW",
		"RATELIMIT_STANDARD_LIMIT", "RATELIMIT_STANDARD_WINDOW",
		"RATELIMIT_AI_HEAVY_LIMIT", "RATELIMIT_AI_HEAVY_WINDOW",
		"RATELIMIT_MAX_KEYS", "RATELIMIT_CLEANUP_INTERVAL",
		"RATELIMIT_CB_FAILURE_THRESHOLD", "RATELIMIT_CB_RECOVERY_TIMEOUT",
		"RATELIMIT_REDIS_PREFIX", "REDIS_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
	clearRateLimitEnv(t)

	cfg := LoadRateLimitConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, ratelimit.BackendMemory, cfg.Backend)
	assert.Equal(t, ratelimit.DefaultPolicies(), cfg.Policies)
	assert.Equal(t, 10000, cfg.MaxActiveKeys)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, 10, cfg.CircuitBreakerFailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.CircuitBreakerResetTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadRateLimitConfig_Overrides(t *testing.T) {
	clearRateLimitEnv(t)
	t.Setenv("RATELIMIT_BACKEND", "Redis")
	t.Setenv("RATELIMIT_AI_HEAVY_LIMIT", "2")
	t.Setenv("RATELIMIT_AI_HEAVY_WINDOW", "30s")
	t.Setenv("RATELIMIT_ENABLED", "false")

	cfg := LoadRateLimitConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, ratelimit.BackendRedis, cfg.Backend)
	assert.Equal(t, ratelimit.Policy{Limit: 2, Window: 30 * time.Second}, cfg.Policies[ratelimit.ClassAIHeavy])
	assert.Equal(t, 30, cfg.Policies[ratelimit.ClassStandard].Limit)
}

func TestLoadRateLimitConfig_InvalidValuesUseDefaults(t *testing.T) {
	clearRateLimitEnv(t)
	t.Setenv("RATELIMIT_PUBLIC_LIMIT", "-5")
	t.Setenv("RATELIMIT_STANDARD_WINDOW", "forever")
	t.Setenv("RATELIMIT_BACKEND", "memcached")

	cfg := LoadRateLimitConfig()

	assert.Equal(t, 100, cfg.Policies[ratelimit.ClassPublic].Limit)
	assert.Equal(t, time.Minute, cfg.Policies[ratelimit.ClassStandard].Window)
	assert.Equal(t, ratelimit.BackendMemory, cfg.Backend)
}

func TestLoadRateLimitConfig_FractionalWindowReplaced(t *testing.T) {
	clearRateLimitEnv(t)
	t.Setenv("RATELIMIT_PUBLIC_WINDOW", "1500ms")

	cfg := LoadRateLimitConfig()

	assert.Equal(t, time.Minute, cfg.Policies[ratelimit.ClassPublic].Window)
}
