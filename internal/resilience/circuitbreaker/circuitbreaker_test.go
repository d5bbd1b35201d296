package circuitbreaker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/observability/metrics"
)

/* ───────── ヘルパー ───────── */

func quickConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      2,
		Interval:         10 * time.Second,
		Timeout:          100 * time.Millisecond,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func fail(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_, _ = Do(cb, func() (string, error) { return "", errors.New("upstream 503") })
	}
}

/* ───────── テストケース ───────── */

func TestNew_StartsClosed(t *testing.T) {
	cb := New(quickConfig("chat-provider"))

	assert.Equal(t, "chat-provider", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("chat-provider")))
}

func TestDo_TypedResult(t *testing.T) {
	cb := New(quickConfig("typed"))

	got, err := Do(cb, func() ([]string, error) { return []string{"a", "b"}, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	n, err := Do(cb, func() (int, error) { return 7, errors.New("boom") })
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestCircuitBreaker_TripsOpenAndRecovers(t *testing.T) {
	var transitions []string
	cb := New(quickConfig("trip"), func(_ string, from, to gobreaker.State) {
		transitions = append(transitions, fmt.Sprintf("%s->%s", from, to))
	})

	fail(cb, 6)
	require.True(t, cb.IsOpen())
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("trip")))

	called := false
	_, err := Do(cb, func() (string, error) {
		called = true
		return "", nil
	})
	assert.True(t, IsOpenError(err))
	assert.False(t, called, "open breaker must not call through")

	time.Sleep(150 * time.Millisecond)

	for i := 0; i < 2; i++ {
		_, err := Do(cb, func() (string, error) { return "ok", nil })
		require.NoError(t, err, "probe %d", i)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
	assert.Equal(t, float64(gobreaker.StateClosed), testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("trip")))
}

func TestCircuitBreaker_StaysClosedBelowMinRequests(t *testing.T) {
	cfg := quickConfig("min-requests")
	cfg.MinRequests = 10
	cb := New(cfg)

	fail(cb, 9)
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreaker_StaysClosedBelowThreshold(t *testing.T) {
	cb := New(quickConfig("ratio"))

	for i := 0; i < 10; i++ {
		_, _ = Do(cb, func() (int, error) {
			if i%3 == 0 {
				return 0, errors.New("flaky")
			}
			return 1, nil
		})
	}
	assert.False(t, cb.IsOpen(), "a 40% failure ratio stays under the 60% threshold")
}

func TestIsOpenError(t *testing.T) {
	assert.True(t, IsOpenError(fmt.Errorf("chat: %w", gobreaker.ErrOpenState)))
	assert.True(t, IsOpenError(gobreaker.ErrTooManyRequests))
	assert.False(t, IsOpenError(errors.New("other")))
	assert.False(t, IsOpenError(nil))
}

func TestConfigs(t *testing.T) {
	for _, cfg := range []Config{ProviderConfig("openai-api"), ProviderConfig("anthropic-api"), DBConfig()} {
		assert.NotEmpty(t, cfg.Name)
		assert.NotZero(t, cfg.MaxRequests, cfg.Name)
		assert.Positive(t, cfg.Timeout, cfg.Name)
		assert.Positive(t, cfg.MinRequests, cfg.Name)
	}
	assert.Equal(t, "openai-api", ProviderConfig("openai-api").Name)
	assert.Equal(t, 1.0, DBConfig().FailureThreshold)
}
