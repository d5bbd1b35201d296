// Package retry re-runs upstream calls (chat and embedding providers) that
// fail with a transient error, waiting an exponentially growing, jittered
// delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Config describes a retry schedule.
type Config struct {
	MaxAttempts    int           // total calls including the first; <1 means one call
	InitialDelay   time.Duration // wait before the second call
	MaxDelay       time.Duration // cap on any single wait, before jitter
	Multiplier     float64       // growth factor per attempt
	JitterFraction float64       // extra random wait as a fraction of the delay, clamped to [0,1]
}

// AIAPIConfig is used for provider calls made while a reader waits: one
// quick retry, after which the next provider in the chain takes over.
func AIAPIConfig() Config {
	return Config{
		MaxAttempts:    2,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// Delay returns the wait before attempt n+1 after attempt n (1-based) has
// failed, without jitter.
func (c Config) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(c.InitialDelay) * math.Pow(mult, float64(n-1))
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

func (c Config) jittered(n int) time.Duration {
	d := c.Delay(n)
	f := c.JitterFraction
	if f <= 0 || d <= 0 {
		return d
	}
	if f > 1 {
		f = 1
	}
	// #nosec G404 -- backoff jitter does not need crypto randomness
	return d + time.Duration(rand.Float64()*f*float64(d))
}

// Do calls fn until it succeeds, returns a non-retryable error, the
// attempts run out or ctx is done.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for n := 1; n <= attempts; n++ {
		v, err := fn()
		if err == nil {
			if n > 1 {
				slog.Debug("upstream call recovered", slog.Int("attempt", n))
			}
			return v, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}
		if n == attempts {
			break
		}

		wait := cfg.jittered(n)
		slog.Warn("upstream call failed, retrying",
			slog.Int("attempt", n),
			slog.Int("max_attempts", attempts),
			slog.Duration("wait", wait),
			slog.Any("error", err))

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
		}
	}
	return zero, fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}

// WithBackoff is Do for calls without a result.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	_, err := Do(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// IsRetryable reports whether err is worth another attempt: network
// timeouts, refused or reset connections, 408, 429 and 5xx responses.
// Cancellation never is.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ETIMEDOUT), errors.Is(err, syscall.ENETUNREACH):
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		s := httpErr.StatusCode
		return s >= 500 || s == http.StatusTooManyRequests || s == http.StatusRequestTimeout
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// HTTPError carries the status code of a failed provider response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
