// Package llm holds the outbound AI clients used by the chat assistant and
// semantic search: OpenAI for chat and embeddings, Anthropic for chat.
//
// Every call shares one token bucket (Throttle), runs behind a per-provider
// circuit breaker and is retried once on transient failures.
package llm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"blog-api/internal/config"
	"blog-api/internal/resilience/circuitbreaker"
	"blog-api/internal/resilience/retry"
)

// ErrEmptyResponse is returned when a provider answers without content.
var ErrEmptyResponse = errors.New("empty response")

// Throttle is the outbound token bucket shared by all AI clients.
// A nil Throttle never blocks.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle creates a throttle allowing rps requests per second with the given burst.
func NewThrottle(rps float64, burst int) *Throttle {
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a token is available or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("upstream throttle: %w", err)
	}
	return nil
}

// call runs fn through the throttle, the breaker and the retry policy.
// An open breaker is not retryable, so it fails fast.
func call[T any](ctx context.Context, t *Throttle, cb *circuitbreaker.CircuitBreaker, rc retry.Config, fn func() (T, error)) (T, error) {
	return retry.Do(ctx, rc, func() (T, error) {
		if err := t.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
		return circuitbreaker.Do(cb, fn)
	})
}

// statusError converts a provider status code into a retry.HTTPError so
// retry.IsRetryable can classify it.
func statusError(provider string, status int, err error) error {
	return fmt.Errorf("%s api error: %w", provider, &retry.HTTPError{StatusCode: status, Message: err.Error()})
}

func breakerConfig(base circuitbreaker.Config, cfg config.CircuitBreakerConfig) circuitbreaker.Config {
	if cfg.MaxRequests > 0 {
		base.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		base.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		base.Timeout = cfg.Timeout
	}
	return base
}

// NewClients builds the configured providers. A provider without an API key
// is returned as nil.
func NewClients(cfg *config.AIConfig) (*OpenAI, *Anthropic) {
	throttle := NewThrottle(cfg.Upstream.RequestsPerSecond, cfg.Upstream.Burst)

	var oa *OpenAI
	if cfg.OpenAIConfigured() {
		oa = NewOpenAI(OpenAIOptions{
			APIKey:              cfg.OpenAI.APIKey,
			BaseURL:             cfg.OpenAI.BaseURL,
			ChatModel:           cfg.OpenAI.ChatModel,
			EmbeddingModel:      cfg.OpenAI.EmbeddingModel,
			EmbeddingDimensions: cfg.OpenAI.EmbeddingDimensions,
			ChatTimeout:         cfg.Timeouts.Chat,
			EmbedTimeout:        cfg.Timeouts.Embed,
			Breaker:             breakerConfig(circuitbreaker.ProviderConfig("openai-api"), cfg.CircuitBreaker),
			Throttle:            throttle,
		})
	}

	var an *Anthropic
	if cfg.AnthropicConfigured() {
		an = NewAnthropic(AnthropicOptions{
			APIKey:      cfg.Anthropic.APIKey,
			BaseURL:     cfg.Anthropic.BaseURL,
			Model:       cfg.Anthropic.ChatModel,
			MaxTokens:   cfg.Anthropic.MaxTokens,
			ChatTimeout: cfg.Timeouts.Chat,
			Breaker:     breakerConfig(circuitbreaker.ProviderConfig("anthropic-api"), cfg.CircuitBreaker),
			Throttle:    throttle,
		})
	}
	return oa, an
}
