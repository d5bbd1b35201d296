package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"blog-api/internal/resilience/circuitbreaker"
	"blog-api/internal/resilience/retry"
)

// AnthropicOptions configures an Anthropic client.
type AnthropicOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	ChatTimeout time.Duration
	Breaker     circuitbreaker.Config
	// Retry defaults to retry.AIAPIConfig() when MaxAttempts is zero.
	Retry    retry.Config
	Throttle *Throttle
}

// Anthropic is the secondary chat provider.
type Anthropic struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	throttle       *Throttle
	opts           AnthropicOptions
}

// NewAnthropic creates an Anthropic client. SDK-level retries are disabled
// in favour of the shared retry policy.
func NewAnthropic(opts AnthropicOptions) *Anthropic {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Breaker.Name == "" {
		opts.Breaker = circuitbreaker.ProviderConfig("anthropic-api")
	}
	rc := opts.Retry
	if rc.MaxAttempts == 0 {
		rc = retry.AIAPIConfig()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.ChatTimeout <= 0 {
		opts.ChatTimeout = 20 * time.Second
	}

	slog.Info("Initialized Anthropic client", slog.String("model", opts.Model))

	return &Anthropic{
		client:         anthropic.NewClient(reqOpts...),
		circuitBreaker: circuitbreaker.New(opts.Breaker),
		retryConfig:    rc,
		throttle:       opts.Throttle,
		opts:           opts,
	}
}

// Name identifies the provider in responses and metrics.
func (a *Anthropic) Name() string { return "anthropic" }

// Complete sends a system prompt and a user message and returns the reply text.
func (a *Anthropic) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.ChatTimeout)
	defer cancel()

	answer, err := call(ctx, a.throttle, a.circuitBreaker, a.retryConfig, func() (string, error) {
		return a.doComplete(ctx, system, user)
	})
	if err != nil {
		if circuitbreaker.IsOpenError(err) {
			slog.WarnContext(ctx, "anthropic api circuit breaker open, request rejected",
				slog.String("service", "anthropic-api"))
		}
		return "", fmt.Errorf("anthropic complete: %w", err)
	}
	return answer, nil
}

func (a *Anthropic) doComplete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.opts.Model),
		MaxTokens: a.opts.MaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "Anthropic message failed",
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", statusError("anthropic", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}

	slog.DebugContext(ctx, "Anthropic message finished",
		slog.Duration("duration", time.Since(start)),
		slog.Int64("output_tokens", msg.Usage.OutputTokens))
	return b.String(), nil
}
