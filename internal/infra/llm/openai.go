package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"blog-api/internal/resilience/circuitbreaker"
	"blog-api/internal/resilience/retry"
)

const (
	chatTemperature = 0.4
	chatMaxTokens   = 1000
	// maxEmbedInput bounds the text sent to the embedding endpoint.
	maxEmbedInput = 8000
)

// OpenAIOptions configures an OpenAI client.
type OpenAIOptions struct {
	APIKey string
	// BaseURL overrides the API endpoint (e.g. "http://localhost:8081/v1").
	BaseURL             string
	ChatModel           string
	EmbeddingModel      string
	EmbeddingDimensions int
	ChatTimeout         time.Duration
	EmbedTimeout        time.Duration
	Breaker             circuitbreaker.Config
	// Retry defaults to retry.AIAPIConfig() when MaxAttempts is zero.
	Retry    retry.Config
	Throttle *Throttle
}

// OpenAI is the primary chat provider and the embedding backend.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	throttle       *Throttle
	opts           OpenAIOptions
}

// NewOpenAI creates an OpenAI client.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Breaker.Name == "" {
		opts.Breaker = circuitbreaker.ProviderConfig("openai-api")
	}
	rc := opts.Retry
	if rc.MaxAttempts == 0 {
		rc = retry.AIAPIConfig()
	}
	if opts.ChatTimeout <= 0 {
		opts.ChatTimeout = 20 * time.Second
	}
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = 10 * time.Second
	}

	slog.Info("Initialized OpenAI client",
		slog.String("chat_model", opts.ChatModel),
		slog.String("embedding_model", opts.EmbeddingModel),
		slog.Int("dimensions", opts.EmbeddingDimensions))

	return &OpenAI{
		client:         openai.NewClientWithConfig(cfg),
		circuitBreaker: circuitbreaker.New(opts.Breaker),
		retryConfig:    rc,
		throttle:       opts.Throttle,
		opts:           opts,
	}
}

// Name identifies the provider in responses and metrics.
func (o *OpenAI) Name() string { return "openai" }

// Dimensions is the embedding vector length.
func (o *OpenAI) Dimensions() int { return o.opts.EmbeddingDimensions }

// Available reports whether calls are currently let through the breaker.
func (o *OpenAI) Available() bool { return !o.circuitBreaker.IsOpen() }

// Complete sends a system and a user message and returns the reply text.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.ChatTimeout)
	defer cancel()

	answer, err := call(ctx, o.throttle, o.circuitBreaker, o.retryConfig, func() (string, error) {
		return o.doComplete(ctx, system, user)
	})
	if err != nil {
		if circuitbreaker.IsOpenError(err) {
			slog.WarnContext(ctx, "openai api circuit breaker open, request rejected",
				slog.String("service", "openai-api"))
		}
		return "", fmt.Errorf("openai complete: %w", err)
	}
	return answer, nil
}

func (o *OpenAI) doComplete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.opts.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		slog.ErrorContext(ctx, "OpenAI chat completion failed",
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	slog.DebugContext(ctx, "OpenAI chat completion finished",
		slog.Duration("duration", time.Since(start)),
		slog.Int("total_tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, nil
}

// Embed returns the embedding vector for text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > maxEmbedInput {
		text = text[:maxEmbedInput]
	}
	ctx, cancel := context.WithTimeout(ctx, o.opts.EmbedTimeout)
	defer cancel()

	vec, err := call(ctx, o.throttle, o.circuitBreaker, o.retryConfig, func() ([]float32, error) {
		resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      []string{text},
			Model:      openai.EmbeddingModel(o.opts.EmbeddingModel),
			Dimensions: o.opts.EmbeddingDimensions,
		})
		if err != nil {
			return nil, classifyOpenAI(err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, ErrEmptyResponse
		}
		return resp.Data[0].Embedding, nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	return vec, nil
}

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError("openai", apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError("openai", reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("openai api error: %w", err)
}
