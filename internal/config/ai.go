// Package config assembles application settings from environment variables.
package config

import (
	"fmt"
	"time"

	"blog-api/pkg/config"
)

// AIConfig holds configuration for the chat assistant and semantic search.
type AIConfig struct {
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig

	// Timeouts configures per-call deadlines.
	Timeouts TimeoutConfig

	// Search configures related-post lookups.
	Search SearchConfig

	// CircuitBreaker for upstream AI calls.
	CircuitBreaker CircuitBreakerConfig

	// Upstream throttles outbound AI requests across all clients.
	Upstream UpstreamConfig
}

// OpenAIConfig configures the primary chat provider and the embedding model.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	// EmbeddingDimensions must match the post_embeddings column. Default: 1536
	EmbeddingDimensions int
}

// AnthropicConfig configures the secondary chat provider.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	ChatModel string
	MaxTokens int64
}

// TimeoutConfig holds per-call timeout settings.
type TimeoutConfig struct {
	// Chat timeout for one provider attempt. Default: 20s
	Chat time.Duration
	// Embed timeout. Default: 10s
	Embed time.Duration
}

// SearchConfig holds related-post search limits.
type SearchConfig struct {
	// DefaultLimit for related posts. Default: 3
	DefaultLimit int
	// MaxLimit for related posts. Default: 10
	MaxLimit int
	// ContextPosts is how many matches feed the chat prompt. Default: 3
	ContextPosts int
}

// CircuitBreakerConfig for AI service resilience.
type CircuitBreakerConfig struct {
	// MaxRequests in half-open state.
	MaxRequests uint32
	// Interval for clearing failure counts.
	Interval time.Duration
	// Timeout before transitioning from open to half-open.
	Timeout time.Duration
}

// UpstreamConfig is a token bucket shared by all AI calls.
type UpstreamConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// OpenAIConfigured reports whether an OpenAI key is present.
func (c *AIConfig) OpenAIConfigured() bool { return c.OpenAI.APIKey != "" }

// AnthropicConfigured reports whether an Anthropic key is present.
func (c *AIConfig) AnthropicConfigured() bool { return c.Anthropic.APIKey != "" }

// LoadAIConfig loads AI configuration from environment variables.
// Missing API keys are not an error: the matching provider is skipped.
func LoadAIConfig() (*AIConfig, error) {
	cfg := &AIConfig{
		OpenAI: OpenAIConfig{
			APIKey:              config.GetEnvString("OPENAI_API_KEY", ""),
			BaseURL:             config.GetEnvString("OPENAI_BASE_URL", ""),
			ChatModel:           config.GetEnvString("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel:      config.GetEnvString("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimensions: config.GetEnvInt("OPENAI_EMBEDDING_DIMENSIONS", 1536),
		},
		Anthropic: AnthropicConfig{
			APIKey:    config.GetEnvString("ANTHROPIC_API_KEY", ""),
			BaseURL:   config.GetEnvString("ANTHROPIC_BASE_URL", ""),
			ChatModel: config.GetEnvString("ANTHROPIC_CHAT_MODEL", "claude-sonnet-4-5-20250929"),
			MaxTokens: int64(config.GetEnvInt("ANTHROPIC_MAX_TOKENS", 1024)),
		},
		Timeouts: TimeoutConfig{
			Chat:  config.GetEnvDuration("AI_TIMEOUT_CHAT", 20*time.Second),
			Embed: config.GetEnvDuration("AI_TIMEOUT_EMBED", 10*time.Second),
		},
		Search: SearchConfig{
			DefaultLimit: config.GetEnvInt("AI_SEARCH_DEFAULT_LIMIT", 3),
			MaxLimit:     config.GetEnvInt("AI_SEARCH_MAX_LIMIT", 10),
			ContextPosts: config.GetEnvInt("AI_CHAT_CONTEXT_POSTS", 3),
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests: uint32(config.GetEnvInt("AI_CB_MAX_REQUESTS", 3)),
			Interval:    config.GetEnvDuration("AI_CB_INTERVAL", 60*time.Second),
			Timeout:     config.GetEnvDuration("AI_CB_TIMEOUT", 30*time.Second),
		},
		Upstream: UpstreamConfig{
			RequestsPerSecond: float64(config.GetEnvInt("AI_UPSTREAM_RPS", 1)),
			Burst:             config.GetEnvInt("AI_UPSTREAM_BURST", 3),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration correctness.
func (c *AIConfig) Validate() error {
	if c.OpenAI.ChatModel == "" {
		return fmt.Errorf("OPENAI_CHAT_MODEL cannot be empty")
	}
	if c.OpenAI.EmbeddingModel == "" {
		return fmt.Errorf("OPENAI_EMBEDDING_MODEL cannot be empty")
	}
	if c.OpenAI.EmbeddingDimensions <= 0 {
		return fmt.Errorf("OPENAI_EMBEDDING_DIMENSIONS must be positive")
	}
	if c.Anthropic.ChatModel == "" {
		return fmt.Errorf("ANTHROPIC_CHAT_MODEL cannot be empty")
	}
	if c.Anthropic.MaxTokens <= 0 {
		return fmt.Errorf("ANTHROPIC_MAX_TOKENS must be positive")
	}
	if err := config.ValidatePositiveDuration(c.Timeouts.Chat); err != nil {
		return fmt.Errorf("AI_TIMEOUT_CHAT: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.Timeouts.Embed); err != nil {
		return fmt.Errorf("AI_TIMEOUT_EMBED: %w", err)
	}
	if c.Search.MaxLimit <= 0 || c.Search.MaxLimit > 50 {
		return fmt.Errorf("AI_SEARCH_MAX_LIMIT must be between 1 and 50")
	}
	if c.Search.DefaultLimit <= 0 || c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("AI_SEARCH_DEFAULT_LIMIT must be between 1 and MAX_LIMIT")
	}
	if c.Search.ContextPosts <= 0 || c.Search.ContextPosts > 10 {
		return fmt.Errorf("AI_CHAT_CONTEXT_POSTS must be between 1 and 10")
	}
	if c.CircuitBreaker.MaxRequests == 0 {
		return fmt.Errorf("AI_CB_MAX_REQUESTS must be positive")
	}
	if c.CircuitBreaker.Interval <= 0 {
		return fmt.Errorf("AI_CB_INTERVAL must be positive")
	}
	if c.CircuitBreaker.Timeout <= 0 {
		return fmt.Errorf("AI_CB_TIMEOUT must be positive")
	}
	if c.Upstream.RequestsPerSecond <= 0 || c.Upstream.Burst <= 0 {
		return fmt.Errorf("AI_UPSTREAM_RPS and AI_UPSTREAM_BURST must be positive")
	}
	return nil
}
