package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearAIEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_CHAT_MODEL", "OPENAI_EMBEDDING_MODEL", "OPENAI_EMBEDDING_DIMENSIONS",
		"ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", "ANTHROPIC_CHAT_MODEL", "ANTHROPIC_MAX_TOKENS",
		"AI_TIMEOUT_CHAT", "AI_TIMEOUT_EMBED",
		"AI_SEARCH_DEFAULT_LIMIT", "AI_SEARCH_MAX_LIMIT", "AI_CHAT_CONTEXT_POSTS",
		"AI_CB_MAX_REQUESTS", "AI_CB_INTERVAL", "AI_CB_TIMEOUT",
		"AI_UPSTREAM_RPS", "AI_UPSTREAM_BURST",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAIConfig_Defaults(t *testing.T) {
	clearAIEnvVars(t)

	cfg, err := LoadAIConfig()
	require.NoError(t, err)

	assert.False(t, cfg.OpenAIConfigured())
	assert.False(t, cfg.AnthropicConfigured())
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)
	assert.Equal(t, 1536, cfg.OpenAI.EmbeddingDimensions)
	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 20*time.Second, cfg.Timeouts.Chat)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Embed)
	assert.Equal(t, 3, cfg.Search.DefaultLimit)
	assert.Equal(t, 10, cfg.Search.MaxLimit)
	assert.Equal(t, uint32(3), cfg.CircuitBreaker.MaxRequests)
	assert.Equal(t, float64(1), cfg.Upstream.RequestsPerSecond)
	assert.Equal(t, 3, cfg.Upstream.Burst)
}

func TestLoadAIConfig_CustomValues(t *testing.T) {
	clearAIEnvVars(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_CHAT_MODEL", "gpt-4o")
	t.Setenv("AI_TIMEOUT_CHAT", "45s")
	t.Setenv("AI_SEARCH_DEFAULT_LIMIT", "5")

	cfg, err := LoadAIConfig()
	require.NoError(t, err)

	assert.True(t, cfg.OpenAIConfigured())
	assert.True(t, cfg.AnthropicConfigured())
	assert.Equal(t, "gpt-4o", cfg.OpenAI.ChatModel)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.Chat)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
}

func TestLoadAIConfig_InvalidValuesFallBack(t *testing.T) {
	clearAIEnvVars(t)
	t.Setenv("AI_TIMEOUT_CHAT", "soon")
	t.Setenv("AI_SEARCH_MAX_LIMIT", "many")

	cfg, err := LoadAIConfig()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.Timeouts.Chat)
	assert.Equal(t, 10, cfg.Search.MaxLimit)
}

func TestAIConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AIConfig)
	}{
		{"empty chat model", func(c *AIConfig) { c.OpenAI.ChatModel = "" }},
		{"zero dimensions", func(c *AIConfig) { c.OpenAI.EmbeddingDimensions = 0 }},
		{"zero max tokens", func(c *AIConfig) { c.Anthropic.MaxTokens = 0 }},
		{"negative chat timeout", func(c *AIConfig) { c.Timeouts.Chat = -time.Second }},
		{"default above max", func(c *AIConfig) { c.Search.DefaultLimit = 20 }},
		{"max above ceiling", func(c *AIConfig) { c.Search.MaxLimit = 100 }},
		{"no half-open requests", func(c *AIConfig) { c.CircuitBreaker.MaxRequests = 0 }},
		{"zero burst", func(c *AIConfig) { c.Upstream.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAIEnvVars(t)
			cfg, err := LoadAIConfig()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
