package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/handler/http/requestid"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "TEXT")
	assert.Equal(t, Config{Level: slog.LevelWarn, Format: FormatText}, LoadConfig())

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "yaml")
	assert.Equal(t, Config{Level: slog.LevelInfo, Format: FormatJSON}, LoadConfig())
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON}, &buf)

	logger.Debug("hidden")
	logger.Info("request completed", slog.Int("status", 200))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, float64(200), entry["status"])
	assert.NotContains(t, entry, "source")
}

func TestNew_TextWithSourceAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: FormatText}, &buf)

	logger.Debug("tier started", slog.String("tier", "primary"))

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "tier=primary")
	assert.Contains(t, out, "source=")
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: FormatJSON}, &buf)

	ctx := requestid.WithRequestID(context.Background(), "req-123")
	WithRequestID(ctx, base).Info("with id")
	WithRequestID(context.Background(), base).Info("without id")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "req-123", first["request_id"])
	assert.NotContains(t, second, "request_id")
}

func TestWithRequestID_NilLoggerUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(Config{Level: slog.LevelInfo, Format: FormatJSON}, &buf))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := requestid.WithRequestID(context.Background(), "req-9")
	WithRequestID(ctx, nil).Warn("fallback")

	assert.Contains(t, buf.String(), `"request_id":"req-9"`)
}
