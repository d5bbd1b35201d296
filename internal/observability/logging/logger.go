package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"blog-api/internal/handler/http/requestid"
	"blog-api/pkg/config"
)

// Output formats accepted by LOG_FORMAT.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config selects the level and handler of a logger.
type Config struct {
	Level  slog.Level
	Format string
}

// LoadConfig reads LOG_LEVEL and LOG_FORMAT. Unknown values fall back to
// info and json.
func LoadConfig() Config {
	format := strings.ToLower(config.GetEnvString("LOG_FORMAT", FormatJSON))
	if format != FormatText {
		format = FormatJSON
	}
	return Config{
		Level:  ParseLevel(config.GetEnvString("LOG_LEVEL", "info")),
		Format: format,
	}
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger writing to w. Source locations are added at debug
// level only.
func New(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.Level <= slog.LevelDebug,
	}
	if cfg.Format == FormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// NewLogger returns the process logger configured from the environment,
// writing to stdout.
func NewLogger() *slog.Logger {
	return New(LoadConfig(), os.Stdout)
}

// WithRequestID adds request_id from ctx to logger. A nil logger means
// slog.Default().
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := requestid.FromContext(ctx); id != "" {
		return logger.With(slog.String("request_id", id))
	}
	return logger
}
