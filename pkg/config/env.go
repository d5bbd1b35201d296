// Package config reads typed settings from environment variables.
//
// Invalid values never abort startup: they are logged at WARN and the
// caller's default is used instead.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup parses the trimmed value of key. Unset or blank keys return def
// silently; unparsable ones return def with a warning.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		slog.Warn("ignoring invalid environment value",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Any("default", def),
			slog.String("error", err.Error()))
		return def
	}
	return v
}

func GetEnvString(key, defaultValue string) string {
	return lookup(key, defaultValue, func(s string) (string, error) { return s, nil })
}

func GetEnvInt(key string, defaultValue int) int {
	return lookup(key, defaultValue, strconv.Atoi)
}

// GetEnvBool accepts the forms understood by strconv.ParseBool.
func GetEnvBool(key string, defaultValue bool) bool {
	return lookup(key, defaultValue, strconv.ParseBool)
}

// GetEnvDuration accepts time.ParseDuration syntax ("90s", "1h30m").
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return lookup(key, defaultValue, time.ParseDuration)
}

// GetEnvStringList splits a comma-separated value, trimming items and
// dropping empty ones. A value with no items left yields defaultValue.
//
//	CORS_ALLOWED_ORIGINS="https://a.example, https://b.example"
func GetEnvStringList(key string, defaultValue []string) []string {
	var items []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

func positiveInt(key string, defaultValue int) int {
	return lookup(key, defaultValue, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err == nil && n <= 0 {
			err = fmt.Errorf("must be positive, got %d", n)
		}
		return n, err
	})
}

func positiveDuration(key string, defaultValue time.Duration) time.Duration {
	return lookup(key, defaultValue, func(s string) (time.Duration, error) {
		d, err := time.ParseDuration(s)
		if err == nil {
			err = ValidatePositiveDuration(d)
		}
		return d, err
	})
}
