package respond

import (
	"errors"
	"testing"
)

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"anthropic key", errors.New("auth failed: sk-ant-api03-abcDEF_123"), "auth failed: sk-ant-****"},
		{"openai key", errors.New("bad key sk-abcdefghijklmnop"), "bad key sk-****"},
		{"postgres dsn", errors.New("connect postgres://blog:s3cret@db:5432/blog"), "connect postgres://blog:****@db:5432/blog"},
		{"redis url without user", errors.New("dial redis://:hunter2@cache:6379/0"), "dial redis://:****@cache:6379/0"},
		{"plain", errors.New("timeout"), "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeError(tt.err); got != tt.want {
				t.Errorf("SanitizeError() = %q, want %q", got, tt.want)
			}
		})
	}
}
