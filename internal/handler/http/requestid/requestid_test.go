package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{"with request ID", WithRequestID(context.Background(), "abc-123"), "abc-123"},
		{"without request ID", context.Background(), ""},
		{"wrong type", context.WithValue(context.Background(), RequestIDKey, 42), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromContext(tt.ctx))
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "edge.trace_01-A", Resolve("edge.trace_01-A"))

	for _, bad := range []string{"", "has space", "line\nbreak", strings.Repeat("a", 129)} {
		got := Resolve(bad)
		_, err := uuid.Parse(got)
		assert.NoError(t, err, "input %q", bad)
	}
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"propagates valid id", "req-42", true},
		{"replaces missing id", "", false},
		{"replaces malformed id", "<script>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = FromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
			} else {
				_, err := uuid.Parse(seen)
				assert.NoError(t, err)
			}
		})
	}
}
