// Package requestid tags each request with an ID that is echoed in the
// X-Request-ID response header and attached to log entries.
package requestid

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

type contextKey string

const (
	// RequestIDKey is the context key holding the request ID.
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader is read from requests and written to responses.
	RequestIDHeader = "X-Request-ID"
)

// validID bounds client-supplied IDs so they are safe to log.
var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// FromContext returns the request ID, or "" when none is set.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Resolve returns incoming when it is a well-formed ID and a new UUID otherwise.
func Resolve(incoming string) string {
	if validID.MatchString(incoming) {
		return incoming
	}
	return uuid.NewString()
}

// Middleware propagates a valid X-Request-ID or generates one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Resolve(r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}
