package http

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"blog-api/internal/handler/http/pathutil"
	"blog-api/internal/handler/http/requestid"
	"blog-api/internal/handler/http/respond"
	"blog-api/internal/handler/http/responsewriter"
	"blog-api/internal/observability/metrics"
)

// Chain applies middlewares so that the first one is outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Logging writes one "request completed" entry per request, correlated by
// request and trace IDs.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := responsewriter.Wrap(w)

			next.ServeHTTP(wrapped, r)

			level := slog.LevelInfo
			if wrapped.StatusCode() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "request completed",
				slog.String("request_id", requestid.FromContext(r.Context())),
				slog.String("trace_id", traceID(r)),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.Int("status", wrapped.StatusCode()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

func traceID(r *http.Request) string {
	sc := trace.SpanFromContext(r.Context()).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Recover turns a handler panic into a 500 response and an ERROR entry with
// the stack. http.ErrAbortHandler is re-panicked for net/http to handle.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := responsewriter.Wrap(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "panic recovered",
					slog.String("request_id", requestid.FromContext(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				if !wrapped.HeaderWritten() {
					respond.SafeError(wrapped, http.StatusInternalServerError, errors.New("panic"))
				}
			}()
			next.ServeHTTP(wrapped, r)
		})
	}
}

// Metrics records request count, latency and response size per normalized
// route.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := responsewriter.Wrap(w)

		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(
			r.Method,
			pathutil.NormalizePath(r.URL.Path),
			strconv.Itoa(wrapped.StatusCode()),
			time.Since(start),
			wrapped.BytesWritten(),
		)
	})
}
