package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"blog-api/internal/handler/http/respond"
	"blog-api/pkg/ratelimit"
)

// RateLimitHandler applies a ratelimit.Limiter to HTTP routes by class.
type RateLimitHandler struct {
	limiter   *ratelimit.Limiter
	extractor IPExtractor
	enabled   bool
}

// NewRateLimitHandler returns a handler whose middlewares pass every request
// through when enabled is false or limiter is nil.
func NewRateLimitHandler(limiter *ratelimit.Limiter, extractor IPExtractor, enabled bool) *RateLimitHandler {
	if extractor == nil {
		extractor = &RemoteAddrExtractor{}
	}
	return &RateLimitHandler{limiter: limiter, extractor: extractor, enabled: enabled && limiter != nil}
}

// For returns middleware that counts each request against class.
//
// Allowed and rejected responses carry X-RateLimit-Limit, -Remaining, -Reset
// and -Class. Rejections get 429 with Retry-After.
func (h *RateLimitHandler) For(class ratelimit.RouteClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !h.enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := h.extractor.ExtractIP(r)
			if err != nil {
				slog.ErrorContext(r.Context(), "rate limiter: cannot resolve client ip, allowing request",
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			decision := h.limiter.Check(r.Context(), ip, class)
			setRateLimitHeaders(w, decision)

			if !decision.Allowed {
				writeRateLimitExceeded(w, r, decision)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, d *ratelimit.RateLimitDecision) {
	// unknown classes carry no policy
	if d.Limit == 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAtUnix(), 10))
	w.Header().Set("X-RateLimit-Class", d.Class.String())
}

// rateLimitBody is the 429 response body.
type rateLimitBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int64  `json:"retry_after"`
}

func writeRateLimitExceeded(w http.ResponseWriter, r *http.Request, d *ratelimit.RateLimitDecision) {
	retryAfter := d.RetryAfterSeconds()
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	respond.JSON(w, http.StatusTooManyRequests, rateLimitBody{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests, please try again later",
		RetryAfter: retryAfter,
	})

	slog.WarnContext(r.Context(), "rate limit exceeded",
		slog.String("route_class", d.Class.String()),
		slog.String("key", d.Key),
		slog.Int("limit", d.Limit),
		slog.Int64("retry_after", retryAfter),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
}
