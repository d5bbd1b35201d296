package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"blog-api/internal/handler/http/respond"
)

// Origins is the browser origin allowlist shared by CORS and OriginCheck.
type Origins struct {
	allowed map[string]struct{}
	list    []string
}

// NewOrigins normalizes entries to scheme://host[:port] and drops invalid ones.
func NewOrigins(origins []string) *Origins {
	o := &Origins{allowed: make(map[string]struct{}, len(origins))}
	for _, raw := range origins {
		origin, ok := normalizeOrigin(raw)
		if !ok {
			slog.Warn("ignoring invalid allowed origin", slog.String("origin", raw))
			continue
		}
		if _, dup := o.allowed[origin]; dup {
			continue
		}
		o.allowed[origin] = struct{}{}
		o.list = append(o.list, origin)
	}
	return o
}

// IsAllowed reports whether origin is on the list. Comparison is exact
// after normalization; wildcards are not supported.
func (o *Origins) IsAllowed(origin string) bool {
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, found := o.allowed[normalized]
	return found
}

// List returns the normalized allowlist.
func (o *Origins) List() []string {
	return append([]string(nil), o.list...)
}

func normalizeOrigin(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), true
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	Origins        *Origins
	AllowedMethods []string
	AllowedHeaders []string
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig covers the methods and headers the site sends.
func DefaultCORSConfig(origins *Origins) CORSConfig {
	return CORSConfig{
		Origins:        origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         86400,
	}
}

// CORS echoes allowed origins and answers their preflights with 204.
// Requests from other origins pass through without CORS headers and the
// browser blocks the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")

			if !cfg.Origins.IsAllowed(origin) {
				slog.DebugContext(r.Context(), "CORS: origin not allowed",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OriginCheck rejects cross-site mutations. Safe methods skip the check. A
// request with an Origin header must name an allowed origin; without Origin
// the Referer's origin is checked instead. Requests with neither header
// (curl, server-to-server) are allowed.
func OriginCheck(origins *Origins) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if origin := r.Header.Get("Origin"); origin != "" {
				if !origins.IsAllowed(origin) {
					rejectOrigin(w, r, "Invalid origin", origin)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if referer := r.Header.Get("Referer"); referer != "" {
				if !origins.IsAllowed(referer) {
					rejectOrigin(w, r, "Invalid referer", referer)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectOrigin(w http.ResponseWriter, r *http.Request, msg, value string) {
	slog.WarnContext(r.Context(), "cross-site request rejected",
		slog.String("reason", msg),
		slog.String("value", value),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
	respond.Failure(w, http.StatusForbidden, msg)
}
