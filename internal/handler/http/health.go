package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"blog-api/internal/handler/http/respond"
	"blog-api/internal/repository"
	"blog-api/pkg/ratelimit"
)

// Check status values.
const (
	StatusHealthy       = "healthy"
	StatusDegraded      = "degraded"
	StatusUnhealthy     = "unhealthy"
	StatusNotConfigured = "not_configured"
)

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one dependency check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Pinger is satisfied by the Redis window store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports dependency status. Only the catalog is required:
// the database and Redis are optional and their failures degrade features
// without taking the API down.
type HealthHandler struct {
	Catalog repository.PostCatalog
	DB      *sql.DB
	Redis   Pinger

	// RateLimitStore and RateLimitBreaker are reported when set.
	RateLimitStore   ratelimit.MaintainableStore
	RateLimitBreaker *ratelimit.CircuitBreaker
	RateLimitEnabled bool

	Version string
	Now     func() time.Time
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{
		"catalog":      h.checkCatalog(ctx),
		"database":     h.checkDatabase(ctx),
		"redis":        h.checkRedis(ctx),
		"rate_limiter": h.checkRateLimiter(ctx),
	}

	status, code := StatusHealthy, http.StatusOK
	switch {
	case checks["catalog"].Status == StatusUnhealthy:
		status, code = StatusUnhealthy, http.StatusServiceUnavailable
	case anyStatus(checks, StatusUnhealthy, StatusDegraded):
		status = StatusDegraded
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func anyStatus(checks map[string]CheckStatus, statuses ...string) bool {
	for _, c := range checks {
		for _, s := range statuses {
			if c.Status == s {
				return true
			}
		}
	}
	return false
}

func (h *HealthHandler) checkCatalog(ctx context.Context) CheckStatus {
	if h.Catalog == nil {
		return CheckStatus{Status: StatusUnhealthy, Message: "not configured"}
	}
	posts, err := h.Catalog.List(ctx)
	if err != nil {
		return CheckStatus{Status: StatusUnhealthy, Message: respond.SanitizeError(err)}
	}
	return CheckStatus{Status: StatusHealthy, Details: map[string]any{"posts": len(posts)}}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: StatusNotConfigured}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: StatusUnhealthy, Message: respond.SanitizeError(err)}
	}

	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
	if stats.MaxOpenConnections > 0 {
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["utilization_percent"] = utilization
		if utilization >= 80 {
			return CheckStatus{Status: StatusDegraded, Message: "connection pool utilization above 80%", Details: details}
		}
	}
	return CheckStatus{Status: StatusHealthy, Details: details}
}

func (h *HealthHandler) checkRedis(ctx context.Context) CheckStatus {
	if h.Redis == nil {
		return CheckStatus{Status: StatusNotConfigured}
	}
	if err := h.Redis.Ping(ctx); err != nil {
		return CheckStatus{Status: StatusDegraded, Message: respond.SanitizeError(err)}
	}
	return CheckStatus{Status: StatusHealthy}
}

// checkRateLimiter is informational: an open breaker means requests are
// counted in the fallback store, which is still healthy.
func (h *HealthHandler) checkRateLimiter(ctx context.Context) CheckStatus {
	if !h.RateLimitEnabled {
		return CheckStatus{Status: StatusNotConfigured, Message: "disabled"}
	}
	details := map[string]any{}
	if h.RateLimitStore != nil {
		if n, err := h.RateLimitStore.KeyCount(ctx); err == nil {
			details["active_keys"] = n
		}
	}
	if h.RateLimitBreaker != nil {
		details["circuit_breaker"] = h.RateLimitBreaker.State().String()
	}
	return CheckStatus{Status: StatusHealthy, Details: details}
}

// ReadyHandler answers readiness probes: the catalog must load and a
// configured database must answer a ping.
type ReadyHandler struct {
	Catalog repository.PostCatalog
	DB      *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Catalog != nil {
		if _, err := h.Catalog.List(ctx); err != nil {
			http.Error(w, "catalog not ready", http.StatusServiceUnavailable)
			return
		}
	}
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			http.Error(w, "database not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ready"))
}

// LiveHandler answers liveness probes.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("alive"))
}
