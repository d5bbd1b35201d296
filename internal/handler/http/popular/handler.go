// Package popular serves the popular posts list.
package popular

import (
	"context"
	"net/http"

	"blog-api/internal/handler/http/middleware"
	"blog-api/internal/handler/http/respond"
	popularUC "blog-api/internal/usecase/popular"
)

// CacheControl is sent with every successful resolution, including empty
// ones.
const CacheControl = "public, max-age=60, s-maxage=300, stale-while-revalidate=86400"

// Resolver is implemented by *popularUC.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, limit int) popularUC.Result
}

// Handler serves GET /api/popular-posts?limit=N.
type Handler struct {
	Resolver Resolver
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := popularUC.ParseLimit(r.URL.Query().Get("limit"))
	result := h.Resolver.Resolve(r.Context(), limit)

	if result.Source == popularUC.SourceError {
		respond.JSON(w, http.StatusInternalServerError, result)
		return
	}
	w.Header().Set("Cache-Control", CacheControl)
	respond.JSON(w, http.StatusOK, result)
}

// Register mounts the popular posts route.
func Register(mux *http.ServeMux, resolver Resolver, guards middleware.Guards) {
	mux.Handle("GET /api/popular-posts", guards.Public(Handler{Resolver: resolver}))
}
