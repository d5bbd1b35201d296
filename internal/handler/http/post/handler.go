// Package post serves the catalog routes: post listings, stats, series and
// the RSS feed.
package post

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"blog-api/internal/common/pagination"
	"blog-api/internal/handler/http/middleware"
	"blog-api/internal/handler/http/respond"
	"blog-api/internal/observability/logging"
	postsUC "blog-api/internal/usecase/posts"
)

// CacheControl is sent with catalog listings.
const CacheControl = "public, max-age=300, s-maxage=3600, stale-while-revalidate=86400"

// ListResponse is the body of GET /api/posts.
type ListResponse struct {
	Count int               `json:"count"`
	Posts []postsUC.Summary `json:"posts"`
}

// SeriesResponse is the body of GET /api/all-series.
type SeriesResponse struct {
	Series []postsUC.Series `json:"series"`
	Count  int              `json:"count"`
}

// ListHandler serves GET /api/posts?limit=N.
type ListHandler struct {
	Svc    *postsUC.Service
	Logger *slog.Logger
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))

	list, err := h.Svc.List(r.Context(), limit)
	if err != nil {
		logging.WithRequestID(r.Context(), h.Logger).Error("failed to list posts",
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch posts"})
		return
	}
	w.Header().Set("Cache-Control", CacheControl)
	respond.JSON(w, http.StatusOK, ListResponse{Count: len(list), Posts: list})
}

// BlogsHandler serves GET /api/v1/blogs?limit=&offset=&tag=.
type BlogsHandler struct {
	Svc           *postsUC.Service
	PaginationCfg pagination.Config
	Logger        *slog.Logger
}

func (h BlogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := postsUC.BlogQuery{
		Params: pagination.ParseQueryParams(r, h.PaginationCfg),
		Tag:    r.URL.Query().Get("tag"),
	}

	page, err := h.Svc.Blogs(r.Context(), q)
	if err != nil {
		logging.WithRequestID(r.Context(), h.Logger).Error("failed to list blogs",
			slog.Int("limit", q.Limit),
			slog.Int("offset", q.Offset),
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch blogs"})
		return
	}
	w.Header().Set("Cache-Control", CacheControl)
	respond.JSON(w, http.StatusOK, page)
}

// StatsHandler serves GET /api/v1/stats.
type StatsHandler struct {
	Svc    *postsUC.Service
	Logger *slog.Logger
}

func (h StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		logging.WithRequestID(r.Context(), h.Logger).Error("failed to compute stats",
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch stats"})
		return
	}
	w.Header().Set("Cache-Control", CacheControl)
	respond.JSON(w, http.StatusOK, map[string]postsUC.Stats{"data": stats})
}

// SeriesHandler serves GET /api/all-series.
type SeriesHandler struct {
	Svc    *postsUC.Service
	Logger *slog.Logger
}

func (h SeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	series, err := h.Svc.Series(r.Context())
	if err != nil {
		logging.WithRequestID(r.Context(), h.Logger).Error("failed to group series",
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch series"})
		return
	}
	w.Header().Set("Cache-Control", CacheControl)
	respond.JSON(w, http.StatusOK, SeriesResponse{Series: series, Count: len(series)})
}

// Register mounts the catalog routes. All of them are public reads.
func Register(mux *http.ServeMux, svc *postsUC.Service, feed FeedConfig, guards middleware.Guards, logger *slog.Logger) {
	mux.Handle("GET /api/posts", guards.Public(ListHandler{Svc: svc, Logger: logger}))
	mux.Handle("GET /api/v1/blogs", guards.Public(BlogsHandler{
		Svc:           svc,
		PaginationCfg: pagination.DefaultConfig(),
		Logger:        logger,
	}))
	mux.Handle("GET /api/v1/stats", guards.Public(StatsHandler{Svc: svc, Logger: logger}))
	mux.Handle("GET /api/all-series", guards.Public(SeriesHandler{Svc: svc, Logger: logger}))
	mux.Handle("GET /api/rss", guards.Public(RSSHandler{Svc: svc, Feed: feed, Logger: logger}))
}
