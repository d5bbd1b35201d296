// Package engagement serves the view counter and reader reactions.
package engagement

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"blog-api/internal/domain/entity"
	"blog-api/internal/handler/http/middleware"
	"blog-api/internal/handler/http/respond"
	"blog-api/internal/observability/logging"
	engagementUC "blog-api/internal/usecase/engagement"
)

type slugBody struct {
	Slug string `json:"slug"`
}

type reactionBody struct {
	Slug string `json:"slug"`
	Type string `json:"type"`
}

// ViewsHandler serves GET and POST /api/views.
type ViewsHandler struct {
	Svc    *engagementUC.Service
	Logger *slog.Logger
}

func (h ViewsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		views, err := h.Svc.GetViews(r.Context(), r.URL.Query().Get("slug"))
		if err != nil {
			writeError(w, r, h.Logger, err, "Failed to fetch views")
			return
		}
		respond.Success(w, http.StatusOK, views)
	case http.MethodPost:
		var body slugBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond.Failure(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		views, err := h.Svc.RecordView(r.Context(), body.Slug)
		if err != nil {
			writeError(w, r, h.Logger, err, "Failed to increment views")
			return
		}
		respond.Success(w, http.StatusOK, views)
	default:
		respond.Failure(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// ReactionsHandler serves GET, POST and DELETE /api/reactions.
type ReactionsHandler struct {
	Svc       *engagementUC.Service
	Extractor middleware.IPExtractor
	Logger    *slog.Logger
}

func (h ReactionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		reactions, err := h.Svc.GetReactions(r.Context(), r.URL.Query().Get("slug"))
		if err != nil {
			writeError(w, r, h.Logger, err, "Failed to fetch reactions")
			return
		}
		respond.Success(w, http.StatusOK, reactions)
	case http.MethodPost:
		var body reactionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond.Failure(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		res, err := h.Svc.React(r.Context(), body.Slug, body.Type, h.clientIP(r))
		if err != nil {
			writeError(w, r, h.Logger, err, "Failed to record reaction")
			return
		}
		respond.Success(w, http.StatusOK, res)
	case http.MethodDelete:
		q := r.URL.Query()
		res, err := h.Svc.Unreact(r.Context(), q.Get("slug"), q.Get("type"), h.clientIP(r))
		if err != nil {
			writeError(w, r, h.Logger, err, "Failed to remove reaction")
			return
		}
		respond.Success(w, http.StatusOK, res)
	default:
		respond.Failure(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// clientIP returns "" when the address cannot be resolved; the vote is then
// hashed under the empty identity.
func (h ReactionsHandler) clientIP(r *http.Request) string {
	if h.Extractor == nil {
		return ""
	}
	ip, err := h.Extractor.ExtractIP(r)
	if err != nil {
		logging.WithRequestID(r.Context(), h.Logger).Warn("failed to resolve client ip for voter hash",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()))
		return ""
	}
	return ip
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, msg string) {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		respond.SafeFailure(w, http.StatusBadRequest, err)
	case errors.Is(err, engagementUC.ErrUnavailable):
		respond.Failure(w, http.StatusServiceUnavailable, "Reactions are not available")
	default:
		logging.WithRequestID(r.Context(), logger).Error(msg,
			slog.String("path", r.URL.Path),
			slog.String("error", respond.SanitizeError(err)))
		respond.Failure(w, http.StatusInternalServerError, msg)
	}
}

// Register mounts the engagement routes. Reads are public; writes are
// standard-class mutations behind the origin check.
func Register(mux *http.ServeMux, svc *engagementUC.Service, extractor middleware.IPExtractor, guards middleware.Guards, logger *slog.Logger) {
	views := ViewsHandler{Svc: svc, Logger: logger}
	reactions := ReactionsHandler{Svc: svc, Extractor: extractor, Logger: logger}

	mux.Handle("GET /api/views", guards.Public(views))
	mux.Handle("POST /api/views", guards.Mutation(views))
	mux.Handle("GET /api/reactions", guards.Public(reactions))
	mux.Handle("POST /api/reactions", guards.Mutation(reactions))
	mux.Handle("DELETE /api/reactions", guards.Mutation(reactions))
}
