// Package assistant serves the AI routes: chat, related posts and the RAG
// status report.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"blog-api/internal/domain/entity"
	"blog-api/internal/handler/http/middleware"
	"blog-api/internal/handler/http/respond"
	"blog-api/internal/observability/logging"
	assistantUC "blog-api/internal/usecase/assistant"
)

// DefaultChatTimeout bounds one chat turn across all providers.
const DefaultChatTimeout = 30 * time.Second

// Service is implemented by *assistantUC.Service.
type Service interface {
	Chat(ctx context.Context, req assistantUC.ChatRequest) (assistantUC.ChatAnswer, error)
	Related(ctx context.Context, q assistantUC.RelatedQuery) ([]assistantUC.RelatedPost, error)
	Status(ctx context.Context) assistantUC.Status
}

// RelatedResponse is the body of GET /api/related-posts.
type RelatedResponse struct {
	Related []assistantUC.RelatedPost `json:"related"`
	Count   int                       `json:"count"`
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	Svc     Service
	Timeout time.Duration
	Logger  *slog.Logger
}

func (h ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req assistantUC.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Failure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	answer, err := h.Svc.Chat(ctx, req)
	if err != nil {
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			respond.SafeFailure(w, http.StatusBadRequest, err)
			return
		}
		logging.WithRequestID(r.Context(), h.Logger).Error("chat request failed",
			slog.String("error", respond.SanitizeError(err)))
		respond.Failure(w, http.StatusInternalServerError, "Failed to process chat request")
		return
	}
	respond.Success(w, http.StatusOK, answer)
}

// RelatedHandler serves GET /api/related-posts?title=&url=&limit=.
type RelatedHandler struct {
	Svc    Service
	Logger *slog.Logger
}

func (h RelatedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(strings.TrimSpace(q.Get("limit")))

	related, err := h.Svc.Related(r.Context(), assistantUC.RelatedQuery{
		Title: q.Get("title"),
		URL:   q.Get("url"),
		Limit: limit,
	})
	if err != nil {
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			respond.JSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message})
			return
		}
		logging.WithRequestID(r.Context(), h.Logger).Error("related posts search failed",
			slog.String("error", respond.SanitizeError(err)))
		respond.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch related posts"})
		return
	}
	respond.JSON(w, http.StatusOK, RelatedResponse{Related: related, Count: len(related)})
}

// StatusHandler serves GET /api/rag-status. The report is never cached.
type StatusHandler struct {
	Svc Service
}

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := h.Svc.Status(r.Context())
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	respond.JSON(w, http.StatusOK, st)
}

// Register mounts the AI routes. Chat and related posts use the ai_heavy
// class; the status report is public.
func Register(mux *http.ServeMux, svc Service, guards middleware.Guards, logger *slog.Logger) {
	mux.Handle("POST /api/chat", guards.AI(ChatHandler{Svc: svc, Timeout: DefaultChatTimeout, Logger: logger}))
	mux.Handle("GET /api/related-posts", guards.AI(RelatedHandler{Svc: svc, Logger: logger}))
	mux.Handle("GET /api/rag-status", guards.Public(StatusHandler{Svc: svc}))
}
