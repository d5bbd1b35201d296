// Package assistant implements the site's AI features: the first-person
// chat assistant, related-post search over post embeddings and the RAG
// status report.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blog-api/internal/domain/entity"
	"blog-api/internal/repository"
)

// ChatProvider completes a chat turn. Implementations are tried in order.
type ChatProvider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pinger checks database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// availability is implemented by embedders that can report an open breaker.
type availability interface {
	Available() bool
}

// Service provides the assistant use cases. Nil dependencies disable the
// features that need them.
type Service struct {
	Providers  []ChatProvider
	Embedder   Embedder
	Embeddings repository.PostEmbeddingRepository
	Catalog    repository.PostCatalog
	DB         Pinger

	// ContextPosts is how many semantic matches feed the chat prompt.
	ContextPosts int
	// DefaultRelated and MaxRelated bound Related's limit.
	DefaultRelated int
	MaxRelated     int

	EmbeddingProvider   string
	EmbeddingDimensions int
	OpenAIConfigured    bool
	AnthropicConfigured bool

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// embeddingsAvailable reports whether semantic search can run right now.
func (s *Service) embeddingsAvailable() bool {
	if s.Embedder == nil || s.Embeddings == nil {
		return false
	}
	if a, ok := s.Embedder.(availability); ok {
		return a.Available()
	}
	return true
}

// similar embeds text and returns up to limit nearest posts.
func (s *Service) similar(ctx context.Context, text string, limit int) ([]entity.SimilarPost, error) {
	vec, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	matches, err := s.Embeddings.SearchSimilar(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	return matches, nil
}

// semanticContext joins the content of the posts nearest to query. Failures
// are logged and yield an empty context.
func (s *Service) semanticContext(ctx context.Context, query string) string {
	if !s.embeddingsAvailable() {
		return ""
	}
	matches, err := s.similar(ctx, query, s.ContextPosts)
	if err != nil {
		slog.WarnContext(ctx, "semantic context unavailable",
			slog.String("error", err.Error()))
		return ""
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if c := strings.TrimSpace(m.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}
