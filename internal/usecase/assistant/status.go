package assistant

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// statusCheckTimeout bounds each probe of Status.
const statusCheckTimeout = 3 * time.Second

// Status reports the health of the retrieval-augmented chat stack.
type Status struct {
	Timestamp  time.Time        `json:"timestamp"`
	Database   DatabaseStatus   `json:"database"`
	Embeddings EmbeddingsStatus `json:"embeddings"`
	Chat       ChatStatus       `json:"chat"`
}

// DatabaseStatus reports database configuration and reachability.
type DatabaseStatus struct {
	Configured bool `json:"configured"`
	OK         bool `json:"ok"`
}

// EmbeddingsStatus describes the embedding backend. Count is nil when the
// embeddings table cannot be read.
type EmbeddingsStatus struct {
	Provider   string `json:"provider"`
	Available  bool   `json:"available"`
	Dimensions int    `json:"dimensions"`
	Count      *int64 `json:"count"`
}

// ChatStatus lists the configured chat providers.
type ChatStatus struct {
	OpenAIConfigured    bool `json:"openaiConfigured"`
	AnthropicConfigured bool `json:"anthropicConfigured"`
}

// Status probes the database and the embeddings table concurrently. Probe
// failures are reported in the result, never returned.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		Timestamp: s.now().UTC(),
		Database:  DatabaseStatus{Configured: s.DB != nil},
		Embeddings: EmbeddingsStatus{
			Provider:   s.EmbeddingProvider,
			Available:  s.embeddingsAvailable(),
			Dimensions: s.EmbeddingDimensions,
		},
		Chat: ChatStatus{
			OpenAIConfigured:    s.OpenAIConfigured,
			AnthropicConfigured: s.AnthropicConfigured,
		},
	}
	if s.DB == nil {
		return st
	}

	ctx, cancel := context.WithTimeout(ctx, statusCheckTimeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		if err := s.DB.PingContext(ctx); err != nil {
			slog.WarnContext(ctx, "rag status: database check failed", slog.String("error", err.Error()))
			return nil
		}
		st.Database.OK = true
		return nil
	})
	if s.Embeddings != nil {
		g.Go(func() error {
			n, err := s.Embeddings.Count(ctx)
			if err != nil {
				// table or pgvector missing
				return nil
			}
			st.Embeddings.Count = &n
			return nil
		})
	}
	_ = g.Wait()

	if !st.Database.OK {
		st.Embeddings.Count = nil
	}
	return st
}
