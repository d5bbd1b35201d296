package repository

import (
	"context"

	"blog-api/internal/domain/entity"
)

// PostEmbeddingRepository manages post embeddings for semantic search.
type PostEmbeddingRepository interface {
	// Upsert creates or replaces the embedding of a post.
	Upsert(ctx context.Context, embedding *entity.PostEmbedding) error

	// SearchSimilar returns up to limit posts ordered by cosine similarity
	// to embedding, highest first.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]entity.SimilarPost, error)

	// Count returns the number of stored embeddings.
	Count(ctx context.Context) (int64, error)
}
