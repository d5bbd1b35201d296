package postgres

import (
	"context"
	"fmt"
	"time"

	"blog-api/internal/domain/entity"
	"blog-api/internal/repository"

	"github.com/pgvector/pgvector-go"
)

// DefaultSearchTimeout bounds similarity search queries.
const DefaultSearchTimeout = 5 * time.Second

// maxSearchLimit caps SearchSimilar results.
const maxSearchLimit = 50

// PostEmbeddingRepo implements repository.PostEmbeddingRepository.
type PostEmbeddingRepo struct {
	db         DBTX
	dimensions int
}

// NewPostEmbeddingRepo creates a new PostgreSQL-based PostEmbeddingRepository.
// Embeddings whose length differs from dimensions are rejected; 0 disables
// the check.
func NewPostEmbeddingRepo(db DBTX, dimensions int) repository.PostEmbeddingRepository {
	return &PostEmbeddingRepo{db: db, dimensions: dimensions}
}

// Upsert creates or replaces the embedding of a post.
func (repo *PostEmbeddingRepo) Upsert(ctx context.Context, embedding *entity.PostEmbedding) error {
	if embedding == nil {
		return fmt.Errorf("Upsert: embedding is nil")
	}
	if err := embedding.Validate(repo.dimensions); err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}

	const query = `
INSERT INTO post_embeddings (slug, title, url, description, date, image, content, embedding, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
ON CONFLICT (slug)
DO UPDATE SET
	title = EXCLUDED.title,
	url = EXCLUDED.url,
	description = EXCLUDED.description,
	date = EXCLUDED.date,
	image = EXCLUDED.image,
	content = EXCLUDED.content,
	embedding = EXCLUDED.embedding,
	updated_at = NOW()`

	_, err := repo.db.ExecContext(ctx, query,
		embedding.Slug,
		embedding.Title,
		embedding.URL,
		embedding.Description,
		embedding.Date,
		embedding.Image,
		embedding.Content,
		pgvector.NewVector(embedding.Embedding),
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// SearchSimilar returns the posts closest to embedding by cosine distance.
func (repo *PostEmbeddingRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]entity.SimilarPost, error) {
	searchCtx, cancel := context.WithTimeout(ctx, DefaultSearchTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	const query = `
SELECT title, url, description, date, image, content, 1 - (embedding <=> $1) AS similarity
FROM post_embeddings
ORDER BY embedding <=> $1
LIMIT $2`

	rows, err := repo.db.QueryContext(searchCtx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("SearchSimilar: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]entity.SimilarPost, 0, limit)
	for rows.Next() {
		var p entity.SimilarPost
		if err := rows.Scan(&p.Title, &p.URL, &p.Description, &p.Date, &p.Image, &p.Content, &p.Similarity); err != nil {
			return nil, fmt.Errorf("SearchSimilar: Scan: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SearchSimilar: %w", err)
	}
	return results, nil
}

// Count returns the number of stored embeddings.
func (repo *PostEmbeddingRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM post_embeddings`

	var n int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}
