package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-api/internal/domain/entity"
	"blog-api/internal/repository"
)

// ViewRepo implements repository.ViewRepository.
type ViewRepo struct {
	db DBTX
}

// NewViewRepo creates a new PostgreSQL-based ViewRepository.
func NewViewRepo(db DBTX) repository.ViewRepository {
	return &ViewRepo{db: db}
}

// Get returns the view count of slug, 0 when no row exists.
func (repo *ViewRepo) Get(ctx context.Context, slug string) (int64, error) {
	const query = `SELECT count FROM views WHERE slug = $1`

	var count int64
	err := repo.db.QueryRowContext(ctx, query, slug).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Get: %w", err)
	}
	return count, nil
}

// Increment adds one view in a single upsert and returns the new count.
func (repo *ViewRepo) Increment(ctx context.Context, slug string) (int64, error) {
	const query = `
INSERT INTO views (slug, count, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (slug)
DO UPDATE SET
	count = views.count + 1,
	updated_at = NOW()
RETURNING count`

	var count int64
	if err := repo.db.QueryRowContext(ctx, query, slug).Scan(&count); err != nil {
		return 0, fmt.Errorf("Increment: %w", err)
	}
	return count, nil
}

// Top returns the most viewed posts. Ties are ordered by slug so that the
// LIMIT cut is deterministic.
func (repo *ViewRepo) Top(ctx context.Context, limit int) ([]entity.PostViews, error) {
	if limit <= 0 {
		return []entity.PostViews{}, nil
	}

	const query = `
SELECT slug, count
FROM views
ORDER BY count DESC, slug ASC
LIMIT $1`

	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("Top: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]entity.PostViews, 0, limit)
	for rows.Next() {
		var v entity.PostViews
		if err := rows.Scan(&v.Slug, &v.Views); err != nil {
			return nil, fmt.Errorf("Top: Scan: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Top: %w", err)
	}
	return result, nil
}
