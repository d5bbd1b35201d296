package repository

import (
	"context"

	"blog-api/internal/domain/entity"
)

// ViewRepository stores per-post view counters.
type ViewRepository interface {
	// Get returns the view count of slug; 0 when the post was never viewed.
	Get(ctx context.Context, slug string) (int64, error)

	// Increment adds one view and returns the new count.
	Increment(ctx context.Context, slug string) (int64, error)

	// Top returns up to limit counters ordered by count descending, then
	// slug ascending.
	Top(ctx context.Context, limit int) ([]entity.PostViews, error)
}
