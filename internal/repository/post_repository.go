package repository

import (
	"context"

	"blog-api/internal/domain/entity"
)

// PostCatalog lists published posts.
type PostCatalog interface {
	// List returns every published post. Order is unspecified.
	List(ctx context.Context) ([]*entity.Post, error)

	// Get returns the post with slug, or entity.ErrNotFound.
	Get(ctx context.Context, slug string) (*entity.Post, error)
}
