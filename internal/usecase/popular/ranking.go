package popular

import (
	"context"
	"fmt"

	"blog-api/internal/domain/entity"
	"blog-api/internal/repository"
)

const secondsPerDay = 24 * 60 * 60

// ViewRanking ranks posts by recorded view count.
type ViewRanking struct {
	views   repository.ViewRepository
	catalog repository.PostCatalog
}

// NewViewRanking creates the primary provider.
func NewViewRanking(views repository.ViewRepository, catalog repository.PostCatalog) *ViewRanking {
	return &ViewRanking{views: views, catalog: catalog}
}

// Rank returns the top limit view counters enriched with catalog metadata.
// Counters for slugs missing from the catalog are kept with the slug as
// title.
func (v *ViewRanking) Rank(ctx context.Context, limit int) ([]Post, error) {
	rows, err := v.views.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("view ranking: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	catalog, err := v.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("view ranking: catalog: %w", err)
	}
	bySlug := make(map[string]*entity.Post, len(catalog))
	for _, p := range catalog {
		bySlug[p.Slug] = p
	}

	posts := make([]Post, 0, len(rows))
	for _, row := range rows {
		views := max(row.Views, 0)
		p, ok := bySlug[row.Slug]
		if !ok {
			p = &entity.Post{Slug: row.Slug}
		}
		post := fromEntity(p)
		post.Views = views
		post.Score = views
		posts = append(posts, post)
	}
	return posts, nil
}

// RecencyRanking ranks catalog posts by publication date, newest first.
type RecencyRanking struct {
	catalog repository.PostCatalog
}

// NewRecencyRanking creates the fallback provider.
func NewRecencyRanking(catalog repository.PostCatalog) *RecencyRanking {
	return &RecencyRanking{catalog: catalog}
}

// Rank returns every dated catalog post scored by days since the Unix
// epoch. Posts without a valid date are skipped.
func (r *RecencyRanking) Rank(ctx context.Context, _ int) ([]Post, error) {
	catalog, err := r.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("recency ranking: %w", err)
	}

	posts := make([]Post, 0, len(catalog))
	for _, p := range catalog {
		published, ok := p.PublishedAt()
		if !ok {
			continue
		}
		post := fromEntity(p)
		post.Score = max(published.Unix()/secondsPerDay, 0)
		posts = append(posts, post)
	}
	return posts, nil
}

func fromEntity(p *entity.Post) Post {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return Post{
		Slug:        p.Slug,
		Title:       p.DisplayTitle(),
		Description: p.Description,
		Date:        p.Date,
		Tags:        tags,
		Image:       p.DisplayImage(),
	}
}
