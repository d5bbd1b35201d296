package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"blog-api/internal/domain/entity"
	"blog-api/internal/repository"
)

// Indexer embeds catalog posts into the embeddings table.
type Indexer struct {
	Catalog    repository.PostCatalog
	Embedder   Embedder
	Embeddings repository.PostEmbeddingRepository
	// SiteURL prefixes stored post URLs, without trailing slash.
	SiteURL string
	// Concurrency bounds parallel embedding calls. Default: 4
	Concurrency int
}

// IndexReport counts the outcome of one Run.
type IndexReport struct {
	Indexed int64
	Failed  int64
}

// Run embeds every post matching slugs, or every post when slugs is empty.
// A failing post is logged and counted; Run only errors when the catalog
// cannot be read or ctx ends.
func (ix *Indexer) Run(ctx context.Context, slugs ...string) (IndexReport, error) {
	posts, err := ix.Catalog.List(ctx)
	if err != nil {
		return IndexReport{}, fmt.Errorf("list catalog: %w", err)
	}
	if len(slugs) > 0 {
		wanted := make(map[string]bool, len(slugs))
		for _, s := range slugs {
			wanted[s] = true
		}
		filtered := posts[:0]
		for _, p := range posts {
			if wanted[p.Slug] {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	limit := ix.Concurrency
	if limit <= 0 {
		limit = 4
	}

	var indexed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, p := range posts {
		g.Go(func() error {
			if err := ix.index(gctx, p); err != nil {
				failed.Add(1)
				slog.WarnContext(gctx, "failed to index post",
					slog.String("slug", p.Slug),
					slog.String("error", err.Error()))
				return nil
			}
			indexed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := IndexReport{Indexed: indexed.Load(), Failed: failed.Load()}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (ix *Indexer) index(ctx context.Context, p *entity.Post) error {
	vec, err := ix.Embedder.Embed(ctx, EmbeddingText(p))
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	return ix.Embeddings.Upsert(ctx, &entity.PostEmbedding{
		Slug:        p.Slug,
		Title:       p.DisplayTitle(),
		URL:         ix.SiteURL + p.Path(),
		Description: p.Description,
		Date:        p.Date,
		Image:       p.DisplayImage(),
		Content:     p.Content,
		Embedding:   vec,
	})
}

// EmbeddingText is the text embedded for p: title, description, tags and
// the content excerpt.
func EmbeddingText(p *entity.Post) string {
	parts := []string{p.DisplayTitle()}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	if len(p.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(p.Tags, ", "))
	}
	if c := strings.TrimSpace(p.Content); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, "\n\n")
}
