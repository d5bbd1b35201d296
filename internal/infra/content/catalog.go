// Package content loads the published post catalog from a YAML file.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"blog-api/internal/domain/entity"
	"blog-api/internal/observability/metrics"
	"blog-api/internal/repository"
)

// catalogFile is the on-disk layout of the catalog.
type catalogFile struct {
	Posts []*entity.Post `yaml:"posts"`
}

// FileCatalog implements repository.PostCatalog on top of a YAML file.
//
// The parsed catalog is cached for ttl. Concurrent reloads are collapsed
// into one read, and a failed reload keeps serving the last good snapshot.
type FileCatalog struct {
	path string
	ttl  time.Duration
	now  func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	posts    []*entity.Post
	bySlug   map[string]*entity.Post
	loadedAt time.Time
	loaded   bool
}

var _ repository.PostCatalog = (*FileCatalog)(nil)

// NewFileCatalog creates a catalog reading path. The file is read lazily on
// first use.
func NewFileCatalog(path string, ttl time.Duration) *FileCatalog {
	return &FileCatalog{path: path, ttl: ttl, now: time.Now}
}

// List returns every published post. The slice is a copy; posts must not be
// modified.
func (c *FileCatalog) List(ctx context.Context) ([]*entity.Post, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*entity.Post, len(c.posts))
	copy(out, c.posts)
	return out, nil
}

// Get returns the post with slug or entity.ErrNotFound.
func (c *FileCatalog) Get(ctx context.Context, slug string) (*entity.Post, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("Get %q: %w", slug, entity.ErrNotFound)
	}
	return p, nil
}

// Refresh rereads the file regardless of the cache age.
func (c *FileCatalog) Refresh(ctx context.Context) error {
	return c.reload(ctx)
}

func (c *FileCatalog) ensureFresh(ctx context.Context) error {
	c.mu.RLock()
	fresh := c.loaded && c.now().Sub(c.loadedAt) < c.ttl
	c.mu.RUnlock()
	if fresh {
		return nil
	}
	return c.reload(ctx)
}

func (c *FileCatalog) reload(ctx context.Context) error {
	ch := c.group.DoChan("reload", func() (interface{}, error) {
		posts, err := loadPosts(c.path)
		if err != nil {
			return nil, err
		}
		c.store(posts)
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err == nil {
			return nil
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.loaded {
			return res.Err
		}
		// keep serving the previous snapshot and retry after another ttl
		slog.Warn("content catalog reload failed, serving last snapshot",
			slog.String("path", c.path),
			slog.Any("error", res.Err))
		c.loadedAt = c.now()
		return nil
	}
}

func (c *FileCatalog) store(posts []*entity.Post) {
	bySlug := make(map[string]*entity.Post, len(posts))
	for _, p := range posts {
		bySlug[p.Slug] = p
	}
	c.mu.Lock()
	c.posts = posts
	c.bySlug = bySlug
	c.loadedAt = c.now()
	c.loaded = true
	c.mu.Unlock()
	metrics.UpdateCatalogPosts(len(posts))
}

// loadPosts parses the catalog file. Entries with invalid or duplicate
// slugs are skipped with a warning.
func loadPosts(path string) ([]*entity.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Posts))
	posts := make([]*entity.Post, 0, len(file.Posts))
	for i, p := range file.Posts {
		if p == nil {
			continue
		}
		if err := entity.ValidateSlug(p.Slug); err != nil {
			slog.Warn("skipping catalog entry",
				slog.Int("index", i),
				slog.String("slug", p.Slug),
				slog.Any("error", err))
			continue
		}
		if _, dup := seen[p.Slug]; dup {
			slog.Warn("skipping duplicate catalog entry", slog.String("slug", p.Slug))
			continue
		}
		seen[p.Slug] = struct{}{}
		posts = append(posts, p)
	}

	if len(file.Posts) > 0 && len(posts) == 0 {
		return nil, errors.New("parse catalog: no valid posts")
	}
	return posts, nil
}
