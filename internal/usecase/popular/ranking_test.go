package popular

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/domain/entity"
)

/* ───────── スタブ ───────── */

type stubViews struct {
	rows []entity.PostViews
	err  error
	got  int
}

func (s *stubViews) Get(context.Context, string) (int64, error)       { return 0, nil }
func (s *stubViews) Increment(context.Context, string) (int64, error) { return 0, nil }
func (s *stubViews) Top(_ context.Context, limit int) ([]entity.PostViews, error) {
	s.got = limit
	return s.rows, s.err
}

type stubCatalog struct {
	posts []*entity.Post
	err   error
}

func (s *stubCatalog) List(context.Context) ([]*entity.Post, error) { return s.posts, s.err }
func (s *stubCatalog) Get(_ context.Context, slug string) (*entity.Post, error) {
	for _, p := range s.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, entity.ErrNotFound
}

func catalogFixture() *stubCatalog {
	return &stubCatalog{posts: []*entity.Post{
		{Slug: "old", Title: "Old", Date: "2020-01-01", Tags: []string{"go"}, Image: "/old.webp"},
		{Slug: "new", Title: "New", Date: "2024-05-01"},
		{Slug: "undated", Title: "Undated"},
		{Slug: "broken-date", Title: "Broken", Date: "May 2024"},
	}}
}

/* ───────── ViewRanking ───────── */

func TestViewRanking_EnrichesFromCatalog(t *testing.T) {
	views := &stubViews{rows: []entity.PostViews{
		{Slug: "old", Views: 12},
		{Slug: "deleted-post", Views: 3},
	}}

	got, err := NewViewRanking(views, catalogFixture()).Rank(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 5, views.got)
	assert.Equal(t, Post{
		Slug: "old", Title: "Old", Date: "2020-01-01", Tags: []string{"go"},
		Image: "/old.webp", Views: 12, Score: 12,
	}, got[0])

	assert.Equal(t, "deleted-post", got[1].Title)
	assert.Equal(t, entity.DefaultPostImage, got[1].Image)
	assert.Equal(t, []string{}, got[1].Tags)
}

func TestViewRanking_NoRowsSkipsCatalog(t *testing.T) {
	cat := &stubCatalog{err: errors.New("must not be read")}

	got, err := NewViewRanking(&stubViews{}, cat).Rank(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestViewRanking_Errors(t *testing.T) {
	dbErr := errors.New("connection refused")
	_, err := NewViewRanking(&stubViews{err: dbErr}, catalogFixture()).Rank(context.Background(), 5)
	assert.ErrorIs(t, err, dbErr)

	catErr := errors.New("catalog unreadable")
	views := &stubViews{rows: []entity.PostViews{{Slug: "old", Views: 1}}}
	_, err = NewViewRanking(views, &stubCatalog{err: catErr}).Rank(context.Background(), 5)
	assert.ErrorIs(t, err, catErr)
}

/* ───────── RecencyRanking ───────── */

func TestRecencyRanking_NewestFirstThroughResolver(t *testing.T) {
	r := NewResolver(Tier{Source: SourceFallback, Provider: NewRecencyRanking(catalogFixture())})

	got := r.Resolve(context.Background(), 5)

	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, []string{"new", "old"}, slugs(got.Posts))
	assert.Zero(t, got.Posts[0].Views)
	assert.Positive(t, got.Posts[0].Score)
}

func TestRecencyRanking_CatalogError(t *testing.T) {
	_, err := NewRecencyRanking(&stubCatalog{err: errors.New("io")}).Rank(context.Background(), 5)
	assert.Error(t, err)
}

func TestRecencyRanking_SameDayTieBySlug(t *testing.T) {
	cat := &stubCatalog{posts: []*entity.Post{
		{Slug: "zeta", Date: "2024-01-01"},
		{Slug: "alpha", Date: "2024-01-01"},
	}}
	r := NewResolver(Tier{Source: SourceFallback, Provider: NewRecencyRanking(cat)})

	assert.Equal(t, []string{"alpha", "zeta"}, slugs(r.Resolve(context.Background(), 5).Posts))
}
