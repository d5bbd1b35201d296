// Package posts serves read-only views of the post catalog: the full post
// list, paginated blog listings, catalog statistics and series.
package posts

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"blog-api/internal/common/pagination"
	"blog-api/internal/domain/entity"
	"blog-api/internal/repository"
	"blog-api/internal/utils/text"
)

const (
	// DefaultListLimit and MaxListLimit bound GET /api/posts.
	DefaultListLimit = 200
	MaxListLimit     = 500

	// seriesMinutesPerPost is the reading-time estimate per series post.
	seriesMinutesPerPost = 5
	popularTagCount      = 5
)

// Summary is one entry of the full post list.
type Summary struct {
	Slug               string   `json:"slug"`
	URL                string   `json:"url"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Date               string   `json:"date"`
	Tags               []string `json:"tags"`
	Image              string   `json:"image"`
	ReadingTimeMinutes int      `json:"readingTimeMinutes"`
	Words              int      `json:"words"`
	Series             *string  `json:"series"`
	SeriesOrder        *int     `json:"seriesOrder"`
}

// BlogItem is one entry of the paginated blog listing.
type BlogItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Slug        string   `json:"slug"`
	Tags        []string `json:"tags"`
	Image       string   `json:"image"`
	URL         string   `json:"url"`
}

// BlogQuery selects a page of the blog listing.
type BlogQuery struct {
	pagination.Params
	// Tag filters case-insensitively when non-empty.
	Tag string
}

// BlogPage is a page of the blog listing.
type BlogPage struct {
	Data []BlogItem          `json:"data"`
	Meta pagination.Metadata `json:"meta"`
}

// TagCount is the number of posts carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats summarizes the catalog.
type Stats struct {
	TotalPosts  int        `json:"totalPosts"`
	TotalTags   int        `json:"totalTags"`
	PopularTags []TagCount `json:"popularTags"`
	LatestPost  *BlogItem  `json:"latestPost"`
}

// SeriesPost is a post inside a series.
type SeriesPost struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Image       string `json:"image"`
	SeriesOrder int    `json:"seriesOrder"`
}

// Series groups posts sharing a series name.
type Series struct {
	Name             string       `json:"name"`
	Slug             string       `json:"slug"`
	Posts            []SeriesPost `json:"posts"`
	TotalPosts       int          `json:"totalPosts"`
	TotalReadingTime int          `json:"totalReadingTime"`
}

// Service provides catalog read use cases.
type Service struct {
	Catalog repository.PostCatalog
	// SiteURL prefixes absolute post links, without trailing slash.
	SiteURL string
}

// Newest returns every post, newest first. Undated posts sort last; ties
// are broken by slug.
func (s *Service) Newest(ctx context.Context) ([]*entity.Post, error) {
	all, err := s.Catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	slices.SortStableFunc(all, func(a, b *entity.Post) int {
		at, aok := a.PublishedAt()
		bt, bok := b.PublishedAt()
		switch {
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		case aok && bok && !at.Equal(bt):
			return bt.Compare(at)
		}
		return strings.Compare(a.Slug, b.Slug)
	})
	return all, nil
}

// URL returns the absolute URL of p.
func (s *Service) URL(p *entity.Post) string {
	return s.SiteURL + p.Path()
}

// List returns up to limit post summaries, newest first. limit is clamped
// to [1, MaxListLimit]; zero selects DefaultListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]Summary, error) {
	switch {
	case limit == 0:
		limit = DefaultListLimit
	case limit < 1:
		limit = 1
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	all, err := s.Newest(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}

	out := make([]Summary, 0, len(all))
	for _, p := range all {
		minutes, words := text.ReadingTime(p.Content, 0)
		sum := Summary{
			Slug:               p.Slug,
			URL:                s.URL(p),
			Title:              p.DisplayTitle(),
			Description:        p.Description,
			Date:               p.Date,
			Tags:               tagsOf(p),
			Image:              p.DisplayImage(),
			ReadingTimeMinutes: minutes,
			Words:              words,
		}
		if p.Series != "" {
			series := p.Series
			sum.Series = &series
		}
		if p.SeriesOrder > 0 {
			order := p.SeriesOrder
			sum.SeriesOrder = &order
		}
		out = append(out, sum)
	}
	return out, nil
}

// Blogs returns one page of the blog listing.
func (s *Service) Blogs(ctx context.Context, q BlogQuery) (BlogPage, error) {
	all, err := s.Newest(ctx)
	if err != nil {
		return BlogPage{}, err
	}

	tag := strings.TrimSpace(q.Tag)
	if tag != "" {
		all = slices.DeleteFunc(all, func(p *entity.Post) bool {
			return !slices.ContainsFunc(p.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
		})
	}

	window := pagination.Window(all, q.Params)
	items := make([]BlogItem, 0, len(window))
	for _, p := range window {
		items = append(items, s.blogItem(p))
	}
	return BlogPage{Data: items, Meta: pagination.NewMetadata(len(all), q.Params)}, nil
}

// Stats counts posts and tags. PopularTags holds the five most used tags,
// ties broken alphabetically.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.Newest(ctx)
	if err != nil {
		return Stats{}, err
	}

	counts := map[string]int{}
	for _, p := range all {
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	tags := make([]TagCount, 0, len(counts))
	for t, n := range counts {
		tags = append(tags, TagCount{Tag: t, Count: n})
	}
	slices.SortFunc(tags, func(a, b TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Tag, b.Tag)
	})
	if len(tags) > popularTagCount {
		tags = tags[:popularTagCount]
	}

	st := Stats{TotalPosts: len(all), TotalTags: len(counts), PopularTags: tags}
	if len(all) > 0 {
		latest := s.blogItem(all[0])
		st.LatestPost = &latest
	}
	return st, nil
}

// Series groups posts that carry both a series name and a positive order.
// Posts are ordered by SeriesOrder, series by post count descending then
// name.
func (s *Service) Series(ctx context.Context) ([]Series, error) {
	all, err := s.Catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	byName := map[string]*Series{}
	for _, p := range all {
		if p.Series == "" || p.SeriesOrder <= 0 {
			continue
		}
		sr, ok := byName[p.Series]
		if !ok {
			sr = &Series{Name: p.Series, Slug: Slugify(p.Series)}
			byName[p.Series] = sr
		}
		sr.Posts = append(sr.Posts, SeriesPost{
			Slug:        p.Slug,
			Title:       p.DisplayTitle(),
			Description: p.Description,
			Date:        p.Date,
			Image:       p.DisplayImage(),
			SeriesOrder: p.SeriesOrder,
		})
	}

	out := make([]Series, 0, len(byName))
	for _, sr := range byName {
		slices.SortFunc(sr.Posts, func(a, b SeriesPost) int {
			if c := cmp.Compare(a.SeriesOrder, b.SeriesOrder); c != 0 {
				return c
			}
			return strings.Compare(a.Slug, b.Slug)
		})
		sr.TotalPosts = len(sr.Posts)
		sr.TotalReadingTime = sr.TotalPosts * seriesMinutesPerPost
		out = append(out, *sr)
	}
	slices.SortFunc(out, func(a, b Series) int {
		if c := cmp.Compare(b.TotalPosts, a.TotalPosts); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *Service) blogItem(p *entity.Post) BlogItem {
	return BlogItem{
		Title:       p.DisplayTitle(),
		Description: p.Description,
		Date:        p.Date,
		Slug:        p.Slug,
		Tags:        tagsOf(p),
		Image:       p.DisplayImage(),
		URL:         s.URL(p),
	}
}

func tagsOf(p *entity.Post) []string {
	if p.Tags == nil {
		return []string{}
	}
	return p.Tags
}

// Slugify lowercases name and joins alphanumeric runs with hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
