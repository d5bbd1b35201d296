package assistant

import (
	"context"
	"strings"

	"blog-api/internal/domain/entity"
)

// relatedOverfetch covers the current post and duplicate chunks.
const relatedOverfetch = 5

// RelatedQuery selects posts similar to the one titled Title.
type RelatedQuery struct {
	Title string
	// URL of the current post, excluded from results.
	URL   string
	Limit int
}

// RelatedPost is one related-post suggestion.
type RelatedPost struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Image       string  `json:"image"`
	Similarity  float64 `json:"similarity"`
}

// ClampRelated applies the default and maximum related-post limits.
func (s *Service) ClampRelated(limit int) int {
	if limit <= 0 {
		limit = s.DefaultRelated
	}
	if s.MaxRelated > 0 && limit > s.MaxRelated {
		limit = s.MaxRelated
	}
	if limit <= 0 {
		limit = 3
	}
	return limit
}

// Related returns posts semantically close to q.Title, excluding q.URL and
// duplicate URLs. Without semantic search the result is empty.
func (s *Service) Related(ctx context.Context, q RelatedQuery) ([]RelatedPost, error) {
	title := strings.TrimSpace(q.Title)
	if title == "" {
		return nil, &entity.ValidationError{Field: "title", Message: "Post title is required", Err: ErrTitleRequired}
	}
	limit := s.ClampRelated(q.Limit)
	if s.Embedder == nil || s.Embeddings == nil {
		return []RelatedPost{}, nil
	}

	matches, err := s.similar(ctx, title, limit+relatedOverfetch)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(matches))
	out := make([]RelatedPost, 0, limit)
	for _, m := range matches {
		if m.URL == "" || m.URL == q.URL || seen[m.URL] {
			continue
		}
		seen[m.URL] = true
		out = append(out, toRelated(m))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func toRelated(m entity.SimilarPost) RelatedPost {
	r := RelatedPost{
		Title:       m.Title,
		URL:         m.URL,
		Description: m.Description,
		Date:        m.Date,
		Image:       m.Image,
		Similarity:  m.Similarity,
	}
	if r.Title == "" {
		r.Title = "Untitled"
	}
	if r.Image == "" {
		r.Image = entity.DefaultPostImage
	}
	return r
}
