// Package entity defines the core domain entities and validation logic of
// the blog API: published posts, engagement counters and post embeddings.
package entity

import (
	"regexp"
	"strings"
	"time"
)

// DefaultPostImage is served for posts without a cover image.
const DefaultPostImage = "/images/blog/default.webp"

// DateLayout is the publication date format of the catalog.
const DateLayout = "2006-01-02"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// maxSlugLength keeps slugs usable as cache and database keys.
const maxSlugLength = 200

// Post is a published blog post as listed in the content catalog.
type Post struct {
	Slug        string   `yaml:"slug" json:"slug"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Date        string   `yaml:"date" json:"date"`
	Tags        []string `yaml:"tags" json:"tags"`
	Image       string   `yaml:"image" json:"image"`
	Series      string   `yaml:"series" json:"series,omitempty"`
	SeriesOrder int      `yaml:"seriesOrder" json:"seriesOrder,omitempty"`
	// Content is an optional plain-text excerpt used as chat context.
	Content string `yaml:"content" json:"-"`
}

// PublishedAt parses Date. ok is false for missing or malformed dates.
func (p *Post) PublishedAt() (t time.Time, ok bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(p.Date))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DisplayTitle returns the title, or the slug when the title is empty.
func (p *Post) DisplayTitle() string {
	if strings.TrimSpace(p.Title) == "" {
		return p.Slug
	}
	return p.Title
}

// DisplayImage returns the cover image, or DefaultPostImage.
func (p *Post) DisplayImage() string {
	if strings.TrimSpace(p.Image) == "" {
		return DefaultPostImage
	}
	return p.Image
}

// Path returns the site-relative URL of the post.
func (p *Post) Path() string {
	return "/blog/" + p.Slug
}

// ValidateSlug checks that slug is lowercase kebab-case.
func ValidateSlug(slug string) error {
	if slug == "" {
		return &ValidationError{Field: "slug", Message: "slug is required", Err: ErrInvalidSlug}
	}
	if len(slug) > maxSlugLength || !slugPattern.MatchString(slug) {
		return &ValidationError{Field: "slug", Message: "slug must be lowercase letters, digits and single hyphens", Err: ErrInvalidSlug}
	}
	return nil
}
