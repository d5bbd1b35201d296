// Package popular resolves the most popular blog posts through an ordered
// list of ranking tiers.
package popular

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Limit bounds of a resolution.
const (
	DefaultLimit = 5
	MinLimit     = 1
	MaxLimit     = 20
)

// Source identifies the tier that produced a Result.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceEmpty    Source = "empty"
	SourceError    Source = "error"
)

// Post is one entry of the popular posts list.
type Post struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	Image       string   `json:"image"`
	// Views is the raw view count; 0 for heuristic tiers.
	Views int64 `json:"views"`
	// Score orders the list. Always >= 0.
	Score int64 `json:"-"`
}

// Result is the outcome of Resolve. Source is SourceError only with no posts.
type Result struct {
	Source Source `json:"source"`
	Posts  []Post `json:"posts"`
}

// Provider produces ranking candidates. limit is a hint; providers may
// return more entries and the resolver truncates after sorting.
type Provider interface {
	Rank(ctx context.Context, limit int) ([]Post, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, limit int) ([]Post, error)

// Rank calls f(ctx, limit).
func (f ProviderFunc) Rank(ctx context.Context, limit int) ([]Post, error) {
	return f(ctx, limit)
}

// Tier is one ranked attempt of the cascade.
type Tier struct {
	Source   Source
	Provider Provider
	// Timeout bounds the Provider call. Zero means DefaultTierTimeout.
	Timeout time.Duration
}

// DefaultTierTimeout is used for tiers without a Timeout.
const DefaultTierTimeout = 2 * time.Second

// ClampLimit forces limit into [MinLimit, MaxLimit].
func ClampLimit(limit int) int {
	return min(max(limit, MinLimit), MaxLimit)
}

// ParseLimit reads a limit query value the way the site's JavaScript
// parseInt does: leading whitespace and an optional sign, then as many
// digits as follow ("12abc" is 12, "2.5" is 2). Input without leading
// digits yields DefaultLimit; numbers are clamped.
func ParseLimit(raw string) int {
	s := strings.TrimLeft(raw, " \t\n\r\f\v")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return DefaultLimit
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// Too many digits for an int; it is far past MaxLimit either way.
		n = MaxLimit
	}
	if neg {
		n = -n
	}
	return ClampLimit(n)
}

// sortPosts orders by score descending, then slug ascending.
func sortPosts(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}
