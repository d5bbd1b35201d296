// Package pagination implements offset/limit pagination for list endpoints.
package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

// Config holds pagination bounds for one endpoint.
type Config struct {
	DefaultLimit int // used when limit is missing or not a number
	MaxLimit     int // larger limits are capped
}

// DefaultConfig returns limit 10, max 50.
func DefaultConfig() Config {
	return Config{DefaultLimit: 10, MaxLimit: 50}
}

// Params represents pagination query parameters.
type Params struct {
	Limit  int
	Offset int
}

// Metadata contains pagination metadata included in API responses.
type Metadata struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// ParseQueryParams reads limit and offset from the query string.
// Parsing never fails: malformed values use defaults and out-of-range
// values are clamped.
func ParseQueryParams(r *http.Request, cfg Config) Params {
	q := r.URL.Query()
	return Params{
		Limit:  atoiOr(q.Get("limit"), cfg.DefaultLimit),
		Offset: atoiOr(q.Get("offset"), 0),
	}.WithDefaults(cfg)
}

// WithDefaults clamps Limit to [1, MaxLimit] and Offset to >= 0.
func (p Params) WithDefaults(cfg Config) Params {
	if p.Limit < 1 {
		p.Limit = 1
	}
	if cfg.MaxLimit > 0 && p.Limit > cfg.MaxLimit {
		p.Limit = cfg.MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// NewMetadata describes the window p over total items.
func NewMetadata(total int, p Params) Metadata {
	return Metadata{
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.Offset+p.Limit < total,
	}
}

// Window returns the items selected by p. The result is never nil.
func Window[T any](items []T, p Params) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}

func atoiOr(s string, def int) int {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
