package middleware

import (
	"net/http"

	"blog-api/pkg/ratelimit"
)

// Guards bundles the per-route middleware. Route packages wrap each handler
// with the guard matching its rate class.
type Guards struct {
	rateLimit *RateLimitHandler
	origins   *Origins
}

// NewGuards builds guards from a rate limit handler and the origin
// allowlist. Either may be nil to disable that check.
func NewGuards(rl *RateLimitHandler, origins *Origins) Guards {
	return Guards{rateLimit: rl, origins: origins}
}

func (g Guards) limit(class ratelimit.RouteClass, h http.Handler) http.Handler {
	if g.rateLimit == nil {
		return h
	}
	return g.rateLimit.For(class)(h)
}

func (g Guards) originCheck(h http.Handler) http.Handler {
	if g.origins == nil {
		return h
	}
	return OriginCheck(g.origins)(h)
}

// Public guards read-only routes.
func (g Guards) Public(h http.Handler) http.Handler {
	return g.limit(ratelimit.ClassPublic, h)
}

// Mutation guards engagement writes: standard class plus origin check.
func (g Guards) Mutation(h http.Handler) http.Handler {
	return g.limit(ratelimit.ClassStandard, g.originCheck(h))
}

// AI guards routes that call embedding or chat models. The origin check
// only affects unsafe methods.
func (g Guards) AI(h http.Handler) http.Handler {
	return g.limit(ratelimit.ClassAIHeavy, g.originCheck(h))
}
