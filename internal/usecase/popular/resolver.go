package popular

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"blog-api/internal/observability/metrics"
	"blog-api/internal/observability/tracing"
)

// OutcomeKind tags the result of one tier attempt.
type OutcomeKind int

const (
	OutcomeRanked OutcomeKind = iota
	OutcomeEmpty
	OutcomeFault
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeRanked:
		return "ranked"
	case OutcomeEmpty:
		return "empty"
	default:
		return "fault"
	}
}

// Outcome is the tagged result of one tier attempt.
type Outcome struct {
	Kind  OutcomeKind
	Posts []Post
	Err   error
}

// ErrTierPanic wraps a panic raised by a provider.
var ErrTierPanic = errors.New("tier panicked")

// Resolver walks its tiers in order and returns the first non-empty ranking.
type Resolver struct {
	tiers []Tier
}

// NewResolver creates a resolver over tiers, tried in the given order.
func NewResolver(tiers ...Tier) *Resolver {
	return &Resolver{tiers: tiers}
}

// Resolve returns at most limit posts. It never returns an error and never
// panics: provider faults become SourceError only when no later tier
// produced entries. limit is clamped into [MinLimit, MaxLimit].
func (r *Resolver) Resolve(ctx context.Context, limit int) Result {
	start := time.Now()
	limit = ClampLimit(limit)

	ctx, span := tracing.GetTracer().Start(ctx, "popular.Resolve")
	defer span.End()

	result := r.resolve(ctx, limit)

	span.SetAttributes(
		attribute.String("popular.source", string(result.Source)),
		attribute.Int("popular.count", len(result.Posts)),
	)
	if result.Source == SourceError {
		span.SetStatus(codes.Error, "all tiers failed")
		slog.ErrorContext(ctx, "popular posts resolution failed",
			slog.Int("limit", limit),
			slog.Int("tiers", len(r.tiers)))
	}
	metrics.RecordPopularResolution(string(result.Source), time.Since(start))
	return result
}

func (r *Resolver) resolve(ctx context.Context, limit int) Result {
	faulted := false
	for _, tier := range r.tiers {
		out := r.attempt(ctx, tier, limit)
		switch out.Kind {
		case OutcomeRanked:
			sortPosts(out.Posts)
			if len(out.Posts) > limit {
				out.Posts = out.Posts[:limit]
			}
			return Result{Source: tier.Source, Posts: out.Posts}
		case OutcomeFault:
			faulted = true
		}
	}
	if faulted {
		return Result{Source: SourceError, Posts: []Post{}}
	}
	return Result{Source: SourceEmpty, Posts: []Post{}}
}

type rankResult struct {
	posts []Post
	err   error
}

// attempt runs one tier under its deadline. The provider runs on its own
// goroutine so that a provider ignoring ctx still cannot hold the request;
// an abandoned call completes in the background and is discarded.
func (r *Resolver) attempt(ctx context.Context, tier Tier, limit int) Outcome {
	timeout := tier.Timeout
	if timeout <= 0 {
		timeout = DefaultTierTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := tracing.GetTracer().Start(ctx, "popular.tier")
	defer span.End()
	span.SetAttributes(attribute.String("popular.tier", string(tier.Source)))

	done := make(chan rankResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- rankResult{err: fmt.Errorf("%w: %v", ErrTierPanic, rec)}
			}
		}()
		posts, err := tier.Provider.Rank(ctx, limit)
		done <- rankResult{posts: posts, err: err}
	}()

	var res rankResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = rankResult{err: ctx.Err()}
	}

	out := classify(res)
	span.SetAttributes(attribute.String("popular.outcome", out.Kind.String()))
	if out.Kind == OutcomeFault {
		reason := faultReason(out.Err)
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, reason)
		metrics.RecordPopularTierFault(string(tier.Source), reason)
		slog.WarnContext(ctx, "popular posts tier failed",
			slog.String("tier", string(tier.Source)),
			slog.String("reason", reason),
			slog.Duration("timeout", timeout),
			slog.Any("error", out.Err))
	}
	return out
}

func classify(res rankResult) Outcome {
	switch {
	case res.err != nil:
		return Outcome{Kind: OutcomeFault, Err: res.err}
	case len(res.posts) == 0:
		return Outcome{Kind: OutcomeEmpty}
	default:
		return Outcome{Kind: OutcomeRanked, Posts: res.posts}
	}
}

func faultReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrTierPanic):
		return "panic"
	default:
		return "error"
	}
}
