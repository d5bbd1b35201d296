package repository

import (
	"context"

	"blog-api/internal/domain/entity"
)

// ReactionRepository stores like and bookmark counters.
type ReactionRepository interface {
	// Get returns the counters of slug; zeros when none were recorded.
	Get(ctx context.Context, slug string) (entity.Reactions, error)

	// Add increments the counter of rt. When voterHash is non-empty the
	// vote is recorded and a repeated vote leaves the counters unchanged,
	// reported by applied=false.
	Add(ctx context.Context, slug string, rt entity.ReactionType, voterHash string) (counts entity.Reactions, applied bool, err error)

	// Remove decrements the counter of rt, never below zero. When voterHash
	// is non-empty only a previously recorded vote is removed; applied=false
	// reports that no such vote existed.
	Remove(ctx context.Context, slug string, rt entity.ReactionType, voterHash string) (counts entity.Reactions, applied bool, err error)
}
