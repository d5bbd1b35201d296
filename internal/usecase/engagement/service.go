// Package engagement records post views and reader reactions.
//
// Without a database the read operations report zero counters and view
// increments report one, so pages keep rendering; reaction mutations fail
// with ErrUnavailable.
package engagement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"blog-api/internal/domain/entity"
	"blog-api/internal/observability/metrics"
	"blog-api/internal/repository"
)

// ErrUnavailable reports that reaction storage is not configured.
var ErrUnavailable = errors.New("engagement storage unavailable")

// ReactionResult is the reaction state returned to the client.
type ReactionResult struct {
	entity.Reactions
	// AlreadyVoted is set when a repeated vote was ignored.
	AlreadyVoted bool `json:"alreadyVoted,omitempty"`
	// NeverVoted is set when removing a vote that was never cast.
	NeverVoted bool `json:"neverVoted,omitempty"`
}

// Service provides view and reaction use cases.
type Service struct {
	// Views and Reactions are nil when no database is configured.
	Views     repository.ViewRepository
	Reactions repository.ReactionRepository
	// VoteSalt enables per-voter deduplication when non-empty.
	VoteSalt string
}

// GetViews returns the view count of slug.
func (s *Service) GetViews(ctx context.Context, slug string) (entity.PostViews, error) {
	if err := entity.ValidateSlug(slug); err != nil {
		return entity.PostViews{}, err
	}
	if s.Views == nil {
		return entity.PostViews{Slug: slug}, nil
	}
	n, err := s.Views.Get(ctx, slug)
	if err != nil {
		return entity.PostViews{}, fmt.Errorf("get views: %w", err)
	}
	return entity.PostViews{Slug: slug, Views: n}, nil
}

// RecordView adds one view to slug and returns the new count.
func (s *Service) RecordView(ctx context.Context, slug string) (entity.PostViews, error) {
	if err := entity.ValidateSlug(slug); err != nil {
		return entity.PostViews{}, err
	}
	if s.Views == nil {
		return entity.PostViews{Slug: slug, Views: 1}, nil
	}
	n, err := s.Views.Increment(ctx, slug)
	if err != nil {
		metrics.RecordEngagement("view", "failure")
		return entity.PostViews{}, fmt.Errorf("record view: %w", err)
	}
	metrics.RecordEngagement("view", "applied")
	return entity.PostViews{Slug: slug, Views: n}, nil
}

// GetReactions returns the reaction counters of slug.
func (s *Service) GetReactions(ctx context.Context, slug string) (entity.Reactions, error) {
	if err := entity.ValidateSlug(slug); err != nil {
		return entity.Reactions{}, err
	}
	if s.Reactions == nil {
		return entity.Reactions{Slug: slug}, nil
	}
	r, err := s.Reactions.Get(ctx, slug)
	if err != nil {
		return entity.Reactions{}, fmt.Errorf("get reactions: %w", err)
	}
	return r, nil
}

// React records a reaction of type rawType from the client at clientIP.
func (s *Service) React(ctx context.Context, slug, rawType, clientIP string) (ReactionResult, error) {
	rt, err := s.validateReaction(slug, rawType)
	if err != nil {
		return ReactionResult{}, err
	}
	counts, applied, err := s.Reactions.Add(ctx, slug, rt, s.voterHash(clientIP))
	if err != nil {
		metrics.RecordEngagement(string(rt), "failure")
		return ReactionResult{}, fmt.Errorf("add reaction: %w", err)
	}
	metrics.RecordEngagement(string(rt), outcome(applied))
	if !applied {
		slog.DebugContext(ctx, "duplicate reaction ignored",
			slog.String("slug", slug), slog.String("type", string(rt)))
	}
	return ReactionResult{Reactions: counts, AlreadyVoted: !applied}, nil
}

// Unreact removes a reaction of type rawType cast by the client at clientIP.
func (s *Service) Unreact(ctx context.Context, slug, rawType, clientIP string) (ReactionResult, error) {
	rt, err := s.validateReaction(slug, rawType)
	if err != nil {
		return ReactionResult{}, err
	}
	counts, applied, err := s.Reactions.Remove(ctx, slug, rt, s.voterHash(clientIP))
	if err != nil {
		metrics.RecordEngagement("un"+string(rt), "failure")
		return ReactionResult{}, fmt.Errorf("remove reaction: %w", err)
	}
	metrics.RecordEngagement("un"+string(rt), outcome(applied))
	return ReactionResult{Reactions: counts, NeverVoted: !applied}, nil
}

func (s *Service) validateReaction(slug, rawType string) (entity.ReactionType, error) {
	if err := entity.ValidateSlug(slug); err != nil {
		return "", err
	}
	rt, err := entity.ParseReactionType(rawType)
	if err != nil {
		return "", err
	}
	if s.Reactions == nil {
		return "", ErrUnavailable
	}
	return rt, nil
}

func (s *Service) voterHash(clientIP string) string {
	if s.VoteSalt == "" {
		return ""
	}
	return VoterHash(s.VoteSalt, clientIP)
}

// VoterHash identifies a voter without storing the raw address: the first
// 32 hex characters of sha256("salt:ip").
func VoterHash(salt, clientIP string) string {
	sum := sha256.Sum256([]byte(salt + ":" + clientIP))
	return hex.EncodeToString(sum[:])[:32]
}

func outcome(applied bool) string {
	if applied {
		return "applied"
	}
	return "duplicate"
}
