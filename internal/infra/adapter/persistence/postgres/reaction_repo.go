package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog-api/internal/domain/entity"
	"blog-api/internal/repository"
)

// ReactionRepo implements repository.ReactionRepository.
type ReactionRepo struct {
	db DBTX
}

// NewReactionRepo creates a new PostgreSQL-based ReactionRepository.
func NewReactionRepo(db DBTX) repository.ReactionRepository {
	return &ReactionRepo{db: db}
}

const selectReactionsQuery = `SELECT likes, bookmarks FROM reactions WHERE slug = $1`

const incrementReactionQuery = `
INSERT INTO reactions (slug, likes, bookmarks, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (slug)
DO UPDATE SET
	likes = reactions.likes + EXCLUDED.likes,
	bookmarks = reactions.bookmarks + EXCLUDED.bookmarks,
	updated_at = NOW()
RETURNING likes, bookmarks`

const decrementReactionQuery = `
UPDATE reactions
SET likes = GREATEST(likes - $2, 0),
	bookmarks = GREATEST(bookmarks - $3, 0),
	updated_at = NOW()
WHERE slug = $1
RETURNING likes, bookmarks`

const insertVoteQuery = `
INSERT INTO reaction_votes (slug, type, voter_hash, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT DO NOTHING`

const deleteVoteQuery = `DELETE FROM reaction_votes WHERE slug = $1 AND type = $2 AND voter_hash = $3`

// queryRower is satisfied by DBTX and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Get returns the counters of slug.
func (repo *ReactionRepo) Get(ctx context.Context, slug string) (entity.Reactions, error) {
	r, err := scanReactions(ctx, repo.db, selectReactionsQuery, slug)
	if err != nil {
		return r, fmt.Errorf("Get: %w", err)
	}
	return r, nil
}

// Add increments the counter of rt, deduplicated by voterHash when set.
func (repo *ReactionRepo) Add(ctx context.Context, slug string, rt entity.ReactionType, voterHash string) (entity.Reactions, bool, error) {
	likes, bookmarks := deltas(rt)
	if voterHash == "" {
		r, err := scanReactions(ctx, repo.db, incrementReactionQuery, slug, likes, bookmarks)
		if err != nil {
			return r, false, fmt.Errorf("Add: %w", err)
		}
		return r, true, nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return entity.Reactions{Slug: slug}, false, fmt.Errorf("Add: BeginTx: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, insertVoteQuery, slug, string(rt), voterHash)
	if err != nil {
		return entity.Reactions{Slug: slug}, false, fmt.Errorf("Add: insert vote: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return entity.Reactions{Slug: slug}, false, fmt.Errorf("Add: RowsAffected: %w", err)
	}

	query, extra := incrementReactionQuery, []interface{}{likes, bookmarks}
	if inserted == 0 {
		query, extra = selectReactionsQuery, nil
	}
	r, err := scanReactions(ctx, tx, query, slug, extra...)
	if err != nil {
		return r, false, fmt.Errorf("Add: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return r, false, fmt.Errorf("Add: Commit: %w", err)
	}
	return r, inserted > 0, nil
}

// Remove decrements the counter of rt, deduplicated by voterHash when set.
func (repo *ReactionRepo) Remove(ctx context.Context, slug string, rt entity.ReactionType, voterHash string) (entity.Reactions, bool, error) {
	likes, bookmarks := deltas(rt)
	if voterHash == "" {
		r, err := scanReactions(ctx, repo.db, decrementReactionQuery, slug, likes, bookmarks)
		if err != nil {
			return r, false, fmt.Errorf("Remove: %w", err)
		}
		return r, true, nil
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return entity.Reactions{Slug: slug}, false, fmt.Errorf("Remove: BeginTx: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, deleteVoteQuery, slug, string(rt), voterHash)
	if err != nil {
		return entity.Reactions{Slug: slug}, false, fmt.Errorf("Remove: delete vote: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return entity.Reactions{Slug: slug}, false, fmt.Errorf("Remove: RowsAffected: %w", err)
	}

	query, extra := decrementReactionQuery, []interface{}{likes, bookmarks}
	if deleted == 0 {
		query, extra = selectReactionsQuery, nil
	}
	r, err := scanReactions(ctx, tx, query, slug, extra...)
	if err != nil {
		return r, false, fmt.Errorf("Remove: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return r, false, fmt.Errorf("Remove: Commit: %w", err)
	}
	return r, deleted > 0, nil
}

// scanReactions runs a query returning (likes, bookmarks). A missing row
// yields zero counters.
func scanReactions(ctx context.Context, q queryRower, query, slug string, extra ...interface{}) (entity.Reactions, error) {
	r := entity.Reactions{Slug: slug}
	args := append([]interface{}{slug}, extra...)
	err := q.QueryRowContext(ctx, query, args...).Scan(&r.Likes, &r.Bookmarks)
	if errors.Is(err, sql.ErrNoRows) {
		return r, nil
	}
	return r, err
}

func deltas(rt entity.ReactionType) (likes, bookmarks int64) {
	if rt == entity.ReactionBookmark {
		return 0, 1
	}
	return 1, 0
}
