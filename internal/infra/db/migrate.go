package db

import (
	"context"
	"database/sql"
	"log/slog"
)

// coreStatements create the engagement tables. Any failure aborts the migration.
var coreStatements = []string{
	`
CREATE TABLE IF NOT EXISTS views (
    slug       TEXT PRIMARY KEY,
    count      BIGINT NOT NULL DEFAULT 0 CHECK (count >= 0),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`
CREATE TABLE IF NOT EXISTS reactions (
    slug       TEXT PRIMARY KEY,
    likes      BIGINT NOT NULL DEFAULT 0 CHECK (likes >= 0),
    bookmarks  BIGINT NOT NULL DEFAULT 0 CHECK (bookmarks >= 0),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`
CREATE TABLE IF NOT EXISTS reaction_votes (
    slug       TEXT NOT NULL,
    type       VARCHAR(16) NOT NULL CHECK (type IN ('like', 'bookmark')),
    voter_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (slug, type, voter_hash)
)`,
	// Top() orders by count DESC, slug ASC.
	`CREATE INDEX IF NOT EXISTS idx_views_count ON views(count DESC, slug ASC)`,
}

// embeddingStatements need the pgvector extension. Failures are logged and
// leave semantic search disabled.
var embeddingStatements = []string{
	`
CREATE TABLE IF NOT EXISTS post_embeddings (
    slug        TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    url         TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    date        TEXT NOT NULL DEFAULT '',
    image       TEXT NOT NULL DEFAULT '',
    content     TEXT NOT NULL DEFAULT '',
    embedding   vector(1536) NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	// lists=100 suits fewer than 1M rows
	`
CREATE INDEX IF NOT EXISTS idx_post_embeddings_vector
    ON post_embeddings USING ivfflat (embedding vector_cosine_ops)
    WITH (lists = 100)`,
}

// MigrateUp creates the schema. It is idempotent.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	for _, stmt := range coreStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	// requires superuser on some hosts; an existing extension is fine
	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		slog.Warn("pgvector extension unavailable, semantic search disabled",
			slog.Any("error", err))
		return nil
	}

	for _, stmt := range embeddingStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			slog.Warn("embedding schema migration failed",
				slog.Any("error", err))
			return nil
		}
	}
	return nil
}

// MigrateDown drops every table created by MigrateUp.
// Use with caution: this deletes all engagement data.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS post_embeddings CASCADE`,
		`DROP TABLE IF EXISTS reaction_votes`,
		`DROP TABLE IF EXISTS reactions`,
		`DROP TABLE IF EXISTS views`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	// the vector extension may be used by other schemas
	return nil
}
