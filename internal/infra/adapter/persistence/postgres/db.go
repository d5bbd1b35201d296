// Package postgres implements the repositories on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
)

// DBTX is the database handle used by the repositories. It is satisfied by
// *sql.DB and by circuitbreaker.DBCircuitBreaker.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// rollback is deferred after BeginTx; it is a no-op once the transaction committed.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
