package circuitbreaker

import (
	"context"
	"database/sql"
	"time"

	"github.com/sony/gobreaker"

	"blog-api/internal/observability/metrics"
)

// DBCircuitBreaker wraps a database connection with circuit breaker protection.
// It satisfies the postgres.DBTX interface, so repositories can use it in
// place of *sql.DB.
type DBCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// DBConfig returns configuration for the database circuit breaker.
// Opens after 5 consecutive failures, probes again after 30 seconds.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// NewDBCircuitBreaker creates a new database circuit breaker.
func NewDBCircuitBreaker(db *sql.DB, observers ...StateChangeFunc) *DBCircuitBreaker {
	return NewDBCircuitBreakerWithConfig(db, DBConfig(), observers...)
}

// NewDBCircuitBreakerWithConfig creates a new database circuit breaker with custom configuration.
func NewDBCircuitBreakerWithConfig(db *sql.DB, cfg Config, observers ...StateChangeFunc) *DBCircuitBreaker {
	return &DBCircuitBreaker{
		cb: New(cfg, observers...),
		db: db,
	}
}

// QueryContext executes a query with circuit breaker protection.
// If the circuit is open, it returns ErrOpenState immediately without hitting the database.
func (dcb *DBCircuitBreaker) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer observe("query", time.Now())
	return Do(dcb.cb, func() (*sql.Rows, error) {
		return dcb.db.QueryContext(ctx, query, args...)
	})
}

// ExecContext executes a statement with circuit breaker protection.
func (dcb *DBCircuitBreaker) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer observe("exec", time.Now())
	return Do(dcb.cb, func() (sql.Result, error) {
		return dcb.db.ExecContext(ctx, query, args...)
	})
}

// QueryRowContext executes a single-row query.
// sql.Row defers its error to Scan, so the breaker cannot observe it.
func (dcb *DBCircuitBreaker) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer observe("query_row", time.Now())
	return dcb.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction with circuit breaker protection. Statements
// inside the transaction are not counted.
func (dcb *DBCircuitBreaker) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return Do(dcb.cb, func() (*sql.Tx, error) {
		return dcb.db.BeginTx(ctx, opts)
	})
}

// PingContext checks connectivity through the breaker, used by readiness probes.
func (dcb *DBCircuitBreaker) PingContext(ctx context.Context) error {
	_, err := Do(dcb.cb, func() (struct{}, error) {
		return struct{}{}, dcb.db.PingContext(ctx)
	})
	return err
}

// State returns the current state of the circuit breaker.
func (dcb *DBCircuitBreaker) State() gobreaker.State {
	return dcb.cb.State()
}

// IsOpen returns true if the circuit breaker is in the open state.
func (dcb *DBCircuitBreaker) IsOpen() bool {
	return dcb.cb.IsOpen()
}

// DB returns the underlying database connection.
func (dcb *DBCircuitBreaker) DB() *sql.DB {
	return dcb.db
}

// UpdatePoolStats publishes the pool gauges.
func (dcb *DBCircuitBreaker) UpdatePoolStats() {
	st := dcb.db.Stats()
	metrics.UpdateDBConnectionStats(st.InUse, st.Idle)
}

func observe(op string, start time.Time) {
	metrics.RecordDBQuery(op, time.Since(start))
}
