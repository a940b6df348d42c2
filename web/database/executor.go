package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultSlowThreshold is the duration above which a select is logged as slow.
const DefaultSlowThreshold = 500 * time.Millisecond

// Executor runs compiled selects against one connection pool
type Executor struct {
	db            *sql.DB
	slowThreshold time.Duration
}

// NewExecutor creates a new database executor
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db, slowThreshold: DefaultSlowThreshold}
}

// WithSlowThreshold changes the slow query threshold.
func (e *Executor) WithSlowThreshold(d time.Duration) *Executor {
	e.slowThreshold = d
	return e
}

// Select runs query and reads every row. The logged duration covers
// both the round trip and the scan.
func (e *Executor) Select(ctx context.Context, query string, args ...any) ([]Row, error) {
	start := time.Now()
	results, err := e.query(ctx, query, args)
	elapsed := time.Since(start)

	log := logx.WithContext(ctx).WithDuration(elapsed)
	switch {
	case err != nil:
		log.Errorf("select failed: %s args: %v: %v", query, args, err)
	case elapsed > e.slowThreshold:
		log.Slowf("slow select: %s args: %v rows: %d", query, args, len(results))
	default:
		log.Debugf("select: %s args: %v rows: %d", query, args, len(results))
	}

	return results, err
}

func (e *Executor) query(ctx context.Context, query string, args []any) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

// Close closes the database connection
func (e *Executor) Close() error {
	return e.db.Close()
}
