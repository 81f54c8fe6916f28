package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const DefaultQueryTimeout = 3 * time.Second

// Queryer is the subset of pgxpool.Pool and pgx.Tx the repositories use.
type Queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Base is embedded by every repository: a pool behind the instrumented
// Queryer and a per-statement deadline.
type Base struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewBase(pool *pgxpool.Pool, timeout time.Duration) *Base {
	return &Base{pool: pool, timeout: timeoutOrDefault(timeout)}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultQueryTimeout
	}
	return d
}

func (b *Base) Q() Queryer {
	return instrumentedQueryer{q: b.pool}
}

// WithTimeout bounds a single statement. A caller deadline that is already
// shorter wins.
func (b *Base) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeoutOrDefault(b.timeout))
}
