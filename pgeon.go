// Package pgeon is the public façade of the engine: a single import that
// re-exports the pool, its query descriptor, results and metadata types,
// so a host application never needs to import pgconn, pgproto3 or pgtype
// directly. Everything here is a thin wrapper over pgxpool, the way
// jackc/pgx's own root package is a façade over pgconn and pgtype.
package pgeon

import (
	"context"

	"github.com/inad9300/pgeon/pgconn"
	"github.com/inad9300/pgeon/pgxpool"
)

// Pool is a bounded set of reusable server connections. See pgxpool.Pool
// for the full operation set (Run, GetQueryMetadata, Transaction, Close).
type Pool = pgxpool.Pool

// Query, QueryResult, QueryMetadata, Row, ColumnDescription and Tx are
// re-exported unchanged from pgxpool, which is where they are consumed.
type (
	Query             = pgxpool.Query
	QueryResult       = pgxpool.QueryResult
	QueryMetadata     = pgxpool.QueryMetadata
	Row               = pgxpool.Row
	ColumnDescription = pgxpool.ColumnDescription
	QueryFuture       = pgxpool.QueryFuture
	Tx                = pgxpool.Tx
	Config            = pgxpool.Config
	ConnConfig        = pgconn.Config
)

// NewPool parses connString (a "postgres://" URL, a space-separated DSN,
// or empty to read purely from the environment, per spec.md §6) and
// starts a pool against it. The pool is usable immediately: connections
// are established asynchronously in the background up to MinConns.
func NewPool(ctx context.Context, connString string) (*Pool, error) {
	return pgxpool.New(ctx, connString)
}

// NewPoolWithConfig starts a pool from an already-built Config, for
// callers that need to set fields ParseConfig cannot infer from a
// connection string (a custom log.Logger, a TLS config built at runtime).
func NewPoolWithConfig(ctx context.Context, cfg *Config) (*Pool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// ParseConfig builds a Config the way NewPool would, without connecting,
// so callers can adjust it first.
func ParseConfig(connString string) (*Config, error) {
	return pgxpool.ParseConfig(connString)
}
