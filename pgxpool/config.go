// Package pgxpool implements the bounded connection pool of spec.md §4.4: a
// min/max-sized set of pgconn.Conn, LIFO lease acquisition via
// jackc/puddle/v2, connect-retry backoff while under min, an idle reaper
// above min, cancellable query futures, and transaction scoping.
package pgxpool

import (
	"fmt"
	"strconv"
	"time"

	"github.com/inad9300/pgeon/pgconn"
)

var (
	defaultMinConns          = int32(2)
	defaultMaxConns          = int32(8)
	defaultMaxConnIdleTime   = 300 * time.Second
	defaultQueryTimeout      = 120 * time.Second
	defaultHealthCheckPeriod = 30 * time.Second
)

// Config is the configuration struct for creating a Pool. Build one with
// ParseConfig rather than constructing it from scratch, unless every field
// is already known.
type Config struct {
	ConnConfig *pgconn.Config

	// MinConns is the number of connections the pool keeps open even while
	// idle. Failed connect attempts below MinConns are retried with backoff
	// (16ms, doubling, capped at 4096ms and at ConnConfig.ConnectTimeout).
	MinConns int32

	// MaxConns is the maximum number of connections the pool will open.
	MaxConns int32

	// MaxConnIdleTime is how long a connection above MinConns may sit idle
	// before the pool closes it.
	MaxConnIdleTime time.Duration

	// QueryTimeout bounds a single Run call, measured from the moment Run is
	// called, so time spent waiting to acquire a connection counts against
	// it. Expiry cancels the query the same way an explicit cancel() would.
	QueryTimeout time.Duration

	// HealthCheckPeriod is how often the idle reaper sweeps idle
	// connections for MaxConnIdleTime expiry.
	HealthCheckPeriod time.Duration
}

// ParseConfig builds a Config from connString, parsed the same way
// pgconn.ParseConfig parses it, plus the pool-specific runtime parameters
// pool_min_conns, pool_max_conns, pool_max_conn_idle_time and
// pool_query_timeout (duration strings, e.g. "300s").
func ParseConfig(connString string) (*Config, error) {
	connConfig, err := pgconn.ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	cfg := &Config{ConnConfig: connConfig}

	if s, ok := connConfig.RuntimeParams["pool_min_conns"]; ok {
		delete(connConfig.RuntimeParams, "pool_min_conns")
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("pgxpool: invalid pool_min_conns: %w", err)
		}
		cfg.MinConns = int32(n)
	} else {
		cfg.MinConns = defaultMinConns
	}

	if s, ok := connConfig.RuntimeParams["pool_max_conns"]; ok {
		delete(connConfig.RuntimeParams, "pool_max_conns")
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("pgxpool: invalid pool_max_conns: %w", err)
		}
		if n < 1 {
			return nil, fmt.Errorf("pgxpool: pool_max_conns too small: %d", n)
		}
		cfg.MaxConns = int32(n)
	} else {
		cfg.MaxConns = defaultMaxConns
	}

	if cfg.MaxConns < cfg.MinConns {
		cfg.MaxConns = cfg.MinConns
	}

	if s, ok := connConfig.RuntimeParams["pool_max_conn_idle_time"]; ok {
		delete(connConfig.RuntimeParams, "pool_max_conn_idle_time")
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("pgxpool: invalid pool_max_conn_idle_time: %w", err)
		}
		cfg.MaxConnIdleTime = d
	} else {
		cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	}

	if s, ok := connConfig.RuntimeParams["pool_query_timeout"]; ok {
		delete(connConfig.RuntimeParams, "pool_query_timeout")
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("pgxpool: invalid pool_query_timeout: %w", err)
		}
		cfg.QueryTimeout = d
	} else {
		cfg.QueryTimeout = defaultQueryTimeout
	}

	cfg.HealthCheckPeriod = defaultHealthCheckPeriod

	return cfg, nil
}
