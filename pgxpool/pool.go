// Package pgxpool implements the bounded connection pool of spec.md §4.4: a
// min/max-sized set of pgconn.Conn, LIFO lease acquisition via
// jackc/puddle/v2, connect-retry backoff while under min, an idle reaper
// above min, cancellable query futures, and transaction scoping.
package pgxpool

import (
	"context"
	"errors"
	"time"

	"github.com/inad9300/pgeon/log"
	"github.com/inad9300/pgeon/pgconn"
	"github.com/inad9300/pgeon/pgerr"
	"github.com/jackc/puddle/v2"
)

// Pool is a bounded set of pgconn.Conn, handed out to callers one at a time
// and returned when the lease's result settles, regardless of outcome. It
// satisfies the invariants of spec.md §3: openConnections+opening never
// exceeds MaxConns, and the pool asymptotically maintains at least MinConns
// live or opening connections.
type Pool struct {
	cfg *Config
	p   *puddle.Pool[*pgconn.Conn]

	closeChan chan struct{}
}

// NewWithConfig creates a Pool from cfg without blocking on any connection
// attempt; the background min-connections filler brings the pool up to
// cfg.MinConns asymptotically, retrying with backoff on failure.
func NewWithConfig(ctx context.Context, cfg *Config) (*Pool, error) {
	pool := &Pool{
		cfg:       cfg,
		closeChan: make(chan struct{}),
	}

	puddlePool, err := puddle.NewPool(&puddle.Config[*pgconn.Conn]{
		Constructor: func(ctx context.Context) (*pgconn.Conn, error) {
			return pgconn.Connect(ctx, cfg.ConnConfig)
		},
		Destructor: func(conn *pgconn.Conn) {
			conn.Close()
		},
		MaxSize: cfg.MaxConns,
	})
	if err != nil {
		return nil, err
	}
	pool.p = puddlePool

	go pool.backgroundMaintain()

	return pool, nil
}

// New parses connString with ParseConfig and calls NewWithConfig.
func New(ctx context.Context, connString string) (*Pool, error) {
	cfg, err := ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg)
}

// Config exposes the parsed configuration this pool was built from.
func (p *Pool) Config() *Config { return p.cfg }

// backgroundMaintain runs for the lifetime of the pool: it keeps at least
// MinConns connections open or opening (retrying failed attempts with
// exponential backoff, per spec.md §4.4 "Opening"), and periodically sweeps
// idle connections above MinConns for MaxConnIdleTime expiry.
func (p *Pool) backgroundMaintain() {
	ticker := time.NewTicker(p.cfg.HealthCheckPeriod)
	defer ticker.Stop()

	p.fillToMin()

	for {
		select {
		case <-p.closeChan:
			return
		case <-ticker.C:
			p.fillToMin()
			p.reapIdle()
		}
	}
}

// fillToMin retries CreateResource until the pool has at least MinConns
// live-or-opening connections, backing off 16ms, doubling, capped at
// 4096ms and at ConnConfig.ConnectTimeout, per spec.md §4.4.
func (p *Pool) fillToMin() {
	delay := 16 * time.Millisecond
	maxDelay := 4096 * time.Millisecond
	if p.cfg.ConnConfig.ConnectTimeout > 0 && p.cfg.ConnConfig.ConnectTimeout < maxDelay {
		maxDelay = p.cfg.ConnConfig.ConnectTimeout
	}

	for {
		select {
		case <-p.closeChan:
			return
		default:
		}

		stat := p.p.Stat()
		if int32(stat.TotalResources()) >= p.cfg.MinConns {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.ConnConfig.ConnectTimeout)
		err := p.p.CreateResource(ctx)
		cancel()
		if err != nil {
			p.logConnectFailure(err)
			select {
			case <-time.After(delay):
			case <-p.closeChan:
				return
			}
			if delay *= 2; delay > maxDelay {
				delay = maxDelay
			}
			continue
		}

		delay = 16 * time.Millisecond
	}
}

// reapIdle closes idle connections that have exceeded MaxConnIdleTime,
// provided doing so would not take the pool below MinConns.
func (p *Pool) reapIdle() {
	idle := p.p.AcquireAllIdle()
	stat := p.p.Stat()
	live := int32(stat.TotalResources())

	for _, res := range idle {
		if live > p.cfg.MinConns && res.IdleDuration() >= p.cfg.MaxConnIdleTime {
			res.Destroy()
			live--
		} else {
			res.Release()
		}
	}
}

func (p *Pool) logConnectFailure(err error) {
	logger := p.cfg.ConnConfig.Logger
	if logger == nil {
		return
	}
	logger.Log(context.Background(), log.LogLevelWarn, "pgxpool: connect attempt below min connections failed", map[string]interface{}{
		"error": err.Error(),
	})
}

// lease is one connection on loan from the pool. It is returned to the
// pool exactly once, in release, regardless of whether the query it served
// succeeded, failed or was cancelled.
type lease struct {
	res  *puddle.Resource[*pgconn.Conn]
	conn *pgconn.Conn
}

// acquire hands out an available connection (LIFO reuse, per spec.md §3)
// or starts a new one if the pool is below MaxConns, enqueueing the caller
// as a FIFO waiter otherwise. If ctx is cancelled while waiting, puddle
// drops the waiter and — per spec.md §4.4 — any connection subsequently
// produced for it returns to the available set instead of being lost.
func (p *Pool) acquire(ctx context.Context) (*lease, error) {
	res, err := p.p.Acquire(ctx)
	if err != nil {
		if err == puddle.ErrClosedPool {
			return nil, ErrClosedPool
		}
		return nil, err
	}
	return &lease{res: res, conn: res.Value()}, nil
}

// release returns the connection to the pool, unless destroy is true (a
// ProtocolError or closed socket poisons the connection for spec.md §7),
// in which case it is torn down instead.
func (l *lease) release(destroy bool) {
	if destroy {
		l.res.Destroy()
		return
	}
	l.res.Release()
}

// Stat reports point-in-time pool occupancy, mirroring puddle.Stat.
type Stat struct {
	TotalConns       int32
	AcquiredConns    int32
	IdleConns        int32
	MaxConns         int32
	ConstructingConn int32
}

// Stat returns the pool's current occupancy.
func (p *Pool) Stat() *Stat {
	s := p.p.Stat()
	return &Stat{
		TotalConns:       s.TotalResources(),
		AcquiredConns:    s.AcquiredResources(),
		IdleConns:        s.IdleResources(),
		MaxConns:         s.MaxResources(),
		ConstructingConn: s.ConstructingResources(),
	}
}

// Close destroys every known connection, clears the pool's counters and
// rejects any queued waiter or in-flight acquire. It implements spec.md
// §4.4's destroy() operation.
func (p *Pool) Close() {
	select {
	case <-p.closeChan:
		return
	default:
		close(p.closeChan)
	}
	p.p.Close()
}

// errIsFatal reports whether err poisons the connection it occurred on,
// per spec.md §7: a ProtocolError is terminal for the whole connection,
// while a PostgresError or QueryCancelled leaves it usable once
// ReadyForQuery has been observed.
func errIsFatal(err error) bool {
	if err == nil {
		return false
	}
	var protoErr *pgerr.ProtocolError
	if errors.As(err, &protoErr) {
		return true
	}
	var connectErr *pgerr.ConnectError
	return errors.As(err, &connectErr)
}
