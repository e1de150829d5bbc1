package pgxpool

import (
	"context"
	"sync"
)

// QueryFuture is the cancellable handle Run returns immediately, before
// its query has necessarily even acquired a connection. It settles exactly
// once, and Cancel is idempotent and safe to call at any point in its
// lifetime, per spec.md §5.
type QueryFuture struct {
	done chan struct{}

	mu     sync.Mutex
	lease  *lease
	result *QueryResult
	err    error

	cancelCtx  context.CancelFunc
	cancelOnce sync.Once
}

func newQueryFuture(cancel context.CancelFunc) *QueryFuture {
	return &QueryFuture{done: make(chan struct{}), cancelCtx: cancel}
}

// Wait blocks until the query settles and returns its outcome.
func (f *QueryFuture) Wait() (*QueryResult, error) {
	<-f.done
	return f.result, f.err
}

// Cancel marks the future cancelled. If the lease has not yet been
// granted, the pending acquire is abandoned (per spec.md §4.4, any
// connection it eventually produces still returns to the pool). If a
// protocol phase is already in flight, the connection's out-of-band cancel
// request is sent as soon as the lease becomes visible to the watcher
// goroutine started by run.
func (f *QueryFuture) Cancel() {
	f.cancelOnce.Do(func() {
		f.cancelCtx()
	})
}

func (f *QueryFuture) setLease(l *lease) {
	f.mu.Lock()
	f.lease = l
	f.mu.Unlock()
}

func (f *QueryFuture) leasedConn() *lease {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lease
}

// run drives the query to completion on its own goroutine. ctx is already
// wrapped with the pool's queryTimeout (if any) and with the cancel func
// stored on f, so both explicit Cancel() calls and timeout expiry surface
// here identically: ctx.Done() fires, the watcher below writes the
// out-of-band CancelRequest if a connection is already leased, and
// runQuery's own context-aborted I/O unblocks with an error that gets
// translated into a *pgerr.QueryCancelled.
func (f *QueryFuture) run(ctx context.Context, p *Pool, query Query) {
	defer close(f.done)

	watcherDone := make(chan struct{})
	defer close(watcherDone)

	go func() {
		select {
		case <-ctx.Done():
			if l := f.leasedConn(); l != nil {
				_ = l.conn.CancelRequest(context.Background())
			}
		case <-watcherDone:
		}
	}()

	result, phase, err := p.runQuery(ctx, query, f.setLease)
	if err != nil && ctx.Err() != nil {
		err = wrapCancellation(phase, err)
	}

	f.result = result
	f.err = err
}
