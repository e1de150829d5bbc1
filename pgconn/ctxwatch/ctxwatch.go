// Package ctxwatch lets blocking socket I/O be interrupted by a
// context.Context, the way a single-threaded event loop would simply not
// schedule further work once a request is cancelled. A ContextWatcher runs
// one background goroutine that calls Handler.HandleCancel the moment a
// watched context is done, and Handler.HandleUnwatchAfterCancel once the
// caller has acknowledged the cancellation by calling Unwatch.
package ctxwatch

import (
	"context"
	"sync"
)

// Handler reacts to context cancellation while a ContextWatcher is
// watching. Implementations typically set a near-past deadline on a
// net.Conn in HandleCancel to unblock a pending Read/Write, and clear it in
// HandleUnwatchAfterCancel.
type Handler interface {
	HandleCancel(ctx context.Context)
	HandleUnwatchAfterCancel()
}

// ContextWatcher watches one context.Context at a time. Watch/Unwatch must
// alternate: calling Watch again before a prior Watch's matching Unwatch
// has returned panics.
type ContextWatcher struct {
	handler Handler

	mux         sync.Mutex
	watching    bool
	watchChan   chan context.Context
	unwatchChan chan struct{}
}

// NewContextWatcher starts the background goroutine that will call
// handler's methods.
func NewContextWatcher(handler Handler) *ContextWatcher {
	cw := &ContextWatcher{
		handler:     handler,
		watchChan:   make(chan context.Context),
		unwatchChan: make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *ContextWatcher) run() {
	for ctx := range cw.watchChan {
		select {
		case <-ctx.Done():
			cw.handler.HandleCancel(ctx)
			<-cw.unwatchChan
			cw.handler.HandleUnwatchAfterCancel()
		case <-cw.unwatchChan:
		}
		cw.unwatchChan <- struct{}{}
	}
}

// Watch begins watching ctx. If ctx has no Done channel (e.g.
// context.Background()), it can never be cancelled, so Watch is a no-op.
func (cw *ContextWatcher) Watch(ctx context.Context) {
	cw.mux.Lock()
	defer cw.mux.Unlock()

	if cw.watching {
		panic("ctxwatch: Watch called while already watching")
	}
	if ctx.Done() == nil {
		return
	}

	cw.watching = true
	cw.watchChan <- ctx
}

// Unwatch stops watching the context passed to the last Watch call. If the
// context was cancelled, Handler.HandleUnwatchAfterCancel has completed by
// the time Unwatch returns. Safe to call when not currently watching, and
// safe to call concurrently with itself.
func (cw *ContextWatcher) Unwatch() {
	cw.mux.Lock()
	defer cw.mux.Unlock()

	if !cw.watching {
		return
	}
	cw.watching = false
	cw.unwatchChan <- struct{}{}
	<-cw.unwatchChan
}
