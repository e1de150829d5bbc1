package ctxwatch_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inad9300/pgeon/pgconn/ctxwatch"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	handleCancel             func(context.Context)
	handleUnwatchAfterCancel func()
}

func (h *testHandler) HandleCancel(ctx context.Context) { h.handleCancel(ctx) }
func (h *testHandler) HandleUnwatchAfterCancel()         { h.handleUnwatchAfterCancel() }

func TestContextWatcherContextCancelled(t *testing.T) {
	canceledChan := make(chan struct{})
	cleanupCalled := false
	cw := ctxwatch.NewContextWatcher(&testHandler{
		handleCancel: func(context.Context) {
			canceledChan <- struct{}{}
		},
		handleUnwatchAfterCancel: func() {
			cleanupCalled = true
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cw.Watch(ctx)
	cancel()

	select {
	case <-canceledChan:
	case <-time.NewTimer(time.Second).C:
		t.Fatal("timed out waiting for cancel func to be called")
	}

	cw.Unwatch()

	require.True(t, cleanupCalled)
}

func TestContextWatcherUnwatchedBeforeContextCancelled(t *testing.T) {
	cw := ctxwatch.NewContextWatcher(&testHandler{
		handleCancel:             func(context.Context) { t.Error("cancel func should not have been called") },
		handleUnwatchAfterCancel: func() { t.Error("cleanup func should not have been called") },
	})

	ctx, cancel := context.WithCancel(context.Background())
	cw.Watch(ctx)
	cw.Unwatch()
	cancel()
}

func TestContextWatcherMultipleWatchPanics(t *testing.T) {
	cw := ctxwatch.NewContextWatcher(&testHandler{handleCancel: func(context.Context) {}, handleUnwatchAfterCancel: func() {}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cw.Watch(ctx)
	defer cw.Unwatch()

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	require.Panics(t, func() { cw.Watch(ctx2) })
}

func TestContextWatcherUnwatchWhenNotWatchingIsSafe(t *testing.T) {
	cw := ctxwatch.NewContextWatcher(&testHandler{handleCancel: func(context.Context) {}, handleUnwatchAfterCancel: func() {}})
	cw.Unwatch()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cw.Watch(ctx)
	cw.Unwatch()
	cw.Unwatch()
}

func TestContextWatcherUncancellableContextIsNoop(t *testing.T) {
	cw := ctxwatch.NewContextWatcher(&testHandler{
		handleCancel:             func(context.Context) { t.Error("cancel func should not have been called") },
		handleUnwatchAfterCancel: func() { t.Error("cleanup func should not have been called") },
	})

	cw.Watch(context.Background())
	cw.Unwatch()
}

func TestContextWatcherStress(t *testing.T) {
	var cancelFuncCalls int64
	var cleanupFuncCalls int64

	cw := ctxwatch.NewContextWatcher(&testHandler{
		handleCancel:             func(context.Context) { atomic.AddInt64(&cancelFuncCalls, 1) },
		handleUnwatchAfterCancel: func() { atomic.AddInt64(&cleanupFuncCalls, 1) },
	})

	const cycleCount = 10000

	for i := 0; i < cycleCount; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		cw.Watch(ctx)
		if i%2 == 0 {
			cancel()
		}
		if i%333 == 0 {
			time.Sleep(time.Nanosecond)
		}
		cw.Unwatch()
		if i%2 == 1 {
			cancel()
		}
	}

	actualCancelFuncCalls := atomic.LoadInt64(&cancelFuncCalls)
	actualCleanupFuncCalls := atomic.LoadInt64(&cleanupFuncCalls)

	require.Greater(t, actualCancelFuncCalls, int64(0))
	require.LessOrEqual(t, actualCancelFuncCalls, int64(cycleCount)/2)
	require.Equal(t, actualCancelFuncCalls, actualCleanupFuncCalls)
}
