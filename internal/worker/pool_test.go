package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/serroba/brandlink/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingObserver struct {
	mu       sync.Mutex
	finished map[string][]error
	dropped  map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		finished: make(map[string][]error),
		dropped:  make(map[string]int),
	}
}

func (o *recordingObserver) TaskFinished(name string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.finished[name] = append(o.finished[name], err)
}

func (o *recordingObserver) TaskDropped(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.dropped[name]++
}

func TestPool_RunsSubmittedTasks(t *testing.T) {
	pool := worker.NewPool(worker.Config{Workers: 4, QueueSize: 100}, nil, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))

	var count atomic.Int64

	for range 50 {
		ok := pool.Submit("count", func(_ context.Context) error {
			count.Add(1)

			return nil
		})
		require.True(t, ok)
	}

	require.NoError(t, pool.Shutdown())
	assert.Equal(t, int64(50), count.Load())
}

func TestPool_TaskContextOutlivesCaller(t *testing.T) {
	pool := worker.NewPool(worker.Config{Workers: 1, QueueSize: 1}, nil, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))

	reqCtx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	pool.Submit("detached", func(ctx context.Context) error {
		<-reqCtx.Done()
		errCh <- ctx.Err()

		return nil
	})

	cancel()
	require.NoError(t, pool.Shutdown())
	assert.NoError(t, <-errCh)
}

func TestPool_ReportsFailuresAndPanics(t *testing.T) {
	obs := newRecordingObserver()
	pool := worker.NewPool(worker.Config{Workers: 2, QueueSize: 10}, obs, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))

	pool.Submit("fails", func(_ context.Context) error { return errors.New("storage unavailable") })
	pool.Submit("panics", func(_ context.Context) error { panic("boom") })
	pool.Submit("ok", func(_ context.Context) error { return nil })

	require.NoError(t, pool.Shutdown())

	require.Len(t, obs.finished["fails"], 1)
	require.Error(t, obs.finished["fails"][0])
	require.Len(t, obs.finished["panics"], 1)
	assert.Contains(t, obs.finished["panics"][0].Error(), "panicked")
	require.Len(t, obs.finished["ok"], 1)
	assert.NoError(t, obs.finished["ok"][0])
}

func TestPool_DropsWhenQueueFull(t *testing.T) {
	obs := newRecordingObserver()
	pool := worker.NewPool(worker.Config{Workers: 1, QueueSize: 1}, obs, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))

	release := make(chan struct{})
	started := make(chan struct{})

	require.True(t, pool.Submit("block", func(_ context.Context) error {
		close(started)
		<-release

		return nil
	}))

	<-started

	require.True(t, pool.Submit("queued", func(_ context.Context) error { return nil }))
	assert.False(t, pool.Submit("overflow", func(_ context.Context) error { return nil }))

	close(release)
	require.NoError(t, pool.Shutdown())

	assert.Equal(t, 1, obs.dropped["overflow"])
	assert.Len(t, obs.finished["queued"], 1)
}

func TestPool_RejectsAfterShutdown(t *testing.T) {
	obs := newRecordingObserver()
	pool := worker.NewPool(worker.Config{Workers: 1}, obs, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Shutdown())

	assert.False(t, pool.Submit("late", func(_ context.Context) error { return nil }))
	assert.Equal(t, 1, obs.dropped["late"])
	assert.NoError(t, pool.Shutdown(), "second shutdown is a no-op")
	assert.ErrorIs(t, pool.Start(context.Background()), worker.ErrPoolClosed)
}

func TestPool_TaskTimeout(t *testing.T) {
	pool := worker.NewPool(worker.Config{Workers: 1, TaskTimeout: 10 * time.Millisecond}, nil, zap.NewNop())
	require.NoError(t, pool.Start(context.Background()))

	errCh := make(chan error, 1)

	pool.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()

		return ctx.Err()
	})

	require.NoError(t, pool.Shutdown())
	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
}
