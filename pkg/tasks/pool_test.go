package tasks_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiorodrigo10/Operabase-sub001/pkg/tasks"
)

func newPool(t *testing.T, workers, queueSize int) *tasks.Pool {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return tasks.NewPool("test", workers, queueSize, logrus.NewEntry(logger))
}

func TestPool_ExecutesSubmittedTasks(t *testing.T) {
	t.Parallel()
	pool := newPool(t, 2, 8)

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		err := pool.Submit(tasks.Task{
			Name: "inc",
			Run: func(ctx context.Context) error {
				count.Add(1)
				return nil
			},
		})
		require.NoError(t, err)
	}

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int32(5), count.Load())
}

func TestPool_TaskErrorDoesNotStopWorkers(t *testing.T) {
	t.Parallel()
	pool := newPool(t, 1, 8)

	var ran atomic.Bool
	require.NoError(t, pool.Submit(tasks.Task{
		Name: "fail",
		Run:  func(ctx context.Context) error { return errors.New("boom") },
	}))
	require.NoError(t, pool.Submit(tasks.Task{
		Name: "ok",
		Run: func(ctx context.Context) error {
			ran.Store(true)
			return nil
		},
	}))

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.True(t, ran.Load())
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	t.Parallel()
	pool := newPool(t, 1, 1)
	require.NoError(t, pool.Shutdown(context.Background()))

	err := pool.Submit(tasks.Task{Name: "late", Run: func(ctx context.Context) error { return nil }})
	assert.ErrorIs(t, err, tasks.ErrPoolClosed)
}

func TestPool_ConcurrentSubmitAndShutdown(t *testing.T) {
	t.Parallel()

	// Submitters racing Shutdown must get nil or ErrPoolClosed, never a
	// send on a closed queue.
	for i := 0; i < 200; i++ {
		pool := newPool(t, 1, 1)

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := pool.Submit(tasks.Task{
					Name: "race",
					Run:  func(ctx context.Context) error { return nil },
				})
				if err != nil {
					assert.ErrorIs(t, err, tasks.ErrPoolClosed)
				}
			}()
		}
		require.NoError(t, pool.Shutdown(context.Background()))
		wg.Wait()
	}
}

func TestPool_ShutdownWaitsForInflight(t *testing.T) {
	t.Parallel()
	pool := newPool(t, 1, 1)

	done := make(chan struct{})
	require.NoError(t, pool.Submit(tasks.Task{
		Name: "slow",
		Run: func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			close(done)
			return nil
		},
	}))

	require.NoError(t, pool.Shutdown(context.Background()))
	select {
	case <-done:
	default:
		t.Fatal("shutdown returned before in-flight task completed")
	}
}
