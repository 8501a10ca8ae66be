package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskTryTakeOnce(t *testing.T) {
	p := NewPool(context.Background(), 2)
	release := make(chan struct{})

	task, err := Spawn(p, func(ctx context.Context) int {
		<-release
		return 42
	})
	require.NoError(t, err)

	_, ok := task.TryTake()
	assert.False(t, ok, "незавершённая задача не отдаёт результат")

	close(release)
	<-task.Done()

	v, ok := task.TryTake()
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = task.TryTake()
	assert.False(t, ok, "результат выдаётся один раз")

	require.NoError(t, p.Close(context.Background()))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 3
	p := NewPool(context.Background(), workers)

	var current, peak atomic.Int64
	var list []*Task[struct{}]
	for i := 0; i < 20; i++ {
		task, err := Spawn(p, func(ctx context.Context) struct{} {
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return struct{}{}
		})
		require.NoError(t, err)
		list = append(list, task)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, task := range list {
		_, err := task.Wait(ctx)
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, peak.Load(), int64(workers))
	assert.Equal(t, 0, p.Running())
	assert.Equal(t, 0, p.Pending())
}

func TestPoolRecoversPanic(t *testing.T) {
	p := NewPool(context.Background(), 1)
	task, err := Spawn(p, func(ctx context.Context) *int {
		panic("boom")
	})
	require.NoError(t, err)

	v, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Nil(t, v)

	next, err := Spawn(p, func(ctx context.Context) int { return 7 })
	require.NoError(t, err)
	v2, err := next.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v2, "воркер освобождается после паники")
}

func TestPoolCloseWaitsAndRejects(t *testing.T) {
	p := NewPool(context.Background(), 1)
	var finished atomic.Bool
	_, err := Spawn(p, func(ctx context.Context) bool {
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return true
	})
	require.NoError(t, err)

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, finished.Load(), "Close дожидается запущенных задач")

	_, err = Spawn(p, func(ctx context.Context) int { return 1 })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolCloseHonoursContext(t *testing.T) {
	p := NewPool(context.Background(), 1)
	release := make(chan struct{})
	defer close(release)

	_, err := Spawn(p, func(ctx context.Context) int {
		<-release
		return 0
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Close(ctx), context.DeadlineExceeded)
}

func TestTaskWaitCancelled(t *testing.T) {
	p := NewPool(context.Background(), 1)
	release := make(chan struct{})
	defer close(release)

	task, err := Spawn(p, func(ctx context.Context) int {
		<-release
		return 0
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = task.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
