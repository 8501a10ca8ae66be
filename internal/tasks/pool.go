package tasks

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxel-engine/internal/logging"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed возвращается при попытке запустить задачу в закрытом пуле
var ErrPoolClosed = errors.New("пул задач закрыт")

// Pool выполняет задачи в горутинах, ограничивая число одновременно работающих.
// Задачи не отменяются: запущенная задача всегда доходит до конца.
type Pool struct {
	sem *semaphore.Weighted
	ctx context.Context

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	running atomic.Int64
	pending atomic.Int64
}

// NewPool создаёт пул на workers одновременных задач (<= 0 означает число CPU).
// ctx передаётся всем задачам пула.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		sem: semaphore.NewWeighted(int64(workers)),
		ctx: context.WithoutCancel(ctx),
	}
}

// Spawn ставит fn в очередь пула и сразу возвращает дескриптор.
// Паника внутри fn логируется, задача завершается нулевым результатом.
func Spawn[T any](p *Pool, fn func(ctx context.Context) T) (*Task[T], error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	t := newTask[T]()
	p.pending.Add(1)

	go func() {
		defer p.wg.Done()

		// Контекст пула не отменяется, поэтому Acquire не возвращает ошибку
		_ = p.sem.Acquire(p.ctx, 1)
		p.pending.Add(-1)
		p.running.Add(1)

		var result T
		defer func() {
			if r := recover(); r != nil {
				logging.Error("Паника в фоновой задаче: %v", r)
			}
			p.running.Add(-1)
			p.sem.Release(1)
			t.finish(result)
		}()

		result = fn(p.ctx)
	}()

	return t, nil
}

// Running возвращает число выполняющихся задач
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Pending возвращает число задач, ожидающих свободного воркера
func (p *Pool) Pending() int {
	return int(p.pending.Load())
}

// Close запрещает новые задачи и ждёт завершения запущенных либо отмены ctx
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
