package tasks

import (
	"context"
)

// Task представляет дескриптор фоновой задачи. Результат забирается неблокирующим TryTake
// один раз за тик либо блокирующим Wait.
type Task[T any] struct {
	done   chan struct{}
	result T
	taken  bool
}

func newTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

func (t *Task[T]) finish(v T) {
	t.result = v
	close(t.done)
}

// Done возвращает канал, закрывающийся по завершении задачи
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Finished сообщает, завершена ли задача
func (t *Task[T]) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// TryTake возвращает результат, если задача завершена. Результат выдаётся один раз.
// Не потокобезопасен: задачей владеет один опрашивающий.
func (t *Task[T]) TryTake() (T, bool) {
	var zero T
	if t.taken || !t.Finished() {
		return zero, false
	}
	t.taken = true
	return t.result, true
}

// Wait блокируется до завершения задачи или отмены ctx
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
