package queue

import (
	"context"
	"errors"
	"time"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

// ErrQueueFull is returned when the in-process queue cannot take more tasks
var ErrQueueFull = errors.New("bot task queue is full")

// MemoryQueue is an in-process queue for the single-binary mode
type MemoryQueue struct {
	tasks chan entities.BotTask
}

// NewMemoryQueue creates a queue holding up to capacity tasks
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryQueue{tasks: make(chan entities.BotTask, capacity)}
}

// Enqueue adds a task without blocking
func (q *MemoryQueue) Enqueue(ctx context.Context, task entities.BotTask) error {
	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Dequeue waits up to timeout for the next task. It returns nil, nil when
// the timeout elapsed.
func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*entities.BotTask, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case task := <-q.tasks:
		return &task, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of waiting tasks
func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	return int64(len(q.tasks)), nil
}
