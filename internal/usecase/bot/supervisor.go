package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

// Queue carries bot tasks from the API to the workers
type Queue interface {
	Enqueue(ctx context.Context, task entities.BotTask) error
	Dequeue(ctx context.Context, timeout time.Duration) (*entities.BotTask, error)
}

// QueueSupervisor launches bots by enqueuing their task
type QueueSupervisor struct {
	queue  Queue
	logger *zap.Logger
}

var _ Launcher = (*QueueSupervisor)(nil)

// NewQueueSupervisor creates a supervisor backed by queue
func NewQueueSupervisor(queue Queue, logger *zap.Logger) *QueueSupervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueSupervisor{queue: queue, logger: logger}
}

// Launch enqueues the task and returns immediately
func (s *QueueSupervisor) Launch(ctx context.Context, task entities.BotTask) error {
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue bot task: %w", err)
	}
	s.logger.Debug("Bot task enqueued",
		zap.String("task_id", task.ID.String()),
		zap.String("session_id", task.SessionID.String()))
	return nil
}
