package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/pkg/jobcontext"
)

const jobType = "focus_group_bot"

// TaskRunner executes one bot task
type TaskRunner interface {
	Execute(ctx context.Context, task entities.BotTask) error
}

// PoolOptions tunes the worker pool
type PoolOptions struct {
	Workers       int
	PollTimeout   time.Duration
	MaxRunTime    time.Duration
	LoadAttempts  int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
}

// DefaultPoolOptions returns the worker defaults
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		Workers:       2,
		PollTimeout:   5 * time.Second,
		MaxRunTime:    3 * time.Hour,
		LoadAttempts:  3,
		RetryBase:     time.Second,
		RetryMaxDelay: 30 * time.Second,
	}
}

// WorkerPool consumes bot tasks and runs one session per worker at a time
type WorkerPool struct {
	queue  Queue
	runner TaskRunner
	opts   PoolOptions
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorkerPool creates a worker pool
func NewWorkerPool(queue Queue, runner TaskRunner, opts PoolOptions, logger *zap.Logger) *WorkerPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultPoolOptions()
	if opts.Workers < 1 {
		opts.Workers = defaults.Workers
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = defaults.PollTimeout
	}
	if opts.LoadAttempts < 1 {
		opts.LoadAttempts = defaults.LoadAttempts
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaults.RetryBase
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = defaults.RetryMaxDelay
	}
	return &WorkerPool{queue: queue, runner: runner, opts: opts, logger: logger}
}

// Start launches the workers. They run until Stop is called or ctx is done.
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("worker pool already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.logger.Info("Starting bot worker pool", zap.Int("worker_count", p.opts.Workers))
	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	return nil
}

// Stop cancels running sessions and waits for every worker to return
func (p *WorkerPool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return fmt.Errorf("worker pool not running")
	}

	p.logger.Info("Stopping bot worker pool...")
	p.cancel()
	p.wg.Wait()
	p.running = false
	p.logger.Info("Bot worker pool stopped")
	return nil
}

func (p *WorkerPool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	logger := p.logger.With(zap.Int("worker_id", workerID))
	logger.Info("Worker started")

	failures := 0
	for {
		if ctx.Err() != nil {
			logger.Info("Worker stopping")
			return
		}

		task, err := p.queue.Dequeue(ctx, p.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			delay := jobcontext.CalculateBackoff(failures, p.opts.RetryBase, p.opts.RetryMaxDelay)
			failures++
			logger.Error("Failed to dequeue bot task", zap.Error(err), zap.Duration("retry_in", delay))
			sleep(ctx, delay)
			continue
		}
		failures = 0
		if task == nil {
			continue
		}

		p.process(ctx, workerID, *task)
	}
}

// process runs one task, retrying load failures with backoff
func (p *WorkerPool) process(ctx context.Context, workerID int, task entities.BotTask) {
	meta := jobcontext.JobMetadata{
		JobID:        task.ID,
		JobType:      jobType,
		SessionID:    task.SessionID,
		FocusGroupID: task.FocusGroupID,
		WorkerID:     workerID,
	}
	if meta.JobID == uuid.Nil {
		meta.JobID = uuid.New()
	}

	for attempt := 0; attempt < p.opts.LoadAttempts; attempt++ {
		jobCtx, cancel := jobcontext.JobBegin(ctx, meta, p.opts.MaxRunTime)
		logger := p.logger.With(jobcontext.Fields(jobCtx)...)
		logger.Info("Worker claimed bot task", zap.Int("attempt", attempt+1))

		err := jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
			return p.runner.Execute(ctx, task)
		})
		cancel()

		if err == nil {
			logger.Info("Bot task done")
			return
		}
		if !errors.Is(err, errLoad) || !jobcontext.IsRetryableError(err) || ctx.Err() != nil {
			logger.Error("Bot task failed", zap.Error(err))
			return
		}

		delay := jobcontext.CalculateBackoff(attempt, p.opts.RetryBase, p.opts.RetryMaxDelay)
		logger.Warn("Bot task failed, retrying", zap.Error(err), zap.Duration("retry_in", delay))
		sleep(ctx, delay)
	}
	p.logger.Error("Bot task gave up after retries",
		zap.String("task_id", task.ID.String()),
		zap.Int("attempts", p.opts.LoadAttempts))
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
