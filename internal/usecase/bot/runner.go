package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/internal/domain/repositories"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/orchestrator"
	"github.com/johnquangdev/focus-group-bot/pkg/jobcontext"
)

// errLoad marks failures that happened before the orchestrator took over the
// session. Only those are worth retrying.
var errLoad = errors.New("failed to load bot task")

// SessionRunner runs one session to completion
type SessionRunner interface {
	Run(ctx context.Context, fg *entities.FocusGroup, session *entities.FocusGroupSession) orchestrator.Result
}

// Runner loads the records behind a task and runs the orchestrator
type Runner struct {
	focusGroups  repositories.FocusGroupRepository
	sessions     repositories.SessionRepository
	orchestrator SessionRunner
	logger       *zap.Logger
}

// NewRunner creates a task runner
func NewRunner(
	focusGroups repositories.FocusGroupRepository,
	sessions repositories.SessionRepository,
	orch SessionRunner,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{focusGroups: focusGroups, sessions: sessions, orchestrator: orch, logger: logger}
}

// Execute runs the session of task. Run failures are recorded on the session;
// only load and persistence errors are returned.
func (r *Runner) Execute(ctx context.Context, task entities.BotTask) error {
	logger := r.logger.With(jobcontext.Fields(ctx)...)

	session, err := r.sessions.FindByID(ctx, task.SessionID)
	if err != nil {
		if errors.Is(err, entities.ErrSessionNotFound) {
			logger.Warn("Session of bot task no longer exists")
			return nil
		}
		return fmt.Errorf("%w: session: %v", errLoad, err)
	}
	if session.IsTerminal() {
		logger.Info("Session already closed, skipping", zap.String("status", string(session.Status)))
		return nil
	}

	fg, err := r.focusGroups.FindByID(ctx, task.FocusGroupID)
	if err != nil {
		if errors.Is(err, entities.ErrFocusGroupNotFound) {
			r.abandon(ctx, session, err, "load")
			return nil
		}
		return fmt.Errorf("%w: focus group: %v", errLoad, err)
	}

	result := r.run(ctx, fg, session)
	logger.Info("Bot run finished",
		zap.String("status", string(result.Status)),
		zap.Int("questions_asked", result.QuestionsAsked),
		zap.Error(result.Err))

	if errors.Is(result.Err, orchestrator.ErrPersistence) {
		return result.Err
	}
	return nil
}

// run converts a panic inside the orchestrator into a failed session built on
// the latest checkpoint
func (r *Runner) run(ctx context.Context, fg *entities.FocusGroup, session *entities.FocusGroupSession) (result orchestrator.Result) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		err := fmt.Errorf("panic: %v", p)
		r.logger.Error("Bot run panicked",
			zap.String("session_id", session.ID.String()),
			zap.Any("panic", p),
			zap.Stack("stack"))

		ctx := context.WithoutCancel(ctx)
		latest := session
		if stored, loadErr := r.sessions.FindByID(ctx, session.ID); loadErr == nil {
			latest = stored
		}
		r.abandon(ctx, latest, err, "panic")
		result = orchestrator.Result{
			SessionID:      session.ID,
			Status:         latest.Status,
			QuestionsAsked: len(latest.QuestionResponses),
			Err:            err,
		}
	}()
	return r.orchestrator.Run(ctx, fg, session)
}

// abandon fails a session the orchestrator cannot finish
func (r *Runner) abandon(ctx context.Context, session *entities.FocusGroupSession, cause error, step string) {
	now := time.Now()
	if session.IsTerminal() {
		return
	}
	session.LogError(now, cause, step)
	if err := session.Fail(now); err != nil {
		return
	}
	session.UpdatedAt = now
	if err := r.sessions.Save(ctx, session); err != nil {
		r.logger.Error("Failed to save abandoned session",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	}
}
