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
	"github.com/johnquangdev/focus-group-bot/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/focus-group-bot/internal/usecase/errors"
	"github.com/johnquangdev/focus-group-bot/internal/usecase/orchestrator"
)

// Service defines the interface for the bot use case
type Service interface {
	// StartBot creates a waiting session and hands it to the supervisor
	StartBot(ctx context.Context, ownerID, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error)

	// StopBot requests an administrative stop of a session
	StopBot(ctx context.Context, ownerID, sessionID uuid.UUID) (*entities.FocusGroupSession, error)

	// SessionStatus returns the current session of a focus group
	SessionStatus(ctx context.Context, ownerID, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error)
}

// Launcher hands a task to whatever runs the bot
type Launcher interface {
	Launch(ctx context.Context, task entities.BotTask) error
}

// StopRequester raises stop signals read by running orchestrators
type StopRequester interface {
	RequestStop(ctx context.Context, sessionID uuid.UUID) error
}

// BotService implements Service
type BotService struct {
	focusGroups repositories.FocusGroupRepository
	sessions    repositories.SessionRepository
	launcher    Launcher
	stop        StopRequester
	now         func() time.Time
	logger      *zap.Logger

	// serializes the running-session check with session creation
	startMu sync.Mutex
}

var _ Service = (*BotService)(nil)

// NewBotService creates a new bot service
func NewBotService(
	focusGroups repositories.FocusGroupRepository,
	sessions repositories.SessionRepository,
	launcher Launcher,
	stop StopRequester,
	logger *zap.Logger,
) *BotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BotService{
		focusGroups: focusGroups,
		sessions:    sessions,
		launcher:    launcher,
		stop:        stop,
		now:         time.Now,
		logger:      logger,
	}
}

// StartBot creates a waiting session and enqueues the bot task. It returns
// as soon as the task is handed over; run outcomes are only visible through
// the session store.
func (s *BotService) StartBot(ctx context.Context, ownerID, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error) {
	fg, err := s.ownedFocusGroup(ctx, ownerID, focusGroupID)
	if err != nil {
		return nil, err
	}
	if fg.Status == entities.FocusGroupStatusCancelled {
		return nil, usecaseErrors.ErrFocusGroupCancelled
	}
	if len(fg.Questions()) == 0 {
		return nil, usecaseErrors.ErrNoQuestions
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	latest, err := s.sessions.FindLatestByFocusGroup(ctx, focusGroupID)
	switch {
	case err == nil && !latest.IsTerminal():
		return nil, fmt.Errorf("%w: session %s is %s", usecaseErrors.ErrBotAlreadyRunning, latest.ID, latest.Status)
	case err != nil && !errors.Is(err, entities.ErrSessionNotFound):
		return nil, fmt.Errorf("failed to get current session: %w", err)
	}

	session, err := s.sessions.Create(ctx, focusGroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	task := entities.NewBotTask(focusGroupID, session.ID)
	if err := s.launcher.Launch(ctx, task); err != nil {
		s.logger.Error("Failed to launch bot",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))

		now := s.now()
		session.LogError(now, err, "launch")
		session.UpdatedAt = now
		if ferr := session.Fail(now); ferr == nil {
			if serr := s.sessions.Save(ctx, session); serr != nil {
				s.logger.Error("Failed to save session after launch failure", zap.Error(serr))
			}
		}
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrLaunchFailed, err)
	}

	s.logger.Info("Bot launched",
		zap.String("focus_group_id", focusGroupID.String()),
		zap.String("session_id", session.ID.String()),
		zap.String("task_id", task.ID.String()))
	return session, nil
}

// StopBot raises the stop signal and records the request. A session that no
// worker picked up yet is closed directly; a running one is only marked so the
// orchestrator finishes it. Terminal sessions are returned unchanged.
func (s *BotService) StopBot(ctx context.Context, ownerID, sessionID uuid.UUID) (*entities.FocusGroupSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, entities.ErrSessionNotFound) {
			return nil, usecaseErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if _, err := s.ownedFocusGroup(ctx, ownerID, session.FocusGroupID); err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return session, nil
	}

	if err := s.stop.RequestStop(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrStopFailed, err)
	}

	now := s.now()
	if session.IsUnclaimed() {
		closed, err := s.closeUnclaimed(ctx, session, now)
		if err == nil {
			s.logStop(closed)
			return closed, nil
		}
		if !errors.Is(err, entities.ErrSessionConflict) {
			return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrStopFailed, err)
		}
		// a worker claimed it meanwhile
	}

	marked, err := s.sessions.MarkStopRequested(ctx, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrStopFailed, err)
	}
	s.logStop(marked)
	return marked, nil
}

func (s *BotService) closeUnclaimed(ctx context.Context, session *entities.FocusGroupSession, now time.Time) (*entities.FocusGroupSession, error) {
	closed := session.Clone()
	closed.LogError(now, orchestrator.ErrStopped, "stop")
	if err := closed.Complete(now); err != nil {
		return nil, err
	}
	closed.UpdatedAt = now
	if err := s.sessions.SaveIfUnclaimed(ctx, closed); err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *BotService) logStop(session *entities.FocusGroupSession) {
	s.logger.Info("Bot stop requested",
		zap.String("session_id", session.ID.String()),
		zap.String("status", string(session.Status)),
		zap.String("bot_status", string(session.BotStatus)))
}

// SessionStatus returns the most recently created session of a focus group
func (s *BotService) SessionStatus(ctx context.Context, ownerID, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error) {
	if _, err := s.ownedFocusGroup(ctx, ownerID, focusGroupID); err != nil {
		return nil, err
	}

	session, err := s.sessions.FindLatestByFocusGroup(ctx, focusGroupID)
	if err != nil {
		if errors.Is(err, entities.ErrSessionNotFound) {
			return nil, usecaseErrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (s *BotService) ownedFocusGroup(ctx context.Context, ownerID, focusGroupID uuid.UUID) (*entities.FocusGroup, error) {
	fg, err := s.focusGroups.FindByID(ctx, focusGroupID)
	if err != nil {
		if errors.Is(err, entities.ErrFocusGroupNotFound) {
			return nil, usecaseErrors.ErrFocusGroupNotFound
		}
		return nil, fmt.Errorf("failed to get focus group: %w", err)
	}
	if !fg.IsOwnedBy(ownerID) {
		return nil, usecaseErrors.ErrNotOwner
	}
	return fg, nil
}
