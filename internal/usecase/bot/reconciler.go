package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/internal/domain/repositories"
)

// ErrStale is logged on sessions the reconciler closes
var ErrStale = errors.New("session abandoned: no progress recorded")

// Reconciler fails sessions whose bot vanished without closing them
type Reconciler struct {
	sessions   repositories.SessionRepository
	staleAfter time.Duration
	now        func() time.Time
	logger     *zap.Logger
	cron       *cron.Cron
}

// NewReconciler creates a reconciler for sessions idle longer than staleAfter
func NewReconciler(sessions repositories.SessionRepository, staleAfter time.Duration, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	return &Reconciler{sessions: sessions, staleAfter: staleAfter, now: time.Now, logger: logger}
}

// Reconcile closes every stale session once and returns how many it failed
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	now := r.now()
	stale, err := r.sessions.FindStale(ctx, now.Add(-r.staleAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to find stale sessions: %w", err)
	}

	failed := 0
	for _, session := range stale {
		lastUpdate := session.UpdatedAt
		session.LogError(now, ErrStale, "reconcile")
		if err := session.Fail(now); err != nil {
			continue
		}
		session.UpdatedAt = now
		if err := r.sessions.Save(ctx, session); err != nil {
			if errors.Is(err, entities.ErrSessionFinalized) {
				r.logger.Info("Stale session closed meanwhile", zap.String("session_id", session.ID.String()))
				continue
			}
			r.logger.Error("Failed to fail stale session",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
			continue
		}
		failed++
		r.logger.Warn("Stale session failed",
			zap.String("session_id", session.ID.String()),
			zap.Time("last_update", lastUpdate))
	}
	return failed, nil
}

// Start schedules Reconcile on a cron spec such as "@every 1m"
func (r *Reconciler) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := r.Reconcile(context.Background()); err != nil {
			r.logger.Error("Reconcile run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	r.cron = c
	c.Start()
	r.logger.Info("Reconciler scheduled", zap.String("spec", spec), zap.Duration("stale_after", r.staleAfter))
	return nil
}

// Stop halts the schedule and waits for a running pass
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
