package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/internal/domain/repositories"
)

// SessionRepository implements the session repository interface using GORM.
// Nested lists live in JSONB columns so every Save is a single-row write.
type SessionRepository struct {
	db *gorm.DB
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

// Create creates a new waiting session
func (r *SessionRepository) Create(ctx context.Context, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error) {
	session := entities.NewFocusGroupSession(focusGroupID)
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Save writes the whole session row under a row lock, after checking it
// against the stored copy
func (r *SessionRepository) Save(ctx context.Context, session *entities.FocusGroupSession) error {
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now()
	}
	err := r.locked(ctx, session.ID, func(tx *gorm.DB, stored *entities.FocusGroupSession) error {
		if stored == nil {
			return tx.Create(session).Error
		}
		write, err := session.Supersede(stored)
		if err != nil || !write {
			return err
		}
		return tx.Save(session).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SaveIfUnclaimed closes a session no worker picked up yet
func (r *SessionRepository) SaveIfUnclaimed(ctx context.Context, session *entities.FocusGroupSession) error {
	err := r.locked(ctx, session.ID, func(tx *gorm.DB, stored *entities.FocusGroupSession) error {
		if stored == nil {
			return entities.ErrSessionNotFound
		}
		if !stored.IsUnclaimed() {
			return fmt.Errorf("%w: session is %s/%s", entities.ErrSessionConflict, stored.Status, stored.BotStatus)
		}
		return tx.Save(session).Error
	})
	if err != nil {
		return fmt.Errorf("failed to close unclaimed session: %w", err)
	}
	return nil
}

// MarkStopRequested sets botStatus ended and endedAt unless the session ended
func (r *SessionRepository) MarkStopRequested(ctx context.Context, id uuid.UUID, at time.Time) (*entities.FocusGroupSession, error) {
	var out *entities.FocusGroupSession
	err := r.locked(ctx, id, func(tx *gorm.DB, stored *entities.FocusGroupSession) error {
		if stored == nil {
			return entities.ErrSessionNotFound
		}
		out = stored
		if stored.IsTerminal() {
			return nil
		}
		stored.RequestStop(at)
		stored.UpdatedAt = at
		return tx.Model(stored).
			Select("bot_status", "ended_at", "updated_at").
			Updates(stored).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record stop: %w", err)
	}
	return out, nil
}

// locked runs fn in a transaction holding the session row lock. stored is nil
// when the row does not exist.
func (r *SessionRepository) locked(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, stored *entities.FocusGroupSession) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored entities.FocusGroupSession
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&stored).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fn(tx, nil)
		case err != nil:
			return err
		}
		return fn(tx, &stored)
	})
}

// FindByID finds a session by ID
func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.FocusGroupSession, error) {
	var session entities.FocusGroupSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session by ID: %w", err)
	}
	return &session, nil
}

// FindLatestByFocusGroup finds the most recently created session of a focus group
func (r *SessionRepository) FindLatestByFocusGroup(ctx context.Context, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error) {
	var session entities.FocusGroupSession
	if err := r.db.WithContext(ctx).
		Where("focus_group_id = ?", focusGroupID).
		Order("created_at DESC").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find latest session: %w", err)
	}
	return &session, nil
}

// FindStale finds waiting or in-progress sessions not updated since before
func (r *SessionRepository) FindStale(ctx context.Context, before time.Time) ([]*entities.FocusGroupSession, error) {
	var sessions []*entities.FocusGroupSession
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", []entities.SessionStatus{
			entities.SessionStatusWaiting,
			entities.SessionStatusInProgress,
		}, before).
		Order("updated_at ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to find stale sessions: %w", err)
	}
	return sessions, nil
}
