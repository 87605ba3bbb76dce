package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

// SessionRepository defines the interface for focus group session persistence
type SessionRepository interface {
	// Create persists a new waiting/idle session for the focus group
	Create(ctx context.Context, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error)

	// Save writes the whole session in one step. Saving identical content twice is a no-op.
	// It never rewrites an ended session (entities.ErrSessionFinalized), never moves the
	// status backwards (entities.ErrSessionConflict) and keeps a stop recorded since the
	// copy was read, updating session in place.
	Save(ctx context.Context, session *entities.FocusGroupSession) error

	// SaveIfUnclaimed writes session only while the stored copy is still waiting with an
	// idle bot, and fails with entities.ErrSessionConflict otherwise.
	SaveIfUnclaimed(ctx context.Context, session *entities.FocusGroupSession) error

	// MarkStopRequested records a stop (botStatus ended, endedAt) on a session that has
	// not ended and returns the stored session. Ended sessions are returned unchanged.
	MarkStopRequested(ctx context.Context, id uuid.UUID, at time.Time) (*entities.FocusGroupSession, error)

	// FindByID finds a session by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.FocusGroupSession, error)

	// FindLatestByFocusGroup returns the most recently created session of a focus group
	FindLatestByFocusGroup(ctx context.Context, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error)

	// FindStale returns non-terminal sessions not updated since before
	FindStale(ctx context.Context, before time.Time) ([]*entities.FocusGroupSession, error)
}
