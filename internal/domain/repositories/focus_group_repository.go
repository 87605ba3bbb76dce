package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

// FocusGroupRepository defines the interface for focus group data access
type FocusGroupRepository interface {
	// Create creates a new focus group
	Create(ctx context.Context, fg *entities.FocusGroup) error

	// Update applies fn to a fresh copy of the focus group and writes its status and
	// participants back while holding the row, so concurrent updates never overwrite
	// each other. An error from fn aborts without writing.
	Update(ctx context.Context, id uuid.UUID, fn func(fg *entities.FocusGroup) error) (*entities.FocusGroup, error)

	// FindByID finds a focus group by ID with its questionnaire loaded
	FindByID(ctx context.Context, id uuid.UUID) (*entities.FocusGroup, error)

	// FindByMeetingID finds the focus group bound to a meeting room
	FindByMeetingID(ctx context.Context, meetingID string) (*entities.FocusGroup, error)

	// ListByOwner lists focus groups created by a user, newest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.FocusGroup, error)
}

// QuestionnaireRepository gives read access to questionnaires
type QuestionnaireRepository interface {
	// FindByID finds a questionnaire by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Questionnaire, error)
}
