package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/internal/domain/repositories"
)

// focusGroupRepository implements the FocusGroupRepository interface
type focusGroupRepository struct {
	db *gorm.DB
}

// NewFocusGroupRepository creates a new focus group repository
func NewFocusGroupRepository(db *gorm.DB) repositories.FocusGroupRepository {
	return &focusGroupRepository{db: db}
}

// Create creates a new focus group
func (r *focusGroupRepository) Create(ctx context.Context, fg *entities.FocusGroup) error {
	return r.db.WithContext(ctx).Omit("Questionnaire").Create(fg).Error
}

// Update locks the row, applies fn and writes status and participants back
func (r *focusGroupRepository) Update(ctx context.Context, id uuid.UUID, fn func(fg *entities.FocusGroup) error) (*entities.FocusGroup, error) {
	var fg entities.FocusGroup
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&fg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entities.ErrFocusGroupNotFound
			}
			return err
		}
		if err := fn(&fg); err != nil {
			return err
		}
		fg.UpdatedAt = time.Now()
		return tx.Model(&fg).Select("status", "participants", "updated_at").Updates(&fg).Error
	})
	if err != nil {
		return nil, err
	}
	return &fg, nil
}

// FindByID retrieves a focus group by its ID
func (r *focusGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.FocusGroup, error) {
	var fg entities.FocusGroup
	err := r.db.WithContext(ctx).
		Preload("Questionnaire").
		Where("id = ?", id).
		First(&fg).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrFocusGroupNotFound
		}
		return nil, err
	}
	return &fg, nil
}

// FindByMeetingID retrieves a focus group by its LiveKit room name
func (r *focusGroupRepository) FindByMeetingID(ctx context.Context, meetingID string) (*entities.FocusGroup, error) {
	var fg entities.FocusGroup
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		First(&fg).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrFocusGroupNotFound
		}
		return nil, err
	}
	return &fg, nil
}

// ListByOwner retrieves all focus groups created by a user
func (r *focusGroupRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.FocusGroup, error) {
	var groups []*entities.FocusGroup
	err := r.db.WithContext(ctx).
		Where("created_by = ?", ownerID).
		Order("scheduled_at DESC").
		Find(&groups).Error
	return groups, err
}

// questionnaireRepository gives read access to questionnaires
type questionnaireRepository struct {
	db *gorm.DB
}

// NewQuestionnaireRepository creates a new questionnaire repository
func NewQuestionnaireRepository(db *gorm.DB) repositories.QuestionnaireRepository {
	return &questionnaireRepository{db: db}
}

// FindByID retrieves a questionnaire by its ID
func (r *questionnaireRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Questionnaire, error) {
	var q entities.Questionnaire
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrQuestionnaireNotFound
		}
		return nil, err
	}
	return &q, nil
}
