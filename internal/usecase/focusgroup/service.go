package focusgroup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/internal/domain/repositories"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/external/calendar"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/external/livekit"
	usecaseErrors "github.com/johnquangdev/focus-group-bot/internal/usecase/errors"
	"github.com/johnquangdev/focus-group-bot/pkg/validator"
)

const roomPrefix = "fg-"

// Service defines the interface for the focus group use case
type Service interface {
	// CreateFocusGroup schedules a focus group with its meeting room and invite
	CreateFocusGroup(ctx context.Context, input CreateFocusGroupInput) (*entities.FocusGroup, error)

	// ListFocusGroups lists the focus groups of a user
	ListFocusGroups(ctx context.Context, ownerID uuid.UUID) ([]*entities.FocusGroup, error)

	// GetFocusGroup returns a focus group owned by the user
	GetFocusGroup(ctx context.Context, ownerID, focusGroupID uuid.UUID) (*entities.FocusGroup, error)

	// MarkParticipantJoined records that an invitee entered the meeting room (for webhooks)
	MarkParticipantJoined(ctx context.Context, roomName, email string) error
}

// CalendarScheduler sends calendar invitations
type CalendarScheduler interface {
	CreateEvent(ctx context.Context, invite calendar.Invite) (string, error)
}

// CreateFocusGroupInput holds the data needed to schedule a focus group
type CreateFocusGroupInput struct {
	OwnerID         uuid.UUID
	Title           string `json:"title" validate:"required,max=255"`
	Description     string `json:"description" validate:"max=5000"`
	QuestionnaireID uuid.UUID
	ScheduledAt     time.Time          `json:"scheduled_at"`
	Duration        int                `json:"duration" validate:"omitempty,min=5,max=480"`
	Participants    []ParticipantInput `json:"participants" validate:"max=100,distinct_emails,dive"`
	Settings        SettingsInput      `json:"settings"`
}

// ParticipantInput is one invitee
type ParticipantInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=255"`
}

// SettingsInput overrides moderation defaults. Zero values keep the default.
type SettingsInput struct {
	MaxParticipants     int   `json:"max_participants" validate:"omitempty,min=1,max=100"`
	TimePerQuestion     int   `json:"time_per_question" validate:"omitempty,min=1,max=600"`
	EnableSummarization *bool `json:"enable_summarization"`
}

// FocusGroupService implements Service
type FocusGroupService struct {
	focusGroups    repositories.FocusGroupRepository
	questionnaires repositories.QuestionnaireRepository
	rooms          livekit.Client
	calendar       CalendarScheduler
	validator      *validator.CustomValidator
	meetingBaseURL string
	logger         *zap.Logger
}

var _ Service = (*FocusGroupService)(nil)

// NewFocusGroupService creates a new focus group service. A nil calendar
// disables invitations.
func NewFocusGroupService(
	focusGroups repositories.FocusGroupRepository,
	questionnaires repositories.QuestionnaireRepository,
	rooms livekit.Client,
	calendar CalendarScheduler,
	meetingBaseURL string,
	logger *zap.Logger,
) *FocusGroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FocusGroupService{
		focusGroups:    focusGroups,
		questionnaires: questionnaires,
		rooms:          rooms,
		calendar:       calendar,
		validator:      validator.New(),
		meetingBaseURL: strings.TrimRight(meetingBaseURL, "/"),
		logger:         logger,
	}
}

// CreateFocusGroup validates the request, creates the LiveKit room, sends
// the calendar invitation and stores the focus group
func (s *FocusGroupService) CreateFocusGroup(ctx context.Context, input CreateFocusGroupInput) (*entities.FocusGroup, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	questionnaire, err := s.questionnaires.FindByID(ctx, input.QuestionnaireID)
	if err != nil {
		if errors.Is(err, entities.ErrQuestionnaireNotFound) {
			return nil, usecaseErrors.ErrQuestionnaireNotFound
		}
		return nil, fmt.Errorf("failed to get questionnaire: %w", err)
	}
	switch {
	case questionnaire.OwnerID != input.OwnerID:
		return nil, usecaseErrors.ErrQuestionnaireNotOwned
	case !questionnaire.IsActive:
		return nil, usecaseErrors.ErrQuestionnaireInactive
	case len(questionnaire.OrderedQuestions()) == 0:
		return nil, usecaseErrors.ErrNoQuestions
	}

	settings := entities.DefaultFocusGroupSettings()
	if input.Settings.MaxParticipants > 0 {
		settings.MaxParticipants = input.Settings.MaxParticipants
	}
	if input.Settings.TimePerQuestion > 0 {
		settings.TimePerQuestion = input.Settings.TimePerQuestion
	}
	if input.Settings.EnableSummarization != nil {
		settings.EnableSummarization = *input.Settings.EnableSummarization
	}
	if len(input.Participants) > settings.MaxParticipants {
		return nil, fmt.Errorf("%w: %d participants exceed the limit of %d",
			usecaseErrors.ErrInvalidInput, len(input.Participants), settings.MaxParticipants)
	}

	participants := make([]entities.FocusGroupParticipant, 0, len(input.Participants))
	for _, p := range input.Participants {
		participants = append(participants, entities.FocusGroupParticipant{Email: p.Email, Name: p.Name})
	}

	fg := entities.NewFocusGroup(
		strings.TrimSpace(input.Title),
		strings.TrimSpace(input.Description),
		input.OwnerID,
		questionnaire.ID,
		input.ScheduledAt,
		input.Duration,
		participants,
		settings,
	)
	fg.Questionnaire = questionnaire

	roomName := roomPrefix + fg.ID.String()
	room, err := s.rooms.CreateRoom(ctx, roomName, &livekit.CreateRoomOptions{
		// one extra seat for the moderator bot
		MaxParticipants:  int32(settings.MaxParticipants + 1),
		EmptyTimeout:     600,
		DepartureTimeout: 60,
		Metadata:         fg.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrLivekitRoom, err)
	}
	fg.MeetingID = room.Name
	fg.MeetingLink = s.meetingBaseURL + "/" + room.Name

	if s.calendar != nil {
		eventID, err := s.calendar.CreateEvent(ctx, s.invite(fg))
		if err != nil {
			s.dropRoom(ctx, room.Name)
			return nil, fmt.Errorf("%w: %v", usecaseErrors.ErrCalendarFailed, err)
		}
		fg.CalendarEventID = eventID
	}

	if err := s.focusGroups.Create(ctx, fg); err != nil {
		s.dropRoom(ctx, room.Name)
		return nil, fmt.Errorf("failed to create focus group: %w", err)
	}

	s.logger.Info("Focus group scheduled",
		zap.String("focus_group_id", fg.ID.String()),
		zap.String("room", fg.MeetingID),
		zap.Int("participants", len(fg.Participants)),
		zap.Bool("calendar_invite", fg.CalendarEventID != ""))
	return fg, nil
}

// ListFocusGroups lists the focus groups of a user, latest scheduled first
func (s *FocusGroupService) ListFocusGroups(ctx context.Context, ownerID uuid.UUID) ([]*entities.FocusGroup, error) {
	groups, err := s.focusGroups.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list focus groups: %w", err)
	}
	return groups, nil
}

// GetFocusGroup returns the focus group when the user owns it
func (s *FocusGroupService) GetFocusGroup(ctx context.Context, ownerID, focusGroupID uuid.UUID) (*entities.FocusGroup, error) {
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

// MarkParticipantJoined flips an invitee to joined. Identities are emails.
func (s *FocusGroupService) MarkParticipantJoined(ctx context.Context, roomName, email string) error {
	fg, err := s.focusGroups.FindByMeetingID(ctx, roomName)
	if err != nil {
		if errors.Is(err, entities.ErrFocusGroupNotFound) {
			return usecaseErrors.ErrFocusGroupNotFound
		}
		return fmt.Errorf("failed to get focus group: %w", err)
	}

	joined := false
	_, err = s.focusGroups.Update(ctx, fg.ID, func(fresh *entities.FocusGroup) error {
		before, _ := participantStatus(fresh, email)
		if !fresh.MarkParticipantJoined(email) {
			return usecaseErrors.ErrUnknownParticipant
		}
		joined = before == entities.ParticipantStatusInvited
		return nil
	})
	switch {
	case errors.Is(err, usecaseErrors.ErrUnknownParticipant):
		return err
	case errors.Is(err, entities.ErrFocusGroupNotFound):
		return usecaseErrors.ErrFocusGroupNotFound
	case err != nil:
		return fmt.Errorf("failed to update participant: %w", err)
	}

	if joined {
		s.logger.Info("Participant joined focus group",
			zap.String("focus_group_id", fg.ID.String()),
			zap.String("email", email))
	}
	return nil
}

func (s *FocusGroupService) validate(input CreateFocusGroupInput) error {
	if input.OwnerID == uuid.Nil {
		return usecaseErrors.ErrUnauthorized
	}
	if input.QuestionnaireID == uuid.Nil {
		return fmt.Errorf("%w: questionnaire_id: required", usecaseErrors.ErrInvalidInput)
	}
	if err := s.validator.Validate(input); err != nil {
		return fmt.Errorf("%w: %s", usecaseErrors.ErrInvalidInput, validator.Describe(err))
	}
	if input.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: scheduled_at: required", usecaseErrors.ErrInvalidInput)
	}
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title: required", usecaseErrors.ErrInvalidInput)
	}
	return nil
}

func (s *FocusGroupService) invite(fg *entities.FocusGroup) calendar.Invite {
	attendees := make([]string, 0, len(fg.Participants))
	for _, p := range fg.Participants {
		attendees = append(attendees, p.Email)
	}
	return calendar.Invite{
		Title:       fg.Title,
		Description: fg.Description,
		MeetingLink: fg.MeetingLink,
		Start:       fg.ScheduledAt,
		Duration:    time.Duration(fg.Duration) * time.Minute,
		Attendees:   attendees,
	}
}

// dropRoom removes a room created for a focus group that was not stored
func (s *FocusGroupService) dropRoom(ctx context.Context, name string) {
	if err := s.rooms.DeleteRoom(context.WithoutCancel(ctx), name); err != nil {
		s.logger.Warn("Failed to delete orphaned room", zap.String("room", name), zap.Error(err))
	}
}

func participantStatus(fg *entities.FocusGroup, email string) (entities.ParticipantStatus, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range fg.Participants {
		if p.Email == email {
			return p.Status, true
		}
	}
	return "", false
}
