package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FocusGroupStatus represents the lifecycle of a scheduled focus group
type FocusGroupStatus string

const (
	FocusGroupStatusScheduled  FocusGroupStatus = "scheduled"
	FocusGroupStatusInProgress FocusGroupStatus = "in-progress"
	FocusGroupStatusCompleted  FocusGroupStatus = "completed"
	FocusGroupStatusCancelled  FocusGroupStatus = "cancelled"
)

// ParticipantStatus tracks an invitee through the meeting
type ParticipantStatus string

const (
	ParticipantStatusInvited   ParticipantStatus = "invited"
	ParticipantStatusJoined    ParticipantStatus = "joined"
	ParticipantStatusCompleted ParticipantStatus = "completed"
)

const (
	DefaultMaxParticipants = 20
	DefaultTimePerQuestion = 5 // seconds
	DefaultDurationMinutes = 60
)

// FocusGroupParticipant is an invitee of a focus group
type FocusGroupParticipant struct {
	Email  string            `json:"email"`
	Name   string            `json:"name"`
	Status ParticipantStatus `json:"status"`
}

// FocusGroupSettings controls how the bot moderates the meeting
type FocusGroupSettings struct {
	MaxParticipants     int  `json:"max_participants"`
	TimePerQuestion     int  `json:"time_per_question"` // seconds of listening per question
	EnableSummarization bool `json:"enable_summarization"`
}

// DefaultFocusGroupSettings returns the settings applied when none are given
func DefaultFocusGroupSettings() FocusGroupSettings {
	return FocusGroupSettings{
		MaxParticipants:     DefaultMaxParticipants,
		TimePerQuestion:     DefaultTimePerQuestion,
		EnableSummarization: true,
	}
}

// ListenWindow is the upper bound of the listening window for one question
func (s FocusGroupSettings) ListenWindow() time.Duration {
	seconds := s.TimePerQuestion
	if seconds <= 0 {
		seconds = DefaultTimePerQuestion
	}
	return time.Duration(seconds) * time.Second
}

// FocusGroup is a scheduled moderated meeting against a questionnaire
type FocusGroup struct {
	ID              uuid.UUID                              `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title           string                                 `gorm:"type:varchar(255);not null" json:"title"`
	Description     string                                 `gorm:"type:text" json:"description"`
	CreatedBy       uuid.UUID                              `gorm:"type:uuid;not null;index" json:"created_by"`
	QuestionnaireID uuid.UUID                              `gorm:"type:uuid;not null;index" json:"questionnaire_id"`
	Questionnaire   *Questionnaire                         `gorm:"foreignKey:QuestionnaireID" json:"questionnaire,omitempty"`
	Participants    []FocusGroupParticipant                `gorm:"type:jsonb;serializer:json" json:"participants"`
	ScheduledAt     time.Time                              `gorm:"not null;index" json:"scheduled_at"`
	Duration        int                                    `gorm:"not null;default:60" json:"duration"` // minutes
	Status          FocusGroupStatus                       `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	MeetingLink     string                                 `gorm:"type:text" json:"meeting_link"`
	MeetingID       string                                 `gorm:"type:varchar(255);index" json:"meeting_id"`
	CalendarEventID string                                 `gorm:"type:varchar(255)" json:"calendar_event_id,omitempty"`
	Settings        datatypes.JSONType[FocusGroupSettings] `gorm:"type:jsonb" json:"settings"`
	CreatedAt       time.Time                              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                              `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (FocusGroup) TableName() string {
	return "focus_groups"
}

// NewFocusGroup creates a scheduled focus group with invited participants
func NewFocusGroup(title, description string, owner, questionnaireID uuid.UUID, scheduledAt time.Time, duration int, participants []FocusGroupParticipant, settings FocusGroupSettings) *FocusGroup {
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}
	if settings.MaxParticipants <= 0 {
		settings.MaxParticipants = DefaultMaxParticipants
	}
	if settings.TimePerQuestion <= 0 {
		settings.TimePerQuestion = DefaultTimePerQuestion
	}

	invited := make([]FocusGroupParticipant, 0, len(participants))
	for _, p := range participants {
		invited = append(invited, FocusGroupParticipant{
			Email:  strings.ToLower(strings.TrimSpace(p.Email)),
			Name:   strings.TrimSpace(p.Name),
			Status: ParticipantStatusInvited,
		})
	}

	now := time.Now()
	return &FocusGroup{
		ID:              uuid.New(),
		Title:           title,
		Description:     description,
		CreatedBy:       owner,
		QuestionnaireID: questionnaireID,
		Participants:    invited,
		ScheduledAt:     scheduledAt,
		Duration:        duration,
		Status:          FocusGroupStatusScheduled,
		Settings:        datatypes.NewJSONType(settings),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// BotSettings returns the moderation settings
func (fg *FocusGroup) BotSettings() FocusGroupSettings {
	return fg.Settings.Data()
}

// Questions returns the ordered questions of the loaded questionnaire
func (fg *FocusGroup) Questions() []Question {
	return fg.Questionnaire.OrderedQuestions()
}

// IsOwnedBy reports whether the user created the focus group
func (fg *FocusGroup) IsOwnedBy(userID uuid.UUID) bool {
	return fg.CreatedBy == userID
}

// MarkInProgress is called once the bot is in the meeting
func (fg *FocusGroup) MarkInProgress() {
	if fg.Status == FocusGroupStatusScheduled {
		fg.Status = FocusGroupStatusInProgress
		fg.UpdatedAt = time.Now()
	}
}

// MarkCompleted closes the focus group and completes every joined participant
func (fg *FocusGroup) MarkCompleted() {
	if fg.Status == FocusGroupStatusCancelled {
		return
	}
	fg.Status = FocusGroupStatusCompleted
	for i := range fg.Participants {
		if fg.Participants[i].Status == ParticipantStatusJoined {
			fg.Participants[i].Status = ParticipantStatusCompleted
		}
	}
	fg.UpdatedAt = time.Now()
}

// MarkParticipantJoined flips an invited participant to joined.
// Returns false when the email is not on the invite list.
func (fg *FocusGroup) MarkParticipantJoined(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for i := range fg.Participants {
		if fg.Participants[i].Email != email {
			continue
		}
		if fg.Participants[i].Status == ParticipantStatusInvited {
			fg.Participants[i].Status = ParticipantStatusJoined
			fg.UpdatedAt = time.Now()
		}
		return true
	}
	return false
}

// ParticipantName looks up the invited name for an email
func (fg *FocusGroup) ParticipantName(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range fg.Participants {
		if p.Email == email {
			return p.Name, true
		}
	}
	return "", false
}
