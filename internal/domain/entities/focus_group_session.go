package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle of one bot run.
// It only moves forward: waiting -> in-progress -> completed | failed.
type SessionStatus string

const (
	SessionStatusWaiting    SessionStatus = "waiting"     // Created, no worker picked it up yet
	SessionStatusInProgress SessionStatus = "in-progress" // Bot is in the meeting
	SessionStatusCompleted  SessionStatus = "completed"   // All questions asked or stop requested
	SessionStatusFailed     SessionStatus = "failed"      // Join failure, disconnect, persistence failure
)

// BotStatus is the bot's presence in the meeting
type BotStatus string

const (
	BotStatusIdle         BotStatus = "idle"
	BotStatusJoining      BotStatus = "joining"
	BotStatusActive       BotStatus = "active"
	BotStatusDisconnected BotStatus = "disconnected"
	BotStatusEnded        BotStatus = "ended"
)

func (s SessionStatus) rank() int {
	switch s {
	case SessionStatusWaiting:
		return 0
	case SessionStatusInProgress:
		return 1
	case SessionStatusCompleted, SessionStatusFailed:
		return 2
	}
	return -1
}

// IsTerminal reports whether no further transition is possible
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed
}

// SessionParticipant holds per-participant speaking stats for a run
type SessionParticipant struct {
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	JoinedAt      *time.Time `json:"joined_at,omitempty"`
	SpeakingTime  float64    `json:"speaking_time"` // seconds
	ResponseCount int        `json:"response_count"`
}

// Response is one transcribed utterance attributed to a participant
type Response struct {
	ParticipantEmail string    `json:"participant_email"`
	ParticipantName  string    `json:"participant_name"`
	Text             string    `json:"text"`
	Timestamp        time.Time `json:"timestamp"`
	Duration         float64   `json:"duration"` // seconds
}

// QuestionResponse collects everything captured for one asked question
type QuestionResponse struct {
	QuestionID   string     `json:"question_id"`
	QuestionText string     `json:"question_text"`
	AskedAt      time.Time  `json:"asked_at"`
	Responses    []Response `json:"responses"`
	Summary      string     `json:"summary,omitempty"`
}

// ErrorLog is an append-only record of a failed step
type ErrorLog struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
	Context   string    `json:"context"`
}

// FocusGroupSession is the persisted record of one bot run.
// Nested lists are stored in JSONB columns of a single row so a checkpoint
// is written atomically.
type FocusGroupSession struct {
	ID                uuid.UUID            `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FocusGroupID      uuid.UUID            `gorm:"type:uuid;not null;index" json:"focus_group_id"`
	StartedAt         *time.Time           `json:"started_at,omitempty"`
	EndedAt           *time.Time           `json:"ended_at,omitempty"`
	Status            SessionStatus        `gorm:"type:varchar(20);not null;default:'waiting';index" json:"status"`
	BotStatus         BotStatus            `gorm:"type:varchar(20);not null;default:'idle'" json:"bot_status"`
	Participants      []SessionParticipant `gorm:"type:jsonb;serializer:json" json:"participants"`
	QuestionResponses []QuestionResponse   `gorm:"type:jsonb;serializer:json" json:"question_responses"`
	FullTranscript    string               `gorm:"type:text" json:"full_transcript"`
	ErrorLogs         []ErrorLog           `gorm:"type:jsonb;serializer:json" json:"error_logs"`
	CreatedAt         time.Time            `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time            `gorm:"index" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (FocusGroupSession) TableName() string {
	return "focus_group_sessions"
}

// NewFocusGroupSession creates an empty session in waiting/idle
func NewFocusGroupSession(focusGroupID uuid.UUID) *FocusGroupSession {
	now := time.Now()
	return &FocusGroupSession{
		ID:                uuid.New(),
		FocusGroupID:      focusGroupID,
		Status:            SessionStatusWaiting,
		BotStatus:         BotStatusIdle,
		Participants:      []SessionParticipant{},
		QuestionResponses: []QuestionResponse{},
		ErrorLogs:         []ErrorLog{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// IsTerminal reports whether the session reached completed or failed
func (s *FocusGroupSession) IsTerminal() bool {
	return s.Status.IsTerminal()
}

// Transition moves the session status forward
func (s *FocusGroupSession) Transition(next SessionStatus) error {
	if next.rank() < 0 {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidSessionTransition, next)
	}
	if s.Status.IsTerminal() || next.rank() < s.Status.rank() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidSessionTransition, s.Status, next)
	}
	s.Status = next
	return nil
}

// BeginJoin stamps the start of the run
func (s *FocusGroupSession) BeginJoin(now time.Time) {
	s.BotStatus = BotStatusJoining
	s.StartedAt = &now
}

// Activate marks the bot as present in the meeting
func (s *FocusGroupSession) Activate() error {
	if err := s.Transition(SessionStatusInProgress); err != nil {
		return err
	}
	s.BotStatus = BotStatusActive
	return nil
}

// Complete closes a successful (or stopped) run
func (s *FocusGroupSession) Complete(now time.Time) error {
	if err := s.Transition(SessionStatusCompleted); err != nil {
		return err
	}
	s.BotStatus = BotStatusEnded
	s.end(now)
	return nil
}

// Fail closes an aborted run. Captured responses are kept.
func (s *FocusGroupSession) Fail(now time.Time) error {
	if err := s.Transition(SessionStatusFailed); err != nil {
		return err
	}
	s.BotStatus = BotStatusDisconnected
	s.end(now)
	return nil
}

// RequestStop records an administrative stop. The owning run finalizes the
// status at its next step boundary.
func (s *FocusGroupSession) RequestStop(now time.Time) {
	if s.IsTerminal() {
		return
	}
	s.BotStatus = BotStatusEnded
	s.end(now)
}

// Supersede prepares s to replace stored, the copy currently persisted. An
// ended session is never rewritten: a write with the same final status is a
// no-op (write=false) and any other write fails with ErrSessionFinalized. A
// status behind the stored one fails with ErrSessionConflict. A stop recorded
// on stored since s was read is carried over.
func (s *FocusGroupSession) Supersede(stored *FocusGroupSession) (write bool, err error) {
	if stored.IsTerminal() {
		if s.Status == stored.Status {
			return false, nil
		}
		return false, fmt.Errorf("%w: stored %s, got %s", ErrSessionFinalized, stored.Status, s.Status)
	}
	if s.Status.rank() < stored.Status.rank() {
		return false, fmt.Errorf("%w: stored %s, got %s", ErrSessionConflict, stored.Status, s.Status)
	}
	if stored.BotStatus == BotStatusEnded && !s.IsTerminal() {
		s.BotStatus = BotStatusEnded
		if stored.EndedAt != nil {
			s.end(*stored.EndedAt)
		}
	}
	return true, nil
}

// IsUnclaimed reports a waiting session no worker has started joining.
func (s *FocusGroupSession) IsUnclaimed() bool {
	return s.Status == SessionStatusWaiting && s.BotStatus == BotStatusIdle
}

func (s *FocusGroupSession) end(now time.Time) {
	if s.EndedAt == nil || now.After(*s.EndedAt) {
		s.EndedAt = &now
	}
}

// LogError appends an error record
func (s *FocusGroupSession) LogError(now time.Time, err error, context string) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	s.ErrorLogs = append(s.ErrorLogs, ErrorLog{Timestamp: now, Error: msg, Context: context})
}

// AskQuestion appends an empty QuestionResponse and returns its index
func (s *FocusGroupSession) AskQuestion(q Question, askedAt time.Time) int {
	s.QuestionResponses = append(s.QuestionResponses, QuestionResponse{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		AskedAt:      askedAt,
		Responses:    []Response{},
	})
	return len(s.QuestionResponses) - 1
}

// RecordResponse appends a response to the question at idx and updates the
// speaker's stats and the running transcript.
func (s *FocusGroupSession) RecordResponse(idx int, r Response) error {
	if idx < 0 || idx >= len(s.QuestionResponses) {
		return fmt.Errorf("question index %d out of range", idx)
	}
	s.QuestionResponses[idx].Responses = append(s.QuestionResponses[idx].Responses, r)

	p := s.participant(r.ParticipantEmail, r.ParticipantName)
	if p.JoinedAt == nil {
		joined := r.Timestamp
		p.JoinedAt = &joined
	}
	p.ResponseCount++
	p.SpeakingTime += r.Duration

	line := fmt.Sprintf("%s: %s", displayName(r), r.Text)
	if s.FullTranscript == "" {
		s.FullTranscript = line
	} else {
		s.FullTranscript += "\n" + line
	}
	return nil
}

// SetSummary stores the summary of the question at idx
func (s *FocusGroupSession) SetSummary(idx int, summary string) {
	if idx < 0 || idx >= len(s.QuestionResponses) {
		return
	}
	s.QuestionResponses[idx].Summary = summary
}

// TrackParticipant registers a participant seen in the meeting
func (s *FocusGroupSession) TrackParticipant(email, name string, joinedAt time.Time) {
	p := s.participant(email, name)
	if p.JoinedAt == nil {
		p.JoinedAt = &joinedAt
	}
}

func (s *FocusGroupSession) participant(email, name string) *SessionParticipant {
	key := strings.ToLower(email)
	for i := range s.Participants {
		if strings.ToLower(s.Participants[i].Email) == key {
			if s.Participants[i].Name == "" {
				s.Participants[i].Name = name
			}
			return &s.Participants[i]
		}
	}
	s.Participants = append(s.Participants, SessionParticipant{Email: email, Name: name})
	return &s.Participants[len(s.Participants)-1]
}

func displayName(r Response) string {
	if r.ParticipantName != "" {
		return r.ParticipantName
	}
	if r.ParticipantEmail != "" {
		return r.ParticipantEmail
	}
	return "Unknown"
}

// Clone returns a deep copy
func (s *FocusGroupSession) Clone() *FocusGroupSession {
	if s == nil {
		return nil
	}
	out := *s
	out.StartedAt = cloneTime(s.StartedAt)
	out.EndedAt = cloneTime(s.EndedAt)

	out.Participants = make([]SessionParticipant, len(s.Participants))
	for i, p := range s.Participants {
		p.JoinedAt = cloneTime(p.JoinedAt)
		out.Participants[i] = p
	}

	out.QuestionResponses = make([]QuestionResponse, len(s.QuestionResponses))
	for i, qr := range s.QuestionResponses {
		qr.Responses = append([]Response{}, qr.Responses...)
		out.QuestionResponses[i] = qr
	}

	out.ErrorLogs = append([]ErrorLog{}, s.ErrorLogs...)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
