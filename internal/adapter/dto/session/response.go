package session

import "time"

// StartBotResponse is returned once the bot task is queued
type StartBotResponse struct {
	SessionID string `json:"session_id" example:"9b2d0c7e-8f1e-4a55-b0c3-2f5b7d4e6a10"`
	Status    string `json:"status" example:"waiting"`
}

// SessionResponse represents a bot session
type SessionResponse struct {
	ID                string                     `json:"id"`
	FocusGroupID      string                     `json:"focus_group_id"`
	Status            string                     `json:"status"`
	BotStatus         string                     `json:"bot_status"`
	StartedAt         *time.Time                 `json:"started_at,omitempty"`
	EndedAt           *time.Time                 `json:"ended_at,omitempty"`
	Participants      []SessionParticipant       `json:"participants"`
	QuestionResponses []QuestionResponseResponse `json:"question_responses"`
	FullTranscript    string                     `json:"full_transcript,omitempty"`
	ErrorLogs         []ErrorLogResponse         `json:"error_logs"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

// SessionParticipant holds the speaking stats of a participant
type SessionParticipant struct {
	Email         string     `json:"email"`
	Name          string     `json:"name,omitempty"`
	JoinedAt      *time.Time `json:"joined_at,omitempty"`
	SpeakingTime  float64    `json:"speaking_time"`
	ResponseCount int        `json:"response_count"`
}

// QuestionResponseResponse holds what was captured for one question
type QuestionResponseResponse struct {
	QuestionID   string           `json:"question_id"`
	QuestionText string           `json:"question_text"`
	AskedAt      time.Time        `json:"asked_at"`
	Responses    []AnswerResponse `json:"responses"`
	Summary      string           `json:"summary,omitempty"`
}

// AnswerResponse is one transcribed answer
type AnswerResponse struct {
	ParticipantEmail string    `json:"participant_email"`
	ParticipantName  string    `json:"participant_name,omitempty"`
	Text             string    `json:"text"`
	Timestamp        time.Time `json:"timestamp"`
	Duration         float64   `json:"duration"`
}

// ErrorLogResponse is one failed step
type ErrorLogResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
	Context   string    `json:"context"`
}
