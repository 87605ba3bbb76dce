package focusgroup

import "time"

// CreateFocusGroupRequest represents the request to schedule a focus group
type CreateFocusGroupRequest struct {
	Title           string               `json:"title" validate:"required,max=255" example:"Morning tea habits"`
	Description     string               `json:"description,omitempty" validate:"max=5000" example:"How people pick their first drink of the day"`
	QuestionnaireID string               `json:"questionnaire_id" validate:"required,uuid" example:"4f0a8f0e-3c0b-4a8b-9a57-8c6c1f7e2d11"`
	ScheduledAt     time.Time            `json:"scheduled_at" example:"2026-05-01T09:00:00Z"`
	Duration        int                  `json:"duration,omitempty" validate:"omitempty,min=5,max=480" example:"60"`
	Participants    []ParticipantRequest `json:"participants" validate:"max=100,distinct_emails,dive"`
	Settings        *SettingsRequest     `json:"settings,omitempty"`
}

// ParticipantRequest is one invitee
type ParticipantRequest struct {
	Email string `json:"email" validate:"required,email" example:"ann@example.com"`
	Name  string `json:"name,omitempty" validate:"max=255" example:"Ann"`
}

// SettingsRequest overrides the moderation defaults
type SettingsRequest struct {
	MaxParticipants     int   `json:"max_participants,omitempty" validate:"omitempty,min=1,max=100" example:"20"`
	TimePerQuestion     int   `json:"time_per_question,omitempty" validate:"omitempty,min=1,max=600" example:"5"`
	EnableSummarization *bool `json:"enable_summarization,omitempty" example:"true"`
}
