package focusgroup

import "time"

// FocusGroupResponse represents a focus group in API responses
type FocusGroupResponse struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description,omitempty"`
	CreatedBy       string                `json:"created_by"`
	QuestionnaireID string                `json:"questionnaire_id"`
	QuestionCount   int                   `json:"question_count"`
	Participants    []ParticipantResponse `json:"participants"`
	ScheduledAt     time.Time             `json:"scheduled_at"`
	Duration        int                   `json:"duration"`
	Status          string                `json:"status"`
	MeetingLink     string                `json:"meeting_link"`
	MeetingID       string                `json:"meeting_id"`
	CalendarEventID string                `json:"calendar_event_id,omitempty"`
	Settings        SettingsResponse      `json:"settings"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// ParticipantResponse is an invitee and its attendance
type ParticipantResponse struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

// SettingsResponse holds moderation settings
type SettingsResponse struct {
	MaxParticipants     int  `json:"max_participants"`
	TimePerQuestion     int  `json:"time_per_question"`
	EnableSummarization bool `json:"enable_summarization"`
}

// ListFocusGroupsResponse wraps a list of focus groups
type ListFocusGroupsResponse struct {
	FocusGroups []*FocusGroupResponse `json:"focus_groups"`
	Total       int                   `json:"total"`
}
