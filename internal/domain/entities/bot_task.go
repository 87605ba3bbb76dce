package entities

import (
	"time"

	"github.com/google/uuid"
)

// BotTask asks a worker to run the bot for one session
type BotTask struct {
	ID           uuid.UUID `json:"id"`
	FocusGroupID uuid.UUID `json:"focus_group_id"`
	SessionID    uuid.UUID `json:"session_id"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// NewBotTask creates a task for the session of a focus group
func NewBotTask(focusGroupID, sessionID uuid.UUID) BotTask {
	return BotTask{
		ID:           uuid.New(),
		FocusGroupID: focusGroupID,
		SessionID:    sessionID,
		EnqueuedAt:   time.Now(),
	}
}
