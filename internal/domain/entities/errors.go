package entities

import "errors"

// Domain errors
var (
	// Focus group errors
	ErrFocusGroupNotFound    = errors.New("focus group not found")
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")

	// Session errors
	ErrSessionNotFound          = errors.New("session not found")
	ErrInvalidSessionTransition = errors.New("invalid session transition")
	// ErrSessionFinalized rejects a write that would change an ended session
	ErrSessionFinalized = errors.New("session already finalized")
	// ErrSessionConflict rejects a write based on an outdated copy
	ErrSessionConflict = errors.New("session changed concurrently")
)
