package errors

import "errors"

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden access")
	ErrInternalError = errors.New("internal server error")
)

// Focus group errors
var (
	ErrFocusGroupNotFound    = errors.New("focus group not found")
	ErrNotOwner              = errors.New("user does not own this focus group")
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	ErrQuestionnaireInactive = errors.New("questionnaire is not active")
	ErrQuestionnaireNotOwned = errors.New("questionnaire belongs to another user")
	ErrNoQuestions           = errors.New("questionnaire has no questions")
	ErrFocusGroupCancelled   = errors.New("focus group is cancelled")
	ErrUnknownParticipant    = errors.New("participant is not invited")
)

// Bot session errors
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrBotAlreadyRunning = errors.New("bot session already running")
	ErrLaunchFailed      = errors.New("failed to launch bot")
	ErrStopFailed        = errors.New("failed to stop bot")
)

// Integration errors
var (
	ErrLivekitRoom    = errors.New("LiveKit room error")
	ErrCalendarFailed = errors.New("calendar event creation failed")
)
