package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the error type returned to API clients
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrPermissionDenied(action string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_PERMISSION_DENIED,
		Message:  fmt.Sprintf("Permission denied: %s", action),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

func ErrInvalidPayload(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Authentication Errors
func ErrInvalidToken() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_TOKEN,
		Message:  "Invalid authentication token",
	}
}

// Focus group Errors
func ErrFocusGroupNotFound(focusGroupID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_FOCUS_GROUP_NOT_FOUND,
		Message:  "Focus group not found",
	}.WithDetail("focus_group_id", focusGroupID)
}

func ErrQuestionnaireNotFound(questionnaireID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_QUESTIONNAIRE_NOT_FOUND,
		Message:  "Questionnaire not found",
	}.WithDetail("questionnaire_id", questionnaireID)
}

func ErrQuestionnaireInactive(questionnaireID string) AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_QUESTIONNAIRE_INACTIVE,
		Message:  "Questionnaire is not active",
	}.WithDetail("questionnaire_id", questionnaireID)
}

func ErrFocusGroupNoQuestions(focusGroupID string) AppError {
	return AppError{
		HTTPCode: http.StatusUnprocessableEntity,
		Code:     ErrorCode_FOCUS_GROUP_NO_QUESTIONS,
		Message:  "Focus group questionnaire has no questions",
	}.WithDetail("focus_group_id", focusGroupID)
}

func ErrFocusGroupInvalidState(focusGroupID, currentState string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_FOCUS_GROUP_INVALID_STATE,
		Message:  "Focus group is in invalid state",
	}.WithDetail("focus_group_id", focusGroupID).
		WithDetail("current_state", currentState)
}

// Session Errors
func ErrSessionNotFound(id string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_SESSION_NOT_FOUND,
		Message:  "No session found",
	}.WithDetail("id", id)
}

func ErrBotAlreadyRunning(focusGroupID, sessionID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_SESSION_ALREADY_RUNNING,
		Message:  "A bot session is already running for this focus group",
	}.WithDetail("focus_group_id", focusGroupID).
		WithDetail("session_id", sessionID)
}

func ErrBotLaunchFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_BOT_LAUNCH_FAILED,
		Message:  "Failed to launch bot",
	}
}

func ErrBotStopFailed(sessionID string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_BOT_STOP_FAILED,
		Message:  "Failed to stop bot",
	}.WithDetail("session_id", sessionID)
}

// Integration Errors
func ErrLiveKitFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_INTEGRATION_LIVEKIT_FAILED,
		Message:  fmt.Sprintf("LiveKit operation failed: %s", operation),
	}
}

func ErrCalendarFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_INTEGRATION_CALENDAR_FAILED,
		Message:  "Calendar event creation failed",
	}
}
