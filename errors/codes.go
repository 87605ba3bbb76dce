package errors

// ErrorCode identifies an application error in API responses
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 200

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1006

	// Auth
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2000

	// Focus groups and questionnaires
	ErrorCode_FOCUS_GROUP_NOT_FOUND     ErrorCode = 3000
	ErrorCode_QUESTIONNAIRE_NOT_FOUND   ErrorCode = 3001
	ErrorCode_QUESTIONNAIRE_INACTIVE    ErrorCode = 3002
	ErrorCode_FOCUS_GROUP_INVALID_STATE ErrorCode = 3003
	ErrorCode_FOCUS_GROUP_NO_QUESTIONS  ErrorCode = 3004
	ErrorCode_SESSION_NOT_FOUND         ErrorCode = 3100
	ErrorCode_SESSION_ALREADY_RUNNING   ErrorCode = 3101

	// Bot
	ErrorCode_BOT_LAUNCH_FAILED ErrorCode = 4002
	ErrorCode_BOT_STOP_FAILED   ErrorCode = 4006

	// Integrations
	ErrorCode_INTEGRATION_LIVEKIT_FAILED  ErrorCode = 5000
	ErrorCode_INTEGRATION_CALENDAR_FAILED ErrorCode = 5003
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                     "HTTP_OK",
	ErrorCode_INTERNAL:                    "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:            "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                   "NOT_FOUND",
	ErrorCode_PERMISSION_DENIED:           "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:             "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:             "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:          "AUTH_INVALID_TOKEN",
	ErrorCode_FOCUS_GROUP_NOT_FOUND:       "FOCUS_GROUP_NOT_FOUND",
	ErrorCode_QUESTIONNAIRE_NOT_FOUND:     "QUESTIONNAIRE_NOT_FOUND",
	ErrorCode_QUESTIONNAIRE_INACTIVE:      "QUESTIONNAIRE_INACTIVE",
	ErrorCode_FOCUS_GROUP_INVALID_STATE:   "FOCUS_GROUP_INVALID_STATE",
	ErrorCode_FOCUS_GROUP_NO_QUESTIONS:    "FOCUS_GROUP_NO_QUESTIONS",
	ErrorCode_SESSION_NOT_FOUND:           "SESSION_NOT_FOUND",
	ErrorCode_SESSION_ALREADY_RUNNING:     "SESSION_ALREADY_RUNNING",
	ErrorCode_BOT_LAUNCH_FAILED:           "BOT_LAUNCH_FAILED",
	ErrorCode_BOT_STOP_FAILED:             "BOT_STOP_FAILED",
	ErrorCode_INTEGRATION_LIVEKIT_FAILED:  "INTEGRATION_LIVEKIT_FAILED",
	ErrorCode_INTEGRATION_CALENDAR_FAILED: "INTEGRATION_CALENDAR_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
