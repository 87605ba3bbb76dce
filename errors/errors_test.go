package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryCodeHasName(t *testing.T) {
	codes := []ErrorCode{
		ErrorCode_HTTP_OK,
		ErrorCode_INTERNAL,
		ErrorCode_INVALID_ARGUMENT,
		ErrorCode_NOT_FOUND,
		ErrorCode_PERMISSION_DENIED,
		ErrorCode_UNAUTHENTICATED,
		ErrorCode_INVALID_PAYLOAD,
		ErrorCode_AUTH_INVALID_TOKEN,
		ErrorCode_FOCUS_GROUP_NOT_FOUND,
		ErrorCode_QUESTIONNAIRE_NOT_FOUND,
		ErrorCode_QUESTIONNAIRE_INACTIVE,
		ErrorCode_FOCUS_GROUP_INVALID_STATE,
		ErrorCode_FOCUS_GROUP_NO_QUESTIONS,
		ErrorCode_SESSION_NOT_FOUND,
		ErrorCode_SESSION_ALREADY_RUNNING,
		ErrorCode_BOT_LAUNCH_FAILED,
		ErrorCode_BOT_STOP_FAILED,
		ErrorCode_INTEGRATION_LIVEKIT_FAILED,
		ErrorCode_INTEGRATION_CALENDAR_FAILED,
	}
	assert.Len(t, errorCodeNames, len(codes))
	for _, c := range codes {
		assert.NotEqual(t, "UNKNOWN", c.String(), int(c))
	}
	assert.Equal(t, "UNKNOWN", ErrorCode(42).String())
}

func TestWithDetailCopies(t *testing.T) {
	base := ErrFocusGroupNotFound("fg-1")
	withState := base.WithDetail("current_state", "cancelled")

	assert.Equal(t, http.StatusNotFound, base.HTTPCode)
	assert.Equal(t, map[string]string{"focus_group_id": "fg-1"}, base.Details)
	assert.Equal(t, "cancelled", withState.Details["current_state"])
	assert.Equal(t, "fg-1", withState.Details["focus_group_id"])
}
