package handler

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/focus-group-bot/errors"
	usecaseErrors "github.com/johnquangdev/focus-group-bot/internal/usecase/errors"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		err  error
		code errors.ErrorCode
		http int
	}{
		{usecaseErrors.ErrInvalidInput, errors.ErrorCode_INVALID_ARGUMENT, http.StatusBadRequest},
		{usecaseErrors.ErrNotOwner, errors.ErrorCode_PERMISSION_DENIED, http.StatusForbidden},
		{usecaseErrors.ErrFocusGroupNotFound, errors.ErrorCode_FOCUS_GROUP_NOT_FOUND, http.StatusNotFound},
		{usecaseErrors.ErrNoQuestions, errors.ErrorCode_FOCUS_GROUP_NO_QUESTIONS, http.StatusUnprocessableEntity},
		{usecaseErrors.ErrFocusGroupCancelled, errors.ErrorCode_FOCUS_GROUP_INVALID_STATE, http.StatusConflict},
		{usecaseErrors.ErrSessionNotFound, errors.ErrorCode_SESSION_NOT_FOUND, http.StatusNotFound},
		{usecaseErrors.ErrBotAlreadyRunning, errors.ErrorCode_SESSION_ALREADY_RUNNING, http.StatusConflict},
		{fmt.Errorf("%w: queue full", usecaseErrors.ErrLaunchFailed), errors.ErrorCode_BOT_LAUNCH_FAILED, http.StatusInternalServerError},
		{fmt.Errorf("%w: redis down", usecaseErrors.ErrStopFailed), errors.ErrorCode_BOT_STOP_FAILED, http.StatusInternalServerError},
		{usecaseErrors.ErrCalendarFailed, errors.ErrorCode_INTEGRATION_CALENDAR_FAILED, http.StatusBadGateway},
		{stdErrors.New("boom"), errors.ErrorCode_INTERNAL, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			var appErr errors.AppError
			require.True(t, stdErrors.As(toAppError(tt.err, "id-1"), &appErr))
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.http, appErr.HTTPCode)
		})
	}
}
