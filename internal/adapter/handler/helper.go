package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/errors"
	usecaseErrors "github.com/johnquangdev/focus-group-bot/internal/usecase/errors"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Info    string      `json:"info,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if logger != nil {
			logger.Error("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Any("app_code", appErr.Code),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := errs{
		Code:    errors.ErrorCode_INTERNAL,
		Message: "Internal server error",
		Info:    err.Error(),
	}

	return c.JSON(http.StatusInternalServerError, body)
}

// toAppError maps use case sentinels to API errors. id is the path
// parameter of the resource the request targeted.
func toAppError(err error, id string) error {
	switch {
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		return errors.ErrInvalidArgument(err.Error())
	case stdErrors.Is(err, usecaseErrors.ErrUnauthorized):
		return errors.ErrUnauthenticated()
	case stdErrors.Is(err, usecaseErrors.ErrNotOwner), stdErrors.Is(err, usecaseErrors.ErrForbidden):
		return errors.ErrPermissionDenied("access focus group")
	case stdErrors.Is(err, usecaseErrors.ErrQuestionnaireNotOwned):
		return errors.ErrPermissionDenied("use questionnaire")
	case stdErrors.Is(err, usecaseErrors.ErrFocusGroupNotFound):
		return errors.ErrFocusGroupNotFound(id)
	case stdErrors.Is(err, usecaseErrors.ErrQuestionnaireNotFound):
		return errors.ErrQuestionnaireNotFound("")
	case stdErrors.Is(err, usecaseErrors.ErrQuestionnaireInactive):
		return errors.ErrQuestionnaireInactive("")
	case stdErrors.Is(err, usecaseErrors.ErrNoQuestions):
		return errors.ErrFocusGroupNoQuestions(id)
	case stdErrors.Is(err, usecaseErrors.ErrFocusGroupCancelled):
		return errors.ErrFocusGroupInvalidState(id, "cancelled")
	case stdErrors.Is(err, usecaseErrors.ErrSessionNotFound):
		return errors.ErrSessionNotFound(id)
	case stdErrors.Is(err, usecaseErrors.ErrBotAlreadyRunning):
		return errors.ErrBotAlreadyRunning(id, "")
	case stdErrors.Is(err, usecaseErrors.ErrLaunchFailed):
		return errors.ErrBotLaunchFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrStopFailed):
		return errors.ErrBotStopFailed(id, err)
	case stdErrors.Is(err, usecaseErrors.ErrLivekitRoom):
		return errors.ErrLiveKitFailed("create room", err)
	case stdErrors.Is(err, usecaseErrors.ErrCalendarFailed):
		return errors.ErrCalendarFailed(err)
	default:
		return errors.ErrInternal(err)
	}
}

// ErrorHandler renders errors that escape handlers, such as those raised by
// middleware, in the same envelope as HandleError
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if stdErrors.As(err, &he) {
			code := errors.ErrorCode_INTERNAL
			switch he.Code {
			case http.StatusUnauthorized:
				code = errors.ErrorCode_UNAUTHENTICATED
			case http.StatusForbidden:
				code = errors.ErrorCode_PERMISSION_DENIED
			case http.StatusNotFound, http.StatusMethodNotAllowed:
				code = errors.ErrorCode_NOT_FOUND
			case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
				code = errors.ErrorCode_INVALID_PAYLOAD
			}
			msg := http.StatusText(he.Code)
			if m, ok := he.Message.(string); ok && m != "" {
				msg = m
			}
			if logger != nil && he.Code >= http.StatusInternalServerError {
				logger.Error("http.unhandled", zap.String("path", c.Path()), zap.Error(err))
			}
			_ = c.JSON(he.Code, errs{Code: code, Message: msg})
			return
		}

		_ = HandleError(logger, c, err)
	}
}
