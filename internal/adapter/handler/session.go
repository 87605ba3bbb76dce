package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/errors"
	"github.com/johnquangdev/focus-group-bot/internal/adapter/presenter"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/http/middleware"
	botUsecase "github.com/johnquangdev/focus-group-bot/internal/usecase/bot"
)

// Session handles bot session HTTP requests
type Session struct {
	bots   botUsecase.Service
	logger *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(bots botUsecase.Service, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{bots: bots, logger: logger}
}

// Start handles POST /focus-groups/:id/start
// @Summary      Start the moderator bot
// @Description  Creates a waiting session and queues the bot run
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Focus group ID (UUID)"
// @Success      202  {object}  common.SuccessResponse{data=session.StartBotResponse}
// @Failure      403  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Failure      409  {object}  common.ErrorResponse
// @Failure      422  {object}  common.ErrorResponse
// @Failure      500  {object}  common.ErrorResponse
// @Router       /focus-groups/{id}/start [post]
func (h *Session) Start(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	session, err := h.bots.StartBot(c.Request().Context(), userID, id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}

	return HandleSuccess(h.logger, c, http.StatusAccepted, presenter.ToStartBotResponse(session))
}

// Status handles GET /focus-groups/:id/session
// @Summary      Latest bot session
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Focus group ID (UUID)"
// @Success      200  {object}  common.SuccessResponse{data=session.SessionResponse}
// @Failure      403  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Router       /focus-groups/{id}/session [get]
func (h *Session) Status(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	session, err := h.bots.SessionStatus(c.Request().Context(), userID, id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToSessionResponse(session))
}

// Stop handles POST /sessions/:id/stop
// @Summary      Stop the moderator bot
// @Description  Signals the running bot to stop at the next step boundary
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID (UUID)"
// @Success      200  {object}  common.SuccessResponse{data=session.SessionResponse}
// @Failure      403  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Failure      500  {object}  common.ErrorResponse
// @Router       /sessions/{id}/stop [post]
func (h *Session) Stop(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	session, err := h.bots.StopBot(c.Request().Context(), userID, id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToSessionResponse(session))
}
