package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/focus-group-bot/errors"
	"github.com/johnquangdev/focus-group-bot/internal/adapter/dto/focusgroup"
	"github.com/johnquangdev/focus-group-bot/internal/adapter/presenter"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/http/middleware"
	focusGroupUsecase "github.com/johnquangdev/focus-group-bot/internal/usecase/focusgroup"
	"github.com/johnquangdev/focus-group-bot/pkg/validator"
)

// FocusGroup handles focus group HTTP requests
type FocusGroup struct {
	service focusGroupUsecase.Service
	logger  *zap.Logger
}

// NewFocusGroupHandler creates a new focus group handler
func NewFocusGroupHandler(service focusGroupUsecase.Service, logger *zap.Logger) *FocusGroup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FocusGroup{service: service, logger: logger}
}

// Create handles POST /focus-groups
// @Summary      Schedule a focus group
// @Description  Creates the LiveKit room, sends calendar invitations and stores the focus group
// @Tags         FocusGroups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      focusgroup.CreateFocusGroupRequest  true  "Focus group"
// @Success      201      {object}  common.SuccessResponse{data=focusgroup.FocusGroupResponse}
// @Failure      400      {object}  common.ErrorResponse
// @Failure      401      {object}  common.ErrorResponse
// @Failure      403      {object}  common.ErrorResponse
// @Failure      404      {object}  common.ErrorResponse
// @Failure      502      {object}  common.ErrorResponse
// @Router       /focus-groups [post]
func (h *FocusGroup) Create(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req focusgroup.CreateFocusGroupRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(validator.Describe(err)))
	}

	questionnaireID, err := uuid.Parse(req.QuestionnaireID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("questionnaire_id: uuid"))
	}

	input := focusGroupUsecase.CreateFocusGroupInput{
		OwnerID:         userID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		QuestionnaireID: questionnaireID,
		ScheduledAt:     req.ScheduledAt,
		Duration:        req.Duration,
	}
	for _, p := range req.Participants {
		input.Participants = append(input.Participants, focusGroupUsecase.ParticipantInput{
			Email: p.Email,
			Name:  p.Name,
		})
	}
	if req.Settings != nil {
		input.Settings = focusGroupUsecase.SettingsInput{
			MaxParticipants:     req.Settings.MaxParticipants,
			TimePerQuestion:     req.Settings.TimePerQuestion,
			EnableSummarization: req.Settings.EnableSummarization,
		}
	}

	fg, err := h.service.CreateFocusGroup(c.Request().Context(), input)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, ""))
	}

	return HandleSuccess(h.logger, c, http.StatusCreated, presenter.ToFocusGroupResponse(fg))
}

// List handles GET /focus-groups
// @Summary      List focus groups
// @Tags         FocusGroups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.SuccessResponse{data=focusgroup.ListFocusGroupsResponse}
// @Failure      401  {object}  common.ErrorResponse
// @Router       /focus-groups [get]
func (h *FocusGroup) List(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	groups, err := h.service.ListFocusGroups(c.Request().Context(), userID)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, ""))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToListFocusGroupsResponse(groups))
}

// Get handles GET /focus-groups/:id
// @Summary      Get a focus group
// @Tags         FocusGroups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Focus group ID (UUID)"
// @Success      200  {object}  common.SuccessResponse{data=focusgroup.FocusGroupResponse}
// @Failure      400  {object}  common.ErrorResponse
// @Failure      403  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Router       /focus-groups/{id} [get]
func (h *FocusGroup) Get(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	id, err := pathUUID(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	fg, err := h.service.GetFocusGroup(c.Request().Context(), userID, id)
	if err != nil {
		return HandleError(h.logger, c, toAppError(err, id.String()))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToFocusGroupResponse(fg))
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument(name + ": uuid")
	}
	return id, nil
}
