package handler

import (
	"context"
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/webhook"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/johnquangdev/focus-group-bot/errors"
	usecaseErrors "github.com/johnquangdev/focus-group-bot/internal/usecase/errors"
)

const eventParticipantJoined = "participant_joined"

// ParticipantTracker records invitees joining a focus group room
type ParticipantTracker interface {
	MarkParticipantJoined(ctx context.Context, roomName, email string) error
}

// Webhook receives LiveKit webhook events
type Webhook struct {
	tracker     ParticipantTracker
	keys        auth.KeyProvider
	botIdentity string
	logger      *zap.Logger
}

// NewWebhookHandler creates a LiveKit webhook handler. Events are verified
// against the given API key and secret.
func NewWebhookHandler(tracker ParticipantTracker, apiKey, secret, botIdentity string, logger *zap.Logger) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{
		tracker:     tracker,
		keys:        auth.NewSimpleKeyProvider(apiKey, secret),
		botIdentity: botIdentity,
		logger:      logger,
	}
}

// HandleLiveKit handles POST /webhooks/livekit
// @Summary      LiveKit webhook
// @Description  Receives signed LiveKit events and marks invitees as joined
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  common.SuccessResponse
// @Failure      401  {object}  common.ErrorResponse
// @Router       /webhooks/livekit [post]
func (h *Webhook) HandleLiveKit(c echo.Context) error {
	event, err := webhook.ReceiveWebhookEvent(c.Request(), h.keys)
	if err != nil {
		h.logger.Warn("Rejected LiveKit webhook", zap.Error(err))
		return HandleError(h.logger, c, errors.ErrInvalidToken())
	}

	if ce := h.logger.Check(zap.DebugLevel, "LiveKit webhook received"); ce != nil {
		payload, _ := protojson.Marshal(event)
		ce.Write(zap.String("event", event.GetEvent()), zap.ByteString("payload", payload))
	}

	if event.GetEvent() == eventParticipantJoined {
		identity := event.GetParticipant().GetIdentity()
		roomName := event.GetRoom().GetName()
		if identity != "" && identity != h.botIdentity {
			err := h.tracker.MarkParticipantJoined(c.Request().Context(), roomName, identity)
			switch {
			case err == nil:
			case stdErrors.Is(err, usecaseErrors.ErrUnknownParticipant), stdErrors.Is(err, usecaseErrors.ErrFocusGroupNotFound):
				h.logger.Debug("Ignoring participant",
					zap.String("room", roomName),
					zap.String("identity", identity),
					zap.Error(err),
				)
			default:
				return HandleError(h.logger, c, toAppError(err, ""))
			}
		}
	}

	return HandleSuccess(h.logger, c, http.StatusOK, map[string]string{"event": event.GetEvent()})
}
