package handler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/auth"
	lkproto "github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/johnquangdev/focus-group-bot/errors"
	"github.com/johnquangdev/focus-group-bot/internal/adapter/repository"
	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/cache"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/external/livekit"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/focus-group-bot/internal/infrastructure/queue"
	botUsecase "github.com/johnquangdev/focus-group-bot/internal/usecase/bot"
	focusGroupUsecase "github.com/johnquangdev/focus-group-bot/internal/usecase/focusgroup"
	"github.com/johnquangdev/focus-group-bot/pkg/config"
	"github.com/johnquangdev/focus-group-bot/pkg/jwt"
	"github.com/johnquangdev/focus-group-bot/pkg/validator"
)

const (
	webhookKey    = "APItestkey"
	webhookSecret = "webhook-secret-webhook-secret-webhook-secret"
	botIdentity   = "moderator-bot"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	e             *echo.Echo
	owner         uuid.UUID
	token         string
	questionnaire *entities.Questionnaire
	focusGroups   *repository.MemoryFocusGroupRepository
}

func newAPI(t *testing.T) *api {
	t.Helper()
	owner := uuid.New()

	questionnaires := repository.NewMemoryQuestionnaireRepository()
	q := &entities.Questionnaire{
		ID:        uuid.New(),
		OwnerID:   owner,
		IsActive:  true,
		Questions: []entities.Question{{ID: "q1", Order: 1, Text: "Favourite tea?"}},
	}
	questionnaires.Put(q)
	focusGroups := repository.NewMemoryFocusGroupRepository(questionnaires)
	sessions := repository.NewMemorySessionRepository()

	fgService := focusGroupUsecase.NewFocusGroupService(focusGroups, questionnaires,
		livekit.NewClient("", "", "", true), nil, "https://meet.example.com", nil)
	stop := cache.NewMemoryStopSignal(cache.NewMemoryStore(0), time.Hour)
	bots := botUsecase.NewBotService(focusGroups, sessions,
		botUsecase.NewQueueSupervisor(queue.NewMemoryQueue(8), nil), stop, nil)

	tokens := jwt.NewManager("test-access-secret", time.Hour, "focus-group-bot")
	token, err := tokens.GenerateAccessToken(owner, "owner@example.com", "user")
	require.NoError(t, err)

	e := echo.New()
	e.Validator = validator.New()
	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	NewRouter(cfg,
		middleware.EchoAuth(tokens),
		NewFocusGroupHandler(fgService, nil),
		NewSessionHandler(bots, nil),
		NewWebhookHandler(fgService, webhookKey, webhookSecret, botIdentity, nil),
		nil,
	).Setup(e)

	return &api{e: e, owner: owner, token: token, questionnaire: q, focusGroups: focusGroups}
}

func (a *api) do(t *testing.T, method, path string, body interface{}, authed bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if authed {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (a *api) createFocusGroup(t *testing.T) map[string]interface{} {
	t.Helper()
	rec, env := a.do(t, http.MethodPost, "/v1/focus-groups", map[string]interface{}{
		"title":            "Morning tea",
		"questionnaire_id": a.questionnaire.ID.String(),
		"scheduled_at":     time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"participants":     []map[string]string{{"email": "Ann@Example.com", "name": "Ann"}},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var fg map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &fg))
	return fg
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"environment":"test"`)
}

func TestFocusGroupEndpoints(t *testing.T) {
	a := newAPI(t)
	fg := a.createFocusGroup(t)
	id := fg["id"].(string)

	assert.Equal(t, "scheduled", fg["status"])
	assert.Equal(t, "https://meet.example.com/fg-"+id, fg["meeting_link"])
	assert.EqualValues(t, 1, fg["question_count"])

	rec, env := a.do(t, http.MethodGet, "/v1/focus-groups", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)

	rec, _ = a.do(t, http.MethodGet, "/v1/focus-groups/"+id, nil, true)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = a.do(t, http.MethodGet, "/v1/focus-groups/"+uuid.NewString(), nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_FOCUS_GROUP_NOT_FOUND), env.Code)

	rec, env = a.do(t, http.MethodGet, "/v1/focus-groups/not-a-uuid", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_INVALID_ARGUMENT), env.Code)
}

func TestCreateFocusGroupValidation(t *testing.T) {
	a := newAPI(t)
	rec, env := a.do(t, http.MethodPost, "/v1/focus-groups", map[string]interface{}{
		"title":            "Morning tea",
		"questionnaire_id": a.questionnaire.ID.String(),
		"participants":     []map[string]string{{"email": "not-an-email"}},
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_INVALID_ARGUMENT), env.Code)
	assert.Contains(t, env.Message, "email")
}

func TestRequiresAuthentication(t *testing.T) {
	a := newAPI(t)
	rec, env := a.do(t, http.MethodGet, "/v1/focus-groups", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_UNAUTHENTICATED), env.Code)
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	a := newAPI(t)
	id := a.createFocusGroup(t)["id"].(string)

	rec, env := a.do(t, http.MethodGet, "/v1/focus-groups/"+id+"/session", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_SESSION_NOT_FOUND), env.Code)

	rec, env = a.do(t, http.MethodPost, "/v1/focus-groups/"+id+"/start", nil, true)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var started struct {
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Equal(t, "waiting", started.Status)

	rec, env = a.do(t, http.MethodPost, "/v1/focus-groups/"+id+"/start", nil, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_SESSION_ALREADY_RUNNING), env.Code)

	rec, env = a.do(t, http.MethodGet, "/v1/focus-groups/"+id+"/session", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, started.SessionID, status.ID)

	rec, env = a.do(t, http.MethodPost, "/v1/sessions/"+started.SessionID+"/stop", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "completed", status.Status)

	rec, _ = a.do(t, http.MethodPost, "/v1/sessions/"+uuid.NewString()+"/stop", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func signedWebhook(t *testing.T, event *lkproto.WebhookEvent, secret string) *http.Request {
	t.Helper()
	body, err := protojson.Marshal(event)
	require.NoError(t, err)

	sum := sha256.Sum256(body)
	at := auth.NewAccessToken(webhookKey, secret)
	at.SetSha256(base64.StdEncoding.EncodeToString(sum[:]))
	token, err := at.ToJWT()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/livekit", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, "application/webhook+json")
	req.Header.Set("Authorization", token)
	return req
}

func TestLiveKitWebhookMarksParticipantJoined(t *testing.T) {
	a := newAPI(t)
	fg := a.createFocusGroup(t)
	id := uuid.MustParse(fg["id"].(string))

	for _, identity := range []string{"ann@example.com", botIdentity, "stranger@example.com"} {
		req := signedWebhook(t, &lkproto.WebhookEvent{
			Event:       eventParticipantJoined,
			Room:        &lkproto.Room{Name: "fg-" + id.String()},
			Participant: &lkproto.ParticipantInfo{Identity: identity},
		}, webhookSecret)
		rec := httptest.NewRecorder()
		a.e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, identity)
	}

	stored, err := a.focusGroups.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored.Participants, 1)
	assert.Equal(t, entities.ParticipantStatusJoined, stored.Participants[0].Status)
}

func TestLiveKitWebhookRejectsBadSignature(t *testing.T) {
	a := newAPI(t)
	req := signedWebhook(t, &lkproto.WebhookEvent{Event: "room_started"}, "some-other-secret-some-other-secret-1234")
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":2000`)
}
