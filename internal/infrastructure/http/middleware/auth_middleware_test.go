package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/focus-group-bot/pkg/jwt"
)

func serve(t *testing.T, m *jwt.Manager, setup func(*http.Request)) (*httptest.ResponseRecorder, uuid.UUID) {
	t.Helper()
	e := echo.New()
	var seen uuid.UUID
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		require.True(t, ok)
		seen = id
		return c.NoContent(http.StatusNoContent)
	}, EchoAuth(m))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	setup(req)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestEchoAuth(t *testing.T) {
	m := jwt.NewManager("secret", time.Minute, "focus-group-bot")
	userID := uuid.New()
	token, err := m.GenerateAccessToken(userID, "owner@example.com", "organizer")
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		rec, seen := serve(t, m, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID, seen)
	})

	t.Run("cookie", func(t *testing.T) {
		rec, seen := serve(t, m, func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: token}) })
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID, seen)
	})

	t.Run("missing", func(t *testing.T) {
		rec, _ := serve(t, m, func(r *http.Request) {})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		rec, _ := serve(t, m, func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") })
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOwnerClaims(t *testing.T) {
	m := jwt.NewManager("secret", time.Minute, "focus-group-bot")
	token, err := m.GenerateAccessToken(uuid.New(), "owner@example.com", "organizer")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		claims, ok := Owner(c)
		require.True(t, ok)
		return c.String(http.StatusOK, claims.Email)
	}, EchoAuth(m))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner@example.com", rec.Body.String())
}
