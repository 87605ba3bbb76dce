package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/johnquangdev/focus-group-bot/pkg/jwt"
)

// ownerKey holds the verified *jwt.Claims on the echo context.
const ownerKey = "focus_group_owner"

// Bearer header first, then the cookie set by the web console.
const tokenLookup = "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:access_token"

type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// EchoAuth rejects requests without a valid owner token with a 401.
func EchoAuth(tokens TokenValidator) echo.MiddlewareFunc {
	return echomw.KeyAuthWithConfig(echomw.KeyAuthConfig{
		KeyLookup: tokenLookup,
		Validator: func(raw string, c echo.Context) (bool, error) {
			claims, err := tokens.ValidateAccessToken(raw)
			if err != nil {
				return false, err
			}
			c.Set(ownerKey, claims)
			return true, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing, invalid or expired token").SetInternal(err)
		},
	})
}

// Owner returns the claims verified by EchoAuth.
func Owner(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(ownerKey).(*jwt.Claims)
	return claims, ok && claims != nil
}

// UserID is the id of the focus group owner making the request.
func UserID(c echo.Context) (uuid.UUID, bool) {
	claims, ok := Owner(c)
	if !ok || claims.UserID == uuid.Nil {
		return uuid.Nil, false
	}
	return claims.UserID, true
}
