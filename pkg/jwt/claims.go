package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrMissingOwner is returned for tokens that do not name a focus group owner.
var ErrMissingOwner = errors.New("token has no owner id")

// Claims identifies the focus group owner calling the API. The owner id is
// also carried as the registered subject.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Role   string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func newClaims(owner uuid.UUID, email, role, issuer string, now time.Time, ttl time.Duration) *Claims {
	return &Claims{
		UserID: owner,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Validate is run by the parser after the registered claims are checked.
func (c *Claims) Validate() error {
	if c.UserID == uuid.Nil {
		return ErrMissingOwner
	}
	if c.Subject != "" && c.Subject != c.UserID.String() {
		return errors.New("token subject does not match owner id")
	}
	return nil
}
