package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken wraps every validation failure.
var ErrInvalidToken = errors.New("invalid access token")

// Manager verifies owner access tokens signed with a shared HS256 secret.
// Tokens are normally minted by the upstream auth service; GenerateAccessToken
// exists for the seed script and tests.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	parser *jwt.Parser
}

func NewManager(accessSecret string, accessExpiry time.Duration, issuer string) *Manager {
	return &Manager{
		secret: []byte(accessSecret),
		ttl:    accessExpiry,
		issuer: issuer,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateAccessToken signs a token for owner.
func (m *Manager) GenerateAccessToken(owner uuid.UUID, email, role string) (string, error) {
	claims := newClaims(owner, email, role, m.issuer, time.Now(), m.ttl)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) ValidateAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, err := m.parser.ParseWithClaims(raw, claims, m.key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

func (m *Manager) key(*jwt.Token) (interface{}, error) {
	return m.secret, nil
}

// GetAccessExpiry is the lifetime of tokens issued by this manager.
func (m *Manager) GetAccessExpiry() time.Duration {
	return m.ttl
}
