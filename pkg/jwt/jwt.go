package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"social-service/pkg/clock"
)

const issuer = "social-service"

// Claims represents the payload structure of a JWT.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager handles JWT creation and verification.
type Manager struct {
	secretKey string
	expiry    time.Duration
	clock     clock.Clock
}

// NewManager creates a new JWT manager instance.
func NewManager(secretKey string, expiry time.Duration, clk clock.Clock) *Manager {
	return &Manager{
		secretKey: secretKey,
		expiry:    expiry,
		clock:     clk,
	}
}

// Expiry is the lifetime of every token the manager issues.
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Generate creates a signed access token for the user. Every token gets its own
// ID so that it can be revoked on logout.
func (m *Manager) Generate(userID uuid.UUID) (string, *Claims, error) {
	now := m.clock.NowUtc()

	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, claims, nil
}

// Verify parses and validates a JWT token and returns the Claims if valid.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.secretKey), nil
	}, jwt.WithTimeFunc(m.clock.NowUtc), jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if claims.ExpiresAt == nil || m.clock.NowUtc().After(claims.ExpiresAt.Time) {
		return nil, errors.New("token expired")
	}

	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("invalid user id in token: %w", err)
	}

	return claims, nil
}

// RemainingLifetime is how long the token stays valid from now.
func (m *Manager) RemainingLifetime(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Time.Sub(m.clock.NowUtc())
}
