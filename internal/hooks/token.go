// Package hooks exposes the permission gate to the notification sender and
// the editor UI over HTTP.
package hooks

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ktoodev/onesignal-push-permissions/internal/principal"
)

var (
	ErrMissingToken = errors.New("hooks: missing bearer token")
	ErrInvalidToken = errors.New("hooks: invalid or expired token")
)

const tokenIssuer = "pushperm"

// TokenManager signs and verifies the bearer tokens hook callers present.
// The subject carries the acting user's id.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a manager issuing HS256 tokens valid for ttl.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token acting as userID.
func (m *TokenManager) Issue(userID int64) (string, time.Time, error) {
	if userID <= 0 {
		return "", time.Time{}, fmt.Errorf("hooks: issue token: %w", principal.ErrAnonymous)
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("hooks: sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies raw and returns the acting user id.
func (m *TokenManager) Parse(raw string) (int64, error) {
	if raw == "" {
		return 0, ErrMissingToken
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := principal.ParseUserID(claims.Subject)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}
