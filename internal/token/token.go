// Package token issues and verifies the bearer tokens the API surface's
// auth middleware checks on every request, configured by
// token_secret/token_ttl. JWT usage generalized from a uint user_id claim
// to the core's opaque string user identifiers.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalid covers every way a presented token can fail verification:
// malformed, expired, wrong signature, or missing claim.
var ErrInvalid = errors.New("token: invalid or expired")

const claimUserID = "user_id"

// Service issues and verifies HS256 bearer tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a Service. secret must be non-empty.
func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token: secret must not be empty")
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl}, nil
}

// Issue mints a token asserting userID, valid for the Service's TTL.
func (s *Service) Issue(userID string) (string, error) {
	claims := jwt.MapClaims{
		claimUserID: userID,
		"exp":       time.Now().Add(s.ttl).Unix(),
		"iat":       time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify parses and validates tokenStr, returning the user ID it asserts.
func (s *Service) Verify(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalid
	}
	userID, ok := claims[claimUserID].(string)
	if !ok || userID == "" {
		return "", ErrInvalid
	}
	return userID, nil
}
