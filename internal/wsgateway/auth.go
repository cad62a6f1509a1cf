package wsgateway

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AnonymousUser is the user id given to clients when no JWT secret is configured
const AnonymousUser = "anonymous"

var (
	// ErrMissingToken is returned when authentication is enabled and no token was sent
	ErrMissingToken = errors.New("authentication token required")
	// ErrInvalidToken is returned when a token fails validation
	ErrInvalidToken = errors.New("invalid authentication token")
)

// AuthManager validates HMAC-signed JWTs. With an empty secret authentication is disabled.
type AuthManager struct {
	jwtSecret []byte
}

// NewAuthManager creates a new auth manager
func NewAuthManager(jwtSecret string) *AuthManager {
	return &AuthManager{
		jwtSecret: []byte(jwtSecret),
	}
}

// Enabled reports whether tokens are checked
func (a *AuthManager) Enabled() bool {
	return len(a.jwtSecret) > 0
}

// ValidateToken validates a JWT token and returns the user ID from the
// "user_id" claim, falling back to "sub"
func (a *AuthManager) ValidateToken(tokenString string) (string, error) {
	if !a.Enabled() {
		return AnonymousUser, nil
	}
	if tokenString == "" {
		return "", ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID, nil
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("%w: user_id not found in token", ErrInvalidToken)
}

// GenerateToken signs a token for userID expiring after expiry
func (a *AuthManager) GenerateToken(userID string, expiry time.Duration) (string, error) {
	if !a.Enabled() {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(expiry).Unix(),
	})
	return token.SignedString(a.jwtSecret)
}

// ExtractTokenFromHeader extracts a JWT token from an Authorization header.
// Both "Bearer <token>" and a bare token are accepted; an empty header yields "".
func (a *AuthManager) ExtractTokenFromHeader(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", nil
	}

	parts := strings.Fields(authHeader)
	switch len(parts) {
	case 1:
		return parts[0], nil
	case 2:
		if !strings.EqualFold(parts[0], "bearer") {
			return "", fmt.Errorf("%w: unsupported authorization scheme %q", ErrInvalidToken, parts[0])
		}
		return parts[1], nil
	}
	return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
}
