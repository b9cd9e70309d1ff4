package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
)

const (
	// sessionTTL bounds how long a local session cookie stays good without
	// re-validating against the backend.
	sessionTTL = 15 * time.Minute

	issuer = "printmaker-forum"

	minSecretLength = 16
)

// sessionClaims are the claims carried by a local session token. Subject
// holds the user ID; Role mirrors the forum role at issue time so the
// read path can personalize without a lookup.
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates local session tokens. These exist only
// to personalize cheap read requests; anything that writes goes back to
// the backend for a fresh validation.
type TokenService struct {
	secret []byte
}

// NewTokenService returns a TokenService signing with the given secret.
// Short secrets are rejected outright rather than silently weakening
// every token issued.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Issue creates a signed session token for the user, good for sessionTTL.
func (s *TokenService) Issue(userID string, role model.UserRole) (string, error) {
	return s.IssueWithDuration(userID, role, sessionTTL)
}

// IssueWithDuration is Issue with an explicit lifetime. Tests use it to
// mint already-expired tokens.
func (s *TokenService) IssueWithDuration(userID string, role model.UserRole, d time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token, returning the user ID and
// role it carries. Expired, tampered, or foreign tokens all come back as
// apperror.ErrUnauthorized.
func (s *TokenService) Validate(tokenString string) (string, model.UserRole, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", apperror.Unauthorized("session token expired")
		}
		return "", "", apperror.Unauthorized("invalid session token")
	}
	if !token.Valid || claims.Subject == "" {
		return "", "", apperror.Unauthorized("invalid session token")
	}

	role := model.UserRole(claims.Role)
	if !role.Valid() {
		role = model.RoleUser
	}
	return claims.Subject, role, nil
}
