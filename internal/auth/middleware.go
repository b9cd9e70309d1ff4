package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
)

// contextKey is unexported so only this package can read or write the
// values it stores in a request context.
type contextKey string

const (
	sessionKey contextKey = "session"
	userIDKey  contextKey = "userID"
	roleKey    contextKey = "role"
)

// Permission names as the backend spells them.
const (
	PermPost     = "can_post"
	PermModerate = "can_moderate"
	PermAdmin    = "can_admin"
)

// RequireSession validates the Authorization bearer token against the
// identity backend and stores the resulting Session in the request
// context. Rejected tokens get 401; an unreachable backend gets 502, so a
// backend outage never masquerades as a revoked session.
func RequireSession(client *Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := client.ValidateSession(r.Context(), bearerToken(r))
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthorized) {
					http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				} else {
					http.Error(w, `{"error":"bad_gateway","message":"authentication service unavailable"}`, http.StatusBadGateway)
				}
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			ctx = context.WithValue(ctx, userIDKey, session.User.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates a route on one of the backend-granted
// permissions. It must run after RequireSession. can_admin satisfies
// every check; can_moderate also satisfies can_post.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}
			if !session.Allows(perm) {
				http.Error(w, `{"error":"forbidden","message":"insufficient permissions"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Allows reports whether the session grants the named permission,
// applying the implication chain admin ⊇ moderate ⊇ post.
func (s *Session) Allows(perm string) bool {
	p := s.Permissions
	switch perm {
	case PermPost:
		return p.CanPost || p.CanModerate || p.CanAdmin
	case PermModerate:
		return p.CanModerate || p.CanAdmin
	case PermAdmin:
		return p.CanAdmin
	}
	return false
}

// OptionalSession reads the local session cookie if present and puts the
// user ID and role in the context. It never blocks: no cookie, or an
// expired one, just means the request stays anonymous.
func OptionalSession(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if userID, role, err := tokens.Validate(cookie.Value); err == nil {
					ctx := context.WithValue(r.Context(), userIDKey, userID)
					ctx = context.WithValue(ctx, roleKey, role)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionCookieName is the cookie carrying the local session JWT.
const SessionCookieName = "forum_session"

// SessionFromContext returns the backend session attached by
// RequireSession, or false for anonymous requests.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// UserIDFromContext returns the authenticated user's ID, whether it came
// from a backend validation or a local session cookie.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// RoleFromContext returns the forum role carried by a local session
// cookie. Requests validated against the backend read the role off the
// session instead.
func RoleFromContext(ctx context.Context) (model.UserRole, bool) {
	role, ok := ctx.Value(roleKey).(model.UserRole)
	return role, ok
}

// bearerToken extracts the token from an "Authorization: Bearer ..."
// header, returning "" when the header is absent or malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
