package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/auth"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
	"github.com/nurso96/PrintMaker-Forum/internal/service"
)

// sessionCookieTTL matches the lifetime of the local session token.
const sessionCookieTTL = 15 * time.Minute

// AuthHandler bridges the identity backend into local sessions.
//
//   - HandleSession → validate a backend bearer token, mirror the account
//     into the local user table, set the local session cookie
//   - HandleMe      → return the caller's session and local user row
//   - HandleLogout  → clear the local session cookie
type AuthHandler struct {
	tokens *auth.TokenService
	users  *service.UserService
	logger *slog.Logger
}

func NewAuthHandler(tokens *auth.TokenService, users *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{tokens: tokens, users: users, logger: logger}
}

// sessionResponse is the body for session establishment and introspection.
type sessionResponse struct {
	User        *model.User      `json:"user"`
	Permissions auth.Permissions `json:"permissions"`
}

// HandleSession exchanges a backend bearer token for a local session.
// RequireSession has already validated the token; this handler mirrors
// the backend account into the local user table and issues the cookie.
//
// HTTP: POST /api/auth/session
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.users.Sync(r.Context(), session.User.ToUser())
	if err != nil {
		h.logger.Error("session sync failed",
			slog.String("userID", session.User.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	tokenStr, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		h.logger.Error("session token issue failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// HttpOnly keeps the token out of reach of page scripts; SameSite=Lax
	// keeps it off cross-site POSTs.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    tokenStr,
		Path:     "/",
		MaxAge:   int(sessionCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("session established",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	writeJSON(w, http.StatusOK, sessionResponse{User: user, Permissions: session.Permissions})
}

// HandleMe returns the caller's identity: the validated backend session
// plus the local user row with its forum counters.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.users.GetByID(r.Context(), session.User.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		// First sight of this account: provision the local row now.
		user, err = h.users.Sync(r.Context(), session.User.ToUser())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user, Permissions: session.Permissions})
}

// HandleLogout clears the local session cookie. The backend session the
// cookie was minted from is untouched.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
