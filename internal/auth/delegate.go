// Package auth integrates with the identity backend that owns accounts
// and sessions.
//
// The forum never authenticates users itself. A caller presents the
// backend's bearer token, the delegate client asks the backend whether the
// session is live and what the caller may do, and the answer travels with
// the request. The forum mirrors the account into a local user row and
// issues its own short-lived session JWT for cheap read-path
// personalization; everything that mutates state re-validates against the
// backend.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
)

// BackendUser is the backend's view of an account. Field names follow the
// backend's wire contract exactly; nullable fields arrive as empty
// strings.
type BackendUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	IsActive  bool   `json:"is_active"`
	IsPremium bool   `json:"is_premium"`
	IsAdmin   bool   `json:"is_admin"`

	ForumReputation   int    `json:"forum_reputation"`
	ForumRole         string `json:"forum_role"`
	ForumTotalPosts   int    `json:"forum_total_posts"`
	ForumTotalThreads int    `json:"forum_total_threads"`
	ForumBio          string `json:"forum_bio"`
	ForumLocation     string `json:"forum_location"`
	ForumWebsite      string `json:"forum_website"`
	ForumIsVerified   bool   `json:"forum_is_verified"`
	ForumLastActive   string `json:"forum_last_active"`
	ForumJoinedAt     string `json:"forum_joined_at"`

	AvatarURL       string `json:"avatar_url"`
	ReputationLevel string `json:"reputation_level"`
}

// Permissions is what the backend allows the session to do. can_admin
// implies the lesser permissions; the middleware applies that rule.
type Permissions struct {
	CanPost     bool `json:"can_post"`
	CanModerate bool `json:"can_moderate"`
	CanAdmin    bool `json:"can_admin"`
	IsPremium   bool `json:"is_premium"`
}

// Session is a validated backend session: who the caller is and what they
// may do, as of this request.
type Session struct {
	User        BackendUser `json:"user"`
	Permissions Permissions `json:"permissions"`
}

type validationResponse struct {
	Valid       bool        `json:"valid"`
	User        BackendUser `json:"user"`
	Permissions Permissions `json:"permissions"`
}

// ToUser maps the backend account onto a local user row. Identity fields
// come from the backend; the local store keeps its own counters after
// first sight.
func (u *BackendUser) ToUser() *model.User {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	role := model.UserRole(u.ForumRole)
	if !role.Valid() {
		role = model.RoleUser
	}

	user := &model.User{
		ID:         u.ID,
		Name:       name,
		Username:   u.Username,
		Email:      u.Email,
		Image:      u.AvatarURL,
		Bio:        u.ForumBio,
		Location:   u.ForumLocation,
		Website:    u.ForumWebsite,
		Role:       role,
		Reputation: u.ForumReputation,
		IsVerified: u.ForumIsVerified,
		IsPremium:  u.IsPremium,
	}
	if t, err := time.Parse(time.RFC3339, u.ForumJoinedAt); err == nil {
		user.JoinedAt = t
	}
	return user
}

// Client talks to the identity backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// authorizedClient returns an http.Client that attaches the caller's
// bearer token to every request, built on this client's timeout settings.
func (c *Client) authorizedClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return oauth2.NewClient(ctx, src)
}

// ValidateSession asks the backend whether the bearer token is a live
// session. A 401 — or a response marked invalid — means the caller is
// unauthorized. A transport failure is NOT an authorization failure: it
// surfaces as a plain error so the caller can distinguish "you may not"
// from "I could not ask". Denied sessions are never retried here.
func (c *Client) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperror.Unauthorized("missing bearer token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forum/auth/validate", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building validate request: %w", err)
	}

	resp, err := c.authorizedClient(ctx, token).Do(req)
	if err != nil {
		c.logger.Error("auth backend unreachable", slog.String("error", err.Error()))
		return nil, fmt.Errorf("auth: validating session: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperror.Unauthorized("session token rejected")
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("auth: backend returned status %d validating session", resp.StatusCode)
	}

	var vr validationResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("auth: decoding validate response: %w", err)
	}
	if !vr.Valid || vr.User.ID == "" {
		return nil, apperror.Unauthorized("session is not valid")
	}

	return &Session{User: vr.User, Permissions: vr.Permissions}, nil
}

// GetUserProfile fetches the backend's profile for a user. The token is
// optional; public profile data does not require one.
func (c *Client) GetUserProfile(ctx context.Context, userID, token string) (*BackendUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forum/auth/user/"+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building profile request: %w", err)
	}

	httpClient := c.httpClient
	if token != "" {
		httpClient = c.authorizedClient(ctx, token)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		c.logger.Error("auth backend unreachable", slog.String("error", err.Error()))
		return nil, fmt.Errorf("auth: fetching profile: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperror.NotFound("user", userID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("auth: backend returned status %d fetching profile", resp.StatusCode)
	}

	// The backend wraps the profile in a {user: ...} envelope.
	var envelope struct {
		User BackendUser `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("auth: decoding profile response: %w", err)
	}
	if envelope.User.ID == "" {
		return nil, apperror.NotFound("user", userID)
	}
	return &envelope.User, nil
}
