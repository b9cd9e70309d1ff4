package handler

import (
	"log/slog"
	"net/http"

	"github.com/nurso96/PrintMaker-Forum/internal/auth"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
	"github.com/nurso96/PrintMaker-Forum/internal/reputation"
	"github.com/nurso96/PrintMaker-Forum/internal/service"
)

// UserHandler serves public profiles, user search, and the moderation
// endpoints that touch reputation and badges.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// profileResponse is a user profile plus the presentation fields the
// client renders but never stores.
type profileResponse struct {
	model.UserProfile
	Tier           reputation.Tier `json:"tier"`
	AvatarGradient string          `json:"avatarGradient"`
	Initials       string          `json:"initials"`
}

// HandleProfile returns a public profile by username.
//
// HTTP: GET /api/users/{username}
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Profile(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		UserProfile:    *profile,
		Tier:           reputation.TierFor(profile.Reputation),
		AvatarGradient: reputation.AvatarGradient(profile.Name),
		Initials:       reputation.Initials(profile.Name),
	})
}

// HandleSearch matches users on username or display name.
//
// HTTP: GET /api/search/users?q=&limit=
func (h *UserHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := h.users.Search(r.Context(), r.URL.Query().Get("q"), queryInt(r.URL.Query().Get("limit")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleAwardReputation adjusts a user's reputation by a signed number of
// points. The score floors at zero no matter how large the deduction.
//
// HTTP: POST /api/users/{id}/reputation (can_moderate)
func (h *UserHandler) HandleAwardReputation(w http.ResponseWriter, r *http.Request) {
	var in service.AwardReputationInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	targetID := r.PathValue("id")
	if err := h.users.AwardReputation(r.Context(), targetID, in); err != nil {
		writeError(w, err)
		return
	}

	moderatorID, _ := auth.UserIDFromContext(r.Context())
	h.logger.Info("reputation adjusted",
		slog.String("userID", targetID),
		slog.Int("points", in.Points),
		slog.String("reason", in.Reason),
		slog.String("moderatorID", moderatorID),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateBadge defines a new badge type.
//
// HTTP: POST /api/badges (can_moderate)
func (h *UserHandler) HandleCreateBadge(w http.ResponseWriter, r *http.Request) {
	var in service.CreateBadgeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	badge, err := h.users.CreateBadge(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, badge)
}

// awardBadgeRequest is the body for granting a badge to a user.
type awardBadgeRequest struct {
	BadgeID string `json:"badgeId"`
}

// HandleAwardBadge grants a badge to a user. Each badge can be earned
// once; a second grant is a conflict.
//
// HTTP: POST /api/users/{id}/badges (can_moderate)
func (h *UserHandler) HandleAwardBadge(w http.ResponseWriter, r *http.Request) {
	var req awardBadgeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	targetID := r.PathValue("id")
	if err := h.users.AwardBadge(r.Context(), targetID, req.BadgeID); err != nil {
		writeError(w, err)
		return
	}

	moderatorID, _ := auth.UserIDFromContext(r.Context())
	h.logger.Info("badge awarded",
		slog.String("userID", targetID),
		slog.String("badgeID", req.BadgeID),
		slog.String("moderatorID", moderatorID),
	)
	w.WriteHeader(http.StatusCreated)
}
