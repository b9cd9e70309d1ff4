package handler

import (
	"log/slog"
	"net/http"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/auth"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
	"github.com/nurso96/PrintMaker-Forum/internal/service"
)

// PostHandler serves post creation, replies, reactions, and moderation.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

// HandleCreate adds a post to a thread, or a reply to a top-level post.
//
// HTTP: POST /api/posts (can_post)
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreatePostInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	in.AuthorID = userID

	post, err := h.posts.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("post created",
		slog.String("postID", post.ID),
		slog.String("threadID", post.ThreadID),
	)
	writeJSON(w, http.StatusCreated, post)
}

// HandleReplies lists the visible replies under a top-level post.
//
// HTTP: GET /api/posts/{id}/replies
func (h *PostHandler) HandleReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.posts.Replies(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

// reactionRequest is the body for adding a reaction.
type reactionRequest struct {
	Type model.ReactionType `json:"type"`
}

// HandleAddReaction records the caller's reaction on a post. One reaction
// per user per type per post; a repeat is a conflict.
//
// HTTP: POST /api/posts/{id}/reactions (can_post)
func (h *PostHandler) HandleAddReaction(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if err := h.posts.React(r.Context(), r.PathValue("id"), userID, req.Type); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// HandleRemoveReaction withdraws a previously recorded reaction.
//
// HTTP: DELETE /api/posts/{id}/reactions/{type} (can_post)
func (h *PostHandler) HandleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	typ := model.ReactionType(r.PathValue("type"))
	if err := h.posts.Unreact(r.Context(), r.PathValue("id"), userID, typ); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete soft-deletes a post and re-derives the thread's reply
// counter from what is still visible.
//
// HTTP: DELETE /api/posts/{id} (can_moderate)
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.posts.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	moderatorID, _ := auth.UserIDFromContext(r.Context())
	h.logger.Info("post removed",
		slog.String("postID", id),
		slog.String("moderatorID", moderatorID),
	)
	w.WriteHeader(http.StatusNoContent)
}
