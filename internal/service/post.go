package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
	"github.com/nurso96/PrintMaker-Forum/internal/repository"
)

// PostService handles replies and reactions.
type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// CreatePostInput is decoded from the request body; AuthorID comes from
// the session.
type CreatePostInput struct {
	ThreadID string `json:"threadId" validate:"required"`
	ParentID string `json:"parentId"`
	Content  string `json:"content" validate:"required,max=50000"`

	AuthorID string `json:"-" validate:"required"`
}

// Create validates and stores a post. The repository enforces the thread
// rules (visible, unlocked) and the one-level reply depth.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*model.PostDetail, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	post := &model.Post{
		ThreadID: in.ThreadID,
		AuthorID: in.AuthorID,
		ParentID: strings.TrimSpace(in.ParentID),
		Content:  in.Content,
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	detail, err := s.posts.CreatePost(sctx, post)
	if err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("thread", post.ThreadID),
		slog.String("author", post.AuthorID),
	)
	return detail, nil
}

// Replies lists the visible children of a post, oldest first.
func (s *PostService) Replies(ctx context.Context, postID string) ([]model.PostDetail, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, apperror.ValidationFailed("id", "post id is required")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	replies, err := s.posts.ListReplies(sctx, postID)
	if err != nil {
		s.logger.Error("failed to list replies",
			slog.String("post", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing replies: %w", err)
	}
	return replies, nil
}

// Delete soft-deletes a post. Moderator-only at the transport layer.
func (s *PostService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "post id is required")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	if err := s.posts.SoftDeletePost(sctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted", slog.String("id", id))
	return nil
}

// React records a reaction on a post, at most one per user, post, and
// type.
func (s *PostService) React(ctx context.Context, postID, userID string, typ model.ReactionType) error {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return apperror.ValidationFailed("id", "post id is required")
	}
	if !typ.Valid() {
		return apperror.ValidationFailed("type", "type must be one of: LIKE, LOVE, LAUGH, FIRE, INSIGHTFUL")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	reaction := &model.Reaction{PostID: postID, UserID: userID, Type: typ}
	return s.posts.AddReaction(sctx, reaction)
}

// Unreact removes a previously recorded reaction.
func (s *PostService) Unreact(ctx context.Context, postID, userID string, typ model.ReactionType) error {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return apperror.ValidationFailed("id", "post id is required")
	}
	if !typ.Valid() {
		return apperror.ValidationFailed("type", "type must be one of: LIKE, LOVE, LAUGH, FIRE, INSIGHTFUL")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	return s.posts.RemoveReaction(sctx, postID, userID, typ)
}
