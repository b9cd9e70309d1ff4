package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
)

func TestPostCreate(t *testing.T) {
	svc, _ := newTestPostService(t)

	detail, err := svc.Create(context.Background(), CreatePostInput{
		ThreadID: "thread-1",
		AuthorID: "user-1",
		Content:  "  a trimmed reply  ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if detail.Content != "a trimmed reply" {
		t.Errorf("Content = %q, want trimmed", detail.Content)
	}
	if detail.Reactions == nil {
		t.Error("Reactions = nil, want empty slice")
	}
}

func TestPostCreate_Validation(t *testing.T) {
	svc, _ := newTestPostService(t)

	cases := []struct {
		name string
		in   CreatePostInput
	}{
		{"missing thread", CreatePostInput{AuthorID: "u", Content: "x"}},
		{"missing author", CreatePostInput{ThreadID: "t", Content: "x"}},
		{"blank content", CreatePostInput{ThreadID: "t", AuthorID: "u", Content: "   "}},
		{"content too long", CreatePostInput{ThreadID: "t", AuthorID: "u", Content: strings.Repeat("x", MaxContentLength+1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestPostReact(t *testing.T) {
	svc, repo := newTestPostService(t)
	ctx := context.Background()

	if err := svc.React(ctx, "post-1", "user-1", model.ReactionFire); err != nil {
		t.Fatalf("React() error = %v", err)
	}
	if len(repo.reactions) != 1 {
		t.Fatalf("got %d reactions, want 1", len(repo.reactions))
	}

	// Same reaction again is a conflict, surfaced untouched.
	err := svc.React(ctx, "post-1", "user-1", model.ReactionFire)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate React() error = %v, want ErrConflict", err)
	}
}

func TestPostReact_InvalidType(t *testing.T) {
	svc, _ := newTestPostService(t)

	err := svc.React(context.Background(), "post-1", "user-1", model.ReactionType("THUMBSDOWN"))
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("React() error = %v, want ErrValidation", err)
	}
}

func TestPostUnreact(t *testing.T) {
	svc, _ := newTestPostService(t)
	ctx := context.Background()

	if err := svc.React(ctx, "post-1", "user-1", model.ReactionLove); err != nil {
		t.Fatalf("React() error = %v", err)
	}
	if err := svc.Unreact(ctx, "post-1", "user-1", model.ReactionLove); err != nil {
		t.Fatalf("Unreact() error = %v", err)
	}

	err := svc.Unreact(ctx, "post-1", "user-1", model.ReactionLove)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Unreact() error = %v, want ErrNotFound", err)
	}
}

func TestPostReplies_BlankID(t *testing.T) {
	svc, _ := newTestPostService(t)

	_, err := svc.Replies(context.Background(), "  ")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Replies() error = %v, want ErrValidation", err)
	}
}

func TestPostDelete_NotFoundPassthrough(t *testing.T) {
	svc, _ := newTestPostService(t)

	err := svc.Delete(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
