package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
)

func validThreadInput() CreateThreadInput {
	return CreateThreadInput{
		CategoryID: "cat-1",
		AuthorID:   "user-1",
		Title:      "Using AI to Jumpstart Your CAD Workflow",
		Content:    "A walkthrough.",
		Tags:       []string{"ai", "cad"},
	}
}

func TestThreadCreate(t *testing.T) {
	svc, repo := newTestThreadService(t)

	thread, err := svc.Create(context.Background(), validThreadInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if thread.Slug != "using-ai-to-jumpstart-your-cad-workflow" {
		t.Errorf("Slug = %q, want %q", thread.Slug, "using-ai-to-jumpstart-your-cad-workflow")
	}
	if len(repo.lastTags) != 2 {
		t.Errorf("tags passed to repo = %v, want 2 entries", repo.lastTags)
	}
}

func TestThreadCreate_Validation(t *testing.T) {
	svc, _ := newTestThreadService(t)

	cases := []struct {
		name   string
		mutate func(*CreateThreadInput)
	}{
		{"missing category", func(in *CreateThreadInput) { in.CategoryID = "" }},
		{"missing author", func(in *CreateThreadInput) { in.AuthorID = "" }},
		{"empty title", func(in *CreateThreadInput) { in.Title = "   " }},
		{"title too long", func(in *CreateThreadInput) { in.Title = strings.Repeat("x", MaxTitleLength+1) }},
		{"empty content", func(in *CreateThreadInput) { in.Content = "" }},
		{"content too long", func(in *CreateThreadInput) { in.Content = strings.Repeat("x", MaxContentLength+1) }},
		{"too many tags", func(in *CreateThreadInput) { in.Tags = []string{"a", "b", "c", "d", "e", "f"} }},
		{"blank tag", func(in *CreateThreadInput) { in.Tags = []string{"ok", "  "} }},
		{"symbol-only title", func(in *CreateThreadInput) { in.Title = "!!! ???" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validThreadInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestThreadList_Defaults(t *testing.T) {
	svc, repo := newTestThreadService(t)

	if _, err := svc.List(context.Background(), ListThreadsInput{}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.lastOpts.Limit != DefaultListLimit {
		t.Errorf("Limit = %d, want default %d", repo.lastOpts.Limit, DefaultListLimit)
	}
	if repo.lastOpts.Order != model.OrderRecent {
		t.Errorf("Order = %q, want recent", repo.lastOpts.Order)
	}
}

func TestThreadList_ClampsLimit(t *testing.T) {
	svc, repo := newTestThreadService(t)

	// Oversized limits are capped, not rejected.
	if _, err := svc.List(context.Background(), ListThreadsInput{Limit: 1000, Offset: -5}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.lastOpts.Limit != MaxListLimit {
		t.Errorf("Limit = %d, want cap %d", repo.lastOpts.Limit, MaxListLimit)
	}
	if repo.lastOpts.Offset != 0 {
		t.Errorf("Offset = %d, want 0", repo.lastOpts.Offset)
	}
}

func TestThreadList_InvalidOrder(t *testing.T) {
	svc, _ := newTestThreadService(t)

	_, err := svc.List(context.Background(), ListThreadsInput{Order: "controversial"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("List() error = %v, want ErrValidation", err)
	}
}

func TestThreadSearch_BlankQuery(t *testing.T) {
	svc, _ := newTestThreadService(t)

	// A blank query matches nothing, not everything.
	results, err := svc.Search(context.Background(), "   ", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("Search() = %v, want empty slice", results)
	}
}

func TestThreadSearch_DefaultLimit(t *testing.T) {
	svc, repo := newTestThreadService(t)

	if _, err := svc.Search(context.Background(), "calibration", 0); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if repo.lastOpts.Limit != DefaultThreadSearchLimit {
		t.Errorf("Limit = %d, want default %d", repo.lastOpts.Limit, DefaultThreadSearchLimit)
	}
}

func TestThreadGetDetail_BlankSlugs(t *testing.T) {
	svc, _ := newTestThreadService(t)

	_, err := svc.GetDetail(context.Background(), "", "some-thread")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetDetail() error = %v, want ErrValidation", err)
	}
}

func TestThreadDelete_NotFoundPassthrough(t *testing.T) {
	svc, _ := newTestThreadService(t)

	err := svc.Delete(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestThreadCreate_RepoFailureWrapped(t *testing.T) {
	svc, repo := newTestThreadService(t)
	repo.err = errors.New("disk full")

	_, err := svc.Create(context.Background(), validThreadInput())
	if err == nil {
		t.Fatal("Create() expected an error")
	}
	// Infrastructure failures surface, never collapse into an empty
	// result or a validation error.
	if errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, should not be a validation failure", err)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Using AI to Jumpstart Your CAD Workflow", "using-ai-to-jumpstart-your-cad-workflow"},
		{"Hello, World!", "hello-world"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"ALL CAPS", "all-caps"},
		{"ender-3 v2 upgrades", "ender-3-v2-upgrades"},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
