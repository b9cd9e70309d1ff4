package handler_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/rs/xid"

	"github.com/nurso96/PrintMaker-Forum/internal/auth"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
	"github.com/nurso96/PrintMaker-Forum/internal/repository/sqlite"
	"github.com/nurso96/PrintMaker-Forum/internal/service"
)

// Handler tests run against the real service and store stack on an
// in-memory database: the interesting failures here are in the glue
// (status mapping, auth context, JSON shapes), which mocks would hide.
type testEnv struct {
	db      *sqlite.DB
	tokens  *auth.TokenService
	logger  *slog.Logger
	threads *service.ThreadService
	posts   *service.PostService
	users   *service.UserService
	cats    *service.CategoryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return &testEnv{
		db:      db,
		tokens:  tokens,
		logger:  logger,
		threads: service.NewThreadService(db, logger),
		posts:   service.NewPostService(db, logger),
		users:   service.NewUserService(db, logger),
		cats:    service.NewCategoryService(db, db, logger),
	}
}

func (e *testEnv) seedUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{
		ID:       xid.New().String(),
		Name:     username,
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     model.RoleUser,
	}
	if err := e.db.UpsertUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %q: %v", username, err)
	}
	return user
}

func (e *testEnv) seedCategory(t *testing.T, slug string) *model.Category {
	t.Helper()
	category := &model.Category{Slug: slug, Name: slug, Position: 1}
	if err := e.db.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("failed to seed category %q: %v", slug, err)
	}
	return category
}

func (e *testEnv) seedThread(t *testing.T, categoryID, authorID, slug string) *model.Thread {
	t.Helper()
	thread := &model.Thread{
		CategoryID: categoryID,
		AuthorID:   authorID,
		Slug:       slug,
		Title:      slug,
		Content:    "content of " + slug,
	}
	if err := e.db.CreateThread(context.Background(), thread, nil); err != nil {
		t.Fatalf("failed to seed thread %q: %v", slug, err)
	}
	return thread
}

// authed wraps a handler in OptionalSession and attaches userID's session
// cookie to the request, the same way a logged-in browser would call it.
func (e *testEnv) authed(t *testing.T, h http.HandlerFunc, req *http.Request, userID string) http.Handler {
	t.Helper()
	token, err := e.tokens.Issue(userID, model.RoleUser)
	if err != nil {
		t.Fatalf("failed to issue session token: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	return auth.OptionalSession(e.tokens)(h)
}

func postInput(threadID, authorID, content string) service.CreatePostInput {
	return service.CreatePostInput{ThreadID: threadID, AuthorID: authorID, Content: content}
}

// brokenDB always fails its ping.
type brokenDB struct{}

func (brokenDB) Ping(ctx context.Context) error { return errors.New("connection refused") }
