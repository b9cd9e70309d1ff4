package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/xid"

	"github.com/nurso96/PrintMaker-Forum/internal/model"
)

// All repository tests run against an in-memory database: fast, isolated,
// and destroyed when the connection closes. newTestDB is the shared
// constructor; the seed* helpers below build the fixture rows that nearly
// every test needs. t.Helper() keeps failure output pointed at the caller.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		ID:       xid.New().String(),
		Name:     username,
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     model.RoleUser,
	}
	if err := db.UpsertUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %q: %v", username, err)
	}
	return user
}

func seedCategory(t *testing.T, db *DB, slug string, position int) *model.Category {
	t.Helper()
	category := &model.Category{
		Slug:     slug,
		Name:     slug,
		Position: position,
	}
	if err := db.CreateCategory(context.Background(), category); err != nil {
		t.Fatalf("failed to seed category %q: %v", slug, err)
	}
	return category
}

func seedThread(t *testing.T, db *DB, categoryID, authorID, slug string) *model.Thread {
	t.Helper()
	thread := &model.Thread{
		CategoryID: categoryID,
		AuthorID:   authorID,
		Slug:       slug,
		Title:      slug,
		Content:    "content of " + slug,
	}
	if err := db.CreateThread(context.Background(), thread, nil); err != nil {
		t.Fatalf("failed to seed thread %q: %v", slug, err)
	}
	return thread
}

func seedPost(t *testing.T, db *DB, threadID, authorID, content string) *model.PostDetail {
	t.Helper()
	post := &model.Post{
		ThreadID: threadID,
		AuthorID: authorID,
		Content:  content,
	}
	detail, err := db.CreatePost(context.Background(), post)
	if err != nil {
		t.Fatalf("failed to seed post in thread %s: %v", threadID, err)
	}
	return detail
}

// threadRow reads the raw counters straight off the threads table, so
// counter tests verify what is stored rather than what a query derives.
func threadRow(t *testing.T, db *DB, id string) (postCount, viewCount int) {
	t.Helper()
	err := db.conn.QueryRow(
		`SELECT post_count, view_count FROM threads WHERE id = ?`, id,
	).Scan(&postCount, &viewCount)
	if err != nil {
		t.Fatalf("failed to read thread row %s: %v", id, err)
	}
	return postCount, viewCount
}
