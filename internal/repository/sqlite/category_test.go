package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
)

func TestCreateCategory_DuplicateSlug(t *testing.T) {
	db := newTestDB(t)
	seedCategory(t, db, "general", 0)

	dup := &model.Category{Slug: "general", Name: "General Again"}
	err := db.CreateCategory(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateCategory() error = %v, want ErrConflict", err)
	}
}

func TestCreateSubcategory_SlugScopedToCategory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := seedCategory(t, db, "printers", 0)
	b := seedCategory(t, db, "materials", 1)

	if err := db.CreateSubcategory(ctx, &model.Subcategory{CategoryID: a.ID, Slug: "guides", Name: "Guides"}); err != nil {
		t.Fatalf("CreateSubcategory() error = %v", err)
	}
	// Same slug under the other category is a different subcategory.
	if err := db.CreateSubcategory(ctx, &model.Subcategory{CategoryID: b.ID, Slug: "guides", Name: "Guides"}); err != nil {
		t.Fatalf("CreateSubcategory(other category) error = %v", err)
	}
	// Same slug under the same category is not.
	err := db.CreateSubcategory(ctx, &model.Subcategory{CategoryID: a.ID, Slug: "guides", Name: "Guides Again"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate CreateSubcategory() error = %v, want ErrConflict", err)
	}
}

func TestListCategories(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := seedUser(t, db, "alice")

	// Positions deliberately out of insert order.
	second := seedCategory(t, db, "showcase", 2)
	first := seedCategory(t, db, "general", 1)
	if err := db.CreateSubcategory(ctx, &model.Subcategory{CategoryID: first.ID, Slug: "faq", Name: "FAQ"}); err != nil {
		t.Fatalf("CreateSubcategory() error = %v", err)
	}

	seedThread(t, db, first.ID, author.ID, "kept")
	doomed := seedThread(t, db, first.ID, author.ID, "doomed")
	if err := db.SoftDeleteThread(ctx, doomed.ID); err != nil {
		t.Fatalf("SoftDeleteThread() error = %v", err)
	}
	seedThread(t, db, second.ID, author.ID, "build-log")

	categories, err := db.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(categories))
	}

	if categories[0].Slug != "general" || categories[1].Slug != "showcase" {
		t.Errorf("order = [%s, %s], want [general, showcase]", categories[0].Slug, categories[1].Slug)
	}
	if len(categories[0].Subcategories) != 1 || categories[0].Subcategories[0].Slug != "faq" {
		t.Errorf("general subcategories = %+v, want [faq]", categories[0].Subcategories)
	}
	// Thread counts exclude the soft-deleted thread.
	if categories[0].ThreadCount != 1 {
		t.Errorf("general ThreadCount = %d, want 1", categories[0].ThreadCount)
	}
	if categories[1].ThreadCount != 1 {
		t.Errorf("showcase ThreadCount = %d, want 1", categories[1].ThreadCount)
	}
}

func TestListCategories_Empty(t *testing.T) {
	db := newTestDB(t)

	categories, err := db.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if categories == nil {
		t.Fatal("ListCategories() returned nil, want empty slice")
	}
	if len(categories) != 0 {
		t.Errorf("got %d categories, want 0", len(categories))
	}
}

func TestGetCategoryBySlug(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	category := seedCategory(t, db, "tutorials", 0)
	if err := db.CreateSubcategory(ctx, &model.Subcategory{CategoryID: category.ID, Slug: "ai-guides", Name: "AI Guides"}); err != nil {
		t.Fatalf("CreateSubcategory() error = %v", err)
	}
	seedThread(t, db, category.ID, author.ID, "guide-one")

	got, err := db.GetCategoryBySlug(ctx, "tutorials")
	if err != nil {
		t.Fatalf("GetCategoryBySlug() error = %v", err)
	}
	if got.Name != "tutorials" {
		t.Errorf("Name = %q, want %q", got.Name, "tutorials")
	}
	if len(got.Subcategories) != 1 {
		t.Errorf("got %d subcategories, want 1", len(got.Subcategories))
	}
	if got.ThreadCount != 1 {
		t.Errorf("ThreadCount = %d, want 1", got.ThreadCount)
	}
}

func TestGetCategoryBySlug_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetCategoryBySlug(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCategoryBySlug() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// STATS TESTS
// =========================================================================

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	category := seedCategory(t, db, "general", 0)

	thread := seedThread(t, db, category.ID, alice.ID, "discussion")
	seedPost(t, db, thread.ID, bob.ID, "reply one")
	deleted := seedPost(t, db, thread.ID, bob.ID, "reply two")
	if err := db.SoftDeletePost(ctx, deleted.ID); err != nil {
		t.Fatalf("SoftDeletePost() error = %v", err)
	}

	ghost := seedThread(t, db, category.ID, alice.ID, "ghost")
	if err := db.SoftDeleteThread(ctx, ghost.ID); err != nil {
		t.Fatalf("SoftDeleteThread() error = %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if stats.TotalUsers != 2 {
		t.Errorf("TotalUsers = %d, want 2", stats.TotalUsers)
	}
	if stats.TotalThreads != 1 {
		t.Errorf("TotalThreads = %d, want 1 (deleted thread excluded)", stats.TotalThreads)
	}
	if stats.TotalPosts != 1 {
		t.Errorf("TotalPosts = %d, want 1 (deleted post excluded)", stats.TotalPosts)
	}
	// Everything here happened just now, inside the 24h window.
	if stats.RecentPosts24h != 1 {
		t.Errorf("RecentPosts24h = %d, want 1", stats.RecentPosts24h)
	}
	if stats.ActiveUsers24h != 2 {
		t.Errorf("ActiveUsers24h = %d, want 2", stats.ActiveUsers24h)
	}
}

func TestStats_Empty(t *testing.T) {
	db := newTestDB(t)

	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalUsers != 0 || stats.TotalThreads != 0 || stats.TotalPosts != 0 {
		t.Errorf("empty stats = %+v, want all zeros", stats)
	}
}
