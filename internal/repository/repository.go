// Package repository declares the storage interfaces the service layer is
// written against. The sqlite subpackage is the only implementation; tests
// substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/nurso96/PrintMaker-Forum/internal/model"
)

// ThreadListOptions filters and pages a thread listing. Zero-value fields
// mean "no filter"; Limit and Offset are clamped by the caller.
type ThreadListOptions struct {
	CategoryID    string
	SubcategoryID string
	Limit         int
	Offset        int
	Order         model.ThreadOrder
}

type ThreadRepository interface {
	// CreateThread inserts a thread plus its tag associations and bumps
	// the author's thread total, all in one transaction.
	CreateThread(ctx context.Context, thread *model.Thread, tags []string) error

	// ListThreads returns non-deleted threads ordered by the requested
	// ranking mode, enriched with author/category summaries, reply
	// counts, and the latest-post teaser.
	ListThreads(ctx context.Context, opts ThreadListOptions) ([]model.ThreadListItem, error)

	// GetThreadDetail resolves a thread by category slug + thread slug. A
	// thread that does not exist and one that was soft-deleted are both
	// absences.
	GetThreadDetail(ctx context.Context, categorySlug, threadSlug string) (*model.ThreadDetail, error)

	// SearchThreads matches the query as a case-insensitive substring of
	// the title or content, newest activity first.
	SearchThreads(ctx context.Context, query string, limit int) ([]model.ThreadListItem, error)

	SoftDeleteThread(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) error
}

type PostRepository interface {
	// CreatePost inserts the post and, in the same transaction, refreshes
	// the owning thread's post_count and last_activity_at and the
	// author's post total. Returns the post enriched with its author
	// summary.
	CreatePost(ctx context.Context, post *model.Post) (*model.PostDetail, error)

	GetPostByID(ctx context.Context, id string) (*model.Post, error)

	// ListReplies returns the non-deleted children of a post in ascending
	// creation order, each with author detail and reactions.
	ListReplies(ctx context.Context, postID string) ([]model.PostDetail, error)

	// SoftDeletePost flips is_deleted and recomputes the owning thread's
	// post_count in the same transaction.
	SoftDeletePost(ctx context.Context, id string) error

	AddReaction(ctx context.Context, reaction *model.Reaction) error
	RemoveReaction(ctx context.Context, postID, userID string, typ model.ReactionType) error
}

type UserRepository interface {
	// UpsertUser provisions or refreshes a user row from the auth
	// backend's view of the account. Forum-owned counters (reputation,
	// totals) are preserved on update.
	UpsertUser(ctx context.Context, user *model.User) error

	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// SearchUsers matches name or username case-insensitively, highest
	// reputation first.
	SearchUsers(ctx context.Context, query string, limit int) ([]model.UserSummary, error)

	// UpdateReputation applies a single atomic increment, clamped at
	// zero. Never implemented as read-then-write.
	UpdateReputation(ctx context.Context, id string, points int) error

	CreateBadge(ctx context.Context, badge *model.Badge) error
	AwardBadge(ctx context.Context, userID, badgeID string) error
	ListBadges(ctx context.Context, userID string) ([]model.EarnedBadge, error)
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	CreateSubcategory(ctx context.Context, sub *model.Subcategory) error

	// ListCategories returns all categories by position, each with its
	// ordered subcategories and non-deleted thread count.
	ListCategories(ctx context.Context) ([]model.Category, error)

	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
}

type StatsRepository interface {
	Stats(ctx context.Context) (*model.Stats, error)
}
