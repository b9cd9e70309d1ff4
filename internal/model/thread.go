package model

import "time"

// ThreadOrder selects the ranking mode for thread listings.
type ThreadOrder string

const (
	OrderRecent  ThreadOrder = "recent"  // last_activity_at descending
	OrderPopular ThreadOrder = "popular" // view_count descending
	OrderHot     ThreadOrder = "hot"     // post_count descending
)

// Valid reports whether the order is one of the three ranking modes.
func (o ThreadOrder) Valid() bool {
	switch o {
	case OrderRecent, OrderPopular, OrderHot:
		return true
	}
	return false
}

// Thread is a top-level discussion under a category (and optionally a
// subcategory).
//
// PostCount mirrors the count of non-deleted posts and LastActivityAt is
// refreshed on every post creation — both are maintained inside the same
// transaction as the write that invalidates them. Soft-deleted threads are
// invisible to every listing, detail, and search query.
type Thread struct {
	ID             string    `json:"id"`
	CategoryID     string    `json:"categoryId"`
	SubcategoryID  string    `json:"subcategoryId,omitempty"`
	AuthorID       string    `json:"authorId"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	IsSticky       bool      `json:"isSticky"`
	IsLocked       bool      `json:"isLocked"`
	IsDeleted      bool      `json:"isDeleted"`
	ViewCount      int       `json:"viewCount"`
	PostCount      int       `json:"postCount"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// LatestPost is the teaser attached to each listed thread: who wrote the
// most recent post, and when. Only the author's display name and handle
// are exposed.
type LatestPost struct {
	AuthorName     string    `json:"authorName"`
	AuthorUsername string    `json:"authorUsername"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ThreadListItem is one row of a thread listing, enriched with the
// projections the forum index page renders.
type ThreadListItem struct {
	Thread
	Author      UserSummary         `json:"author"`
	Category    CategorySummary     `json:"category"`
	Subcategory *SubcategorySummary `json:"subcategory,omitempty"`
	ReplyCount  int                 `json:"replyCount"`
	LatestPost  *LatestPost         `json:"latestPost,omitempty"`
}

// ThreadDetail is the full thread page payload: author with badges, full
// category/subcategory rows, every non-deleted post in ascending creation
// order, and the thread's tags.
type ThreadDetail struct {
	Thread
	Author      UserProfile  `json:"author"`
	Category    Category     `json:"category"`
	Subcategory *Subcategory `json:"subcategory,omitempty"`
	Posts       []PostDetail `json:"posts"`
	Tags        []Tag        `json:"tags"`
}

// Tag labels a thread; the association is many-to-many.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Stats is the forum-wide counter envelope served to the landing page
// and external dashboards.
type Stats struct {
	TotalUsers     int `json:"total_users"`
	TotalThreads   int `json:"total_threads"`
	TotalPosts     int `json:"total_posts"`
	RecentPosts24h int `json:"recent_posts_24h"`
	ActiveUsers24h int `json:"active_users_24h"`
}
