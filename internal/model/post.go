package model

import "time"

// Post is a message within a thread. A post may reply to another post via
// ParentID, and replies stay one level deep: a reply cannot itself have
// replies. Soft-deleted posts are excluded from thread detail and reply
// listings, and never count toward the thread's PostCount.
type Post struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	AuthorID  string    `json:"authorId"`
	ParentID  string    `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostDetail is a post enriched with its author summary, reactions, and
// reply count — the shape thread detail and reply listings return.
type PostDetail struct {
	Post
	Author     UserSummary `json:"author"`
	Reactions  []Reaction  `json:"reactions"`
	ReplyCount int         `json:"replyCount"`
}

// ReactionType is the fixed vocabulary of post reactions.
type ReactionType string

const (
	ReactionLike       ReactionType = "LIKE"
	ReactionLove       ReactionType = "LOVE"
	ReactionLaugh      ReactionType = "LAUGH"
	ReactionFire       ReactionType = "FIRE"
	ReactionInsightful ReactionType = "INSIGHTFUL"
)

// Valid reports whether the type is part of the reaction vocabulary.
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionLaugh, ReactionFire, ReactionInsightful:
		return true
	}
	return false
}

// Reaction records one user reacting to one post. A user may react to a
// given post with a given type at most once.
type Reaction struct {
	ID        string       `json:"id"`
	PostID    string       `json:"postId"`
	UserID    string       `json:"userId"`
	Type      ReactionType `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
}
