package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
	"github.com/nurso96/PrintMaker-Forum/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// postDetailColumns is the shared projection for post listings: the post
// row plus its author summary.
const postDetailColumns = `
	p.id, p.thread_id, p.author_id, p.parent_id, p.content, p.created_at, p.updated_at,
	u.id, u.name, u.username, u.image, u.reputation, u.role`

// CreatePost inserts the post and refreshes the owning thread's derived
// counters in one transaction. post_count is recomputed from the visible
// posts rather than incremented, so a replay of the refresh always
// converges on the true count.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) (*model.PostDetail, error) {
	post.ID = xid.New().String()

	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning post create: %w", err)
	}
	defer tx.Rollback()

	// The thread must exist, be visible, and be open for posting.
	var isLocked, isDeleted bool
	err = tx.QueryRowContext(ctx,
		`SELECT is_locked, is_deleted FROM threads WHERE id = ?`, post.ThreadID,
	).Scan(&isLocked, &isDeleted)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("thread", post.ThreadID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking thread %s: %w", post.ThreadID, err)
	}
	if isDeleted {
		return nil, apperror.NotFound("thread", post.ThreadID)
	}
	if isLocked {
		return nil, apperror.Forbidden("thread is locked")
	}

	// Replies are one level deep: the parent must be a visible top-level
	// post of the same thread.
	if post.ParentID != "" {
		var parentThread string
		var parentParent sql.NullString
		var parentDeleted bool
		err = tx.QueryRowContext(ctx,
			`SELECT thread_id, parent_id, is_deleted FROM posts WHERE id = ?`, post.ParentID,
		).Scan(&parentThread, &parentParent, &parentDeleted)
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", post.ParentID)
		}
		if err != nil {
			return nil, fmt.Errorf("sqlite: checking parent post %s: %w", post.ParentID, err)
		}
		if parentDeleted {
			return nil, apperror.NotFound("post", post.ParentID)
		}
		if parentThread != post.ThreadID {
			return nil, apperror.ValidationFailed("parentId", "parent post belongs to a different thread")
		}
		if parentParent.Valid {
			return nil, apperror.ValidationFailed("parentId", "cannot reply to a reply")
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO posts (id, thread_id, author_id, parent_id, content, is_deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		post.ID, post.ThreadID, post.AuthorID, nullable(post.ParentID),
		post.Content, post.CreatedAt, post.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("sqlite: creating post: %w", err)
	}

	if err := refreshThreadStats(ctx, tx, post.ThreadID, now); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET total_posts = total_posts + 1, last_active_at = ? WHERE id = ?`,
		now, post.AuthorID,
	); err != nil {
		return nil, fmt.Errorf("sqlite: bumping author post total: %w", err)
	}

	var author model.UserSummary
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, username, image, reputation, role FROM users WHERE id = ?`,
		post.AuthorID,
	).Scan(&author.ID, &author.Name, &author.Username, &author.Image, &author.Reputation, &author.Role)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", post.AuthorID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading post author: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing post create: %w", err)
	}

	return &model.PostDetail{
		Post:      *post,
		Author:    author,
		Reactions: []model.Reaction{},
	}, nil
}

// refreshThreadStats recomputes post_count from the visible posts and
// stamps last_activity_at. Runs inside the caller's transaction.
func refreshThreadStats(ctx context.Context, tx *sql.Tx, threadID string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE threads
		 SET post_count = (SELECT COUNT(*) FROM posts p WHERE p.thread_id = ? AND `+postVisible+`),
		     last_activity_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		threadID, now, now, threadID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: refreshing thread stats for %s: %w", threadID, err)
	}
	return nil
}

func (db *DB) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	var parentID sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, thread_id, author_id, parent_id, content, is_deleted, created_at, updated_at
		 FROM posts WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.ThreadID, &p.AuthorID, &parentID, &p.Content, &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("post", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	p.ParentID = parentID.String
	return &p, nil
}

// ListReplies returns the visible children of a post, oldest first.
func (db *DB) ListReplies(ctx context.Context, postID string) ([]model.PostDetail, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postDetailColumns+`, 0
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.parent_id = ? AND `+postVisible+`
		 ORDER BY p.created_at ASC, p.id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing replies: %w", err)
	}
	defer rows.Close()

	replies, err := scanPostDetails(rows)
	if err != nil {
		return nil, err
	}
	if err := db.attachReactions(ctx, replies); err != nil {
		return nil, err
	}
	return replies, nil
}

func scanPostDetails(rows *sql.Rows) ([]model.PostDetail, error) {
	posts := []model.PostDetail{}
	for rows.Next() {
		var pd model.PostDetail
		var parentID sql.NullString
		if err := rows.Scan(
			&pd.ID, &pd.ThreadID, &pd.AuthorID, &parentID, &pd.Content, &pd.CreatedAt, &pd.UpdatedAt,
			&pd.Author.ID, &pd.Author.Name, &pd.Author.Username, &pd.Author.Image,
			&pd.Author.Reputation, &pd.Author.Role,
			&pd.ReplyCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		pd.ParentID = parentID.String
		pd.Reactions = []model.Reaction{}
		posts = append(posts, pd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// attachReactions loads the reactions for a page of posts in one query.
func (db *DB) attachReactions(ctx context.Context, posts []model.PostDetail) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]any, len(posts))
	placeholders := make([]byte, 0, 2*len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, post_id, user_id, type, created_at
		 FROM reactions
		 WHERE post_id IN (`+string(placeholders)+`)
		 ORDER BY created_at ASC, id ASC`,
		ids...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: fetching reactions: %w", err)
	}
	defer rows.Close()

	byPost := make(map[string][]model.Reaction)
	for rows.Next() {
		var r model.Reaction
		if err := rows.Scan(&r.ID, &r.PostID, &r.UserID, &r.Type, &r.CreatedAt); err != nil {
			return fmt.Errorf("sqlite: scanning reaction: %w", err)
		}
		byPost[r.PostID] = append(byPost[r.PostID], r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating reactions: %w", err)
	}

	for i := range posts {
		if rs := byPost[posts[i].ID]; rs != nil {
			posts[i].Reactions = rs
		}
	}
	return nil
}

// SoftDeletePost hides the post and recomputes the owning thread's post_count
// in the same transaction, keeping the counter true to the visible posts.
// last_activity_at is left alone — deleting a post is not activity.
func (db *DB) SoftDeletePost(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning post delete: %w", err)
	}
	defer tx.Rollback()

	var threadID string
	err = tx.QueryRowContext(ctx,
		`SELECT thread_id FROM posts WHERE id = ? AND is_deleted = 0`, id,
	).Scan(&threadID)
	if err == sql.ErrNoRows {
		return apperror.NotFound("post", id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: looking up post %s: %w", id, err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET is_deleted = 1, updated_at = ? WHERE id = ?`, now, id,
	); err != nil {
		return fmt.Errorf("sqlite: soft-deleting post %s: %w", id, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE threads
		 SET post_count = (SELECT COUNT(*) FROM posts p WHERE p.thread_id = ? AND `+postVisible+`),
		     updated_at = ?
		 WHERE id = ?`,
		threadID, now, threadID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: refreshing thread stats for %s: %w", threadID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing post delete: %w", err)
	}
	return nil
}

// AddReaction records a reaction. The UNIQUE(post_id, user_id, type)
// constraint enforces at-most-once per user per post per type.
func (db *DB) AddReaction(ctx context.Context, reaction *model.Reaction) error {
	reaction.ID = xid.New().String()
	reaction.CreatedAt = time.Now().UTC()

	// Reacting to an invisible post must read as "post not found".
	var deleted bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT is_deleted FROM posts WHERE id = ?`, reaction.PostID,
	).Scan(&deleted)
	if err == sql.ErrNoRows {
		return apperror.NotFound("post", reaction.PostID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: checking post %s: %w", reaction.PostID, err)
	}
	if deleted {
		return apperror.NotFound("post", reaction.PostID)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO reactions (id, post_id, user_id, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		reaction.ID, reaction.PostID, reaction.UserID, reaction.Type, reaction.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("reaction", fmt.Sprintf("%s/%s/%s", reaction.PostID, reaction.UserID, reaction.Type))
		}
		return fmt.Errorf("sqlite: creating reaction: %w", err)
	}
	return nil
}

func (db *DB) RemoveReaction(ctx context.Context, postID, userID string, typ model.ReactionType) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM reactions WHERE post_id = ? AND user_id = ? AND type = ?`,
		postID, userID, typ,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing reaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("reaction", fmt.Sprintf("%s/%s/%s", postID, userID, typ))
	}
	return nil
}
