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

// Compile-time check that *DB satisfies the repository interface.
var _ repository.ThreadRepository = (*DB)(nil)

// listItemColumns is the projection every thread listing shares: the
// thread row, the author summary, the category/subcategory summaries, and
// the count of visible posts.
const listItemColumns = `
	t.id, t.category_id, t.subcategory_id, t.author_id, t.slug, t.title, t.content,
	t.is_sticky, t.is_locked, t.view_count, t.post_count,
	t.last_activity_at, t.created_at, t.updated_at,
	u.id, u.name, u.username, u.image, u.reputation, u.role,
	c.name, c.slug, c.color,
	s.name, s.slug,
	(SELECT COUNT(*) FROM posts p WHERE p.thread_id = t.id AND ` + postVisible + `) AS reply_count`

const listItemJoins = `
	FROM threads t
	JOIN users u ON u.id = t.author_id
	JOIN categories c ON c.id = t.category_id
	LEFT JOIN subcategories s ON s.id = t.subcategory_id`

// CreateThread inserts a thread, attaches its tags, and bumps the author's
// thread total — one transaction, so a failed tag insert never leaves a
// half-created thread behind.
func (db *DB) CreateThread(ctx context.Context, thread *model.Thread, tags []string) error {
	thread.ID = xid.New().String()

	now := time.Now().UTC()
	thread.CreatedAt = now
	thread.UpdatedAt = now
	thread.LastActivityAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning thread create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO threads (id, category_id, subcategory_id, author_id, slug, title, content,
		                      is_sticky, is_locked, is_deleted, view_count, post_count,
		                      last_activity_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?)`,
		thread.ID,
		thread.CategoryID,
		nullable(thread.SubcategoryID),
		thread.AuthorID,
		thread.Slug,
		thread.Title,
		thread.Content,
		thread.IsSticky,
		thread.IsLocked,
		thread.LastActivityAt,
		thread.CreatedAt,
		thread.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("thread", thread.Slug)
		}
		return fmt.Errorf("sqlite: creating thread: %w", err)
	}

	for _, name := range tags {
		tagID, err := db.upsertTag(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO thread_tags (thread_id, tag_id) VALUES (?, ?)`,
			thread.ID, tagID,
		); err != nil {
			return fmt.Errorf("sqlite: tagging thread: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET total_threads = total_threads + 1, last_active_at = ? WHERE id = ?`,
		now, thread.AuthorID,
	); err != nil {
		return fmt.Errorf("sqlite: bumping author thread total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing thread create: %w", err)
	}
	return nil
}

// upsertTag finds or creates the tag and returns its ID.
func (db *DB) upsertTag(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("sqlite: looking up tag %q: %w", name, err)
	}

	id = xid.New().String()
	if _, err := tx.ExecContext(ctx, `INSERT INTO tags (id, name) VALUES (?, ?)`, id, name); err != nil {
		return "", fmt.Errorf("sqlite: creating tag %q: %w", name, err)
	}
	return id, nil
}

// ListThreads returns visible threads under the optional category/subcategory
// filters, in the requested ranking order. The secondary `t.id DESC` keeps
// limit/offset pagination deterministic when the ranking column ties.
func (db *DB) ListThreads(ctx context.Context, opts repository.ThreadListOptions) ([]model.ThreadListItem, error) {
	orderCol := "t.last_activity_at"
	switch opts.Order {
	case model.OrderPopular:
		orderCol = "t.view_count"
	case model.OrderHot:
		orderCol = "t.post_count"
	}

	where := "WHERE " + threadVisible
	args := []any{}
	if opts.CategoryID != "" {
		where += " AND t.category_id = ?"
		args = append(args, opts.CategoryID)
	}
	if opts.SubcategoryID != "" {
		where += " AND t.subcategory_id = ?"
		args = append(args, opts.SubcategoryID)
	}
	args = append(args, opts.Limit, opts.Offset)

	query := "SELECT" + listItemColumns + listItemJoins + "\n\t" + where +
		"\n\tORDER BY " + orderCol + " DESC, t.id DESC\n\tLIMIT ? OFFSET ?"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing threads: %w", err)
	}
	defer rows.Close()

	items, err := scanListItems(rows)
	if err != nil {
		return nil, err
	}

	if err := db.attachLatestPosts(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// SearchThreads matches query as a case-insensitive substring of the title or
// content. Callers are responsible for rejecting empty queries; here an
// empty needle would match everything.
func (db *DB) SearchThreads(ctx context.Context, query string, limit int) ([]model.ThreadListItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT"+listItemColumns+listItemJoins+`
		WHERE `+threadVisible+`
		  AND (instr(lower(t.title), lower(?)) > 0 OR instr(lower(t.content), lower(?)) > 0)
		ORDER BY t.last_activity_at DESC, t.id DESC
		LIMIT ?`,
		query, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching threads: %w", err)
	}
	defer rows.Close()

	return scanListItems(rows)
}

func scanListItems(rows *sql.Rows) ([]model.ThreadListItem, error) {
	var items []model.ThreadListItem
	for rows.Next() {
		var (
			it      model.ThreadListItem
			subID   sql.NullString
			subName sql.NullString
			subSlug sql.NullString
		)
		if err := rows.Scan(
			&it.ID, &it.CategoryID, &subID, &it.AuthorID, &it.Slug, &it.Title, &it.Content,
			&it.IsSticky, &it.IsLocked, &it.ViewCount, &it.PostCount,
			&it.LastActivityAt, &it.CreatedAt, &it.UpdatedAt,
			&it.Author.ID, &it.Author.Name, &it.Author.Username, &it.Author.Image,
			&it.Author.Reputation, &it.Author.Role,
			&it.Category.Name, &it.Category.Slug, &it.Category.Color,
			&subName, &subSlug,
			&it.ReplyCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning thread row: %w", err)
		}
		it.SubcategoryID = subID.String
		if subName.Valid {
			it.Subcategory = &model.SubcategorySummary{Name: subName.String, Slug: subSlug.String}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating threads: %w", err)
	}
	if items == nil {
		items = []model.ThreadListItem{}
	}
	return items, nil
}

// attachLatestPosts fills the latest-post teaser for a page of threads in
// one query instead of one per row.
func (db *DB) attachLatestPosts(ctx context.Context, items []model.ThreadListItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]any, len(items))
	placeholders := make([]byte, 0, 2*len(items))
	for i := range items {
		ids[i] = items[i].ID
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.thread_id, u.name, u.username, p.created_at
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.thread_id IN (`+string(placeholders)+`) AND `+postVisible+`
		 ORDER BY p.created_at DESC, p.id DESC`,
		ids...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: fetching latest posts: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]*model.LatestPost, len(items))
	for rows.Next() {
		var threadID string
		var lp model.LatestPost
		if err := rows.Scan(&threadID, &lp.AuthorName, &lp.AuthorUsername, &lp.CreatedAt); err != nil {
			return fmt.Errorf("sqlite: scanning latest post: %w", err)
		}
		// Rows arrive newest first; keep only the first per thread.
		if _, seen := latest[threadID]; !seen {
			latest[threadID] = &lp
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating latest posts: %w", err)
	}

	for i := range items {
		items[i].LatestPost = latest[items[i].ID]
	}
	return nil
}

// GetThreadDetail resolves the thread addressed by the category slug + thread
// slug pair. The sequenced fetches (thread+author, badges, posts,
// reactions, tags) replace the original nested-include query with explicit
// field lists.
func (db *DB) GetThreadDetail(ctx context.Context, categorySlug, threadSlug string) (*model.ThreadDetail, error) {
	var (
		d     model.ThreadDetail
		subID sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT t.id, t.category_id, t.subcategory_id, t.author_id, t.slug, t.title, t.content,
		        t.is_sticky, t.is_locked, t.view_count, t.post_count,
		        t.last_activity_at, t.created_at, t.updated_at,
		        u.id, u.name, u.username, u.email, u.image, u.bio, u.location, u.website,
		        u.role, u.reputation, u.total_posts, u.total_threads,
		        u.is_verified, u.is_premium, u.joined_at, u.last_active_at,
		        c.id, c.slug, c.name, c.description, c.icon, c.color, c.position, c.created_at
		 FROM threads t
		 JOIN users u ON u.id = t.author_id
		 JOIN categories c ON c.id = t.category_id
		 WHERE c.slug = ? AND t.slug = ? AND `+threadVisible,
		categorySlug, threadSlug,
	).Scan(
		&d.ID, &d.CategoryID, &subID, &d.AuthorID, &d.Slug, &d.Title, &d.Content,
		&d.IsSticky, &d.IsLocked, &d.ViewCount, &d.PostCount,
		&d.LastActivityAt, &d.CreatedAt, &d.UpdatedAt,
		&d.Author.ID, &d.Author.Name, &d.Author.Username, &d.Author.Email, &d.Author.Image,
		&d.Author.Bio, &d.Author.Location, &d.Author.Website,
		&d.Author.Role, &d.Author.Reputation, &d.Author.TotalPosts, &d.Author.TotalThreads,
		&d.Author.IsVerified, &d.Author.IsPremium, &d.Author.JoinedAt, &d.Author.LastActiveAt,
		&d.Category.ID, &d.Category.Slug, &d.Category.Name, &d.Category.Description,
		&d.Category.Icon, &d.Category.Color, &d.Category.Position, &d.Category.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("thread", categorySlug+"/"+threadSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting thread %s/%s: %w", categorySlug, threadSlug, err)
	}
	d.SubcategoryID = subID.String

	if subID.Valid {
		sub, err := db.getSubcategory(ctx, subID.String)
		if err != nil {
			return nil, err
		}
		d.Subcategory = sub
	}

	badges, err := db.ListBadges(ctx, d.Author.ID)
	if err != nil {
		return nil, err
	}
	d.Author.Badges = badges

	posts, err := db.threadPosts(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Posts = posts

	tags, err := db.threadTags(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Tags = tags

	return &d, nil
}

func (db *DB) getSubcategory(ctx context.Context, id string) (*model.Subcategory, error) {
	var s model.Subcategory
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, category_id, slug, name, description, icon, position, created_at
		 FROM subcategories WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.CategoryID, &s.Slug, &s.Name, &s.Description, &s.Icon, &s.Position, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("subcategory", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting subcategory %s: %w", id, err)
	}
	return &s, nil
}

// threadPosts returns the visible posts of a thread in ascending creation
// order, each with author summary, reactions, and visible reply count.
func (db *DB) threadPosts(ctx context.Context, threadID string) ([]model.PostDetail, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postDetailColumns+`,
		        (SELECT COUNT(*) FROM posts r WHERE r.parent_id = p.id AND r.is_deleted = 0)
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.thread_id = ? AND `+postVisible+`
		 ORDER BY p.created_at ASC, p.id ASC`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing thread posts: %w", err)
	}
	defer rows.Close()

	posts, err := scanPostDetails(rows)
	if err != nil {
		return nil, err
	}
	if err := db.attachReactions(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (db *DB) threadTags(ctx context.Context, threadID string) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT g.id, g.name
		 FROM thread_tags tt
		 JOIN tags g ON g.id = tt.tag_id
		 WHERE tt.thread_id = ?
		 ORDER BY g.name ASC`,
		threadID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing thread tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

// SoftDeleteThread hides the thread from every listing, detail, and search
// query. The row itself stays.
func (db *DB) SoftDeleteThread(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE threads SET is_deleted = 1, updated_at = ? WHERE id = ? AND is_deleted = 0`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: soft-deleting thread %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("thread", id)
	}
	return nil
}

// IncrementViewCount is the only way a view is counted; retrieval
// operations never touch the counter. Single atomic UPDATE.
func (db *DB) IncrementViewCount(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE threads SET view_count = view_count + 1 WHERE id = ? AND is_deleted = 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing view count for %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("thread", id)
	}
	return nil
}

// nullable maps an empty string to SQL NULL for optional foreign keys.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
