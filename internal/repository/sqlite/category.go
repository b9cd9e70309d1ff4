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

var _ repository.CategoryRepository = (*DB)(nil)

const categoryColumns = `id, slug, name, description, icon, color, position, created_at`

func (db *DB) CreateCategory(ctx context.Context, category *model.Category) error {
	category.ID = xid.New().String()
	category.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		category.ID, category.Slug, category.Name, category.Description,
		category.Icon, category.Color, category.Position, category.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("category", category.Slug)
		}
		return fmt.Errorf("sqlite: creating category: %w", err)
	}
	return nil
}

func (db *DB) CreateSubcategory(ctx context.Context, sub *model.Subcategory) error {
	sub.ID = xid.New().String()
	sub.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO subcategories (id, category_id, slug, name, description, icon, position, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.CategoryID, sub.Slug, sub.Name, sub.Description,
		sub.Icon, sub.Position, sub.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("subcategory", sub.CategoryID+"/"+sub.Slug)
		}
		return fmt.Errorf("sqlite: creating subcategory: %w", err)
	}
	return nil
}

// ListCategories returns every category by position with its ordered
// subcategories and count of visible threads. Three queries, stitched in
// memory — the category set is small by construction.
func (db *DB) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY position ASC, slug ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	index := map[string]int{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.Icon, &c.Color, &c.Position, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category row: %w", err)
		}
		c.Subcategories = []model.Subcategory{}
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating categories: %w", err)
	}

	subs, err := db.conn.QueryContext(ctx,
		`SELECT id, category_id, slug, name, description, icon, position, created_at
		 FROM subcategories ORDER BY position ASC, slug ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing subcategories: %w", err)
	}
	defer subs.Close()

	for subs.Next() {
		var s model.Subcategory
		if err := subs.Scan(&s.ID, &s.CategoryID, &s.Slug, &s.Name, &s.Description, &s.Icon, &s.Position, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning subcategory row: %w", err)
		}
		if i, ok := index[s.CategoryID]; ok {
			categories[i].Subcategories = append(categories[i].Subcategories, s)
		}
	}
	if err := subs.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating subcategories: %w", err)
	}

	counts, err := db.conn.QueryContext(ctx,
		`SELECT t.category_id, COUNT(*) FROM threads t WHERE `+threadVisible+` GROUP BY t.category_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting category threads: %w", err)
	}
	defer counts.Close()

	for counts.Next() {
		var categoryID string
		var n int
		if err := counts.Scan(&categoryID, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning thread count: %w", err)
		}
		if i, ok := index[categoryID]; ok {
			categories[i].ThreadCount = n
		}
	}
	if err := counts.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating thread counts: %w", err)
	}

	return categories, nil
}

// GetCategoryBySlug returns one category with its ordered subcategories.
func (db *DB) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var c model.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`, slug,
	).Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.Icon, &c.Color, &c.Position, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("category", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting category %q: %w", slug, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, category_id, slug, name, description, icon, position, created_at
		 FROM subcategories WHERE category_id = ? ORDER BY position ASC, slug ASC`,
		c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing subcategories of %q: %w", slug, err)
	}
	defer rows.Close()

	c.Subcategories = []model.Subcategory{}
	for rows.Next() {
		var s model.Subcategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Slug, &s.Name, &s.Description, &s.Icon, &s.Position, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning subcategory row: %w", err)
		}
		c.Subcategories = append(c.Subcategories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating subcategories: %w", err)
	}

	var count int
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM threads t WHERE t.category_id = ? AND `+threadVisible, c.ID,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting threads of %q: %w", slug, err)
	}
	c.ThreadCount = count

	return &c, nil
}

// Stats aggregates the forum-wide counters in one pass. "Recent" and
// "active" both mean the trailing 24 hours.
func (db *DB) Stats(ctx context.Context) (*model.Stats, error) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	var s model.Stats
	err := db.conn.QueryRowContext(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM users),
		    (SELECT COUNT(*) FROM threads t WHERE `+threadVisible+`),
		    (SELECT COUNT(*) FROM posts p WHERE `+postVisible+`),
		    (SELECT COUNT(*) FROM posts p WHERE `+postVisible+` AND p.created_at >= ?),
		    (SELECT COUNT(*) FROM users WHERE last_active_at >= ?)`,
		cutoff, cutoff,
	).Scan(&s.TotalUsers, &s.TotalThreads, &s.TotalPosts, &s.RecentPosts24h, &s.ActiveUsers24h)
	if err != nil {
		return nil, fmt.Errorf("sqlite: computing stats: %w", err)
	}
	return &s, nil
}
