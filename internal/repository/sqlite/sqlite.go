// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite — no CGo, no C
// compiler, works everywhere Go works. The database is a single file (or
// ":memory:" in tests), which is all a single-server forum deployment
// needs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// Soft-delete predicates used by every retrieval query. Keeping them as
// named fragments means there is exactly one place where "visible" is
// defined — a query that forgets the filter won't type the invariant by
// accident.
const (
	threadVisible = "t.is_deleted = 0"
	postVisible   = "p.is_deleted = 0"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// It is safe for concurrent use; all derived-counter updates happen as
// single SQL statements or inside one transaction.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection for the whole pool. SQLite allows a single writer, so
	// extra connections only produce SQLITE_BUSY errors — and a ":memory:"
	// database is private to its connection, so a second one would see no
	// tables at all.
	conn.SetMaxOpenConns(1)

	// Surface a bad path or permissions problem now, not on first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL keeps commits cheap; the default rollback journal rewrites the
	// main file on every write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; the schema leans on them
	// for referential integrity between users, threads, and posts.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers should defer this right after
// New so the WAL is flushed and the file lock released on every exit path.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the store is reachable. The health endpoint calls this.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start.
func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id             TEXT PRIMARY KEY,
				name           TEXT NOT NULL,
				username       TEXT NOT NULL UNIQUE COLLATE NOCASE,
				email          TEXT NOT NULL UNIQUE COLLATE NOCASE,
				image          TEXT NOT NULL DEFAULT '',
				bio            TEXT NOT NULL DEFAULT '',
				location       TEXT NOT NULL DEFAULT '',
				website        TEXT NOT NULL DEFAULT '',
				role           TEXT NOT NULL DEFAULT 'USER',
				reputation     INTEGER NOT NULL DEFAULT 0 CHECK (reputation >= 0),
				total_posts    INTEGER NOT NULL DEFAULT 0,
				total_threads  INTEGER NOT NULL DEFAULT 0,
				is_verified    INTEGER NOT NULL DEFAULT 0,
				is_premium     INTEGER NOT NULL DEFAULT 0,
				joined_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				last_active_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`},
		{"categories", `
			CREATE TABLE IF NOT EXISTS categories (
				id          TEXT PRIMARY KEY,
				slug        TEXT NOT NULL UNIQUE,
				name        TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				icon        TEXT NOT NULL DEFAULT '',
				color       TEXT NOT NULL DEFAULT '',
				position    INTEGER NOT NULL DEFAULT 0,
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`},
		{"subcategories", `
			CREATE TABLE IF NOT EXISTS subcategories (
				id          TEXT PRIMARY KEY,
				category_id TEXT NOT NULL REFERENCES categories(id),
				slug        TEXT NOT NULL,
				name        TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				icon        TEXT NOT NULL DEFAULT '',
				position    INTEGER NOT NULL DEFAULT 0,
				created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (category_id, slug)
			);
		`},
		{"threads", `
			CREATE TABLE IF NOT EXISTS threads (
				id               TEXT PRIMARY KEY,
				category_id      TEXT NOT NULL REFERENCES categories(id),
				subcategory_id   TEXT REFERENCES subcategories(id),
				author_id        TEXT NOT NULL REFERENCES users(id),
				slug             TEXT NOT NULL,
				title            TEXT NOT NULL,
				content          TEXT NOT NULL,
				is_sticky        INTEGER NOT NULL DEFAULT 0,
				is_locked        INTEGER NOT NULL DEFAULT 0,
				is_deleted       INTEGER NOT NULL DEFAULT 0,
				view_count       INTEGER NOT NULL DEFAULT 0,
				post_count       INTEGER NOT NULL DEFAULT 0,
				last_activity_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (category_id, slug)
			);
			CREATE INDEX IF NOT EXISTS idx_threads_category ON threads(category_id);
			CREATE INDEX IF NOT EXISTS idx_threads_subcategory ON threads(subcategory_id);
			CREATE INDEX IF NOT EXISTS idx_threads_last_activity ON threads(last_activity_at);
			CREATE INDEX IF NOT EXISTS idx_threads_view_count ON threads(view_count);
			CREATE INDEX IF NOT EXISTS idx_threads_post_count ON threads(post_count);
		`},
		{"posts", `
			CREATE TABLE IF NOT EXISTS posts (
				id         TEXT PRIMARY KEY,
				thread_id  TEXT NOT NULL REFERENCES threads(id),
				author_id  TEXT NOT NULL REFERENCES users(id),
				parent_id  TEXT REFERENCES posts(id),
				content    TEXT NOT NULL,
				is_deleted INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_posts_thread ON posts(thread_id);
			CREATE INDEX IF NOT EXISTS idx_posts_parent ON posts(parent_id);
		`},
		{"tags", `
			CREATE TABLE IF NOT EXISTS tags (
				id   TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE COLLATE NOCASE
			);
			CREATE TABLE IF NOT EXISTS thread_tags (
				thread_id TEXT NOT NULL REFERENCES threads(id),
				tag_id    TEXT NOT NULL REFERENCES tags(id),
				PRIMARY KEY (thread_id, tag_id)
			);
		`},
		{"badges", `
			CREATE TABLE IF NOT EXISTS badges (
				id          TEXT PRIMARY KEY,
				name        TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				icon        TEXT NOT NULL DEFAULT '',
				color       TEXT NOT NULL DEFAULT '',
				rarity      TEXT NOT NULL DEFAULT 'COMMON'
			);
			CREATE TABLE IF NOT EXISTS user_badges (
				user_id   TEXT NOT NULL REFERENCES users(id),
				badge_id  TEXT NOT NULL REFERENCES badges(id),
				earned_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				PRIMARY KEY (user_id, badge_id)
			);
		`},
		{"reactions", `
			CREATE TABLE IF NOT EXISTS reactions (
				id         TEXT PRIMARY KEY,
				post_id    TEXT NOT NULL REFERENCES posts(id),
				user_id    TEXT NOT NULL REFERENCES users(id),
				type       TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (post_id, user_id, type)
			);
			CREATE INDEX IF NOT EXISTS idx_reactions_post ON reactions(post_id);
		`},
	}

	for _, s := range stmts {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s tables: %w", s.name, err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The pure-Go driver exposes this only through the message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
