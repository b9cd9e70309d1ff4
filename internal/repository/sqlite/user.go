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

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, username, email, image, bio, location, website,
	role, reputation, total_posts, total_threads, is_verified, is_premium,
	joined_at, last_active_at`

// UpsertUser provisions a user from the auth backend's account record, or
// refreshes the identity fields if the row already exists. Forum-owned
// counters (reputation, totals) are written only on first insert — the
// award and post/thread operations are their sole writers afterwards.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	if user.JoinedAt.IsZero() {
		user.JoinedAt = now
	}
	user.LastActiveAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     username = excluded.username,
		     email = excluded.email,
		     image = excluded.image,
		     bio = excluded.bio,
		     location = excluded.location,
		     website = excluded.website,
		     role = excluded.role,
		     is_verified = excluded.is_verified,
		     is_premium = excluded.is_premium,
		     last_active_at = excluded.last_active_at`,
		user.ID, user.Name, user.Username, user.Email, user.Image, user.Bio,
		user.Location, user.Website, user.Role, user.Reputation,
		user.TotalPosts, user.TotalThreads, user.IsVerified, user.IsPremium,
		user.JoinedAt, user.LastActiveAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: upserting user %s: %w", user.ID, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id", id)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, "username", username)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, "email", email)
}

// getUser is the shared single-row lookup. column is always one of the
// three fixed names above, never caller input.
func (db *DB) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value,
	).Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.Image, &u.Bio, &u.Location, &u.Website,
		&u.Role, &u.Reputation, &u.TotalPosts, &u.TotalThreads, &u.IsVerified, &u.IsPremium,
		&u.JoinedAt, &u.LastActiveAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", value)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by %s %q: %w", column, value, err)
	}
	return &u, nil
}

// SearchUsers matches name or username case-insensitively, best reputation
// first. Empty queries are rejected upstream.
func (db *DB) SearchUsers(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, username, image, reputation, role
		 FROM users
		 WHERE instr(lower(name), lower(?)) > 0 OR instr(lower(username), lower(?)) > 0
		 ORDER BY reputation DESC, id ASC
		 LIMIT ?`,
		query, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching users: %w", err)
	}
	defer rows.Close()

	users := []model.UserSummary{}
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Image, &u.Reputation, &u.Role); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// UpdateReputation applies the increment in a single UPDATE so concurrent
// awards cannot lose each other. MAX keeps the score at or above zero;
// penalties larger than the current score floor it rather than going
// negative.
func (db *DB) UpdateReputation(ctx context.Context, id string, points int) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET reputation = MAX(0, reputation + ?) WHERE id = ?`,
		points, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating reputation for %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func (db *DB) CreateBadge(ctx context.Context, badge *model.Badge) error {
	badge.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO badges (id, name, description, icon, color, rarity) VALUES (?, ?, ?, ?, ?, ?)`,
		badge.ID, badge.Name, badge.Description, badge.Icon, badge.Color, badge.Rarity,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("badge", badge.Name)
		}
		return fmt.Errorf("sqlite: creating badge: %w", err)
	}
	return nil
}

// AwardBadge records the earn. The PRIMARY KEY (user_id, badge_id) makes a
// second award of the same badge a Conflict.
func (db *DB) AwardBadge(ctx context.Context, userID, badgeID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_badges (user_id, badge_id, earned_at) VALUES (?, ?, ?)`,
		userID, badgeID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("badge", fmt.Sprintf("%s/%s", userID, badgeID))
		}
		// A missing user or badge surfaces as a foreign key failure.
		return fmt.Errorf("sqlite: awarding badge %s to %s: %w", badgeID, userID, err)
	}
	return nil
}

func (db *DB) ListBadges(ctx context.Context, userID string) ([]model.EarnedBadge, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT b.id, b.name, b.description, b.icon, b.color, b.rarity, ub.earned_at
		 FROM user_badges ub
		 JOIN badges b ON b.id = ub.badge_id
		 WHERE ub.user_id = ?
		 ORDER BY ub.earned_at ASC, b.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing badges for %s: %w", userID, err)
	}
	defer rows.Close()

	badges := []model.EarnedBadge{}
	for rows.Next() {
		var b model.EarnedBadge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Color, &b.Rarity, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning badge row: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating badges: %w", err)
	}
	return badges, nil
}
