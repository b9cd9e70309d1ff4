// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// UserRole is the forum-level role of a user.
//
// Identity lives in the external SaaS backend; the forum mirrors the role
// it is told about so listings can render moderator/admin markers without
// a backend round trip.
type UserRole string

const (
	RoleUser      UserRole = "USER"
	RoleModerator UserRole = "MODERATOR"
	RoleAdmin     UserRole = "ADMIN"
)

// Valid reports whether the role is one of the three known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is a forum member. The row is provisioned from the auth backend the
// first time a session for that user is seen; from then on the forum owns
// the forum-specific fields (reputation, post/thread totals).
//
// Reputation is adjusted only through the award operation and never drops
// below zero. Username and email are unique case-insensitively.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Image        string    `json:"image,omitempty"` // avatar reference, may be empty
	Bio          string    `json:"bio,omitempty"`
	Location     string    `json:"location,omitempty"`
	Website      string    `json:"website,omitempty"`
	Role         UserRole  `json:"role"`
	Reputation   int       `json:"reputation"`
	TotalPosts   int       `json:"totalPosts"`
	TotalThreads int       `json:"totalThreads"`
	IsVerified   bool      `json:"isVerified"`
	IsPremium    bool      `json:"isPremium"`
	JoinedAt     time.Time `json:"joinedAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}

// UserSummary is the author projection attached to threads and posts:
// just enough to render an author line, never the full profile.
type UserSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Username   string   `json:"username"`
	Image      string   `json:"image,omitempty"`
	Reputation int      `json:"reputation"`
	Role       UserRole `json:"role"`
}

// UserProfile is a user together with the badges they have earned.
// Used for the thread author block on the detail page.
type UserProfile struct {
	User
	Badges []EarnedBadge `json:"badges"`
}

// Summary projects the summary fields out of a full user row.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Username:   u.Username,
		Image:      u.Image,
		Reputation: u.Reputation,
		Role:       u.Role,
	}
}
