package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
	"github.com/nurso96/PrintMaker-Forum/internal/repository"
)

// UserService mirrors identity from the auth backend into local user rows
// and owns the forum-side account state: reputation and badges.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Sync provisions or refreshes the local row for a backend account. The
// backend owns identity; reputation and the activity totals stay local and
// survive the refresh.
func (s *UserService) Sync(ctx context.Context, user *model.User) (*model.User, error) {
	user.Name = strings.TrimSpace(user.Name)
	user.Username = strings.TrimSpace(user.Username)
	if user.ID == "" || user.Username == "" || user.Email == "" {
		return nil, apperror.ValidationFailed("user", "id, username, and email are required")
	}
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if !user.Role.Valid() {
		return nil, apperror.ValidationFailed("role", "role must be one of: USER, MODERATOR, ADMIN")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	if err := s.users.UpsertUser(sctx, user); err != nil {
		s.logger.Error("failed to sync user",
			slog.String("id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("syncing user: %w", err)
	}

	// Read back so callers see the merged row, counters included.
	synced, err := s.users.GetUserByID(sctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("loading synced user: %w", err)
	}
	return synced, nil
}

// GetByID returns the local user row.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user id is required")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	return s.users.GetUserByID(sctx, id)
}

// Profile returns a user with their earned badges, addressed by username.
func (s *UserService) Profile(ctx context.Context, username string) (*model.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	user, err := s.users.GetUserByUsername(sctx, username)
	if err != nil {
		return nil, err
	}
	badges, err := s.users.ListBadges(sctx, user.ID)
	if err != nil {
		s.logger.Error("failed to list badges",
			slog.String("user", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing badges: %w", err)
	}
	return &model.UserProfile{User: *user, Badges: badges}, nil
}

// Search finds users by name or username, highest reputation first. A
// blank query matches nothing.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]model.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.UserSummary{}, nil
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	results, err := s.users.SearchUsers(sctx, query, clampLimit(limit, DefaultUserSearchLimit))
	if err != nil {
		s.logger.Error("failed to search users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return results, nil
}

// AwardReputationInput is the moderator's award payload.
type AwardReputationInput struct {
	Points int    `json:"points" validate:"ne=0,min=-1000,max=1000"`
	Reason string `json:"reason" validate:"max=200"`
}

// AwardReputation applies a reputation change to the target user. The
// amount is applied atomically and the balance never drops below zero.
// Permission to award is enforced at the transport layer.
func (s *UserService) AwardReputation(ctx context.Context, userID string, in AwardReputationInput) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperror.ValidationFailed("id", "user id is required")
	}
	if err := checkStruct(in); err != nil {
		return err
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	if err := s.users.UpdateReputation(sctx, userID, in.Points); err != nil {
		return err
	}

	s.logger.Info("reputation awarded",
		slog.String("user", userID),
		slog.Int("points", in.Points),
		slog.String("reason", in.Reason),
	)
	return nil
}

// CreateBadgeInput defines a new badge type.
type CreateBadgeInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=200"`
	Icon        string `json:"icon" validate:"max=50"`
	Color       string `json:"color" validate:"max=50"`
	Rarity      string `json:"rarity"`
}

// CreateBadge registers a badge type moderators can then award.
func (s *UserService) CreateBadge(ctx context.Context, in CreateBadgeInput) (*model.Badge, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	rarity := model.RarityCommon
	if in.Rarity != "" {
		rarity = model.BadgeRarity(in.Rarity)
		if !rarity.Valid() {
			return nil, apperror.ValidationFailed("rarity", "rarity must be one of: COMMON, UNCOMMON, RARE, EPIC, LEGENDARY")
		}
	}

	badge := &model.Badge{
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		Rarity:      rarity,
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	if err := s.users.CreateBadge(sctx, badge); err != nil {
		return nil, err
	}

	s.logger.Info("badge created", slog.String("id", badge.ID), slog.String("name", badge.Name))
	return badge, nil
}

// AwardBadge grants an existing badge to a user. Each badge is held at
// most once.
func (s *UserService) AwardBadge(ctx context.Context, userID, badgeID string) error {
	userID = strings.TrimSpace(userID)
	badgeID = strings.TrimSpace(badgeID)
	if userID == "" || badgeID == "" {
		return apperror.ValidationFailed("id", "user id and badge id are required")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	if err := s.users.AwardBadge(sctx, userID, badgeID); err != nil {
		return err
	}

	s.logger.Info("badge awarded",
		slog.String("user", userID),
		slog.String("badge", badgeID),
	)
	return nil
}
