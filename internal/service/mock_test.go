package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/model"
	"github.com/nurso96/PrintMaker-Forum/internal/repository"
)

// Hand-written in-memory mocks for the repository interfaces. They store
// just enough state to observe what the service asked for; the SQL-level
// behavior (counters, soft-delete filters) is covered by the sqlite
// package's own tests.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- threads ---

type mockThreadRepo struct {
	threads  map[string]*model.Thread
	lastOpts repository.ThreadListOptions
	lastTags []string
	nextID   int
	err      error // returned by every call when set
}

var _ repository.ThreadRepository = (*mockThreadRepo)(nil)

func newMockThreadRepo() *mockThreadRepo {
	return &mockThreadRepo{threads: make(map[string]*model.Thread)}
}

func (m *mockThreadRepo) CreateThread(_ context.Context, thread *model.Thread, tags []string) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	thread.ID = fmt.Sprintf("thread-%d", m.nextID)
	m.lastTags = tags
	stored := *thread
	m.threads[thread.ID] = &stored
	return nil
}

func (m *mockThreadRepo) ListThreads(_ context.Context, opts repository.ThreadListOptions) ([]model.ThreadListItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastOpts = opts
	return []model.ThreadListItem{}, nil
}

func (m *mockThreadRepo) GetThreadDetail(_ context.Context, categorySlug, threadSlug string) (*model.ThreadDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, th := range m.threads {
		if th.Slug == threadSlug {
			return &model.ThreadDetail{Thread: *th}, nil
		}
	}
	return nil, apperror.NotFound("thread", categorySlug+"/"+threadSlug)
}

func (m *mockThreadRepo) SearchThreads(_ context.Context, query string, limit int) ([]model.ThreadListItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastOpts = repository.ThreadListOptions{Limit: limit}
	return []model.ThreadListItem{}, nil
}

func (m *mockThreadRepo) SoftDeleteThread(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.threads[id]; !ok {
		return apperror.NotFound("thread", id)
	}
	delete(m.threads, id)
	return nil
}

func (m *mockThreadRepo) IncrementViewCount(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	th, ok := m.threads[id]
	if !ok {
		return apperror.NotFound("thread", id)
	}
	th.ViewCount++
	return nil
}

// --- posts ---

type mockPostRepo struct {
	posts     map[string]*model.Post
	reactions []model.Reaction
	nextID    int
	err       error
}

var _ repository.PostRepository = (*mockPostRepo)(nil)

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[string]*model.Post)}
}

func (m *mockPostRepo) CreatePost(_ context.Context, post *model.Post) (*model.PostDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	post.ID = fmt.Sprintf("post-%d", m.nextID)
	stored := *post
	m.posts[post.ID] = &stored
	return &model.PostDetail{Post: *post, Reactions: []model.Reaction{}}, nil
}

func (m *mockPostRepo) GetPostByID(_ context.Context, id string) (*model.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	post, ok := m.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	result := *post
	return &result, nil
}

func (m *mockPostRepo) ListReplies(_ context.Context, postID string) ([]model.PostDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	replies := []model.PostDetail{}
	for _, p := range m.posts {
		if p.ParentID == postID {
			replies = append(replies, model.PostDetail{Post: *p})
		}
	}
	return replies, nil
}

func (m *mockPostRepo) SoftDeletePost(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepo) AddReaction(_ context.Context, reaction *model.Reaction) error {
	if m.err != nil {
		return m.err
	}
	for _, r := range m.reactions {
		if r.PostID == reaction.PostID && r.UserID == reaction.UserID && r.Type == reaction.Type {
			return apperror.Conflict("reaction", reaction.PostID)
		}
	}
	m.reactions = append(m.reactions, *reaction)
	return nil
}

func (m *mockPostRepo) RemoveReaction(_ context.Context, postID, userID string, typ model.ReactionType) error {
	if m.err != nil {
		return m.err
	}
	for i, r := range m.reactions {
		if r.PostID == postID && r.UserID == userID && r.Type == typ {
			m.reactions = append(m.reactions[:i], m.reactions[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("reaction", postID)
}

// --- users ---

type mockUserRepo struct {
	users     map[string]*model.User
	badges    map[string]*model.Badge
	earned    map[string][]string // userID -> badge IDs
	lastLimit int
	nextID    int
	err       error
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:  make(map[string]*model.User),
		badges: make(map[string]*model.Badge),
		earned: make(map[string][]string),
	}
}

func (m *mockUserRepo) UpsertUser(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	if existing, ok := m.users[user.ID]; ok {
		// Identity refresh keeps the forum-owned counters.
		user.Reputation = existing.Reputation
		user.TotalPosts = existing.TotalPosts
		user.TotalThreads = existing.TotalThreads
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) SearchUsers(_ context.Context, query string, limit int) ([]model.UserSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.lastLimit = limit
	return []model.UserSummary{}, nil
}

func (m *mockUserRepo) UpdateReputation(_ context.Context, id string, points int) error {
	if m.err != nil {
		return m.err
	}
	user, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	user.Reputation += points
	if user.Reputation < 0 {
		user.Reputation = 0
	}
	return nil
}

func (m *mockUserRepo) CreateBadge(_ context.Context, badge *model.Badge) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	badge.ID = fmt.Sprintf("badge-%d", m.nextID)
	stored := *badge
	m.badges[badge.ID] = &stored
	return nil
}

func (m *mockUserRepo) AwardBadge(_ context.Context, userID, badgeID string) error {
	if m.err != nil {
		return m.err
	}
	for _, id := range m.earned[userID] {
		if id == badgeID {
			return apperror.Conflict("badge", badgeID)
		}
	}
	m.earned[userID] = append(m.earned[userID], badgeID)
	return nil
}

func (m *mockUserRepo) ListBadges(_ context.Context, userID string) ([]model.EarnedBadge, error) {
	if m.err != nil {
		return nil, m.err
	}
	earned := []model.EarnedBadge{}
	for _, id := range m.earned[userID] {
		if b, ok := m.badges[id]; ok {
			earned = append(earned, model.EarnedBadge{Badge: *b})
		}
	}
	return earned, nil
}

// --- helpers ---

func newTestThreadService(t *testing.T) (*ThreadService, *mockThreadRepo) {
	t.Helper()
	repo := newMockThreadRepo()
	return NewThreadService(repo, testLogger()), repo
}

func newTestPostService(t *testing.T) (*PostService, *mockPostRepo) {
	t.Helper()
	repo := newMockPostRepo()
	return NewPostService(repo, testLogger()), repo
}

func newTestUserService(t *testing.T) (*UserService, *mockUserRepo) {
	t.Helper()
	repo := newMockUserRepo()
	return NewUserService(repo, testLogger()), repo
}
