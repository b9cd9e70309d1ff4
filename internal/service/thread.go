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

// ThreadService handles thread creation, listing, search, and moderation.
type ThreadService struct {
	threads repository.ThreadRepository
	logger  *slog.Logger
}

func NewThreadService(threads repository.ThreadRepository, logger *slog.Logger) *ThreadService {
	return &ThreadService{threads: threads, logger: logger}
}

// CreateThreadInput is decoded straight from the request body; AuthorID is
// filled in by the handler from the authenticated session, never from the
// payload.
type CreateThreadInput struct {
	CategoryID    string   `json:"categoryId" validate:"required"`
	SubcategoryID string   `json:"subcategoryId"`
	Title         string   `json:"title" validate:"required,max=200"`
	Content       string   `json:"content" validate:"required,max=50000"`
	Tags          []string `json:"tags" validate:"max=5,dive,required,max=30"`

	AuthorID string `json:"-" validate:"required"`
}

// Create validates the input, derives the slug from the title, and stores
// the thread.
func (s *ThreadService) Create(ctx context.Context, in CreateThreadInput) (*model.Thread, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	for i := range in.Tags {
		in.Tags[i] = strings.TrimSpace(in.Tags[i])
	}
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	slug := Slugify(in.Title)
	if slug == "" {
		return nil, apperror.ValidationFailed("title", "title must contain at least one letter or digit")
	}

	thread := &model.Thread{
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		AuthorID:      in.AuthorID,
		Slug:          slug,
		Title:         in.Title,
		Content:       in.Content,
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	if err := s.threads.CreateThread(sctx, thread, in.Tags); err != nil {
		s.logger.Error("failed to create thread",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating thread: %w", err)
	}

	s.logger.Info("thread created",
		slog.String("id", thread.ID),
		slog.String("slug", thread.Slug),
		slog.String("author", thread.AuthorID),
	)
	return thread, nil
}

// ListThreadsInput carries the query parameters of the listing endpoint.
type ListThreadsInput struct {
	CategoryID    string
	SubcategoryID string
	Order         string
	Limit         int
	Offset        int
}

// List returns a page of threads in the requested ranking order. An empty
// order means recent; an unknown one is a validation failure.
func (s *ThreadService) List(ctx context.Context, in ListThreadsInput) ([]model.ThreadListItem, error) {
	order := model.OrderRecent
	if in.Order != "" {
		order = model.ThreadOrder(in.Order)
		if !order.Valid() {
			return nil, apperror.ValidationFailed("order", "order must be one of: recent, popular, hot")
		}
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	items, err := s.threads.ListThreads(sctx, repository.ThreadListOptions{
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		Order:         order,
		Limit:         clampLimit(in.Limit, DefaultListLimit),
		Offset:        clampOffset(in.Offset),
	})
	if err != nil {
		s.logger.Error("failed to list threads", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing threads: %w", err)
	}
	return items, nil
}

// GetDetail resolves a thread by its category slug + thread slug pair.
func (s *ThreadService) GetDetail(ctx context.Context, categorySlug, threadSlug string) (*model.ThreadDetail, error) {
	categorySlug = strings.TrimSpace(categorySlug)
	threadSlug = strings.TrimSpace(threadSlug)
	if categorySlug == "" || threadSlug == "" {
		return nil, apperror.ValidationFailed("slug", "category and thread slugs are required")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	return s.threads.GetThreadDetail(sctx, categorySlug, threadSlug)
}

// Search finds threads whose title or content contains the query. A blank
// query matches nothing rather than everything.
func (s *ThreadService) Search(ctx context.Context, query string, limit int) ([]model.ThreadListItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.ThreadListItem{}, nil
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	results, err := s.threads.SearchThreads(sctx, query, clampLimit(limit, DefaultThreadSearchLimit))
	if err != nil {
		s.logger.Error("failed to search threads", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching threads: %w", err)
	}
	return results, nil
}

// Delete soft-deletes a thread. Moderator-only; the transport layer gates
// the permission.
func (s *ThreadService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "thread id is required")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	if err := s.threads.SoftDeleteThread(sctx, id); err != nil {
		return err
	}

	s.logger.Info("thread deleted", slog.String("id", id))
	return nil
}

// RecordView counts one view of the thread. This is the only path that
// touches view_count; reading a thread never bumps it implicitly.
func (s *ThreadService) RecordView(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "thread id is required")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	return s.threads.IncrementViewCount(sctx, id)
}
