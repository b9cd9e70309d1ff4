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

// CategoryService serves the category tree and the forum-wide stats.
type CategoryService struct {
	categories repository.CategoryRepository
	stats      repository.StatsRepository
	logger     *slog.Logger
}

func NewCategoryService(categories repository.CategoryRepository, stats repository.StatsRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{categories: categories, stats: stats, logger: logger}
}

// List returns every category with its subcategories and thread count.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	sctx, cancel := storeCtx(ctx)
	defer cancel()
	categories, err := s.categories.ListCategories(sctx)
	if err != nil {
		s.logger.Error("failed to list categories", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// Get resolves one category by slug.
func (s *CategoryService) Get(ctx context.Context, slug string) (*model.Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperror.ValidationFailed("slug", "category slug is required")
	}

	sctx, cancel := storeCtx(ctx)
	defer cancel()
	return s.categories.GetCategoryBySlug(sctx, slug)
}

// Stats returns the forum-wide counters.
func (s *CategoryService) Stats(ctx context.Context) (*model.Stats, error) {
	sctx, cancel := storeCtx(ctx)
	defer cancel()
	stats, err := s.stats.Stats(sctx)
	if err != nil {
		s.logger.Error("failed to compute stats", slog.String("error", err.Error()))
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	return stats, nil
}
