package handler

import (
	"log/slog"
	"net/http"

	"github.com/nurso96/PrintMaker-Forum/internal/service"
)

// CategoryHandler serves the category tree and forum-wide statistics.
type CategoryHandler struct {
	categories *service.CategoryService
	logger     *slog.Logger
}

func NewCategoryHandler(categories *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// HandleList returns every category with its subcategories and visible
// thread counts, in display order.
//
// HTTP: GET /api/categories
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HandleGet returns one category by slug.
//
// HTTP: GET /api/categories/{slug}
func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.Get(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HandleStats returns forum-wide counters for the landing page.
//
// HTTP: GET /api/stats
func (h *CategoryHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.categories.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
