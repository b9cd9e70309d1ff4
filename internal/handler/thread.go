package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nurso96/PrintMaker-Forum/internal/apperror"
	"github.com/nurso96/PrintMaker-Forum/internal/auth"
	"github.com/nurso96/PrintMaker-Forum/internal/service"
)

// ThreadHandler serves the thread listing, detail, search, and lifecycle
// endpoints.
type ThreadHandler struct {
	threads *service.ThreadService
	logger  *slog.Logger
}

func NewThreadHandler(threads *service.ThreadService, logger *slog.Logger) *ThreadHandler {
	return &ThreadHandler{threads: threads, logger: logger}
}

// HandleList returns enriched thread summaries.
//
// HTTP: GET /api/threads?category=&subcategory=&order=&limit=&offset=
func (h *ThreadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := service.ListThreadsInput{
		CategoryID:    q.Get("category"),
		SubcategoryID: q.Get("subcategory"),
		Order:         q.Get("order"),
		Limit:         queryInt(q.Get("limit")),
		Offset:        queryInt(q.Get("offset")),
	}

	threads, err := h.threads.List(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

// HandleGetDetail returns a full thread: posts, reactions, author badges.
//
// HTTP: GET /api/categories/{slug}/threads/{threadSlug}
func (h *ThreadHandler) HandleGetDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.threads.GetDetail(r.Context(), r.PathValue("slug"), r.PathValue("threadSlug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleCreate opens a new thread. The author is whoever holds the
// session; a client-supplied author field is ignored.
//
// HTTP: POST /api/threads (can_post)
func (h *ThreadHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateThreadInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	in.AuthorID = userID

	thread, err := h.threads.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("thread created",
		slog.String("threadID", thread.ID),
		slog.String("authorID", userID),
	)
	writeJSON(w, http.StatusCreated, thread)
}

// HandleSearch matches threads by title or content.
//
// HTTP: GET /api/search/threads?q=&limit=
func (h *ThreadHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := h.threads.Search(r.Context(), r.URL.Query().Get("q"), queryInt(r.URL.Query().Get("limit")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleRecordView bumps a thread's view counter.
//
// HTTP: POST /api/threads/{id}/view
func (h *ThreadHandler) HandleRecordView(w http.ResponseWriter, r *http.Request) {
	if err := h.threads.RecordView(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete soft-deletes a thread. The row stays; every listing and
// search stops returning it.
//
// HTTP: DELETE /api/threads/{id} (can_moderate)
func (h *ThreadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.threads.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	moderatorID, _ := auth.UserIDFromContext(r.Context())
	h.logger.Info("thread removed",
		slog.String("threadID", id),
		slog.String("moderatorID", moderatorID),
	)
	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses an optional numeric query parameter; absent or garbage
// values come back as 0 and pick up the service-side default.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
