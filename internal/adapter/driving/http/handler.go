// Package httphandler is the HTTP driving adapter that serves the JSON API
// the posting agents call.
package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/postflowhq/postflow/internal/application"
	"github.com/postflowhq/postflow/internal/domain/model"
	"github.com/postflowhq/postflow/internal/domain/port/driven"
)

// Handler serves the REST API over the application services.
type Handler struct {
	queueSvc   *application.QueueService
	accountSvc *application.AccountService
	warmupSvc  *application.WarmupService
	dispatches driven.DispatchStore
	queueNames []string
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. queueNames is
// the configured queue list in declaration order, used by the queue index
// endpoint.
func NewHandler(
	queueSvc *application.QueueService,
	accountSvc *application.AccountService,
	warmupSvc *application.WarmupService,
	dispatches driven.DispatchStore,
	queueNames []string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		queueSvc:   queueSvc,
		accountSvc: accountSvc,
		warmupSvc:  warmupSvc,
		dispatches: dispatches,
		queueNames: queueNames,
		logger:     logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/queues", h.ListQueues)
	mux.HandleFunc("GET /api/v1/queues/{queue}/due", h.DuePosts)
	mux.HandleFunc("POST /api/v1/queues/{queue}/records/{id}/failed", h.FlagFailed)
	mux.HandleFunc("PATCH /api/v1/queues/{queue}/records/{id}", h.UpdateRecord)
	mux.HandleFunc("GET /api/v1/accounts/next", h.NextAccount)
	mux.HandleFunc("GET /api/v1/warmup/pending", h.PendingWarmups)
	mux.HandleFunc("GET /api/v1/dispatches", h.ListDispatches)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = requestLogMiddleware(logger, wrapped)

	return wrapped
}

// ListQueues returns the configured queue names.
func (h *Handler) ListQueues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, QueuesResponse{Queues: h.queueNames})
}

// DuePosts returns up to ?max posts due today from the named queue. The
// service swallows fetch failures, so this endpoint answers 200 with an empty
// list when Airtable is unreachable.
func (h *Handler) DuePosts(w http.ResponseWriter, r *http.Request) {
	queue := r.PathValue("queue")
	if !h.queueSvc.HasQueue(queue) {
		writeError(w, http.StatusNotFound, "unknown queue")
		return
	}

	maxCount, ok := queryInt(r, "max", 1)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid max parameter")
		return
	}

	posts := h.queueSvc.DuePosts(r.Context(), queue, maxCount)

	resp := make([]DuePostResponse, 0, len(posts))
	for _, post := range posts {
		resp = append(resp, toDuePostResponse(post))
	}
	writeJSON(w, http.StatusOK, resp)
}

// FlagFailed sets the failure marker on one record.
func (h *Handler) FlagFailed(w http.ResponseWriter, r *http.Request) {
	queue := r.PathValue("queue")
	if !h.queueSvc.HasQueue(queue) {
		writeError(w, http.StatusNotFound, "unknown queue")
		return
	}

	recordID := r.PathValue("id")
	if !h.queueSvc.FlagFailed(r.Context(), queue, recordID) {
		writeError(w, http.StatusBadGateway, "failed to flag record")
		return
	}

	writeJSON(w, http.StatusOK, FlaggedResponse{RecordID: recordID, Flagged: true})
}

// UpdateRecord writes arbitrary fields to one record. The body is a flat JSON
// object of field name to value.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	queue := r.PathValue("queue")
	if !h.queueSvc.HasQueue(queue) {
		writeError(w, http.StatusNotFound, "unknown queue")
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "empty field map")
		return
	}

	recordID := r.PathValue("id")
	updated := h.queueSvc.UpdateFields(r.Context(), queue, recordID, fields)
	if updated == nil {
		writeError(w, http.StatusBadGateway, "failed to update record")
		return
	}

	writeJSON(w, http.StatusOK, RecordResponse{ID: updated.ID, Fields: updated.Fields})
}

// NextAccount hands out one account from the active-account pool. The default
// pool can be overridden per request with base, table, and view query
// parameters (all three or none).
func (h *Handler) NextAccount(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := model.TableRef{
		BaseID:  q.Get("base"),
		TableID: q.Get("table"),
		View:    q.Get("view"),
	}

	if !ref.IsZero() && !ref.Complete() {
		writeError(w, http.StatusBadRequest, "base, table, and view must be supplied together")
		return
	}
	if ref.IsZero() && !h.accountSvc.HasDefaultPool() {
		writeError(w, http.StatusServiceUnavailable, "no account pool configured")
		return
	}

	pick := h.accountSvc.NextAvailable(r.Context(), ref)
	if pick == nil {
		writeError(w, http.StatusNotFound, "no account available")
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(*pick))
}

// PendingWarmups returns warm-up tasks still awaiting today's run, capped at
// ?max when given.
func (h *Handler) PendingWarmups(w http.ResponseWriter, r *http.Request) {
	if !h.warmupSvc.Configured() {
		writeError(w, http.StatusServiceUnavailable, "no warmup dataset configured")
		return
	}

	maxCount, ok := queryInt(r, "max", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid max parameter")
		return
	}

	tasks := h.warmupSvc.Pending(r.Context(), maxCount)

	resp := make([]WarmupTaskResponse, 0, len(tasks))
	for _, task := range tasks {
		resp = append(resp, toWarmupTaskResponse(task))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListDispatches returns recent journal rows, newest first.
func (h *Handler) ListDispatches(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit parameter")
		return
	}

	dispatches, err := h.dispatches.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list dispatches", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]DispatchResponse, 0, len(dispatches))
	for _, d := range dispatches {
		resp = append(resp, toDispatchResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports liveness. The journal is the only local dependency worth
// probing; Airtable reachability is deliberately not part of liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.dispatches.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "journal unavailable")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// queryInt parses an optional integer query parameter. Missing values yield
// the default; non-numeric or negative values fail.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
