package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"shipsync/internal/model"
	"shipsync/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SourceHandler handles source-related HTTP requests.
type SourceHandler struct {
	sources service.SourceService
	sync    service.SyncService
	logger  zerolog.Logger
}

// NewSourceHandler creates a new source handler.
func NewSourceHandler(sources service.SourceService, sync service.SyncService, logger zerolog.Logger) *SourceHandler {
	return &SourceHandler{
		sources: sources,
		sync:    sync,
		logger:  logger.With().Str("handler", "source").Logger(),
	}
}

// Collection handles requests to /api/sources.
func (h *SourceHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
	}
}

// Item handles requests to /api/sources/{id} and its action sub-paths:
// test, sync, stores/refresh, webhook/subscribe and webhook/unsubscribe.
func (h *SourceHandler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sources/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "source ID is required", h.logger)
		return
	}

	idStr, action, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source ID format", h.logger)
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		}
	case "test":
		h.post(w, r, func() { h.test(w, r, id) })
	case "sync":
		h.post(w, r, func() { h.syncOne(w, r, id) })
	case "stores/refresh":
		h.post(w, r, func() { h.refreshStores(w, r, id) })
	case "webhook/subscribe":
		h.post(w, r, func() { h.subscribe(w, r, id) })
	case "webhook/unsubscribe":
		h.post(w, r, func() { h.unsubscribe(w, r, id) })
	default:
		writeError(w, http.StatusNotFound, "not found", h.logger)
	}
}

// post guards an action endpoint to POST requests.
func (h *SourceHandler) post(w http.ResponseWriter, r *http.Request, fn func()) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	fn()
}

func (h *SourceHandler) list(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sources.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to retrieve sources", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (h *SourceHandler) create(w http.ResponseWriter, r *http.Request) {
	var req model.SourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	source, err := h.sources.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "failed to create source", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, source)
}

func (h *SourceHandler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	source, err := h.sources.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to retrieve source", h.logger)
		return
	}
	if source == nil {
		writeError(w, http.StatusNotFound, "source not found", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, source)
}

func (h *SourceHandler) update(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req model.SourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	source, err := h.sources.Update(r.Context(), id, &req)
	if err != nil {
		writeDomainError(w, err, "failed to update source", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, source)
}

func (h *SourceHandler) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.sources.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "failed to delete source", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SourceHandler) test(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	result, err := h.sources.Test(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "connection test failed", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *SourceHandler) syncOne(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	result, err := h.sync.SyncSourceByID(r.Context(), id, syncOptionsFromQuery(r))
	if err != nil {
		writeDomainError(w, err, "sync failed", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *SourceHandler) refreshStores(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	count, err := h.sources.RefreshStores(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "store refresh failed", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"stores": count})
}

func (h *SourceHandler) subscribe(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	source, err := h.sources.SubscribeWebhook(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "webhook subscription failed", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, source)
}

func (h *SourceHandler) unsubscribe(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	source, err := h.sources.UnsubscribeWebhook(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "webhook unsubscription failed", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, source)
}

// syncOptionsFromQuery reads sync tuning flags from the query string.
func syncOptionsFromQuery(r *http.Request) service.SyncOptions {
	query := r.URL.Query()
	return service.SyncOptions{
		ImportBatch: query.Get("importBatch"),
		AllStatuses: query.Get("allStatuses") == "true",
	}
}
