package handler

import (
	"net/http"

	"shipsync/internal/service"

	"github.com/rs/zerolog"
)

// SyncHandler triggers sync passes over all active sources.
type SyncHandler struct {
	sync   service.SyncService
	logger zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(sync service.SyncService, logger zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logger.With().Str("handler", "sync").Logger(),
	}
}

// SyncAll handles POST /api/sync requests.
func (h *SyncHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	result, err := h.sync.SyncAll(r.Context(), syncOptionsFromQuery(r))
	if err != nil {
		writeDomainError(w, err, "sync failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
