package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"shipsync/internal/model"
	"shipsync/internal/service"

	"github.com/rs/zerolog"
)

// WebhookHandler receives inbound ShipStation webhook notifications. Each
// source has its own webhook URL carrying the source identifier in the path;
// the identifier can also arrive in the request body.
type WebhookHandler struct {
	sync   service.SyncService
	logger zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(sync service.SyncService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		sync:   sync,
		logger: logger.With().Str("handler", "webhook").Logger(),
	}
}

// webhookPayload is the body ShipStation posts on a subscribed event.
type webhookPayload struct {
	ResourceURL      string `json:"resource_url"`
	ResourceType     string `json:"resource_type"`
	SourceIdentifier string `json:"source_identifier"`
}

// Receive handles POST /webhooks/shipstation/{identifier}. A path identifier
// always wins over one supplied in the body.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeFailure(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	event, err := h.parseEvent(r)
	if err != nil {
		h.writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.logger.Info().
		Str("source_identifier", event.SourceIdentifier).
		Str("resource_type", event.ResourceType).
		Msg("webhook received")

	outcome, err := h.sync.ProcessWebhook(r.Context(), event)
	if err != nil {
		var domainErr *model.DomainError
		if errors.As(err, &domainErr) {
			h.writeFailure(w, statusForCode(domainErr.Code), domainErr.Message)
			return
		}
		h.logger.Error().Err(err).Msg("webhook processing failed")
		h.writeFailure(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": outcome.Message,
		"details": outcome.Result,
	})
}

// writeFailure writes the webhook error envelope. ShipStation reads a
// status/message pair, mirroring the success response, rather than the
// error/message envelope the /api/ surface uses.
func (h *WebhookHandler) writeFailure(w http.ResponseWriter, status int, message string) {
	h.logger.Error().Str("error", message).Int("status", status).Msg("webhook rejected")
	writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}

// parseEvent extracts the webhook event from the path and body. ShipStation
// posts JSON; form-encoded bodies are accepted as well.
func (h *WebhookHandler) parseEvent(r *http.Request) (service.WebhookEvent, error) {
	var event service.WebhookEvent

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return event, err
		}
		event.ResourceURL = r.PostForm.Get("resource_url")
		event.ResourceType = r.PostForm.Get("resource_type")
		event.SourceIdentifier = r.PostForm.Get("source_identifier")
	} else {
		var payload webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return event, err
		}
		event.ResourceURL = payload.ResourceURL
		event.ResourceType = payload.ResourceType
		event.SourceIdentifier = payload.SourceIdentifier
	}

	if identifier := pathIdentifier(r.URL.Path); identifier != "" {
		event.SourceIdentifier = identifier
	}

	return event, nil
}

// pathIdentifier extracts the source identifier from a source-specific
// webhook path.
func pathIdentifier(path string) string {
	rest := strings.TrimPrefix(path, "/webhooks/shipstation")
	rest = strings.Trim(rest, "/")
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
