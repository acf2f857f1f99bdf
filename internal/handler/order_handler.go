package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"shipsync/internal/model"
	"shipsync/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Collection handles requests to /api/orders.
func (h *OrderHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	orders, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, "failed to retrieve orders", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// Item handles requests to /api/orders/{id} and its action sub-paths:
// assign and state.
func (h *OrderHandler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "order ID is required", h.logger)
		return
	}

	idStr, action, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID format", h.logger)
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
			return
		}
		h.get(w, r, id)
	case "assign":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
			return
		}
		h.assign(w, r, id)
	case "state":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
			return
		}
		h.setState(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found", h.logger)
	}
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to retrieve order", h.logger)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) assign(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req model.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	order, err := h.service.AssignDesigner(r.Context(), id, req.Designer)
	if err != nil {
		writeDomainError(w, err, "failed to assign designer", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) setState(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req model.StateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	order, err := h.service.SetState(r.Context(), id, req.State)
	if err != nil {
		writeDomainError(w, err, "failed to change order state", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// filterFromQuery builds an order filter from the request query string.
func filterFromQuery(r *http.Request) (model.OrderFilter, error) {
	query := r.URL.Query()

	filter := model.OrderFilter{
		State:       query.Get("state"),
		Designer:    query.Get("designer"),
		OrderStatus: query.Get("orderStatus"),
	}

	if raw := query.Get("sourceId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.SourceID = &id
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.Limit = limit
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.Offset = offset
	}

	return filter, nil
}
