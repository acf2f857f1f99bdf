package service

import (
	"context"
	"fmt"
	"time"

	"shipsync/internal/model"
	"shipsync/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo repository.OrderRepository, logger zerolog.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// Get retrieves an order by id.
func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// List retrieves orders matching the filter.
func (s *orderService) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if filter.State != "" && !model.ValidState(filter.State) {
		return nil, model.ErrInvalidState
	}
	return s.orderRepo.List(ctx, filter)
}

// AssignDesigner assigns a designer to an order and moves it into the
// processing state. The assignment timestamp is only set on the first
// assignment; reassigning preserves it.
func (s *orderService) AssignDesigner(ctx context.Context, id uuid.UUID, designer string) (*model.Order, error) {
	if designer == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Designer name is required")
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	now := time.Now().UTC()
	if err := s.orderRepo.AssignDesigner(ctx, id, designer, now); err != nil {
		return nil, err
	}

	if order.State == model.StateAllOrders {
		if err := s.orderRepo.SetState(ctx, id, model.StateProcessing, nil, nil); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("order_number", order.OrderNumber).
		Str("designer", designer).
		Msg("designer assigned")

	return s.orderRepo.GetByID(ctx, id)
}

// SetState moves an order to a new workflow state. Entering the done state
// stamps the completion time and computes the turnaround in hours from the
// assignment date.
func (s *orderService) SetState(ctx context.Context, id uuid.UUID, state string) (*model.Order, error) {
	if !model.ValidState(state) {
		return nil, model.ErrInvalidState
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	var completedAt *time.Time
	var turnaround *float64
	if state == model.StateDone && order.CompletionDate == nil {
		now := time.Now().UTC()
		completedAt = &now
		if order.AssignmentDate != nil {
			hours := now.Sub(*order.AssignmentDate).Hours()
			turnaround = &hours
		}
	}

	if err := s.orderRepo.SetState(ctx, id, state, completedAt, turnaround); err != nil {
		return nil, err
	}

	event := s.logger.Info().
		Str("order_id", id.String()).
		Str("order_number", order.OrderNumber).
		Str("from", order.State).
		Str("to", state)
	if turnaround != nil {
		event = event.Str("turnaround", fmt.Sprintf("%.1fh", *turnaround))
	}
	event.Msg("order state changed")

	return s.orderRepo.GetByID(ctx, id)
}
