package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/repository"

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

// GetByID retrieves the caller's order with its items. Another user's order
// is indistinguishable from a missing one.
func (s *orderService) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// List retrieves the caller's orders, newest first.
func (s *orderService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderRepo.ListByUser(ctx, userID, limit, offset)
}

// UpdateStatus advances the fulfilment state. Only forward transitions along
// pending, confirmed, shipped, delivered are allowed.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	order, _, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	if statusRank(status) <= statusRank(order.Status) {
		return model.NewDomainError(model.ErrCodeMissingField, "Order status can only move forward")
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(order.Status)).
		Str("to", string(status)).
		Msg("order status updated")

	return nil
}

func statusRank(s model.OrderStatus) int {
	switch s {
	case model.OrderStatusPending:
		return 0
	case model.OrderStatusConfirmed:
		return 1
	case model.OrderStatusShipped:
		return 2
	case model.OrderStatusDelivered:
		return 3
	default:
		return -1
	}
}
