package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tazehal/batching-engine/internal/domain"
	"github.com/tazehal/batching-engine/internal/repository"
)

// OrderIntake accepts incoming orders and routes each one to its procurement
// batch window, creating the batch on first use.
type OrderIntake struct {
	policy  *domain.AssignmentPolicy
	batches repository.BatchRepository
	orders  repository.OrderRepository
	logger  *zap.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewOrderIntake(
	policy *domain.AssignmentPolicy,
	batches repository.BatchRepository,
	orders repository.OrderRepository,
	logger *zap.Logger,
) (*OrderIntake, error) {
	if policy == nil {
		return nil, fmt.Errorf("assignment policy is required")
	}
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OrderIntake{
		policy:  policy,
		batches: batches,
		orders:  orders,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create validates and persists a new order, assigning it to the batch window
// derived from the creation instant. The batch's order count is advisory: a
// failed increment is logged and never fails the intake.
func (s *OrderIntake) Create(ctx context.Context, order *domain.Order) (*domain.Order, *domain.Batch, error) {
	if order == nil {
		return nil, nil, fmt.Errorf("%w: order is required", domain.ErrValidation)
	}
	if err := order.Validate(); err != nil {
		return nil, nil, err
	}

	window := s.policy.Assign(s.now())

	batch, err := s.batches.FindOrCreate(ctx, window)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving batch %s: %w", window.Number, err)
	}
	if !batch.IsOpen() {
		return nil, nil, fmt.Errorf("%w: batch %s is not accepting orders", domain.ErrStateConflict, batch.BatchNumber)
	}

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.BatchID = batch.ID
	order.Status = domain.OrderStatusPending
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.NewString()
		}
		order.Items[i].OrderID = order.ID
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("persisting order: %w", err)
	}

	if err := s.batches.IncrementOrderCount(ctx, batch.ID, 1); err != nil {
		s.logger.Warn("order count increment failed",
			zap.String("batch_id", batch.ID),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	s.logger.Info("order accepted",
		zap.String("order_id", order.ID),
		zap.String("batch_number", batch.BatchNumber),
		zap.String("customer_id", order.CustomerID))

	return order, batch, nil
}

// Cancel cancels a pending order. Confirmed or already-cancelled orders
// conflict. The batch count decrement is advisory and never fails the cancel.
func (s *OrderIntake) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", domain.ErrValidation)
	}

	order, err := s.orders.CancelPending(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.batches.IncrementOrderCount(ctx, order.BatchID, -1); err != nil {
		s.logger.Warn("order count decrement failed",
			zap.String("batch_id", order.BatchID),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	s.logger.Info("order cancelled", zap.String("order_id", order.ID))

	return order, nil
}

// GetOrder returns an order by id.
func (s *OrderIntake) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: order id is required", domain.ErrValidation)
	}

	return s.orders.GetByID(ctx, id)
}
