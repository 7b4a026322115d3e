package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tazehal/batching-engine/internal/domain"
	"github.com/tazehal/batching-engine/internal/notify"
	"github.com/tazehal/batching-engine/internal/observability"
	"github.com/tazehal/batching-engine/internal/repository"
)

// BillGenerator is the billing stage consumed by the lifecycle. Satisfied by
// *BillOrchestrator.
type BillGenerator interface {
	GenerateForBatch(ctx context.Context, batch *domain.Batch) (BillingReport, error)
}

// ConfirmResult reports the outcome of confirming a batch, including the
// outcome of the trailing billing stage.
type ConfirmResult struct {
	Batch           *domain.Batch `json:"batch"`
	OrdersConfirmed int64         `json:"ordersConfirmed"`
	BillsGenerated  int           `json:"billsGenerated"`
	BillErrors      []BillError   `json:"billErrors,omitempty"`
}

// BatchLifecycle drives batch state transitions: confirmation with the
// trailing billing pass, and the expiry sweep over stale open batches.
type BatchLifecycle struct {
	batches  repository.BatchRepository
	orders   repository.OrderRepository
	billing  BillGenerator
	metrics  *observability.Metrics
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewBatchLifecycle wires the lifecycle over the given stores. The billing
// stage is optional; when nil, confirmation skips bill generation.
func NewBatchLifecycle(
	batches repository.BatchRepository,
	orders repository.OrderRepository,
	billing BillGenerator,
	metrics *observability.Metrics,
	notifier notify.Notifier,
	logger *zap.Logger,
) (*BatchLifecycle, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchLifecycle{
		batches:  batches,
		orders:   orders,
		billing:  billing,
		metrics:  metrics,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// GetBatch returns a batch by id.
func (l *BatchLifecycle) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}

	return l.batches.GetByID(ctx, id)
}

// Confirm moves an open batch to confirmed, confirms its pending orders, and
// when generateBills is set runs the billing pass. actor is nil for scheduled
// confirmations. Billing failures never roll back the confirmation: they are
// reported in the result and the pass can be retried by re-running billing
// for the batch.
func (l *BatchLifecycle) Confirm(ctx context.Context, batchID string, actor *string, generateBills bool) (*ConfirmResult, error) {
	if batchID == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}

	logger := observability.WithContextLogger(l.logger, ctx)

	batch, err := l.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if !batch.IsOpen() {
		return nil, fmt.Errorf("%w: batch is already %s", domain.ErrStateConflict, strings.ToLower(batch.Status.String()))
	}

	ordersConfirmed, err := l.orders.ConfirmPendingByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("confirming orders of batch %s: %w", batchID, err)
	}

	confirmed, err := l.batches.Confirm(ctx, batchID, actor, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	l.metrics.IncBatchConfirmed(actor != nil)
	l.metrics.AddOrdersConfirmed(ordersConfirmed)
	logger.Info("batch confirmed",
		zap.String("batch_id", batchID),
		zap.String("batch_number", confirmed.BatchNumber),
		zap.Int64("orders_confirmed", ordersConfirmed),
		zap.Bool("manual", actor != nil))

	result := &ConfirmResult{Batch: confirmed, OrdersConfirmed: ordersConfirmed}

	if generateBills && l.billing != nil {
		report, err := l.billing.GenerateForBatch(ctx, confirmed)
		if err != nil {
			// Soft stage: the confirmation stands even when the whole
			// billing pass fails.
			logger.Error("billing pass failed after batch confirmation",
				zap.String("batch_id", batchID),
				zap.Error(err))
			l.notifier.Alert(ctx, "billing_pass_failed", err, map[string]string{
				"batch_id": batchID,
			})
			result.BillErrors = append(result.BillErrors, BillError{Message: err.Error()})
		} else {
			result.BillsGenerated = report.BillsGenerated
			result.BillErrors = report.Errors
		}
	}

	return result, nil
}

// ExpireStale expires every open batch whose cutoff passed before the given
// instant. Orders of expired batches remain pending; an alert is raised for
// each expired batch that still has pending orders so an operator can react.
func (l *BatchLifecycle) ExpireStale(ctx context.Context, before time.Time) (int, error) {
	expired, err := l.batches.ExpireOpenBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("expiring stale batches: %w", err)
	}

	for i := range expired {
		batch := &expired[i]

		l.logger.Warn("batch expired",
			zap.String("batch_id", batch.ID),
			zap.String("batch_number", batch.BatchNumber))

		pending, err := l.orders.ListPendingByBatch(ctx, batch.ID)
		if err != nil {
			l.logger.Error("listing pending orders of expired batch",
				zap.String("batch_id", batch.ID),
				zap.Error(err))

			continue
		}

		if len(pending) > 0 {
			l.notifier.Alert(ctx, "batch_expired_with_pending_orders", nil, map[string]string{
				"batch_id":       batch.ID,
				"batch_number":   batch.BatchNumber,
				"pending_orders": fmt.Sprintf("%d", len(pending)),
			})
		}
	}

	l.metrics.AddBatchesExpired(len(expired))

	return len(expired), nil
}
