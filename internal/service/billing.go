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
	"github.com/tazehal/batching-engine/internal/render"
	"github.com/tazehal/batching-engine/internal/repository"
)

// BillError records a single order whose delivery bill could not be produced.
type BillError struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
}

// BillingReport summarizes one billing pass over a batch.
type BillingReport struct {
	BillsGenerated int         `json:"billsGenerated"`
	TotalOrders    int         `json:"totalOrders"`
	Errors         []BillError `json:"errors,omitempty"`
}

// FirmAssignment maps product categories to issuing firms. Orders whose
// category has no mapping fall back to the default firm.
type FirmAssignment struct {
	Default    string
	ByCategory map[string]string
}

// FirmFor resolves the issuing firm for an item category. A nil or unmapped
// category resolves to the default firm.
func (f FirmAssignment) FirmFor(category *string) string {
	if category != nil {
		if firm, ok := f.ByCategory[strings.ToLower(strings.TrimSpace(*category))]; ok {
			return firm
		}
	}

	return f.Default
}

// BillOrchestrator produces delivery bills for the confirmed orders of a
// batch. Each order is processed independently: a failure is recorded in the
// report and never aborts the pass or touches other orders.
type BillOrchestrator struct {
	orders   repository.OrderRepository
	counters repository.CounterRepository
	renderer render.Renderer
	firms    FirmAssignment
	template string
	resolver *domain.WindowResolver
	metrics  *observability.Metrics
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewBillOrchestrator wires a billing pass over the given stores.
func NewBillOrchestrator(
	orders repository.OrderRepository,
	counters repository.CounterRepository,
	renderer render.Renderer,
	firms FirmAssignment,
	template string,
	resolver *domain.WindowResolver,
	metrics *observability.Metrics,
	notifier notify.Notifier,
	logger *zap.Logger,
) (*BillOrchestrator, error) {
	if orders == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if counters == nil {
		return nil, fmt.Errorf("counter repository is required")
	}
	if renderer == nil {
		renderer = render.NoOpRenderer{}
	}
	if firms.Default == "" {
		return nil, fmt.Errorf("default firm is required")
	}
	if template == "" {
		template = DefaultBillNumberTemplate
	}
	if resolver == nil {
		return nil, fmt.Errorf("window resolver is required")
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BillOrchestrator{
		orders:   orders,
		counters: counters,
		renderer: renderer,
		firms:    firms,
		template: template,
		resolver: resolver,
		metrics:  metrics,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// GenerateForBatch runs a billing pass over every confirmed order of the
// batch that does not yet have a generated bill. Safe to re-run: orders that
// already carry a generated bill are skipped, and orders that received a bill
// number on a failed earlier pass reuse it.
func (o *BillOrchestrator) GenerateForBatch(ctx context.Context, batch *domain.Batch) (BillingReport, error) {
	if batch == nil {
		return BillingReport{}, fmt.Errorf("%w: batch is required", domain.ErrValidation)
	}

	orders, err := o.orders.ListByBatch(ctx, batch.ID)
	if err != nil {
		return BillingReport{}, fmt.Errorf("listing orders for batch %s: %w", batch.ID, err)
	}

	report := BillingReport{TotalOrders: len(orders)}

	for i := range orders {
		order := &orders[i]
		if order.Status != domain.OrderStatusConfirmed || order.BillGenerated {
			continue
		}

		if err := o.generateForOrder(ctx, batch, order); err != nil {
			report.Errors = append(report.Errors, BillError{OrderID: order.ID, Message: err.Error()})
			o.metrics.IncBillFailed()
			o.logger.Error("delivery bill generation failed",
				zap.String("batch_id", batch.ID),
				zap.String("order_id", order.ID),
				zap.Error(err))
			o.notifier.Alert(ctx, "bill_generation_failed", err, map[string]string{
				"batch_id": batch.ID,
				"order_id": order.ID,
			})

			continue
		}

		report.BillsGenerated++
		o.metrics.IncBillGenerated()
	}

	return report, nil
}

func (o *BillOrchestrator) generateForOrder(ctx context.Context, batch *domain.Batch, order *domain.Order) error {
	issuedAt := time.Now().UTC()

	billNumber, err := o.ensureBillNumber(ctx, order, issuedAt)
	if err != nil {
		return err
	}

	bill := o.buildBill(batch, order, billNumber, issuedAt)

	if _, err := o.renderer.RenderDeliveryBill(ctx, bill); err != nil {
		return fmt.Errorf("rendering bill %s: %w", billNumber, err)
	}

	if err := o.orders.MarkBillGenerated(ctx, order.ID); err != nil {
		return fmt.Errorf("marking bill generated for order %s: %w", order.ID, err)
	}

	order.BillNumber = &billNumber
	order.BillGenerated = true

	o.logger.Info("delivery bill generated",
		zap.String("order_id", order.ID),
		zap.String("bill_number", billNumber))

	return nil
}

// ensureBillNumber returns the order's bill number, assigning a fresh one
// exactly once. Concurrent passes converge on a single number: the loser of
// the conditional write re-reads and adopts the winner's assignment.
func (o *BillOrchestrator) ensureBillNumber(ctx context.Context, order *domain.Order, issuedAt time.Time) (string, error) {
	if order.BillNumber != nil && *order.BillNumber != "" {
		return *order.BillNumber, nil
	}

	local := issuedAt.UTC().In(o.resolver.Location())
	counterName := "bill:" + local.Format("0601")

	seq, err := o.counters.NextSequence(ctx, counterName)
	if err != nil {
		return "", fmt.Errorf("allocating bill sequence: %w", err)
	}

	billNumber, err := FormatBillNumber(o.template, local, seq)
	if err != nil {
		return "", err
	}

	assigned, err := o.orders.SetBillNumberIfAbsent(ctx, order.ID, billNumber)
	if err != nil {
		return "", fmt.Errorf("assigning bill number to order %s: %w", order.ID, err)
	}

	if !assigned {
		current, err := o.orders.GetByID(ctx, order.ID)
		if err != nil {
			return "", fmt.Errorf("re-reading order %s after bill number race: %w", order.ID, err)
		}
		if current.BillNumber == nil || *current.BillNumber == "" {
			return "", fmt.Errorf("order %s has no bill number after conditional assignment", order.ID)
		}

		return *current.BillNumber, nil
	}

	return billNumber, nil
}

func (o *BillOrchestrator) buildBill(batch *domain.Batch, order *domain.Order, billNumber string, issuedAt time.Time) render.BillData {
	sections := map[string]*render.FirmSection{}
	firmOrder := make([]string, 0, 2)

	for _, item := range order.Items {
		firm := o.firms.FirmFor(item.Category)

		section, ok := sections[firm]
		if !ok {
			section = &render.FirmSection{Firm: firm}
			sections[firm] = section
			firmOrder = append(firmOrder, firm)
		}

		section.Items = append(section.Items, render.BillItem{
			Product:  item.Product,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Rate:     item.Rate,
			Amount:   item.Amount,
		})
		section.Subtotal += item.Amount
	}

	bill := render.BillData{
		BillNumber:  billNumber,
		BatchNumber: batch.BatchNumber,
		CustomerID:  order.CustomerID,
		IssuedAt:    issuedAt.UTC().In(o.resolver.Location()),
		Total:       order.TotalAmount(),
	}
	for _, firm := range firmOrder {
		bill.Firms = append(bill.Firms, *sections[firm])
	}

	return bill
}
