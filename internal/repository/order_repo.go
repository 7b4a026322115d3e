package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tazehal/batching-engine/internal/domain"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByBatch(ctx context.Context, batchID string) ([]domain.Order, error)
	ListPendingByBatch(ctx context.Context, batchID string) ([]domain.Order, error)
	// ConfirmPendingByBatch transitions all pending orders of a batch to
	// confirmed in a single update and returns the number transitioned.
	ConfirmPendingByBatch(ctx context.Context, batchID string) (int64, error)
	// CancelPending performs the guarded pending -> cancelled transition and
	// returns the cancelled order so callers can pair the count decrement.
	CancelPending(ctx context.Context, id string) (*domain.Order, error)
	// SetBillNumberIfAbsent assigns a bill number only when none is persisted
	// yet. Returns false when another caller already won the assignment.
	SetBillNumberIfAbsent(ctx context.Context, id string, billNumber string) (bool, error)
	MarkBillGenerated(ctx context.Context, id string) error
}

type GormOrderRepo struct {
	db *gorm.DB
}

func NewGormOrderRepo(db *gorm.DB) *GormOrderRepo {
	return &GormOrderRepo{db: db}
}

func (r *GormOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	model := orderModelFromDomain(o)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if o != nil {
		*o = *orderModelToDomain(model)
	}
	return nil
}

func (r *GormOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return orderModelToDomain(&model), nil
}

func (r *GormOrderRepo) ListByBatch(ctx context.Context, batchID string) ([]domain.Order, error) {
	return r.listByBatch(ctx, batchID, nil)
}

func (r *GormOrderRepo) ListPendingByBatch(ctx context.Context, batchID string) ([]domain.Order, error) {
	pending := domain.OrderStatusPending
	return r.listByBatch(ctx, batchID, &pending)
}

func (r *GormOrderRepo) listByBatch(ctx context.Context, batchID string, status *domain.OrderStatus) ([]domain.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("batch_id = ?", batchID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var models []OrderModel
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, *orderModelToDomain(&models[i]))
	}
	return orders, nil
}

func (r *GormOrderRepo) ConfirmPendingByBatch(ctx context.Context, batchID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("batch_id = ? AND status = ?", batchID, domain.OrderStatusPending).
		Update("status", domain.OrderStatusConfirmed)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormOrderRepo) CancelPending(ctx context.Context, id string) (*domain.Order, error) {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, domain.OrderStatusPending).
		Update("status", domain.OrderStatusCancelled)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: order is already %s",
			domain.ErrStateConflict, strings.ToLower(current.Status.String()))
	}

	return r.GetByID(ctx, id)
}

func (r *GormOrderRepo) SetBillNumberIfAbsent(ctx context.Context, id string, billNumber string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ? AND bill_number IS NULL", id).
		Update("bill_number", billNumber)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormOrderRepo) MarkBillGenerated(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", id).
		Update("bill_generated", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
