package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tazehal/batching-engine/internal/domain"
	"gorm.io/gorm"
)

type BatchRepository interface {
	// FindOrCreate returns the batch for a window, creating it if absent.
	// Concurrent callers for the same window always converge on one record.
	FindOrCreate(ctx context.Context, w domain.BatchWindow) (*domain.Batch, error)
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	FindOpenByWindow(ctx context.Context, date time.Time, bt domain.BatchType) (*domain.Batch, error)
	// IncrementOrderCount applies an atomic delta to the advisory counter.
	IncrementOrderCount(ctx context.Context, id string, delta int) error
	// Confirm performs the guarded open -> confirmed transition.
	Confirm(ctx context.Context, id string, actorID *string, at time.Time) (*domain.Batch, error)
	// ExpireOpenBefore moves open batches whose cutoff precedes the given
	// instant to expired and returns the batches that transitioned.
	ExpireOpenBefore(ctx context.Context, cutoffBefore time.Time) ([]domain.Batch, error)
}

type GormBatchRepo struct {
	db *gorm.DB
}

func NewGormBatchRepo(db *gorm.DB) *GormBatchRepo {
	return &GormBatchRepo{db: db}
}

func (r *GormBatchRepo) FindOrCreate(ctx context.Context, w domain.BatchWindow) (*domain.Batch, error) {
	if existing, err := r.findByWindow(ctx, w.Date, w.Type); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	model := &BatchModel{
		ID:              uuid.NewString(),
		BatchNumber:     w.Number,
		Date:            w.Date,
		Type:            w.Type,
		CutoffTime:      w.CutoffTime,
		AutoConfirmTime: w.AutoConfirmTime,
		Status:          domain.BatchStatusOpen,
	}

	err := r.db.WithContext(ctx).Create(model).Error
	if err == nil {
		return batchModelToDomain(model), nil
	}
	if !isUniqueViolationError(err) {
		return nil, err
	}

	// Lost the creation race; the winner's record is authoritative.
	return r.findByWindow(ctx, w.Date, w.Type)
}

func (r *GormBatchRepo) findByWindow(ctx context.Context, date time.Time, bt domain.BatchType) (*domain.Batch, error) {
	var model BatchModel
	err := r.db.WithContext(ctx).
		Where("date = ? AND type = ?", date, bt).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return batchModelToDomain(&model), nil
}

func (r *GormBatchRepo) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	var model BatchModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return batchModelToDomain(&model), nil
}

func (r *GormBatchRepo) FindOpenByWindow(ctx context.Context, date time.Time, bt domain.BatchType) (*domain.Batch, error) {
	var model BatchModel
	err := r.db.WithContext(ctx).
		Where("date = ? AND type = ? AND status = ?", date, bt, domain.BatchStatusOpen).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return batchModelToDomain(&model), nil
}

func (r *GormBatchRepo) IncrementOrderCount(ctx context.Context, id string, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ?", id).
		Update("order_count", gorm.Expr("GREATEST(order_count + ?, 0)", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormBatchRepo) Confirm(ctx context.Context, id string, actorID *string, at time.Time) (*domain.Batch, error) {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ? AND status = ?", id, domain.BatchStatusOpen).
		Updates(map[string]any{
			"status":       domain.BatchStatusConfirmed,
			"confirmed_at": at,
			"confirmed_by": actorID,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// Distinguish a missing batch from a lost status race.
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: batch is already %s",
			domain.ErrStateConflict, strings.ToLower(current.Status.String()))
	}

	return r.GetByID(ctx, id)
}

func (r *GormBatchRepo) ExpireOpenBefore(ctx context.Context, cutoffBefore time.Time) ([]domain.Batch, error) {
	var candidates []BatchModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND cutoff_time < ?", domain.BatchStatusOpen, cutoffBefore).
		Order("cutoff_time ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	expired := make([]domain.Batch, 0, len(candidates))
	for i := range candidates {
		result := r.db.WithContext(ctx).
			Model(&BatchModel{}).
			Where("id = ? AND status = ?", candidates[i].ID, domain.BatchStatusOpen).
			Update("status", domain.BatchStatusExpired)
		if result.Error != nil {
			return expired, result.Error
		}
		if result.RowsAffected == 0 {
			// Confirmed concurrently; the guard keeps the transition monotonic.
			continue
		}

		candidates[i].Status = domain.BatchStatusExpired
		expired = append(expired, *batchModelToDomain(&candidates[i]))
	}

	return expired, nil
}

func isUniqueViolationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
