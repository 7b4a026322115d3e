package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/tazehal/batching-engine/internal/domain"
	"gorm.io/gorm"
)

// CounterRepository issues strictly increasing sequences scoped by a name
// key. Implementations must be race-safe under arbitrarily many concurrent
// callers; atomicity lives in the store, never in process memory.
type CounterRepository interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

type GormCounterRepo struct {
	db *gorm.DB
}

func NewGormCounterRepo(db *gorm.DB) *GormCounterRepo {
	return &GormCounterRepo{db: db}
}

// NextSequence increments and returns the counter in a single upsert so two
// concurrent callers can never observe the same value.
func (r *GormCounterRepo) NextSequence(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: counter name is required", domain.ErrValidation)
	}

	var value int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO counters (name, value, updated_at)
		 VALUES (?, 1, NOW())
		 ON CONFLICT (name) DO UPDATE
		 SET value = counters.value + 1, updated_at = NOW()
		 RETURNING value`,
		name,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}

	return value, nil
}
