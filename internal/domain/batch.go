package domain

import (
	"fmt"
	"strings"
	"time"
)

// BatchType identifies which of the two daily procurement windows a batch serves.
type BatchType string

const (
	BatchTypeFirst  BatchType = "FIRST"
	BatchTypeSecond BatchType = "SECOND"
)

func (t BatchType) String() string { return string(t) }

func (t BatchType) IsValid() bool {
	switch t {
	case BatchTypeFirst, BatchTypeSecond:
		return true
	}
	return false
}

// Ordinal returns the numeric suffix used in batch numbers (1 or 2).
func (t BatchType) Ordinal() int {
	if t == BatchTypeSecond {
		return 2
	}
	return 1
}

func ParseBatchTypeFromString(s string) (BatchType, error) {
	bt := BatchType(strings.ToUpper(strings.TrimSpace(s)))
	if !bt.IsValid() {
		return "", fmt.Errorf("%w: invalid batch type %q", ErrValidation, s)
	}
	return bt, nil
}

// BatchStatus represents the lifecycle state of a batch.
type BatchStatus string

const (
	BatchStatusOpen      BatchStatus = "OPEN"
	BatchStatusConfirmed BatchStatus = "CONFIRMED"
	BatchStatusExpired   BatchStatus = "EXPIRED"
)

func (s BatchStatus) String() string { return string(s) }

func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusOpen, BatchStatusConfirmed, BatchStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusConfirmed || s == BatchStatusExpired
}

// CanTransitionTo enforces the monotonic open -> confirmed | expired machine.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	return s == BatchStatusOpen && next.IsTerminal()
}

// Batch is one time-windowed procurement/delivery cycle. Batches are never
// deleted; together they form an append-only history of windows.
type Batch struct {
	ID          string
	BatchNumber string
	Date        time.Time
	Type        BatchType
	CutoffTime  time.Time
	// Nil for batch types that are only confirmed manually.
	AutoConfirmTime *time.Time
	Status          BatchStatus
	ConfirmedAt     *time.Time
	// Nil ConfirmedBy on a confirmed batch means the transition was system-initiated.
	ConfirmedBy *string
	// OrderCount is advisory: maintained by atomic deltas only and may drift
	// from the true number of non-cancelled orders referencing the batch.
	OrderCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsOpen reports whether the batch still accepts lifecycle transitions.
func (b *Batch) IsOpen() bool {
	return b != nil && b.Status == BatchStatusOpen
}
