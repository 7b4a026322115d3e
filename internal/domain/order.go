package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) String() string { return string(s) }

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem is one line of an order. Category drives the firm split during
// bill generation; a nil category maps to the default firm.
type OrderItem struct {
	ID       string
	OrderID  string
	Product  string
	Category *string
	Quantity float64
	Unit     string
	Rate     float64
	Amount   float64
}

// Order is a customer order assigned to exactly one procurement batch.
type Order struct {
	ID         string
	BatchID    string
	CustomerID string
	Status     OrderStatus
	Items      []OrderItem
	// BillNumber is issued once per order and never reassigned.
	BillNumber    *string
	BillGenerated bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (o *Order) Validate() error {
	if strings.TrimSpace(o.CustomerID) == "" {
		return fmt.Errorf("%w: customer id is required", ErrValidation)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order must include at least one item", ErrValidation)
	}
	for i := range o.Items {
		item := &o.Items[i]
		if strings.TrimSpace(item.Product) == "" {
			return fmt.Errorf("%w: item %d is missing a product", ErrValidation, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d has non-positive quantity", ErrValidation, i)
		}
		if item.Rate < 0 {
			return fmt.Errorf("%w: item %d has negative rate", ErrValidation, i)
		}
	}
	return nil
}

// TotalAmount sums line amounts. Purely derived, never persisted.
func (o *Order) TotalAmount() float64 {
	var total float64
	for i := range o.Items {
		total += o.Items[i].Amount
	}
	return total
}
