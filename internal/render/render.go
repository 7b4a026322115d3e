package render

import (
	"context"
	"time"
)

// BillItem is one line of a delivery bill.
type BillItem struct {
	Product  string
	Quantity float64
	Unit     string
	Rate     float64
	Amount   float64
}

// FirmSection groups the items billed through one firm.
type FirmSection struct {
	Firm     string
	Items    []BillItem
	Subtotal float64
}

// BillData is everything a renderer needs to produce one delivery bill.
type BillData struct {
	BillNumber  string
	BatchNumber string
	CustomerID  string
	IssuedAt    time.Time
	Firms       []FirmSection
	Total       float64
}

// Renderer turns bill data into document bytes.
type Renderer interface {
	RenderDeliveryBill(ctx context.Context, bill BillData) ([]byte, error)
}

// NoOpRenderer produces no document. Used in tests and when rendering is
// handled by an external system.
type NoOpRenderer struct{}

func (NoOpRenderer) RenderDeliveryBill(ctx context.Context, bill BillData) ([]byte, error) {
	return nil, nil
}
