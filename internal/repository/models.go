package repository

import (
	"time"

	"github.com/tazehal/batching-engine/internal/domain"
)

// BatchModel is the persistence model for the batches table.
type BatchModel struct {
	ID              string           `gorm:"type:uuid;primaryKey"`
	BatchNumber     string           `gorm:"type:varchar(12);not null;uniqueIndex"`
	Date            time.Time        `gorm:"type:timestamptz;not null;uniqueIndex:idx_batches_window"`
	Type            domain.BatchType `gorm:"type:varchar(10);not null;uniqueIndex:idx_batches_window"`
	CutoffTime      time.Time        `gorm:"type:timestamptz;not null"`
	AutoConfirmTime *time.Time       `gorm:"type:timestamptz"`
	Status          domain.BatchStatus `gorm:"type:varchar(10);not null"`
	ConfirmedAt     *time.Time
	ConfirmedBy     *string `gorm:"type:varchar(64)"`
	OrderCount      int     `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (BatchModel) TableName() string {
	return "batches"
}

// OrderModel is the persistence model for orders.
type OrderModel struct {
	ID            string             `gorm:"type:uuid;primaryKey"`
	BatchID       string             `gorm:"type:uuid;not null"`
	CustomerID    string             `gorm:"type:varchar(64);not null"`
	Status        domain.OrderStatus `gorm:"type:varchar(20);not null"`
	BillNumber    *string            `gorm:"type:varchar(32)"`
	BillGenerated bool               `gorm:"not null;default:false"`
	Items         []OrderItemModel   `gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for order line items.
type OrderItemModel struct {
	ID       string  `gorm:"type:uuid;primaryKey"`
	OrderID  string  `gorm:"type:uuid;not null"`
	Product  string  `gorm:"type:varchar(128);not null"`
	Category *string `gorm:"type:varchar(64)"`
	Quantity float64 `gorm:"not null"`
	Unit     string  `gorm:"type:varchar(16);not null"`
	Rate     float64 `gorm:"not null"`
	Amount   float64 `gorm:"not null"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// CounterModel is the persistence model for named sequences.
type CounterModel struct {
	Name      string `gorm:"type:varchar(64);primaryKey"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (CounterModel) TableName() string {
	return "counters"
}

func batchModelToDomain(m *BatchModel) *domain.Batch {
	if m == nil {
		return nil
	}

	return &domain.Batch{
		ID:              m.ID,
		BatchNumber:     m.BatchNumber,
		Date:            m.Date,
		Type:            m.Type,
		CutoffTime:      m.CutoffTime,
		AutoConfirmTime: m.AutoConfirmTime,
		Status:          m.Status,
		ConfirmedAt:     m.ConfirmedAt,
		ConfirmedBy:     m.ConfirmedBy,
		OrderCount:      m.OrderCount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func orderModelFromDomain(o *domain.Order) *OrderModel {
	if o == nil {
		return nil
	}

	items := make([]OrderItemModel, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, OrderItemModel{
			ID:       item.ID,
			OrderID:  item.OrderID,
			Product:  item.Product,
			Category: item.Category,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Rate:     item.Rate,
			Amount:   item.Amount,
		})
	}

	return &OrderModel{
		ID:            o.ID,
		BatchID:       o.BatchID,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		BillNumber:    o.BillNumber,
		BillGenerated: o.BillGenerated,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func orderModelToDomain(m *OrderModel) *domain.Order {
	if m == nil {
		return nil
	}

	items := make([]domain.OrderItem, 0, len(m.Items))
	for i := range m.Items {
		item := &m.Items[i]
		items = append(items, domain.OrderItem{
			ID:       item.ID,
			OrderID:  item.OrderID,
			Product:  item.Product,
			Category: item.Category,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Rate:     item.Rate,
			Amount:   item.Amount,
		})
	}

	return &domain.Order{
		ID:            m.ID,
		BatchID:       m.BatchID,
		CustomerID:    m.CustomerID,
		Status:        m.Status,
		BillNumber:    m.BillNumber,
		BillGenerated: m.BillGenerated,
		Items:         items,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
