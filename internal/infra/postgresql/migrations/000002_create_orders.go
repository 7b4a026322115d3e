package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/tazehal/batching-engine/internal/repository"
	"gorm.io/gorm"
)

func createOrdersTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_orders",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.OrderModel{}, &repository.OrderItemModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_orders_batch_status ON orders (batch_id, status)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_bill_number ON orders (bill_number) WHERE bill_number IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Migrator().DropTable(&repository.OrderItemModel{}); err != nil {
				return err
			}
			return tx.Migrator().DropTable(&repository.OrderModel{})
		},
	}
}
