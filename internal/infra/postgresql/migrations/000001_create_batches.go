package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/tazehal/batching-engine/internal/repository"
	"gorm.io/gorm"
)

func createBatchesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_batches",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.BatchModel{}); err != nil {
				return err
			}
			// The expiry sweep scans open batches by cutoff.
			return tx.Exec(
				`CREATE INDEX IF NOT EXISTS idx_batches_status_cutoff ON batches (status, cutoff_time)`,
			).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.BatchModel{})
		},
	}
}
