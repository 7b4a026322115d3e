package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/tazehal/batching-engine/internal/repository"
	"gorm.io/gorm"
)

func createCountersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_counters",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.CounterModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CounterModel{})
		},
	}
}
