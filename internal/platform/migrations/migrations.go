package migrations

import (
	"gorm.io/gorm"

	orderspg "github.com/Apurer/machine-orders/internal/domains/orders/adapters/persistence/postgres"
)

// Run applies the schema for the orders context: orders, line items, notes,
// reference tables and the activity log.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(orderspg.Models()...)
}
