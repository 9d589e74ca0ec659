package db

import "fmt"

// Migrate creates or updates the schema. Unique indexes come from the model
// tags; the composite (order_id, sku) index is enforced here as well in case
// an older database predates the tag.
func (h *Handle) Migrate() error {
	gdb := h.DB

	if err := gdb.AutoMigrate(
		&Credential{},
		&InventoryItem{},
		&SaleRecord{},
		&SyncRun{},
	); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}

	if !gdb.Migrator().HasIndex(&SaleRecord{}, "uniq_order_sku") {
		if err := gdb.Exec(`
			CREATE UNIQUE INDEX IF NOT EXISTS uniq_order_sku
			ON sales_history(order_id, sku);
		`).Error; err != nil {
			return fmt.Errorf("create index uniq_order_sku: %w", err)
		}
	}

	return nil
}
