package db

import "time"

// shein_credentials — the active open-key / secret-key pair.
// Exactly one set is expected; upsert is keyed on open_key_id.
type Credential struct {
	ID          uint   `gorm:"primaryKey"`
	OpenKeyID   string `gorm:"uniqueIndex;column:open_key_id"`
	SecretKey   string
	AccessToken string
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Credential) TableName() string { return "shein_credentials" }

// inventory — current stock per SKU, overwritten on every sync.
type InventoryItem struct {
	ID           uint   `gorm:"primaryKey"`
	SKU          string `gorm:"uniqueIndex;column:sku"`
	Name         string
	StockCurrent int `gorm:"not null;default:0"`
	LastSyncedAt time.Time
}

func (InventoryItem) TableName() string { return "inventory" }

// sales_history — one row per (order, sku) line item, last write wins.
type SaleRecord struct {
	ID       uint   `gorm:"primaryKey"`
	SKU      string `gorm:"column:sku;uniqueIndex:uniq_order_sku"`
	OrderID  string `gorm:"column:order_id;uniqueIndex:uniq_order_sku"`
	Quantity int    `gorm:"not null;default:1"`
	SaleDate time.Time
}

func (SaleRecord) TableName() string { return "sales_history" }

// sync_runs — history of sync invocations, diagnostics included.
type SyncRun struct {
	RunID            string `gorm:"primaryKey;column:run_id"`
	StartedAt        time.Time
	FinishedAt       *time.Time
	ProductsUpserted int
	OrdersUpserted   int
	Status           string `gorm:"index"` // ok / partial / unauthenticated
	DiagnosticsJSON  string `gorm:"type:text"`
}

func (SyncRun) TableName() string { return "sync_runs" }
