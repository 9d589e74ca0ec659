package store

import (
	"context"

	"sheinstock/internal/db"
)

// Store is the persistence interface used by the sync core and the API server.
// GetCredential returns (nil, nil) when no credential has been stored yet.
type Store interface {
	GetCredential(ctx context.Context) (*db.Credential, error)
	UpsertCredential(ctx context.Context, cred db.Credential) error

	// UpsertInventory is keyed on sku, UpsertSale on (order_id, sku).
	// Both are last-write-wins.
	UpsertInventory(ctx context.Context, item db.InventoryItem) error
	UpsertSale(ctx context.Context, sale db.SaleRecord) error

	ListInventory(ctx context.Context) ([]db.InventoryItem, error)
	ListSales(ctx context.Context) ([]db.SaleRecord, error)

	RecordSyncRun(ctx context.Context, run db.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]db.SyncRun, error)
}
