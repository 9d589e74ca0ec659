package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sheinstock/internal/db"
)

// Gorm implements Store on top of the gorm handle (sqlite by default).
type Gorm struct {
	db *gorm.DB
}

func NewGorm(gdb *gorm.DB) *Gorm {
	return &Gorm{db: gdb}
}

func (s *Gorm) GetCredential(ctx context.Context) (*db.Credential, error) {
	var cred db.Credential
	err := s.db.WithContext(ctx).Order("updated_at DESC").First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &cred, nil
}

func (s *Gorm) UpsertCredential(ctx context.Context, cred db.Credential) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "open_key_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"secret_key", "access_token", "updated_at",
		}),
	}).Create(&cred).Error
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (s *Gorm) UpsertInventory(ctx context.Context, item db.InventoryItem) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "stock_current", "last_synced_at",
		}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("upsert inventory %s: %w", item.SKU, err)
	}
	return nil
}

func (s *Gorm) UpsertSale(ctx context.Context, sale db.SaleRecord) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity", "sale_date",
		}),
	}).Create(&sale).Error
	if err != nil {
		return fmt.Errorf("upsert sale %s/%s: %w", sale.OrderID, sale.SKU, err)
	}
	return nil
}

func (s *Gorm) ListInventory(ctx context.Context) ([]db.InventoryItem, error) {
	var items []db.InventoryItem
	if err := s.db.WithContext(ctx).Order("sku").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}

func (s *Gorm) ListSales(ctx context.Context) ([]db.SaleRecord, error) {
	var sales []db.SaleRecord
	if err := s.db.WithContext(ctx).Order("sale_date DESC").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

func (s *Gorm) RecordSyncRun(ctx context.Context, run db.SyncRun) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"finished_at", "products_upserted", "orders_upserted", "status", "diagnostics_json",
		}),
	}).Create(&run).Error
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

func (s *Gorm) ListSyncRuns(ctx context.Context, limit int) ([]db.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []db.SyncRun
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}
