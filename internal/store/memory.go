package store

import (
	"context"
	"sort"
	"sync"

	"sheinstock/internal/db"
)

// Memory is an in-process Store used by tests and by the server when no
// database is configured. Upsert semantics mirror the gorm implementation.
type Memory struct {
	mu        sync.Mutex
	cred      *db.Credential
	inventory map[string]db.InventoryItem // sku -> item
	sales     map[string]db.SaleRecord    // orderID + "\x00" + sku -> record
	runs      []db.SyncRun
}

func NewMemory() *Memory {
	return &Memory{
		inventory: map[string]db.InventoryItem{},
		sales:     map[string]db.SaleRecord{},
	}
}

func (m *Memory) GetCredential(ctx context.Context) (*db.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return nil, nil
	}
	c := *m.cred
	return &c, nil
}

func (m *Memory) UpsertCredential(ctx context.Context, cred db.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &cred
	return nil
}

func (m *Memory) UpsertInventory(ctx context.Context, item db.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.inventory[item.SKU]; ok {
		item.ID = prev.ID
	} else {
		item.ID = uint(len(m.inventory) + 1)
	}
	m.inventory[item.SKU] = item
	return nil
}

func (m *Memory) UpsertSale(ctx context.Context, sale db.SaleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sale.OrderID + "\x00" + sale.SKU
	if prev, ok := m.sales[key]; ok {
		sale.ID = prev.ID
	} else {
		sale.ID = uint(len(m.sales) + 1)
	}
	m.sales[key] = sale
	return nil
}

func (m *Memory) ListInventory(ctx context.Context) ([]db.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]db.InventoryItem, 0, len(m.inventory))
	for _, it := range m.inventory {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (m *Memory) ListSales(ctx context.Context) ([]db.SaleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]db.SaleRecord, 0, len(m.sales))
	for _, s := range m.sales {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return out, nil
}

func (m *Memory) RecordSyncRun(ctx context.Context, run db.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].RunID == run.RunID {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListSyncRuns(ctx context.Context, limit int) ([]db.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	out := make([]db.SyncRun, len(m.runs))
	copy(out, m.runs)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
