package shein

import (
	"fmt"
	"strconv"
	"time"

	"sheinstock/internal/db"
	"sheinstock/internal/fieldmap"
)

// defaultProductName is shown for products the platform returns without any
// usable name field.
const defaultProductName = "Sin nombre"

// mapProduct normalizes one remote product record. ok is false when the
// record has no resolvable sku, in which case it is dropped.
func mapProduct(rec fieldmap.Record, syncedAt time.Time) (db.InventoryItem, bool) {
	sku, ok := fieldmap.String(rec, "skuCode", "sku")
	if !ok {
		return db.InventoryItem{}, false
	}
	stock := fieldmap.IntOr(rec, 0, "stock", "availableStock")
	if stock < 0 {
		stock = 0
	}
	return db.InventoryItem{
		SKU:          sku,
		Name:         fieldmap.StringOr(rec, defaultProductName, "productName", "title"),
		StockCurrent: stock,
		LastSyncedAt: syncedAt,
	}, true
}

// mapOrder expands one remote order into sale records, one per line item.
// Orders without a resolvable order id, and line items without a sku, are
// dropped; both counts are reported back for diagnostics.
func mapOrder(rec fieldmap.Record, now time.Time) (sales []db.SaleRecord, skipped int) {
	orderID, ok := fieldmap.String(rec, "orderNo", "orderId")
	if !ok {
		return nil, lineItems(rec)
	}

	saleDate := now
	if raw, ok := fieldmap.String(rec, "orderTime", "createTime"); ok {
		if t, err := parseOrderTime(raw); err == nil {
			saleDate = t
		}
	}

	items := itemsOf(rec)
	for _, item := range items {
		sku, ok := fieldmap.String(item, "skuCode", "sku")
		if !ok {
			skipped++
			continue
		}
		sales = append(sales, db.SaleRecord{
			SKU:      sku,
			OrderID:  orderID,
			Quantity: fieldmap.PositiveIntOr(item, 1, "quantity"),
			SaleDate: saleDate,
		})
	}
	return sales, skipped
}

// itemsOf returns the order's line items, found under either historical
// field name.
func itemsOf(rec fieldmap.Record) []fieldmap.Record {
	for _, key := range []string{"orderItems", "items"} {
		raw, ok := rec[key].([]any)
		if !ok {
			continue
		}
		out := make([]fieldmap.Record, 0, len(raw))
		for _, it := range raw {
			if m, ok := it.(fieldmap.Record); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func lineItems(rec fieldmap.Record) int { return len(itemsOf(rec)) }

// parseOrderTime accepts the formats observed on the wire: RFC3339, a bare
// datetime, or epoch millis.
func parseOrderTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err == nil && ms > 0 {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized order time %q", raw)
}
