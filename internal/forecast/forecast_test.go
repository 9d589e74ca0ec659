package forecast

import (
	"testing"
	"time"

	"sheinstock/internal/db"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func sale(sku string, qty int, daysAgo int) db.SaleRecord {
	return db.SaleRecord{
		SKU:      sku,
		OrderID:  "ORD",
		Quantity: qty,
		SaleDate: now.AddDate(0, 0, -daysAgo),
	}
}

func TestComputeSteadySeller(t *testing.T) {
	inv := []db.InventoryItem{{SKU: "A", StockCurrent: 100}}
	var sales []db.SaleRecord
	for i := 0; i < 30; i++ {
		sales = append(sales, sale("A", 1, i))
	}

	items := Compute(inv, sales, now)
	if len(items) != 1 {
		t.Fatal("missing item")
	}
	it := items[0]
	if it.TotalSales30d != 30 {
		t.Errorf("totalSales30d = %d, want 30", it.TotalSales30d)
	}
	if it.AvgDailySales != 1.0 {
		t.Errorf("avgDailySales = %v, want 1.0", it.AvgDailySales)
	}
	if it.DaysRemaining != 100 {
		t.Errorf("daysRemaining = %d, want 100", it.DaysRemaining)
	}
	// 30 days of coverage already in stock
	if it.SuggestedBuy != 0 {
		t.Errorf("suggestedPurchase = %d, want 0", it.SuggestedBuy)
	}
	if it.Urgency != UrgencyOK {
		t.Errorf("urgency = %s", it.Urgency)
	}
}

func TestComputeUrgentItem(t *testing.T) {
	inv := []db.InventoryItem{{SKU: "B", StockCurrent: 5}}
	sales := []db.SaleRecord{sale("B", 60, 3)}

	it := Compute(inv, sales, now)[0]
	if it.AvgDailySales != 2.0 {
		t.Errorf("avgDailySales = %v, want 2.0", it.AvgDailySales)
	}
	if it.DaysRemaining != 3 { // round(5/2)
		t.Errorf("daysRemaining = %d, want 3", it.DaysRemaining)
	}
	if it.SuggestedBuy != 55 { // ceil(60-5)
		t.Errorf("suggestedPurchase = %d, want 55", it.SuggestedBuy)
	}
	if it.Urgency != UrgencyCritical {
		t.Errorf("urgency = %s, want critical", it.Urgency)
	}
}

func TestComputeZeroSalesSentinel(t *testing.T) {
	inv := []db.InventoryItem{{SKU: "C", StockCurrent: 7}}

	it := Compute(inv, nil, now)[0]
	if it.DaysRemaining != DaysUnbounded {
		t.Errorf("daysRemaining = %d, want sentinel %d", it.DaysRemaining, DaysUnbounded)
	}
	if it.SuggestedBuy != 0 {
		t.Errorf("suggestedPurchase = %d, want 0", it.SuggestedBuy)
	}
	if it.Urgency != UrgencyOK {
		t.Errorf("urgency = %s, sentinel must not be urgent", it.Urgency)
	}
}

func TestComputeIgnoresOldSales(t *testing.T) {
	inv := []db.InventoryItem{{SKU: "D", StockCurrent: 10}}
	sales := []db.SaleRecord{
		sale("D", 3, 5),
		sale("D", 100, 45), // outside the window
		sale("E", 9, 1),    // different sku
	}

	it := Compute(inv, sales, now)[0]
	if it.TotalSales30d != 3 {
		t.Errorf("totalSales30d = %d, want 3", it.TotalSales30d)
	}
}

func TestComputeSortsMostUrgentFirst(t *testing.T) {
	inv := []db.InventoryItem{
		{SKU: "SLOW", StockCurrent: 500},
		{SKU: "FAST", StockCurrent: 2},
	}
	sales := []db.SaleRecord{
		sale("SLOW", 30, 1),
		sale("FAST", 30, 1),
	}

	items := Compute(inv, sales, now)
	if items[0].SKU != "FAST" {
		t.Errorf("first item = %s, want FAST", items[0].SKU)
	}
}

func TestComputeWarningBand(t *testing.T) {
	// 10 days remaining: warning, not critical
	inv := []db.InventoryItem{{SKU: "W", StockCurrent: 10}}
	sales := []db.SaleRecord{sale("W", 30, 2)}

	it := Compute(inv, sales, now)[0]
	if it.DaysRemaining != 10 {
		t.Fatalf("daysRemaining = %d, want 10", it.DaysRemaining)
	}
	if it.Urgency != UrgencyWarning {
		t.Errorf("urgency = %s, want warning", it.Urgency)
	}
}

func TestDailyTotals(t *testing.T) {
	sales := []db.SaleRecord{
		sale("A", 2, 1),
		sale("B", 3, 1),
		sale("A", 1, 0),
	}
	totals := DailyTotals(sales)
	if len(totals) != 2 {
		t.Fatalf("len = %d, want 2", len(totals))
	}
	// oldest first
	if totals[0].Quantity != 5 || totals[1].Quantity != 1 {
		t.Errorf("totals = %+v", totals)
	}
}
