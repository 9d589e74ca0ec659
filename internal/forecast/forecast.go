// Package forecast derives per-SKU depletion metrics from the synced
// inventory and sales collections. Pure computation, no I/O.
package forecast

import (
	"math"
	"sort"
	"time"

	"sheinstock/internal/db"
)

// DaysUnbounded is the sentinel for "no depletion signal" (zero sales).
// Distinguishable from any realistic day count.
const DaysUnbounded = 999

// Urgency thresholds in days of stock remaining.
const (
	criticalDays = 7
	warningDays  = 14
)

// windowDays is the fixed averaging denominator. Deliberately not a true
// trailing average: fewer than 30 days of data still divide by 30.
const windowDays = 30

type Urgency string

const (
	UrgencyOK       Urgency = "ok"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

// Item is one inventory row with its depletion forecast. Derived only,
// never persisted.
type Item struct {
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	StockCurrent  int       `json:"stockCurrent"`
	LastSyncedAt  time.Time `json:"lastSyncedAt"`
	TotalSales30d int       `json:"totalSales30d"`
	AvgDailySales float64   `json:"avgDailySales"`
	DaysRemaining int       `json:"daysRemaining"`
	SuggestedBuy  int       `json:"suggestedPurchase"`
	Urgency       Urgency   `json:"urgency"`
}

// Compute builds the forecast for every inventory item. Sales outside the
// trailing 30-day window (relative to now) are ignored.
func Compute(inventory []db.InventoryItem, sales []db.SaleRecord, now time.Time) []Item {
	cutoff := now.AddDate(0, 0, -windowDays)

	totals := make(map[string]int, len(inventory))
	for _, s := range sales {
		if s.SaleDate.Before(cutoff) {
			continue
		}
		totals[s.SKU] += s.Quantity
	}

	out := make([]Item, 0, len(inventory))
	for _, inv := range inventory {
		total := totals[inv.SKU]
		avg := float64(total) / windowDays

		days := DaysUnbounded
		if avg > 0 {
			days = int(math.Round(float64(inv.StockCurrent) / avg))
		}

		suggested := int(math.Ceil(avg*windowDays - float64(inv.StockCurrent)))
		if suggested < 0 {
			suggested = 0
		}

		out = append(out, Item{
			SKU:           inv.SKU,
			Name:          inv.Name,
			StockCurrent:  inv.StockCurrent,
			LastSyncedAt:  inv.LastSyncedAt,
			TotalSales30d: total,
			AvgDailySales: avg,
			DaysRemaining: days,
			SuggestedBuy:  suggested,
			Urgency:       classify(days),
		})
	}

	// most urgent first, matching how the dashboard ranks items
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysRemaining < out[j].DaysRemaining })
	return out
}

func classify(daysRemaining int) Urgency {
	switch {
	case daysRemaining >= DaysUnbounded:
		return UrgencyOK
	case daysRemaining <= criticalDays:
		return UrgencyCritical
	case daysRemaining <= warningDays:
		return UrgencyWarning
	default:
		return UrgencyOK
	}
}

// DayTotal is one point of the sales-per-day series.
type DayTotal struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Quantity int    `json:"quantity"`
}

// DailyTotals aggregates sale quantities per calendar day, oldest first.
func DailyTotals(sales []db.SaleRecord) []DayTotal {
	byDate := map[string]int{}
	for _, s := range sales {
		byDate[s.SaleDate.Format("2006-01-02")] += s.Quantity
	}
	out := make([]DayTotal, 0, len(byDate))
	for date, qty := range byDate {
		out = append(out, DayTotal{Date: date, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
