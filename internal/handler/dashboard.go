package handler

import (
	"net/http"
	"time"

	"sheinstock/internal/forecast"
	"sheinstock/internal/store"
	"sheinstock/pkg/response"
)

// DashboardHandler serves the normalized collections plus the derived
// forecast in one payload for the presentation layer.
type DashboardHandler struct {
	store store.Store
	now   func() time.Time
}

func NewDashboardHandler(st store.Store) *DashboardHandler {
	return &DashboardHandler{store: st, now: time.Now}
}

// Get handles GET /api/v1/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	inventory, err := h.store.ListInventory(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	sales, err := h.store.ListSales(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{
		"inventory":  inventory,
		"sales":      sales,
		"forecast":   forecast.Compute(inventory, sales, h.now()),
		"salesByDay": forecast.DailyTotals(sales),
	})
}
