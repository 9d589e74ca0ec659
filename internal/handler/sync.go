package handler

import (
	"errors"
	"net/http"
	"strconv"

	"sheinstock/internal/integrations/shein"
	"sheinstock/internal/store"
	"sheinstock/internal/syncer"
	"sheinstock/pkg/apierror"
	"sheinstock/pkg/response"
)

// SyncHandler exposes on-demand sync and the run history.
type SyncHandler struct {
	syncer *syncer.Syncer
	store  store.Store
}

func NewSyncHandler(s *syncer.Syncer, st store.Store) *SyncHandler {
	return &SyncHandler{syncer: s, store: st}
}

// Run handles POST /api/v1/sync. Partial remote failures still answer 200;
// the caller inspects diagnostics. Only a missing credential is an error.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.SyncNow(r.Context())
	if err != nil {
		if errors.Is(err, shein.ErrUnauthenticated) {
			response.Error(w, apierror.Unauthenticated(""))
			return
		}
		response.Error(w, apierror.InternalError(err.Error()))
		return
	}
	response.OK(w, result)
}

// Runs handles GET /api/v1/sync/runs?limit=N.
func (h *SyncHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	runs, err := h.store.ListSyncRuns(r.Context(), limit)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]any{"runs": runs})
}
