package integrations

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"sheinstock/internal/store"
)

// Result is what one sync pass produced. Diagnostics hold captured step
// failures and protocol debug data; a populated Diagnostics map does not make
// the pass an error.
type Result struct {
	ProductsUpserted int            `json:"productsUpserted"`
	OrdersUpserted   int            `json:"ordersUpserted"`
	Diagnostics      map[string]any `json:"diagnostics,omitempty"`
}

// Merge folds another result into r (used when several integrations run).
func (r *Result) Merge(name string, other Result) {
	r.ProductsUpserted += other.ProductsUpserted
	r.OrdersUpserted += other.OrdersUpserted
	if len(other.Diagnostics) > 0 {
		if r.Diagnostics == nil {
			r.Diagnostics = map[string]any{}
		}
		r.Diagnostics[name] = other.Diagnostics
	}
}

// Integration is one remote platform wired into the syncer.
type Integration interface {
	Name() string
	// Sync pulls the remote state once and upserts it into the store.
	// It returns an error only for hard preconditions (no credential);
	// remote/transport failures land in Result.Diagnostics instead.
	Sync(ctx context.Context) (Result, error)
}

type Factory func(log zerolog.Logger, raw json.RawMessage, st store.Store) (Integration, error)
