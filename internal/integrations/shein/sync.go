package shein

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"sheinstock/internal/db"
	"sheinstock/internal/integrations"
	"sheinstock/internal/metrics"
	"sheinstock/internal/store"
)

const (
	productQueryPath = "/open-api/product/query"
	orderQueryPath   = "/open-api/order/query"
)

// Shein pulls products and recent orders from the open API into the store.
type Shein struct {
	log    zerolog.Logger
	cfg    Config
	client *Client
	store  store.Store

	now func() time.Time
}

func (s *Shein) Name() string { return "shein" }

// Sync runs the product and order steps concurrently. The steps are
// failure-isolated: a dead product endpoint never aborts the order pull.
// The only hard error is a missing credential (or an unreadable store).
func (s *Shein) Sync(ctx context.Context) (integrations.Result, error) {
	started := s.now()
	runID := uuid.NewString()

	cred, err := s.store.GetCredential(ctx)
	if err != nil {
		return integrations.Result{}, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		s.recordRun(ctx, db.SyncRun{
			RunID:     runID,
			StartedAt: started,
			Status:    "unauthenticated",
		})
		metrics.SyncRuns.WithLabelValues("unauthenticated").Inc()
		return integrations.Result{}, ErrUnauthenticated
	}

	res := integrations.Result{
		Diagnostics: map[string]any{
			"credential": maskKey(cred.OpenKeyID),
			"profile":    s.client.Profile().Name(),
		},
	}
	var diagMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, diag := s.syncProducts(gctx, cred)
		diagMu.Lock()
		res.ProductsUpserted = count
		res.Diagnostics["products"] = diag
		diagMu.Unlock()
		return nil
	})
	g.Go(func() error {
		count, diag := s.syncOrders(gctx, cred)
		diagMu.Lock()
		res.OrdersUpserted = count
		res.Diagnostics["orders"] = diag
		diagMu.Unlock()
		return nil
	})
	_ = g.Wait() // steps capture their own failures

	status := "ok"
	if stepFailed(res.Diagnostics["products"]) || stepFailed(res.Diagnostics["orders"]) {
		status = "partial"
	}

	finished := s.now()
	diagJSON, _ := json.Marshal(res.Diagnostics)
	s.recordRun(ctx, db.SyncRun{
		RunID:            runID,
		StartedAt:        started,
		FinishedAt:       &finished,
		ProductsUpserted: res.ProductsUpserted,
		OrdersUpserted:   res.OrdersUpserted,
		Status:           status,
		DiagnosticsJSON:  string(diagJSON),
	})
	metrics.SyncRuns.WithLabelValues(status).Inc()
	metrics.RecordsUpserted.WithLabelValues("inventory").Add(float64(res.ProductsUpserted))
	metrics.RecordsUpserted.WithLabelValues("sales").Add(float64(res.OrdersUpserted))

	s.log.Info().
		Str("run_id", runID).
		Str("status", status).
		Int("products", res.ProductsUpserted).
		Int("orders", res.OrdersUpserted).
		Dur("took", finished.Sub(started)).
		Msg("sync finished")

	return res, nil
}

// syncProducts pages through the product list and upserts stock levels.
func (s *Shein) syncProducts(ctx context.Context, cred *db.Credential) (int, map[string]any) {
	diag := map[string]any{}
	count, pages, skipped := 0, 0, 0

	for page := 1; page <= s.cfg.MaxPages; page++ {
		body := s.client.pageBody(page, s.cfg.ProductPageSize, nil)
		list, failed := s.fetchPage(ctx, cred, productQueryPath, body, diag)
		if failed {
			break
		}
		if len(list) == 0 {
			break
		}
		pages++

		syncedAt := s.now()
		for _, rec := range list {
			item, ok := mapProduct(rec, syncedAt)
			if !ok {
				skipped++
				continue
			}
			if err := s.store.UpsertInventory(ctx, item); err != nil {
				s.log.Error().Err(err).Str("sku", item.SKU).Msg("inventory upsert failed")
				diag["upsert_error"] = err.Error()
				continue
			}
			count++
		}
		if len(list) < s.cfg.ProductPageSize {
			break
		}
	}

	diag["pages"] = pages
	diag["skipped"] = skipped
	return count, diag
}

// syncOrders pulls the trailing order window and upserts one sale record per
// line item, keyed on (orderId, sku).
func (s *Shein) syncOrders(ctx context.Context, cred *db.Credential) (int, map[string]any) {
	diag := map[string]any{}
	count, pages, skipped := 0, 0, 0

	now := s.now()
	window := map[string]any{
		"startTime": s.client.Profile().TimeWindowValue(now.AddDate(0, 0, -s.cfg.OrderWindowDays)),
		"endTime":   s.client.Profile().TimeWindowValue(now),
	}

	for page := 1; page <= s.cfg.MaxPages; page++ {
		body := s.client.pageBody(page, s.cfg.OrderPageSize, window)
		list, failed := s.fetchPage(ctx, cred, orderQueryPath, body, diag)
		if failed {
			break
		}
		if len(list) == 0 {
			break
		}
		pages++

		for _, rec := range list {
			sales, dropped := mapOrder(rec, now)
			skipped += dropped
			for _, sale := range sales {
				if err := s.store.UpsertSale(ctx, sale); err != nil {
					s.log.Error().Err(err).Str("order", sale.OrderID).Str("sku", sale.SKU).Msg("sale upsert failed")
					diag["upsert_error"] = err.Error()
					continue
				}
				count++
			}
		}
		if len(list) < s.cfg.OrderPageSize {
			break
		}
	}

	diag["pages"] = pages
	diag["skipped"] = skipped
	return count, diag
}

// fetchPage does one signed call and peels the envelope. On any failure the
// details are written into diag and failed=true is returned; an empty or
// unrecognized payload is NOT a failure, just zero records.
func (s *Shein) fetchPage(ctx context.Context, cred *db.Credential, path string, body map[string]any, diag map[string]any) (list []map[string]any, failed bool) {
	resp, err := s.client.Call(ctx, cred, path, body)
	if err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("sync step failed")
		diag["error"] = err.Error()
		diag["transport"] = true
		return nil, true
	}
	if resp.ProxyFallback {
		diag["proxy_fallback"] = true
	}
	if resp.ViaProxy {
		diag["via_proxy"] = true
	}
	if resp.Envelope == nil {
		perr := &RemoteProtocolError{
			Path:       path,
			HTTPStatus: resp.Status,
			RawPreview: preview(resp.Raw, 512),
		}
		s.log.Error().Int("status", resp.Status).Str("path", path).Msg("non-JSON response")
		diag["error"] = perr.Error()
		diag["http_status"] = resp.Status
		diag["raw_preview"] = perr.RawPreview
		return nil, true
	}
	if resp.Envelope.Code != codeOK {
		perr := &RemoteProtocolError{
			Path:       path,
			Code:       string(resp.Envelope.Code),
			Msg:        resp.Envelope.Msg,
			HTTPStatus: resp.Status,
		}
		s.log.Error().Str("code", string(resp.Envelope.Code)).Str("path", path).Msg("non-success envelope")
		diag["error"] = perr.Error()
		diag["code"] = string(resp.Envelope.Code)
		diag["msg"] = resp.Envelope.Msg
		diag["http_status"] = resp.Status
		return nil, true
	}
	return resp.Envelope.List(s.client.Profile()), false
}

func (s *Shein) recordRun(ctx context.Context, run db.SyncRun) {
	if err := s.store.RecordSyncRun(ctx, run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.RunID).Msg("cannot record sync run")
	}
}

func stepFailed(diag any) bool {
	m, ok := diag.(map[string]any)
	if !ok {
		return false
	}
	_, failed := m["error"]
	return failed
}

// maskKey keeps just enough of the identity to recognize which credential
// was used. The secret never reaches diagnostics.
func maskKey(openKeyID string) string {
	if len(openKeyID) <= 4 {
		return "****"
	}
	return openKeyID[:4] + "****"
}

func factory(log zerolog.Logger, raw json.RawMessage, st store.Store) (integrations.Integration, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	client, err := NewClient(log, cfg)
	if err != nil {
		return nil, err
	}
	return &Shein{
		log:    log,
		cfg:    client.cfg, // defaults applied
		client: client,
		store:  st,
		now:    time.Now,
	}, nil
}

func init() {
	integrations.Register("shein", factory)
}
