package shein

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sheinstock/internal/db"
	"sheinstock/internal/store"
)

func newTestShein(t *testing.T, baseURL string, st store.Store) *Shein {
	t.Helper()
	client := newTestClient(t, baseURL, nil)
	return &Shein{
		log:    zerolog.Nop(),
		cfg:    client.cfg,
		client: client,
		store:  st,
		now:    time.Now,
	}
}

func seedCredential(t *testing.T, st store.Store) {
	t.Helper()
	err := st.UpsertCredential(context.Background(), db.Credential{
		OpenKeyID:   "openKey12345",
		SecretKey:   "secret",
		AccessToken: "openKey12345",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSyncUpsertsProductsAndOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/product/query"):
			w.Write([]byte(`{"code":"0","data":{"list":[
				{"skuCode":"A1","stock":5},
				{"sku":"B2","availableStock":3,"productName":"Shirt"},
				{"productName":"no sku, dropped"}
			]}}`))
		case strings.HasSuffix(r.URL.Path, "/order/query"):
			w.Write([]byte(`{"code":"0","data":{"list":[
				{"orderNo":"ORD-1","orderTime":"2026-08-20T10:00:00Z","orderItems":[
					{"skuCode":"A1","quantity":2},
					{"skuCode":"B2"}
				]}
			]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	st := store.NewMemory()
	seedCredential(t, st)
	s := newTestShein(t, srv.URL, st)

	res, err := s.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.ProductsUpserted != 2 {
		t.Errorf("productsUpserted = %d, want 2", res.ProductsUpserted)
	}
	if res.OrdersUpserted != 2 {
		t.Errorf("ordersUpserted = %d, want 2", res.OrdersUpserted)
	}

	inv, _ := st.ListInventory(context.Background())
	if len(inv) != 2 || inv[0].SKU != "A1" || inv[0].StockCurrent != 5 || inv[0].Name != "Sin nombre" {
		t.Errorf("inventory = %+v", inv)
	}
	if inv[1].SKU != "B2" || inv[1].Name != "Shirt" || inv[1].StockCurrent != 3 {
		t.Errorf("inventory = %+v", inv)
	}

	sales, _ := st.ListSales(context.Background())
	if len(sales) != 2 {
		t.Fatalf("sales = %+v", sales)
	}
	for _, s := range sales {
		if s.OrderID != "ORD-1" {
			t.Errorf("orderID = %q", s.OrderID)
		}
		if s.SKU == "B2" && s.Quantity != 1 {
			t.Errorf("missing quantity should default to 1, got %d", s.Quantity)
		}
	}

	// the product step reported one dropped record
	prodDiag, ok := res.Diagnostics["products"].(map[string]any)
	if !ok || prodDiag["skipped"] != 1 {
		t.Errorf("products diagnostics = %+v", res.Diagnostics["products"])
	}

	// diagnostics identify the credential without leaking it
	if res.Diagnostics["credential"] != "open****" {
		t.Errorf("credential preview = %v", res.Diagnostics["credential"])
	}

	runs, _ := st.ListSyncRuns(context.Background(), 10)
	if len(runs) != 1 || runs[0].Status != "ok" {
		t.Errorf("runs = %+v", runs)
	}
}

// Re-syncing the same order must not accumulate quantities: (orderId, sku)
// is last-write-wins.
func TestSyncIdempotentUpserts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/product/query") {
			w.Write([]byte(`{"code":"0","data":{"list":[{"skuCode":"A1","stock":9}]}}`))
			return
		}
		w.Write([]byte(`{"code":"0","data":{"list":[
			{"orderNo":"ORD-1","orderItems":[{"skuCode":"A1","quantity":4}]}
		]}}`))
	}))
	defer srv.Close()

	st := store.NewMemory()
	seedCredential(t, st)
	s := newTestShein(t, srv.URL, st)

	for i := 0; i < 2; i++ {
		if _, err := s.Sync(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	sales, _ := st.ListSales(context.Background())
	if len(sales) != 1 {
		t.Fatalf("len(sales) = %d, want 1", len(sales))
	}
	if sales[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4 (no accumulation)", sales[0].Quantity)
	}
	inv, _ := st.ListInventory(context.Background())
	if len(inv) != 1 || inv[0].StockCurrent != 9 {
		t.Errorf("inventory = %+v", inv)
	}
}

// A failed product endpoint must not abort the order pull, and the failure
// surfaces in diagnostics rather than as an error.
func TestSyncPartialFailureIsolated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/product/query") {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
			return
		}
		w.Write([]byte(`{"code":"0","data":{"list":[
			{"orderNo":"ORD-9","orderItems":[{"skuCode":"Z1","quantity":1}]}
		]}}`))
	}))
	defer srv.Close()

	st := store.NewMemory()
	seedCredential(t, st)
	s := newTestShein(t, srv.URL, st)

	res, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("partial failure must not raise, got %v", err)
	}
	if res.ProductsUpserted != 0 {
		t.Errorf("productsUpserted = %d, want 0", res.ProductsUpserted)
	}
	if res.OrdersUpserted != 1 {
		t.Errorf("ordersUpserted = %d, want 1", res.OrdersUpserted)
	}

	prodDiag, ok := res.Diagnostics["products"].(map[string]any)
	if !ok {
		t.Fatalf("missing products diagnostics: %+v", res.Diagnostics)
	}
	if prodDiag["error"] == nil || prodDiag["http_status"] != http.StatusInternalServerError {
		t.Errorf("products diagnostics = %+v", prodDiag)
	}
	if prodDiag["raw_preview"] == nil {
		t.Error("raw preview missing from diagnostics")
	}

	runs, _ := st.ListSyncRuns(context.Background(), 10)
	if len(runs) != 1 || runs[0].Status != "partial" {
		t.Errorf("runs = %+v", runs)
	}
}

// A non-success envelope code is a protocol error for that step only.
func TestSyncNonSuccessEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/product/query") {
			w.Write([]byte(`{"code":"100101","msg":"signature invalid"}`))
			return
		}
		w.Write([]byte(`{"code":"0","data":{"list":[]}}`))
	}))
	defer srv.Close()

	st := store.NewMemory()
	seedCredential(t, st)
	s := newTestShein(t, srv.URL, st)

	res, err := s.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	prodDiag := res.Diagnostics["products"].(map[string]any)
	if prodDiag["code"] != "100101" || prodDiag["msg"] != "signature invalid" {
		t.Errorf("products diagnostics = %+v", prodDiag)
	}
}

// An unrecognized envelope shape means zero records, not an error.
func TestSyncUnrecognizedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"0","result":{"entries":[]}}`))
	}))
	defer srv.Close()

	st := store.NewMemory()
	seedCredential(t, st)
	s := newTestShein(t, srv.URL, st)

	res, err := s.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.ProductsUpserted != 0 || res.OrdersUpserted != 0 {
		t.Errorf("result = %+v", res)
	}
	if stepFailed(res.Diagnostics["products"]) || stepFailed(res.Diagnostics["orders"]) {
		t.Errorf("unrecognized shape must not be a failure: %+v", res.Diagnostics)
	}
}

// Without a stored credential the sync aborts before any network call.
func TestSyncUnauthenticatedNoCalls(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"code":"0","data":{"list":[]}}`))
	}))
	defer srv.Close()

	st := store.NewMemory()
	s := newTestShein(t, srv.URL, st)

	_, err := s.Sync(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("outbound calls = %d, want 0", n)
	}

	runs, _ := st.ListSyncRuns(context.Background(), 10)
	if len(runs) != 1 || runs[0].Status != "unauthenticated" {
		t.Errorf("runs = %+v", runs)
	}
}

// Pagination continues while full pages come back.
func TestSyncPaginatesProducts(t *testing.T) {
	var pages atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/order/query") {
			w.Write([]byte(`{"code":"0","data":{"list":[]}}`))
			return
		}
		n := pages.Add(1)
		if n == 1 {
			// exactly one full page forces a second fetch
			var items []string
			for i := 0; i < 3; i++ {
				items = append(items, `{"skuCode":"P`+string(rune('0'+i))+`","stock":1}`)
			}
			w.Write([]byte(`{"code":"0","data":{"list":[` + strings.Join(items, ",") + `]}}`))
			return
		}
		w.Write([]byte(`{"code":"0","data":{"list":[{"skuCode":"P9","stock":1}]}}`))
	}))
	defer srv.Close()

	st := store.NewMemory()
	seedCredential(t, st)
	client := newTestClient(t, srv.URL, func(cfg *Config) { cfg.ProductPageSize = 3 })
	s := &Shein{log: zerolog.Nop(), cfg: client.cfg, client: client, store: st, now: time.Now}

	res, err := s.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.ProductsUpserted != 4 {
		t.Errorf("productsUpserted = %d, want 4", res.ProductsUpserted)
	}
	if pages.Load() != 2 {
		t.Errorf("product pages fetched = %d, want 2", pages.Load())
	}
}
