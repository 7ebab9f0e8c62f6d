package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dukerupert/trolley/internal/database"
	"github.com/dukerupert/trolley/internal/model"
	"github.com/dukerupert/trolley/internal/store"
)

type fakePublisher struct {
	mu    sync.Mutex
	calls []string
}

func (p *fakePublisher) PublishReceipt(ctx context.Context, receiptID string, imageURLs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, receiptID)
	return nil
}

type testEnv struct {
	mux       *http.ServeMux
	receipts  *store.ReceiptStore
	maps      *store.IngredientMapStore
	shopping  *store.ShoppingStore
	budgets   *store.BudgetStore
	publisher *fakePublisher
	analytics *AnalyticsHandler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		mux:       http.NewServeMux(),
		receipts:  store.NewReceiptStore(db),
		maps:      store.NewIngredientMapStore(db),
		shopping:  store.NewShoppingStore(db),
		budgets:   store.NewBudgetStore(db),
		publisher: &fakePublisher{},
	}

	rh := NewReceiptHandler(env.receipts, env.maps, env.publisher, nil, logger)
	env.mux.HandleFunc("POST /api/receipts", rh.Create)
	env.mux.HandleFunc("GET /api/receipts", rh.List)
	env.mux.HandleFunc("GET /api/receipts/{id}", rh.Get)
	env.mux.HandleFunc("PUT /api/receipts/{id}", rh.Update)
	env.mux.HandleFunc("DELETE /api/receipts/{id}", rh.Delete)
	env.mux.HandleFunc("PUT /api/pipeline/receipts/{id}/items", rh.DeliverItems)

	env.analytics = NewAnalyticsHandler(env.receipts, logger)
	env.analytics.today = func() model.Date { return model.NewDate(2026, 10, 18) }
	env.mux.HandleFunc("GET /api/analytics/basket-inflation", env.analytics.BasketInflation)
	env.mux.HandleFunc("GET /api/analytics/categories", env.analytics.Categories)
	env.mux.HandleFunc("GET /api/analytics/top-items", env.analytics.TopItems)
	env.mux.HandleFunc("GET /api/categories", CategoryOptions)

	sh := NewShoppingHandler(env.shopping, env.maps, nil, logger)
	env.mux.HandleFunc("POST /api/shopping/items", sh.Create)
	env.mux.HandleFunc("GET /api/shopping/items", sh.List)
	env.mux.HandleFunc("PUT /api/shopping/items/{id}", sh.Update)
	env.mux.HandleFunc("DELETE /api/shopping/items/{id}", sh.Delete)
	env.mux.HandleFunc("POST /api/shopping/items/{id}/check", sh.ToggleChecked)
	env.mux.HandleFunc("POST /api/shopping/clear-checked", sh.ClearChecked)

	mh := NewIngredientMapHandler(env.maps, nil, logger)
	env.mux.HandleFunc("POST /api/ingredient-maps", mh.Create)
	env.mux.HandleFunc("GET /api/ingredient-maps", mh.List)
	env.mux.HandleFunc("DELETE /api/ingredient-maps/{id}", mh.Delete)

	bh := NewBudgetHandler(env.budgets, env.receipts, nil, logger)
	env.mux.HandleFunc("POST /api/budgets", bh.Create)
	env.mux.HandleFunc("GET /api/budgets", bh.List)
	env.mux.HandleFunc("GET /api/budgets/active", bh.Active)
	env.mux.HandleFunc("POST /api/budgets/rollover", bh.Rollover)
	env.mux.HandleFunc("DELETE /api/budgets/{id}", bh.Delete)

	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}
