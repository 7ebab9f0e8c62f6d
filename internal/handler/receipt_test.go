package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dukerupert/trolley/internal/model"
)

func TestCreateReceiptCategorizesItems(t *testing.T) {
	env := setupTestEnv(t)
	if _, err := env.maps.Create("TS SEMI SKM 2PT", "Semi Skimmed Milk", "dairy_eggs"); err != nil {
		t.Fatalf("create map: %v", err)
	}

	rec := env.do(t, "POST", "/api/receipts", map[string]any{
		"supermarket":   "Tesco",
		"purchase_date": "2026-10-01",
		"total_amount":  3.10,
		"items": []map[string]any{
			{"name": "TS SEMI SKM 2PT", "total_price": 1.45},
			{"name": "Bananas", "category": "not-a-category", "total_price": 0.85},
			{"name": "White Bread", "category": "bakery", "total_price": 0.80},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	got := decodeBody[model.Receipt](t, rec)
	if got.ValidationStatus != model.StatusCompleted {
		t.Errorf("status = %q, want %q", got.ValidationStatus, model.StatusCompleted)
	}
	if got.Currency != "GBP" {
		t.Errorf("currency = %q, want GBP", got.Currency)
	}
	want := []string{"dairy_eggs", "vegetables_fruits", "bakery"}
	for i, item := range got.Items {
		if item.Category != want[i] {
			t.Errorf("items[%d].Category = %q, want %q", i, item.Category, want[i])
		}
	}
	if c := got.Items[0].CanonicalName; c == nil || *c != "Semi Skimmed Milk" {
		t.Errorf("canonical name = %v, want Semi Skimmed Milk", c)
	}
	if len(env.publisher.calls) != 0 {
		t.Errorf("published %d receipts, want 0", len(env.publisher.calls))
	}
}

func TestReceiptKeepsSuppliedCategories(t *testing.T) {
	env := setupTestEnv(t)
	if _, err := env.maps.Create("Oat Drink", "Oat Milk", "dairy_eggs"); err != nil {
		t.Fatalf("create map: %v", err)
	}

	items := []map[string]any{
		{"name": "Salted Butter", "category": "dairy_eggs", "total_price": 2.10},
		{"name": "Peppermint Tea", "category": "beverages", "total_price": 1.50},
		{"name": "Oat Drink", "category": "beverages", "total_price": 1.80},
		{"name": "Oat Drink", "total_price": 1.80},
	}
	want := []string{"dairy_eggs", "beverages", "beverages", "dairy_eggs"}

	check := func(t *testing.T, got model.Receipt) {
		t.Helper()
		if len(got.Items) != len(want) {
			t.Fatalf("items = %d, want %d", len(got.Items), len(want))
		}
		for i, item := range got.Items {
			if item.Category != want[i] {
				t.Errorf("items[%d] %s category = %q, want %q", i, item.Name, item.Category, want[i])
			}
		}
	}

	rec := env.do(t, "POST", "/api/receipts", map[string]any{
		"supermarket": "Tesco", "purchase_date": "2026-10-04", "total_amount": 7.20, "items": items,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	created := decodeBody[model.Receipt](t, rec)
	t.Run("create", func(t *testing.T) { check(t, created) })

	rec = env.do(t, "PUT", "/api/receipts/"+created.ID, map[string]any{
		"supermarket": "Tesco", "purchase_date": "2026-10-04", "total_amount": 7.20, "items": items,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	t.Run("update", func(t *testing.T) { check(t, decodeBody[model.Receipt](t, rec)) })
}

func TestCreateReceiptWithImagesQueuesExtraction(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "POST", "/api/receipts", map[string]any{
		"supermarket":        "Aldi",
		"purchase_date":      "2026-10-02",
		"total_amount":       12.40,
		"receipt_image_urls": []string{"https://img.example/a.jpg"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	got := decodeBody[model.Receipt](t, rec)
	if got.ValidationStatus != model.StatusProcessingBackground {
		t.Errorf("status = %q, want %q", got.ValidationStatus, model.StatusProcessingBackground)
	}
	if len(env.publisher.calls) != 1 || env.publisher.calls[0] != got.ID {
		t.Errorf("published = %v, want [%s]", env.publisher.calls, got.ID)
	}
}

func TestCreateReceiptValidation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing supermarket", map[string]any{"purchase_date": "2026-10-01", "total_amount": 1}, "supermarket"},
		{"missing date", map[string]any{"supermarket": "Lidl", "total_amount": 1}, "purchase_date"},
		{"bad date", map[string]any{"supermarket": "Lidl", "purchase_date": "01/10/2026", "total_amount": 1}, "YYYY-MM-DD"},
		{"missing total", map[string]any{"supermarket": "Lidl", "purchase_date": "2026-10-01"}, "total_amount"},
		{"negative total", map[string]any{"supermarket": "Lidl", "purchase_date": "2026-10-01", "total_amount": -2}, "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/api/receipts", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %s, want mention of %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestReceiptGetUpdateDelete(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "POST", "/api/receipts", map[string]any{
		"supermarket": "Asda", "purchase_date": "2026-10-03", "total_amount": 2,
	})
	created := decodeBody[model.Receipt](t, rec)

	rec = env.do(t, "GET", "/api/receipts/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = env.do(t, "PUT", "/api/receipts/"+created.ID, map[string]any{
		"supermarket": "Asda", "purchase_date": "2026-10-03", "total_amount": 2.5,
		"items": []map[string]any{{"name": "Cheddar", "total_price": 2.5}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	updated := decodeBody[model.Receipt](t, rec)
	if updated.TotalAmount != 2.5 || len(updated.Items) != 1 || updated.Items[0].Category != "dairy_eggs" {
		t.Errorf("updated = %+v, want total 2.5 with one dairy item", updated)
	}

	rec = env.do(t, "GET", "/api/receipts", nil)
	list := decodeBody[[]model.Receipt](t, rec)
	if len(list) != 1 {
		t.Errorf("list = %d receipts, want 1", len(list))
	}

	rec = env.do(t, "DELETE", "/api/receipts/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	rec = env.do(t, "GET", "/api/receipts/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = env.do(t, "DELETE", "/api/receipts/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListReceiptsBadLimit(t *testing.T) {
	env := setupTestEnv(t)
	rec := env.do(t, "GET", "/api/receipts?limit=0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDeliverItems(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, "POST", "/api/receipts", map[string]any{
		"supermarket": "Aldi", "purchase_date": "2026-10-02", "total_amount": 5,
		"receipt_image_urls": []string{"https://img.example/b.jpg"},
	})
	created := decodeBody[model.Receipt](t, rec)

	rec = env.do(t, "PUT", "/api/pipeline/receipts/"+created.ID+"/items", map[string]any{
		"items": []map[string]any{
			{"name": "Bananas", "quantity": 6, "total_price": 0.90},
			{"name": "Shampoo", "total_price": 4.10},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	got := decodeBody[model.Receipt](t, rec)
	if got.ValidationStatus != model.StatusCompleted {
		t.Errorf("status = %q, want %q", got.ValidationStatus, model.StatusCompleted)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
	// "shampoo" contains "ham", and meat is scanned before personal care.
	if got.Items[1].Category != "meat_fish" {
		t.Errorf("items[1].Category = %q, want meat_fish", got.Items[1].Category)
	}

	rec = env.do(t, "PUT", "/api/pipeline/receipts/missing/items", map[string]any{"items": []any{}})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing receipt status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = env.do(t, "PUT", "/api/pipeline/receipts/"+created.ID+"/items", map[string]any{
		"items": []map[string]any{{"name": "  "}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unnamed item status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
