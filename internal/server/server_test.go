package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/trolley/internal/database"
	"golang.org/x/crypto/bcrypt"
)

func setupTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if opts.RateLimit == 0 {
		opts.RateLimit = 100
	}
	return New(db, opts, slog.New(slog.NewTextHandler(io.Discard, nil))).Router()
}

func TestHealth(t *testing.T) {
	router := setupTestServer(t, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want status ok", rec.Body.String())
	}
}

func TestPipelineRouteRequiresToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pipeline-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	router := setupTestServer(t, Options{PipelineTokenHash: string(hash)})

	body := `{"items":[]}`
	req := httptest.NewRequest("PUT", "/api/pipeline/receipts/nope/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest("PUT", "/api/pipeline/receipts/nope/items", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer pipeline-secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("valid token on unknown receipt = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPipelineRouteDisabledWithoutHash(t *testing.T) {
	router := setupTestServer(t, Options{})

	req := httptest.NewRequest("PUT", "/api/pipeline/receipts/x/items", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestWriteRoutesRateLimited(t *testing.T) {
	router := setupTestServer(t, Options{RateLimit: 2})

	post := func() int {
		req := httptest.NewRequest("POST", "/api/shopping/items", strings.NewReader(`{"name":"Milk"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	for i := 0; i < 2; i++ {
		if code := post(); code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, want %d", i+1, code, http.StatusCreated)
		}
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", code, http.StatusTooManyRequests)
	}

	// Reads are not limited.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/shopping/items", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("read status = %d, want %d", rec.Code, http.StatusOK)
	}
}
