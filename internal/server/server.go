package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/trolley/internal/handler"
	"github.com/dukerupert/trolley/internal/middleware"
	"github.com/dukerupert/trolley/internal/queue"
	"github.com/dukerupert/trolley/internal/store"
	ws "github.com/dukerupert/trolley/internal/websocket"
)

// Options carries the settings the router needs beyond the database.
type Options struct {
	RateLimit         int
	PipelineTokenHash string
	WSOrigins         []string
	Publisher         *queue.Publisher
}

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	receiptH       *handler.ReceiptHandler
	analyticsH     *handler.AnalyticsHandler
	shoppingH      *handler.ShoppingHandler
	ingredientMapH *handler.IngredientMapHandler
	budgetH        *handler.BudgetHandler
	rateLimiter    *middleware.RateLimiter
	pipelineHash   []byte
	wsOrigins      []string
	logger         *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	receiptStore := store.NewReceiptStore(db)
	mapStore := store.NewIngredientMapStore(db)
	shoppingStore := store.NewShoppingStore(db)
	budgetStore := store.NewBudgetStore(db)

	var publisher handler.ReceiptPublisher
	if opts.Publisher != nil {
		publisher = opts.Publisher
	}

	var pipelineHash []byte
	if opts.PipelineTokenHash != "" {
		pipelineHash = []byte(opts.PipelineTokenHash)
	}

	return &Server{
		db:             db,
		hub:            hub,
		receiptH:       handler.NewReceiptHandler(receiptStore, mapStore, publisher, hub, logger.With("component", "receipt")),
		analyticsH:     handler.NewAnalyticsHandler(receiptStore, logger.With("component", "analytics")),
		shoppingH:      handler.NewShoppingHandler(shoppingStore, mapStore, hub, logger.With("component", "shopping")),
		ingredientMapH: handler.NewIngredientMapHandler(mapStore, hub, logger.With("component", "ingredient_map")),
		budgetH:        handler.NewBudgetHandler(budgetStore, receiptStore, hub, logger.With("component", "budget")),
		rateLimiter:    middleware.NewRateLimiter(opts.RateLimit, time.Minute),
		pipelineHash:   pipelineHash,
		wsOrigins:      opts.WSOrigins,
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub so it can be closed on shutdown.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.wsOrigins, s.logger.With("component", "websocket")))

	// Receipts
	mux.HandleFunc("POST /api/receipts", s.limited(s.receiptH.Create))
	mux.HandleFunc("GET /api/receipts", s.receiptH.List)
	mux.HandleFunc("GET /api/receipts/{id}", s.receiptH.Get)
	mux.HandleFunc("PUT /api/receipts/{id}", s.limited(s.receiptH.Update))
	mux.HandleFunc("DELETE /api/receipts/{id}", s.limited(s.receiptH.Delete))

	// Extraction pipeline callback
	if s.pipelineHash != nil {
		auth := middleware.RequirePipelineToken(s.pipelineHash)
		mux.Handle("PUT /api/pipeline/receipts/{id}/items", auth(http.HandlerFunc(s.receiptH.DeliverItems)))
	}

	// Ingredient maps
	mux.HandleFunc("POST /api/ingredient-maps", s.limited(s.ingredientMapH.Create))
	mux.HandleFunc("GET /api/ingredient-maps", s.ingredientMapH.List)
	mux.HandleFunc("DELETE /api/ingredient-maps/{id}", s.limited(s.ingredientMapH.Delete))

	// Analytics
	mux.HandleFunc("GET /api/analytics/basket-inflation", s.analyticsH.BasketInflation)
	mux.HandleFunc("GET /api/analytics/categories", s.analyticsH.Categories)
	mux.HandleFunc("GET /api/analytics/top-items", s.analyticsH.TopItems)
	mux.HandleFunc("GET /api/categories", handler.CategoryOptions)

	// Budgets
	mux.HandleFunc("POST /api/budgets", s.limited(s.budgetH.Create))
	mux.HandleFunc("GET /api/budgets", s.budgetH.List)
	mux.HandleFunc("GET /api/budgets/active", s.budgetH.Active)
	mux.HandleFunc("POST /api/budgets/rollover", s.limited(s.budgetH.Rollover))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.limited(s.budgetH.Delete))

	// Shopping list
	mux.HandleFunc("POST /api/shopping/items", s.limited(s.shoppingH.Create))
	mux.HandleFunc("GET /api/shopping/items", s.shoppingH.List)
	mux.HandleFunc("PUT /api/shopping/items/{id}", s.limited(s.shoppingH.Update))
	mux.HandleFunc("DELETE /api/shopping/items/{id}", s.limited(s.shoppingH.Delete))
	mux.HandleFunc("POST /api/shopping/items/{id}/check", s.limited(s.shoppingH.ToggleChecked))
	mux.HandleFunc("POST /api/shopping/clear-checked", s.limited(s.shoppingH.ClearChecked))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check: database unreachable", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "clients": s.hub.ClientCount()})
}

// limited wraps a write handler with the per-IP rate limit.
func (s *Server) limited(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter)(h).ServeHTTP
}
