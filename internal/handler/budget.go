package handler

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/dukerupert/trolley/internal/analytics"
	"github.com/dukerupert/trolley/internal/grocery"
	"github.com/dukerupert/trolley/internal/model"
	"github.com/dukerupert/trolley/internal/store"
	"github.com/dukerupert/trolley/internal/websocket"
)

type BudgetHandler struct {
	budgetStore  *store.BudgetStore
	receiptStore *store.ReceiptStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewBudgetHandler(bs *store.BudgetStore, rs *store.ReceiptStore, hub *websocket.Hub, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{budgetStore: bs, receiptStore: rs, hub: hub, logger: logger}
}

type budgetRequest struct {
	Type           string             `json:"type"`
	Amount         float64            `json:"amount"`
	Currency       string             `json:"currency"`
	PeriodStart    model.Date         `json:"period_start"`
	PeriodEnd      model.Date         `json:"period_end"`
	CategoryLimits map[string]float64 `json:"category_limits"`
}

func (req budgetRequest) validate() string {
	if req.Type != model.BudgetMonthly && req.Type != model.BudgetWeekly {
		return "type must be monthly or weekly"
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return "amount must be positive"
	}
	if req.PeriodStart.IsZero() {
		return "period_start is required"
	}
	if !req.PeriodEnd.IsZero() && req.PeriodEnd.Before(req.PeriodStart.Time) {
		return "period_end must not be before period_start"
	}
	for category, limit := range req.CategoryLimits {
		if !grocery.Category(category).Valid() {
			return "unknown category in category_limits: " + category
		}
		if limit < 0 {
			return "category limits must not be negative"
		}
	}
	return ""
}

// Create stores a new active budget, deactivating any previously active one.
func (h *BudgetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if req.PeriodEnd.IsZero() {
		period, err := analytics.BudgetPeriod(req.Type, req.PeriodStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.PeriodEnd = period.End
	}

	next := model.Budget{
		Type:           req.Type,
		Amount:         req.Amount,
		Currency:       req.Currency,
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		CategoryLimits: req.CategoryLimits,
		IsActive:       true,
	}

	active, err := h.budgetStore.GetActive()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get active budget")
		return
	}

	var created *model.Budget
	if active != nil {
		created, err = h.budgetStore.Rollover(active.ID, next)
	} else {
		created, err = h.budgetStore.Create(next)
	}
	if err != nil {
		h.logger.Error("failed to create budget", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create budget")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityBudget, "created", created.ID, nil))

	writeJSON(w, http.StatusCreated, created)
}

func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.budgetStore.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list budgets")
		return
	}
	if budgets == nil {
		budgets = []model.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

// Active returns the active budget with its spend status.
func (h *BudgetHandler) Active(w http.ResponseWriter, r *http.Request) {
	active, err := h.budgetStore.GetActive()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get active budget")
		return
	}
	if active == nil {
		writeError(w, http.StatusNotFound, "no active budget")
		return
	}

	receipts, err := h.receiptStore.ListBetween(active.PeriodStart, active.PeriodEnd)
	if err != nil {
		h.logger.Error("failed to load receipts", "budget_id", active.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}

	status := analytics.ComputeBudgetStatus(*active, receipts)
	if status.Categories == nil {
		status.Categories = []analytics.CategoryBudget{}
	}
	writeJSON(w, http.StatusOK, status)
}

// Rollover closes the active budget and opens the next period with the same
// amount and limits.
func (h *BudgetHandler) Rollover(w http.ResponseWriter, r *http.Request) {
	active, err := h.budgetStore.GetActive()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get active budget")
		return
	}
	if active == nil {
		writeError(w, http.StatusNotFound, "no active budget")
		return
	}

	period, err := analytics.NextBudgetPeriod(*active)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	next, err := h.budgetStore.Rollover(active.ID, model.Budget{
		Type:           active.Type,
		Amount:         active.Amount,
		Currency:       active.Currency,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		CategoryLimits: active.CategoryLimits,
	})
	if err != nil {
		h.logger.Error("failed to roll over budget", "budget_id", active.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to roll over budget")
		return
	}

	h.logger.Info("budget rolled over", "from", active.ID, "to", next.ID, "period", period.String())
	broadcast(h.hub, websocket.NewMessage(websocket.EntityBudget, "rolled_over", next.ID, map[string]any{"previous_id": active.ID}))

	writeJSON(w, http.StatusCreated, next)
}

func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.budgetStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get budget")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "budget not found")
		return
	}

	if err := h.budgetStore.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete budget")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityBudget, "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}
