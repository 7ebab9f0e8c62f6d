package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/trolley/internal/analytics"
	"github.com/dukerupert/trolley/internal/grocery"
	"github.com/dukerupert/trolley/internal/model"
	"github.com/dukerupert/trolley/internal/store"
)

const (
	defaultWindowDays = 30
	defaultTopItems   = 10
	maxTopItems       = 100
)

type AnalyticsHandler struct {
	receiptStore *store.ReceiptStore
	logger       *slog.Logger
	today        func() model.Date
}

func NewAnalyticsHandler(rs *store.ReceiptStore, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{receiptStore: rs, logger: logger, today: model.Today}
}

// periodParam reads a start/end pair from the query string. Both absent
// yields fallback; one without the other is an error.
func periodParam(r *http.Request, startKey, endKey string, fallback analytics.Period) (analytics.Period, error) {
	q := r.URL.Query()
	rawStart, rawEnd := q.Get(startKey), q.Get(endKey)
	if rawStart == "" && rawEnd == "" {
		return fallback, nil
	}
	if rawStart == "" || rawEnd == "" {
		return analytics.Period{}, errors.New(startKey + " and " + endKey + " must be given together")
	}
	start, err := model.ParseDate(rawStart)
	if err != nil {
		return analytics.Period{}, errors.New(startKey + " must be YYYY-MM-DD")
	}
	end, err := model.ParseDate(rawEnd)
	if err != nil {
		return analytics.Period{}, errors.New(endKey + " must be YYYY-MM-DD")
	}
	p := analytics.Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return analytics.Period{}, err
	}
	return p, nil
}

type basketInflationResponse struct {
	Status     string           `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	Current    analytics.Period `json:"current_period"`
	Comparison analytics.Period `json:"comparison_period"`
	*analytics.BasketInflation
}

func (h *AnalyticsHandler) BasketInflation(w http.ResponseWriter, r *http.Request) {
	current, err := periodParam(r, "current_start", "current_end", analytics.LastDays(h.today(), defaultWindowDays))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	comparison, err := periodParam(r, "comparison_start", "comparison_end", current.Previous())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if current.Overlaps(comparison) {
		writeError(w, http.StatusBadRequest, "current and comparison periods overlap")
		return
	}

	currentReceipts, err := h.receiptStore.ListBetween(current.Start, current.End)
	if err != nil {
		h.logger.Error("failed to load current receipts", "period", current.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}
	comparisonReceipts, err := h.receiptStore.ListBetween(comparison.Start, comparison.End)
	if err != nil {
		h.logger.Error("failed to load comparison receipts", "period", comparison.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}

	resp := basketInflationResponse{Current: current, Comparison: comparison}
	result, err := analytics.ComputeBasketInflation(currentReceipts, comparisonReceipts)
	switch {
	case errors.Is(err, analytics.ErrInsufficientData):
		resp.Status = "insufficient_data"
		resp.Reason = err.Error()
	case err != nil:
		h.logger.Error("basket inflation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute basket inflation")
		return
	default:
		resp.Status = "ok"
		resp.BasketInflation = result
	}
	writeJSON(w, http.StatusOK, resp)
}

type categorySpendResponse struct {
	Period analytics.Period `json:"period"`
	analytics.CategoryBreakdown
}

func (h *AnalyticsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r, "start", "end", analytics.LastDays(h.today(), defaultWindowDays))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	receipts, err := h.receiptStore.ListBetween(period.Start, period.End)
	if err != nil {
		h.logger.Error("failed to load receipts", "period", period.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}

	breakdown := analytics.SpendByCategory(receipts)
	if breakdown.Categories == nil {
		breakdown.Categories = []analytics.CategorySpend{}
	}
	writeJSON(w, http.StatusOK, categorySpendResponse{Period: period, CategoryBreakdown: breakdown})
}

type topItemsResponse struct {
	Period analytics.Period        `json:"period"`
	Sort   string                  `json:"sort"`
	Items  []analytics.ItemSummary `json:"items"`
}

func (h *AnalyticsHandler) TopItems(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r, "start", "end", analytics.LastDays(h.today(), defaultWindowDays))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = analytics.SortTotalSpend
	}
	if !analytics.ValidItemSort(sortBy) {
		writeError(w, http.StatusBadRequest, "sort must be total_spend, quantity, avg_price, or frequency")
		return
	}

	limit := defaultTopItems
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxTopItems {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	receipts, err := h.receiptStore.ListBetween(period.Start, period.End)
	if err != nil {
		h.logger.Error("failed to load receipts", "period", period.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}

	items := analytics.TopItems(receipts, sortBy, limit)
	if items == nil {
		items = []analytics.ItemSummary{}
	}
	writeJSON(w, http.StatusOK, topItemsResponse{Period: period, Sort: sortBy, Items: items})
}

// CategoryOptions lists the grocery categories in dropdown order.
func CategoryOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, grocery.CategoryOptions())
}
