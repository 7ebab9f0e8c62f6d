package handler

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/trolley/internal/model"
	"github.com/dukerupert/trolley/internal/store"
	"github.com/dukerupert/trolley/internal/websocket"
)

const (
	defaultReceiptLimit = 50
	maxReceiptLimit     = 500
)

// ReceiptPublisher hands receipts awaiting extraction to the background pipeline.
type ReceiptPublisher interface {
	PublishReceipt(ctx context.Context, receiptID string, imageURLs []string) error
}

type ReceiptHandler struct {
	receiptStore *store.ReceiptStore
	mapStore     *store.IngredientMapStore
	publisher    ReceiptPublisher
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewReceiptHandler(rs *store.ReceiptStore, ms *store.IngredientMapStore, publisher ReceiptPublisher, hub *websocket.Hub, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{receiptStore: rs, mapStore: ms, publisher: publisher, hub: hub, logger: logger}
}

type receiptRequest struct {
	Supermarket   string              `json:"supermarket"`
	StoreLocation string              `json:"store_location"`
	PurchaseDate  string              `json:"purchase_date"`
	TotalAmount   *float64            `json:"total_amount"`
	Currency      string              `json:"currency"`
	Notes         string              `json:"notes"`
	ImageURLs     []string            `json:"receipt_image_urls"`
	Items         []model.ReceiptItem `json:"items"`
}

// toReceipt validates the request. The returned message is empty when valid.
func (req receiptRequest) toReceipt() (model.Receipt, string) {
	var r model.Receipt
	r.Supermarket = strings.TrimSpace(req.Supermarket)
	if r.Supermarket == "" {
		return r, "supermarket is required"
	}
	if strings.TrimSpace(req.PurchaseDate) == "" {
		return r, "purchase_date is required"
	}
	date, err := model.ParseDate(req.PurchaseDate)
	if err != nil {
		return r, "purchase_date must be YYYY-MM-DD"
	}
	if req.TotalAmount == nil {
		return r, "total_amount is required"
	}
	if math.IsNaN(*req.TotalAmount) || math.IsInf(*req.TotalAmount, 0) || *req.TotalAmount < 0 {
		return r, "total_amount must be a non-negative number"
	}

	r.StoreLocation = strings.TrimSpace(req.StoreLocation)
	r.PurchaseDate = date
	r.TotalAmount = *req.TotalAmount
	r.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if r.Currency == "" {
		r.Currency = "GBP"
	}
	r.Notes = req.Notes
	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			r.ImageURLs = append(r.ImageURLs, u)
		}
	}
	r.Items = req.Items
	return r, ""
}

func (h *ReceiptHandler) ingredientMaps() []model.IngredientMap {
	maps, err := h.mapStore.List()
	if err != nil {
		// Categorization still works from the keyword table.
		h.logger.Warn("failed to load ingredient maps", "error", err)
		return nil
	}
	return maps
}

func (h *ReceiptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	receipt, msg := req.toReceipt()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	categorizeItems(receipt.Items, h.ingredientMaps())

	awaitingExtraction := len(receipt.ImageURLs) > 0 && len(receipt.Items) == 0
	receipt.ValidationStatus = model.StatusCompleted
	if awaitingExtraction {
		receipt.ValidationStatus = model.StatusProcessingBackground
	}

	created, err := h.receiptStore.Create(receipt)
	if err != nil {
		h.logger.Error("failed to create receipt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create receipt")
		return
	}

	if awaitingExtraction && h.publisher != nil {
		if err := h.publisher.PublishReceipt(r.Context(), created.ID, created.ImageURLs); err != nil {
			// The receipt stays in processing_background and can be resubmitted.
			h.logger.Error("failed to publish receipt", "receipt_id", created.ID, "error", err)
		}
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityReceipt, "created", created.ID, map[string]any{
		"status": created.ValidationStatus,
	}))

	writeJSON(w, http.StatusCreated, created)
}

func (h *ReceiptHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultReceiptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxReceiptLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	receipts, err := h.receiptStore.List(limit)
	if err != nil {
		h.logger.Error("failed to list receipts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list receipts")
		return
	}
	if receipts == nil {
		receipts = []model.Receipt{}
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (h *ReceiptHandler) Get(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.receiptStore.GetByID(r.PathValue("id"))
	if err != nil {
		h.logger.Error("failed to get receipt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get receipt")
		return
	}
	if receipt == nil {
		writeError(w, http.StatusNotFound, "receipt not found")
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *ReceiptHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.receiptStore.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get receipt")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "receipt not found")
		return
	}

	var req receiptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	receipt, msg := req.toReceipt()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	categorizeItems(receipt.Items, h.ingredientMaps())

	receipt.ID = existing.ID
	receipt.ValidationStatus = existing.ValidationStatus
	if len(receipt.Items) > 0 {
		receipt.ValidationStatus = model.StatusCompleted
	}

	updated, err := h.receiptStore.Update(receipt)
	if err != nil {
		h.logger.Error("failed to update receipt", "receipt_id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update receipt")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityReceipt, "updated", updated.ID, nil))

	writeJSON(w, http.StatusOK, updated)
}

func (h *ReceiptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.receiptStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get receipt")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "receipt not found")
		return
	}

	if err := h.receiptStore.Delete(id); err != nil {
		h.logger.Error("failed to delete receipt", "receipt_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete receipt")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityReceipt, "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

type pipelineItemsRequest struct {
	Items []model.ReceiptItem `json:"items"`
}

// DeliverItems receives items extracted by the background pipeline.
func (h *ReceiptHandler) DeliverItems(w http.ResponseWriter, r *http.Request) {
	var req pipelineItemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			writeError(w, http.StatusBadRequest, "every item needs a name")
			return
		}
	}
	if req.Items == nil {
		req.Items = []model.ReceiptItem{}
	}

	categorizeItems(req.Items, h.ingredientMaps())

	id := r.PathValue("id")
	receipt, err := h.receiptStore.SetItems(id, req.Items, model.StatusCompleted)
	if err != nil {
		h.logger.Error("failed to store extracted items", "receipt_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store items")
		return
	}
	if receipt == nil {
		writeError(w, http.StatusNotFound, "receipt not found")
		return
	}

	h.logger.Info("receipt processed", "receipt_id", id, "items", len(receipt.Items))
	broadcast(h.hub, websocket.NewMessage(websocket.EntityReceipt, "processed", id, map[string]any{
		"items": len(receipt.Items),
	}))

	writeJSON(w, http.StatusOK, receipt)
}
