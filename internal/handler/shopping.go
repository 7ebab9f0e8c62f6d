package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/trolley/internal/grocery"
	"github.com/dukerupert/trolley/internal/model"
	"github.com/dukerupert/trolley/internal/store"
	"github.com/dukerupert/trolley/internal/websocket"
)

type ShoppingHandler struct {
	shoppingStore *store.ShoppingStore
	mapStore      *store.IngredientMapStore
	hub           *websocket.Hub
	logger        *slog.Logger
}

func NewShoppingHandler(ss *store.ShoppingStore, ms *store.IngredientMapStore, hub *websocket.Hub, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{shoppingStore: ss, mapStore: ms, hub: hub, logger: logger}
}

type shoppingItemRequest struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	Unit       string `json:"unit"`
	Notes      string `json:"notes"`
	Category   string `json:"category"`
	AisleOrder *int   `json:"aisle_order"`
}

func (h *ShoppingHandler) notify(action string, id int64, extra map[string]any) {
	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingItem, action, strconv.FormatInt(id, 10), extra))
}

// category resolves the request's category, consulting the ingredient map
// table and keyword rules when it is missing or unknown.
func (h *ShoppingHandler) category(name, requested string) string {
	if grocery.Category(requested).Valid() {
		return requested
	}
	maps, err := h.mapStore.List()
	if err != nil {
		h.logger.Warn("failed to load ingredient maps", "error", err)
	}
	return string(grocery.Categorize(name, requested, maps))
}

func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req shoppingItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.AisleOrder != nil && *req.AisleOrder < 0 {
		writeError(w, http.StatusBadRequest, "aisle_order must not be negative")
		return
	}

	item, err := h.shoppingStore.Create(req.Name, req.Quantity, req.Unit, req.Notes, h.category(req.Name, req.Category), req.AisleOrder)
	if err != nil {
		h.logger.Error("failed to create shopping item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	h.notify("created", item.ID, nil)

	writeJSON(w, http.StatusCreated, item)
}

// List returns unchecked items along the aisle route, then checked items.
func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.shoppingStore.List()
	if err != nil {
		h.logger.Error("failed to list shopping items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	var unchecked, checked []model.ShoppingItem
	for _, item := range items {
		if item.Checked {
			checked = append(checked, item)
		} else {
			unchecked = append(unchecked, item)
		}
	}
	sorted := append(grocery.SortByAisleOrder(unchecked), grocery.SortByAisleOrder(checked)...)
	if sorted == nil {
		sorted = []model.ShoppingItem{}
	}
	writeJSON(w, http.StatusOK, sorted)
}

func (h *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.shoppingStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	var req shoppingItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Category == "" {
		req.Category = existing.Category
	}

	item, err := h.shoppingStore.Update(id, req.Name, req.Quantity, req.Unit, req.Notes, h.category(req.Name, req.Category), req.AisleOrder)
	if err != nil {
		h.logger.Error("failed to update shopping item", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	h.notify("updated", item.ID, nil)

	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.shoppingStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	if err := h.shoppingStore.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	h.notify("deleted", id, nil)

	w.WriteHeader(http.StatusNoContent)
}

func (h *ShoppingHandler) ToggleChecked(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	item, err := h.shoppingStore.ToggleChecked(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to toggle item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.notify("checked", item.ID, map[string]any{"checked": item.Checked})

	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	count, err := h.shoppingStore.ClearChecked()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear checked")
		return
	}

	remaining, err := h.shoppingStore.CountUnchecked()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count items")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityShoppingItem, "cleared", "", map[string]any{"cleared": count}))

	writeJSON(w, http.StatusOK, map[string]int64{"cleared": count, "remaining": int64(remaining)})
}
