package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/trolley/internal/grocery"
	"github.com/dukerupert/trolley/internal/model"
	"github.com/dukerupert/trolley/internal/store"
	"github.com/dukerupert/trolley/internal/websocket"
)

type IngredientMapHandler struct {
	mapStore *store.IngredientMapStore
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewIngredientMapHandler(ms *store.IngredientMapStore, hub *websocket.Hub, logger *slog.Logger) *IngredientMapHandler {
	return &IngredientMapHandler{mapStore: ms, hub: hub, logger: logger}
}

type ingredientMapRequest struct {
	RawIngredientString string `json:"raw_ingredient_string"`
	CanonicalName       string `json:"canonical_name"`
	Category            string `json:"category"`
}

func (h *IngredientMapHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ingredientMapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.RawIngredientString = strings.TrimSpace(req.RawIngredientString)
	if req.RawIngredientString == "" {
		writeError(w, http.StatusBadRequest, "raw_ingredient_string is required")
		return
	}
	if req.Category != "" && !grocery.Category(req.Category).Valid() {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	dup, err := h.mapStore.FindByRaw(req.RawIngredientString)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check mapping")
		return
	}
	if dup != nil {
		writeError(w, http.StatusConflict, "mapping already exists")
		return
	}

	m, err := h.mapStore.Create(req.RawIngredientString, strings.TrimSpace(req.CanonicalName), req.Category)
	if err != nil {
		h.logger.Error("failed to create ingredient map", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create mapping")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityIngredientMap, "created", m.ID, nil))

	writeJSON(w, http.StatusCreated, m)
}

func (h *IngredientMapHandler) List(w http.ResponseWriter, r *http.Request) {
	maps, err := h.mapStore.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list mappings")
		return
	}
	if maps == nil {
		maps = []model.IngredientMap{}
	}
	writeJSON(w, http.StatusOK, maps)
}

func (h *IngredientMapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.mapStore.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get mapping")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "mapping not found")
		return
	}

	if err := h.mapStore.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete mapping")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityIngredientMap, "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}
