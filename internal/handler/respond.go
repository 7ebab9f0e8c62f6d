package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/trolley/internal/grocery"
	"github.com/dukerupert/trolley/internal/model"
	"github.com/dukerupert/trolley/internal/websocket"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func broadcast(hub *websocket.Hub, msg websocket.Message) {
	if hub != nil {
		hub.Broadcast(msg)
	}
}

// lookupMap finds the ingredient map whose raw string matches name,
// ignoring case and surrounding space.
func lookupMap(name string, maps []model.IngredientMap) *model.IngredientMap {
	key := strings.TrimSpace(name)
	for i := range maps {
		if strings.EqualFold(strings.TrimSpace(maps[i].RawIngredientString), key) {
			return &maps[i]
		}
	}
	return nil
}

// categorizeItems gives items without a valid category one and fills a
// missing canonical name from the ingredient map table. Valid categories
// already on an item are kept.
func categorizeItems(items []model.ReceiptItem, maps []model.IngredientMap) {
	for i := range items {
		item := &items[i]
		item.Name = strings.TrimSpace(item.Name)
		if item.CanonicalName == nil || *item.CanonicalName == "" {
			if m := lookupMap(item.Name, maps); m != nil && m.CanonicalName != "" {
				canonical := m.CanonicalName
				item.CanonicalName = &canonical
			}
		}
		if grocery.Category(item.Category).Valid() {
			continue
		}
		item.Category = string(grocery.Categorize(item.Name, item.Category, maps))
	}
}
