package grocery

import (
	"slices"

	"github.com/dukerupert/trolley/internal/model"
)

// SortByAisleOrder returns a copy of items stably sorted along the shopping
// route. An explicit positive AisleOrder on an item overrides its category rank;
// items with neither sort last.
func SortByAisleOrder(items []model.ShoppingItem) []model.ShoppingItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b model.ShoppingItem) int {
		return itemAisleOrder(a) - itemAisleOrder(b)
	})
	return sorted
}

func itemAisleOrder(item model.ShoppingItem) int {
	if item.AisleOrder != nil && *item.AisleOrder > 0 {
		return *item.AisleOrder
	}
	if order, ok := aisleOrders[Category(item.Category)]; ok {
		return order
	}
	return unrankedAisleOrder
}
