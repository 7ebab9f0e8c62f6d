package analytics

import (
	"cmp"
	"slices"

	"github.com/dukerupert/trolley/internal/grocery"
	"github.com/dukerupert/trolley/internal/model"
)

// CategorySpend is the total spent in one category.
type CategorySpend struct {
	Category grocery.Category `json:"category"`
	Label    string           `json:"label"`
	Amount   float64          `json:"amount"`
	Share    float64          `json:"share"`
}

type CategoryBreakdown struct {
	Total      float64         `json:"total"`
	Categories []CategorySpend `json:"categories"`
}

// itemCategory maps a stored item category to the closed set; anything
// missing or unknown counts as Other.
func itemCategory(item model.ReceiptItem) grocery.Category {
	if c := grocery.Category(item.Category); c.Valid() {
		return c
	}
	return grocery.Other
}

// SpendByCategory sums item totals per category, largest first. Ties keep
// aisle order.
func SpendByCategory(receipts []model.Receipt) CategoryBreakdown {
	totals := make(map[grocery.Category]float64)
	for _, r := range receipts {
		for _, item := range r.Items {
			totals[itemCategory(item)] += item.EffectiveTotal()
		}
	}

	var out CategoryBreakdown
	for _, opt := range grocery.CategoryOptions() {
		amount, ok := totals[opt.Value]
		if !ok {
			continue
		}
		out.Total += amount
		out.Categories = append(out.Categories, CategorySpend{Category: opt.Value, Label: opt.Label, Amount: amount})
	}
	slices.SortStableFunc(out.Categories, func(a, b CategorySpend) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return a.Category.AisleOrder() - b.Category.AisleOrder()
	})
	if out.Total > 0 {
		for i := range out.Categories {
			out.Categories[i].Share = out.Categories[i].Amount / out.Total
		}
	}
	return out
}

const (
	SortTotalSpend = "total_spend"
	SortQuantity   = "quantity"
	SortAvgPrice   = "avg_price"
	SortFrequency  = "frequency"
)

const unnamedItem = "Unnamed Item"

// ItemSummary aggregates every purchase of one item name.
type ItemSummary struct {
	Name       string  `json:"name"`
	TotalSpend float64 `json:"total_spend"`
	Quantity   float64 `json:"quantity"`
	Purchases  int     `json:"purchases"`
	AvgPrice   float64 `json:"avg_price"`
}

// ValidItemSort reports whether sortBy is a supported TopItems ordering.
func ValidItemSort(sortBy string) bool {
	switch sortBy {
	case SortTotalSpend, SortQuantity, SortAvgPrice, SortFrequency:
		return true
	}
	return false
}

// TopItems aggregates purchases by item name and returns the first limit
// items under the given ordering (total spend when sortBy is unknown).
// Equal values are ordered by name.
func TopItems(receipts []model.Receipt, sortBy string, limit int) []ItemSummary {
	byName := make(map[string]*ItemSummary)
	for _, r := range receipts {
		for _, item := range r.Items {
			name := item.Name
			if name == "" {
				name = unnamedItem
			}
			s, ok := byName[name]
			if !ok {
				s = &ItemSummary{Name: name}
				byName[name] = s
			}
			s.TotalSpend += item.EffectiveTotal()
			s.Quantity += item.EffectiveQuantity()
			s.Purchases++
		}
	}

	items := make([]ItemSummary, 0, len(byName))
	for _, s := range byName {
		s.AvgPrice = s.TotalSpend / s.Quantity
		items = append(items, *s)
	}

	metric := func(s ItemSummary) float64 { return s.TotalSpend }
	switch sortBy {
	case SortQuantity:
		metric = func(s ItemSummary) float64 { return s.Quantity }
	case SortAvgPrice:
		metric = func(s ItemSummary) float64 { return s.AvgPrice }
	case SortFrequency:
		metric = func(s ItemSummary) float64 { return float64(s.Purchases) }
	}
	slices.SortFunc(items, func(a, b ItemSummary) int {
		if c := cmp.Compare(metric(b), metric(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
