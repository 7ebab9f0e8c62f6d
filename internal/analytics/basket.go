// Package analytics computes spending insights over receipts: personal basket
// inflation, category breakdowns, top items and budget usage. Everything here is
// a pure function of its inputs.
package analytics

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dukerupert/trolley/internal/grocery"
	"github.com/dukerupert/trolley/internal/model"
)

// MinBasketSize is the smallest core basket that yields a reportable rate.
const MinBasketSize = 3

var (
	// ErrInsufficientData means no reliable inflation figure exists for the inputs.
	ErrInsufficientData = errors.New("insufficient data")

	ErrBasketTooSmall     = fmt.Errorf("%w: fewer than %d items bought in both periods", ErrInsufficientData, MinBasketSize)
	ErrZeroComparisonCost = fmt.Errorf("%w: comparison basket cost is zero", ErrInsufficientData)
)

// ItemInflation is the price movement of one core-basket item.
// Inflation is nil when the comparison price is zero.
type ItemInflation struct {
	Name               string           `json:"name"`
	Category           grocery.Category `json:"category"`
	Quantity           float64          `json:"quantity"`
	ComparisonAvgPrice float64          `json:"comparison_avg_price"`
	CurrentAvgPrice    float64          `json:"current_avg_price"`
	Inflation          *float64         `json:"inflation"`
}

// BasketInflation is the inflation of the core basket between two periods.
type BasketInflation struct {
	BasketSize           int             `json:"basket_size"`
	CurrentBasketCost    float64         `json:"current_basket_cost"`
	ComparisonBasketCost float64         `json:"comparison_basket_cost"`
	Value                float64         `json:"value"`
	ItemBreakdown        []ItemInflation `json:"item_breakdown"`
}

type itemStats struct {
	totalQuantity float64
	totalSpend    float64
	category      string
}

func (s *itemStats) avgPrice() float64 {
	return s.totalSpend / s.totalQuantity
}

// collectStats accumulates quantity and spend per match key. Keys are exact,
// case-sensitive strings.
func collectStats(receipts []model.Receipt) map[string]*itemStats {
	stats := make(map[string]*itemStats)
	for _, r := range receipts {
		for _, item := range r.Items {
			key := item.MatchKey()
			s, ok := stats[key]
			if !ok {
				s = &itemStats{}
				stats[key] = s
			}
			s.totalQuantity += item.EffectiveQuantity()
			s.totalSpend += item.EffectiveTotal()
			if s.category == "" && grocery.Category(item.Category).Valid() {
				s.category = item.Category
			}
		}
	}
	return stats
}

// ComputeBasketInflation compares what the user's core basket (items bought
// in both periods) cost in the current period against the comparison period.
//
// Each item is priced at its quantity-weighted average in each period and
// weighted by the quantity bought in the comparison period, so the aggregate
// moves with prices only. Items with a zero comparison price are listed with a
// nil Inflation and left out of both costs. The breakdown is ordered by name.
//
// Returns an error wrapping ErrInsufficientData when the basket has fewer than
// MinBasketSize items or the comparison cost is zero.
func ComputeBasketInflation(current, comparison []model.Receipt) (*BasketInflation, error) {
	currentStats := collectStats(current)
	comparisonStats := collectStats(comparison)

	var keys []string
	for key, cur := range currentStats {
		cmp, ok := comparisonStats[key]
		if !ok || cur.totalQuantity <= 0 || cmp.totalQuantity <= 0 {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) < MinBasketSize {
		return nil, ErrBasketTooSmall
	}
	slices.Sort(keys)

	result := &BasketInflation{
		BasketSize:    len(keys),
		ItemBreakdown: make([]ItemInflation, 0, len(keys)),
	}

	for _, key := range keys {
		cur := currentStats[key]
		cmp := comparisonStats[key]

		item := ItemInflation{
			Name:               key,
			Category:           resolveCategory(key, cur.category, cmp.category),
			Quantity:           cmp.totalQuantity,
			ComparisonAvgPrice: cmp.avgPrice(),
			CurrentAvgPrice:    cur.avgPrice(),
		}
		if item.ComparisonAvgPrice > 0 {
			inflation := (item.CurrentAvgPrice - item.ComparisonAvgPrice) / item.ComparisonAvgPrice
			item.Inflation = &inflation
			result.ComparisonBasketCost += item.ComparisonAvgPrice * item.Quantity
			result.CurrentBasketCost += item.CurrentAvgPrice * item.Quantity
		}
		result.ItemBreakdown = append(result.ItemBreakdown, item)
	}

	if result.ComparisonBasketCost == 0 {
		return nil, ErrZeroComparisonCost
	}
	result.Value = (result.CurrentBasketCost - result.ComparisonBasketCost) / result.ComparisonBasketCost
	return result, nil
}

// resolveCategory prefers a category recorded on the receipts and only falls
// back to the categorizer when neither period has a valid one.
func resolveCategory(name, current, comparison string) grocery.Category {
	if current != "" {
		return grocery.Category(current)
	}
	if comparison != "" {
		return grocery.Category(comparison)
	}
	return grocery.Categorize(name, "", nil)
}
