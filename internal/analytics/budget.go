package analytics

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dukerupert/trolley/internal/model"
)

type CategoryBudget struct {
	Category  string  `json:"category"`
	Limit     float64 `json:"limit"`
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
}

type BudgetStatus struct {
	Budget         model.Budget     `json:"budget"`
	TotalSpent     float64          `json:"total_spent"`
	Remaining      float64          `json:"remaining"`
	PercentageUsed int              `json:"percentage_used"`
	Categories     []CategoryBudget `json:"categories"`
}

// ComputeBudgetStatus measures receipts purchased inside the budget period
// against the budget and its per-category limits. Total spend uses receipt
// totals; category spend uses item totals.
func ComputeBudgetStatus(b model.Budget, receipts []model.Receipt) BudgetStatus {
	period := Period{Start: b.PeriodStart, End: b.PeriodEnd}
	status := BudgetStatus{Budget: b}

	byCategory := make(map[string]float64)
	for _, r := range FilterReceipts(receipts, period) {
		if r.TotalAmount > 0 {
			status.TotalSpent += r.TotalAmount
		}
		for _, item := range r.Items {
			byCategory[string(itemCategory(item))] += item.EffectiveTotal()
		}
	}

	status.Remaining = b.Amount - status.TotalSpent
	if b.Amount > 0 {
		status.PercentageUsed = int(math.Round(status.TotalSpent / b.Amount * 100))
	}

	for category, limit := range b.CategoryLimits {
		spent := byCategory[category]
		status.Categories = append(status.Categories, CategoryBudget{
			Category:  category,
			Limit:     limit,
			Spent:     spent,
			Remaining: limit - spent,
		})
	}
	slices.SortFunc(status.Categories, func(a, b CategoryBudget) int {
		return strings.Compare(a.Category, b.Category)
	})
	return status
}

// BudgetPeriod returns the budget window of the given type starting on start:
// seven days for weekly budgets, one calendar month for monthly ones. A monthly
// window whose start day does not exist in the following month ends on that
// month's last day, so a cycle starting on the 31st returns to the 1st.
func BudgetPeriod(budgetType string, start model.Date) (Period, error) {
	switch budgetType {
	case model.BudgetWeekly:
		return Period{Start: start, End: start.AddDays(6)}, nil
	case model.BudgetMonthly:
		return Period{Start: start, End: monthEnd(start)}, nil
	default:
		return Period{}, fmt.Errorf("unknown budget type %q", budgetType)
	}
}

func monthEnd(start model.Date) model.Date {
	year, month, day := start.Date()
	daysInNext := time.Date(year, month+2, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > daysInNext {
		return model.NewDate(year, month+1, daysInNext)
	}
	return model.NewDate(year, month+1, day).AddDays(-1)
}

// NextBudgetPeriod returns the period following b.
func NextBudgetPeriod(b model.Budget) (Period, error) {
	return BudgetPeriod(b.Type, b.PeriodEnd.AddDays(1))
}
