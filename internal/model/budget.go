package model

import "time"

const (
	BudgetMonthly = "monthly"
	BudgetWeekly  = "weekly"
)

type Budget struct {
	ID             string             `json:"id"`
	Type           string             `json:"type"`
	Amount         float64            `json:"amount"`
	Currency       string             `json:"currency"`
	PeriodStart    Date               `json:"period_start"`
	PeriodEnd      Date               `json:"period_end"`
	CategoryLimits map[string]float64 `json:"category_limits"`
	IsActive       bool               `json:"is_active"`
	CreatedAt      time.Time          `json:"created_date"`
}
