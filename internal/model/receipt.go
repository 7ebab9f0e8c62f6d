package model

import (
	"math"
	"time"
)

const (
	StatusProcessingBackground = "processing_background"
	StatusCompleted            = "completed"
)

// ReceiptItem is a single purchased line. Numeric fields are nil when the
// extraction did not produce them; consumers apply their own defaults.
type ReceiptItem struct {
	Name          string   `json:"name"`
	CanonicalName *string  `json:"canonical_name"`
	Category      string   `json:"category"`
	Quantity      *float64 `json:"quantity"`
	UnitPrice     *float64 `json:"unit_price"`
	TotalPrice    *float64 `json:"total_price"`
}

// MatchKey is the name used to match the same product across receipts.
func (i ReceiptItem) MatchKey() string {
	if i.CanonicalName != nil && *i.CanonicalName != "" {
		return *i.CanonicalName
	}
	return i.Name
}

// EffectiveQuantity is the quantity, or 1 when absent, non-finite or non-positive.
func (i ReceiptItem) EffectiveQuantity() float64 {
	if i.Quantity == nil || !finite(*i.Quantity) || *i.Quantity <= 0 {
		return 1
	}
	return *i.Quantity
}

// EffectiveTotal is the total price, or 0 when absent, non-finite or negative.
func (i ReceiptItem) EffectiveTotal() float64 {
	if i.TotalPrice == nil || !finite(*i.TotalPrice) || *i.TotalPrice < 0 {
		return 0
	}
	return *i.TotalPrice
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type Receipt struct {
	ID               string        `json:"id"`
	Supermarket      string        `json:"supermarket"`
	StoreLocation    string        `json:"store_location"`
	PurchaseDate     Date          `json:"purchase_date"`
	TotalAmount      float64       `json:"total_amount"`
	Currency         string        `json:"currency"`
	Notes            string        `json:"notes"`
	ImageURLs        []string      `json:"receipt_image_urls"`
	ValidationStatus string        `json:"validation_status"`
	Items            []ReceiptItem `json:"items"`
	CreatedAt        time.Time     `json:"created_date"`
	UpdatedAt        time.Time     `json:"updated_date"`
}
