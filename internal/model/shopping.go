package model

import "time"

type ShoppingItem struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Quantity   string     `json:"quantity"`
	Unit       string     `json:"unit"`
	Notes      string     `json:"notes"`
	Category   string     `json:"category"`
	AisleOrder *int       `json:"aisle_order"`
	Checked    bool       `json:"checked"`
	CheckedAt  *time.Time `json:"checked_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
