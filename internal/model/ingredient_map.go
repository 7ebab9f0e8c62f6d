package model

import "time"

// IngredientMap maps a raw ingredient string, as it appears on receipts and
// recipes, to a canonical name and category.
type IngredientMap struct {
	ID                  string    `json:"id"`
	RawIngredientString string    `json:"raw_ingredient_string"`
	CanonicalName       string    `json:"canonical_name"`
	Category            string    `json:"category"`
	CreatedAt           time.Time `json:"created_date"`
}
