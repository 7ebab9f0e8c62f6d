package grocery

// Category is one of the fixed grocery classification tags.
type Category string

const (
	VegetablesFruits  Category = "vegetables_fruits"
	MeatFish          Category = "meat_fish"
	DairyEggs         Category = "dairy_eggs"
	Bakery            Category = "bakery"
	PantryStaples     Category = "pantry_staples"
	SnacksSweets      Category = "snacks_sweets"
	Beverages         Category = "beverages"
	FrozenFoods       Category = "frozen_foods"
	HouseholdCleaning Category = "household_cleaning"
	PersonalCare      Category = "personal_care"
	Other             Category = "other"
)

// DefaultAisleOrder is the rank of Other, and of anything the table does not know.
const DefaultAisleOrder = 120

// unrankedAisleOrder sorts items with no usable category after everything else.
const unrankedAisleOrder = 999

type categoryInfo struct {
	category   Category
	label      string
	aisleOrder int
}

// categories is listed in selection-dropdown order.
var categories = []categoryInfo{
	{VegetablesFruits, "Vegetables & Fruits", 10},
	{MeatFish, "Meat & Fish", 20},
	{DairyEggs, "Dairy & Eggs", 30},
	{Bakery, "Bakery", 40},
	{PantryStaples, "Pantry Staples", 50},
	{SnacksSweets, "Snacks & Sweets", 60},
	{Beverages, "Beverages", 90},
	{FrozenFoods, "Frozen Foods", 80},
	{HouseholdCleaning, "Household & Cleaning", 100},
	{PersonalCare, "Personal Care", 110},
	{Other, "Other", DefaultAisleOrder},
}

var aisleOrders = func() map[Category]int {
	m := make(map[Category]int, len(categories))
	for _, c := range categories {
		m[c.category] = c.aisleOrder
	}
	return m
}()

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := aisleOrders[c]
	return ok
}

// AisleOrder returns the aisle rank for c, or DefaultAisleOrder if c is unknown.
func (c Category) AisleOrder() int {
	if order, ok := aisleOrders[c]; ok {
		return order
	}
	return DefaultAisleOrder
}

// Label returns the display label, falling back to the raw value.
func (c Category) Label() string {
	for _, info := range categories {
		if info.category == c {
			return info.label
		}
	}
	return string(c)
}

// Option is a category entry for selection lists.
type Option struct {
	Value      Category `json:"value"`
	Label      string   `json:"label"`
	AisleOrder int      `json:"aisle_order"`
}

// CategoryOptions returns every category exactly once. The slice is a fresh copy.
func CategoryOptions() []Option {
	opts := make([]Option, 0, len(categories))
	for _, c := range categories {
		opts = append(opts, Option{Value: c.category, Label: c.label, AisleOrder: c.aisleOrder})
	}
	return opts
}
