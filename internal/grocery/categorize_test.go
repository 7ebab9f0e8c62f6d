package grocery

import (
	"testing"

	"github.com/dukerupert/trolley/internal/model"
)

func TestCategorizeKeywordTable(t *testing.T) {
	tests := []struct {
		input string
		want  Category
	}{
		{"Bananas", VegetablesFruits},
		{"Chicken Breast", MeatFish},
		{"Milk 1L", DairyEggs},
		{"Sourdough Loaf", Bakery},
		{"Basmati Rice 1kg", PantryStaples},
		{"Dark Chocolate", SnacksSweets},
		{"Coca Cola 2L", Beverages},
		{"Frozen Pizza", FrozenFoods},
		{"Bleach", HouseholdCleaning},
		{"Toothpaste", PersonalCare},
	}
	for _, tt := range tests {
		got := Categorize(tt.input, "", nil)
		if got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCategorizeSpicePrecedence(t *testing.T) {
	maps := []model.IngredientMap{
		{RawIngredientString: "ground cumin", Category: "other"},
	}
	tests := []struct {
		name     string
		existing string
	}{
		{"Ground Cumin", ""},
		{"Ground Cumin", "beverages"},
		{"Salted Butter", "dairy_eggs"},
		{"Fresh Basil", "vegetables_fruits"},
	}
	for _, tt := range tests {
		got := Categorize(tt.name, tt.existing, maps)
		if got != PantryStaples {
			t.Errorf("Categorize(%q, %q) = %q, want %q", tt.name, tt.existing, got, PantryStaples)
		}
	}
}

func TestCategorizeIngredientMap(t *testing.T) {
	maps := []model.IngredientMap{
		{RawIngredientString: "Tesco Finest Widget", Category: "snacks_sweets"},
		{RawIngredientString: "whole milk", Category: ""},
	}

	if got := Categorize("tesco finest widget", "", maps); got != SnacksSweets {
		t.Errorf("mapped item = %q, want %q", got, SnacksSweets)
	}
	// Mapping wins over an existing category.
	if got := Categorize("TESCO FINEST WIDGET", "beverages", maps); got != SnacksSweets {
		t.Errorf("mapped item with existing category = %q, want %q", got, SnacksSweets)
	}
	// Empty mapped category falls through to the keyword table.
	if got := Categorize("Whole Milk", "", maps); got != DairyEggs {
		t.Errorf("empty mapping = %q, want %q", got, DairyEggs)
	}
	// Mapping requires an exact match, not a substring.
	if got := Categorize("tesco finest widget xl", "", maps); got != Other {
		t.Errorf("non-exact mapping = %q, want %q", got, Other)
	}
}

func TestCategorizeExistingCategory(t *testing.T) {
	if got := Categorize("Mystery Box", "household_cleaning", nil); got != HouseholdCleaning {
		t.Errorf("valid existing = %q, want %q", got, HouseholdCleaning)
	}
	// Existing category beats the keyword table.
	if got := Categorize("Apple Juice", "beverages", nil); got != Beverages {
		t.Errorf("existing over keywords = %q, want %q", got, Beverages)
	}
	// Invalid existing category is ignored.
	if got := Categorize("Apple Juice", "drinks", nil); got != VegetablesFruits {
		t.Errorf("invalid existing = %q, want %q", got, VegetablesFruits)
	}
}

func TestCategorizeSubstringSemantics(t *testing.T) {
	// "ham" inside "shampoo" matches meat_fish before personal_care is scanned.
	if got := Categorize("Shampoo", "", nil); got != MeatFish {
		t.Errorf("Categorize(%q) = %q, want %q", "Shampoo", got, MeatFish)
	}
	// "sage" inside "sausage" triggers the spice rule.
	if got := Categorize("Pork Sausages", "", nil); got != PantryStaples {
		t.Errorf("Categorize(%q) = %q, want %q", "Pork Sausages", got, PantryStaples)
	}
}

func TestCategorizeDefault(t *testing.T) {
	tests := []string{"Unrecognizable Widget XYZ", "", "   "}
	for _, input := range tests {
		if got := Categorize(input, "", nil); got != Other {
			t.Errorf("Categorize(%q) = %q, want %q", input, got, Other)
		}
	}
	if got := AisleOrder("Unrecognizable Widget XYZ", "", nil); got != 120 {
		t.Errorf("AisleOrder = %d, want 120", got)
	}
}

func TestAisleOrderUnknownMappedCategory(t *testing.T) {
	maps := []model.IngredientMap{{RawIngredientString: "gizmo", Category: "gadgets"}}
	if got := AisleOrder("gizmo", "", maps); got != DefaultAisleOrder {
		t.Errorf("AisleOrder = %d, want %d", got, DefaultAisleOrder)
	}
}

func TestCategorizeDeterministic(t *testing.T) {
	names := []string{"Ground Cumin", "Frozen Pizza", "Milk 1L", "Unknown"}
	for _, n := range names {
		first := Categorize(n, "", nil)
		for i := 0; i < 50; i++ {
			if got := Categorize(n, "", nil); got != first {
				t.Fatalf("Categorize(%q) changed from %q to %q", n, first, got)
			}
		}
	}
}
