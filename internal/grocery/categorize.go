package grocery

import (
	"strings"

	"github.com/dukerupert/trolley/internal/model"
)

// Categorize returns the category for an item name.
//
// Precedence: spice/herb keywords win outright (spices shelve with pantry
// staples), then an exact case-insensitive match in the ingredient maps, then
// the item's existing category if it is valid, then the ordered keyword table.
// Anything left over is Other. All keyword matching is by substring.
func Categorize(name, existing string, maps []model.IngredientMap) Category {
	name = strings.ToLower(strings.TrimSpace(name))

	for _, kw := range spiceKeywords {
		if strings.Contains(name, kw) {
			return PantryStaples
		}
	}

	for _, m := range maps {
		if strings.ToLower(strings.TrimSpace(m.RawIngredientString)) == name && m.Category != "" {
			return Category(m.Category)
		}
	}

	if c := Category(existing); c.Valid() {
		return c
	}

	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(name, kw) {
				return entry.category
			}
		}
	}

	return Other
}

// AisleOrder returns the aisle rank of the item's resolved category.
func AisleOrder(name, existing string, maps []model.IngredientMap) int {
	return Categorize(name, existing, maps).AisleOrder()
}

var spiceKeywords = []string{
	"spice", "herb", "salt", "pepper", "cumin", "coriander",
	"turmeric", "paprika", "oregano", "basil", "thyme",
	"rosemary", "cinnamon", "ginger", "garlic powder",
	"onion powder", "chili", "cayenne", "bay leaf", "nutmeg",
	"cloves", "cardamom", "sage", "parsley", "dill", "mint",
}

type keywordEntry struct {
	category Category
	keywords []string
}

// Scanned in order; the first category with a matching keyword wins.
var keywordTable = []keywordEntry{
	{VegetablesFruits, []string{
		"carrot", "onion", "potato", "tomato", "lettuce", "cucumber", "pepper", "broccoli",
		"cauliflower", "spinach", "cabbage", "mushroom", "garlic", "celery", "leek",
		"apple", "banana", "orange", "grape", "strawberry", "blueberry", "lemon", "lime",
		"pear", "peach", "plum", "cherry", "avocado", "kiwi", "mango", "pineapple",
		"vegetable", "fruit", "salad", "berry",
	}},
	{MeatFish, []string{
		"chicken", "beef", "pork", "lamb", "turkey", "duck", "bacon", "sausage",
		"ham", "steak", "mince", "fish", "salmon", "tuna", "cod", "prawns",
		"shrimp", "meat", "fillet",
	}},
	{DairyEggs, []string{
		"milk", "cheese", "butter", "yogurt", "cream", "egg", "yoghurt", "cheddar",
		"mozzarella", "parmesan", "dairy",
	}},
	{Bakery, []string{
		"bread", "roll", "baguette", "croissant", "bagel", "muffin", "cake", "pastry",
		"bun", "loaf", "tortilla", "wrap", "pita", "naan",
	}},
	{PantryStaples, []string{
		"rice", "pasta", "flour", "sugar", "oil", "vinegar", "sauce", "stock",
		"tin", "can", "jar", "cereal", "oats", "beans", "lentils", "chickpeas",
		"tomato paste", "ketchup", "mayonnaise", "mustard", "honey", "jam",
	}},
	{SnacksSweets, []string{
		"crisp", "chip", "chocolate", "candy", "sweet", "biscuit", "cookie",
		"popcorn", "nuts", "snack", "bar",
	}},
	{Beverages, []string{
		"water", "juice", "soda", "coffee", "tea", "beer", "wine", "drink",
		"cola", "lemonade", "squash",
	}},
	{FrozenFoods, []string{
		"frozen", "ice cream", "pizza", "chips",
	}},
	{HouseholdCleaning, []string{
		"detergent", "soap", "cleaner", "bleach", "disinfectant", "sponge",
		"tissue", "toilet paper", "kitchen roll", "bin bag", "washing",
	}},
	{PersonalCare, []string{
		"shampoo", "conditioner", "toothpaste", "deodorant", "razor", "lotion",
		"shower gel", "body wash",
	}},
}
