package config

import "agrimap/server/internal/models"

// Products is the catalog of commodities that can be reported
var Products = []models.Product{
	// Rice
	{ID: "rice-regular", Name: "Rice (Regular)", Category: "rice", Unit: "kg"},
	{ID: "rice-premium", Name: "Rice (Premium)", Category: "rice", Unit: "kg"},
	{ID: "rice-well-milled", Name: "Rice (Well-milled)", Category: "rice", Unit: "kg"},
	{ID: "rice-special", Name: "Rice (Special)", Category: "rice", Unit: "kg"},

	// Vegetables
	{ID: "tomato", Name: "Tomato", Category: "vegetables", Unit: "kg"},
	{ID: "onion-red", Name: "Onion (Red)", Category: "vegetables", Unit: "kg"},
	{ID: "onion-white", Name: "Onion (White)", Category: "vegetables", Unit: "kg"},
	{ID: "garlic", Name: "Garlic", Category: "vegetables", Unit: "kg"},
	{ID: "ginger", Name: "Ginger", Category: "vegetables", Unit: "kg"},
	{ID: "potato", Name: "Potato", Category: "vegetables", Unit: "kg"},
	{ID: "carrot", Name: "Carrot", Category: "vegetables", Unit: "kg"},
	{ID: "cabbage", Name: "Cabbage", Category: "vegetables", Unit: "kg"},
	{ID: "lettuce", Name: "Lettuce", Category: "vegetables", Unit: "kg"},
	{ID: "eggplant", Name: "Eggplant", Category: "vegetables", Unit: "kg"},
	{ID: "okra", Name: "Okra", Category: "vegetables", Unit: "kg"},
	{ID: "kangkong", Name: "Kangkong (Water Spinach)", Category: "vegetables", Unit: "kg"},
	{ID: "pechay", Name: "Pechay (Bok Choy)", Category: "vegetables", Unit: "kg"},
	{ID: "sitaw", Name: "Sitaw (String Beans)", Category: "vegetables", Unit: "kg"},
	{ID: "ampalaya", Name: "Ampalaya (Bitter Gourd)", Category: "vegetables", Unit: "kg"},
	{ID: "squash", Name: "Squash (Kalabasa)", Category: "vegetables", Unit: "kg"},

	// Fruits
	{ID: "banana-latundan", Name: "Banana (Latundan)", Category: "fruits", Unit: "kg"},
	{ID: "banana-lakatan", Name: "Banana (Lakatan)", Category: "fruits", Unit: "kg"},
	{ID: "banana-saba", Name: "Banana (Saba)", Category: "fruits", Unit: "kg"},
	{ID: "mango", Name: "Mango", Category: "fruits", Unit: "kg"},
	{ID: "pineapple", Name: "Pineapple", Category: "fruits", Unit: "piece"},
	{ID: "coconut", Name: "Coconut", Category: "fruits", Unit: "piece"},
	{ID: "papaya", Name: "Papaya", Category: "fruits", Unit: "kg"},
	{ID: "watermelon", Name: "Watermelon", Category: "fruits", Unit: "kg"},
	{ID: "melon", Name: "Melon", Category: "fruits", Unit: "kg"},
	{ID: "rambutan", Name: "Rambutan", Category: "fruits", Unit: "kg"},
	{ID: "lanzones", Name: "Lanzones", Category: "fruits", Unit: "kg"},
	{ID: "pomelo", Name: "Pomelo", Category: "fruits", Unit: "piece"},
	{ID: "durian", Name: "Durian", Category: "fruits", Unit: "kg"},

	// Livestock
	{ID: "pork-kasim", Name: "Pork (Kasim)", Category: "livestock", Unit: "kg"},
	{ID: "pork-liempo", Name: "Pork (Liempo)", Category: "livestock", Unit: "kg"},
	{ID: "pork-pigue", Name: "Pork (Pigue)", Category: "livestock", Unit: "kg"},
	{ID: "beef", Name: "Beef", Category: "livestock", Unit: "kg"},
	{ID: "carabao-meat", Name: "Carabao Meat", Category: "livestock", Unit: "kg"},
	{ID: "goat-meat", Name: "Goat Meat", Category: "livestock", Unit: "kg"},

	// Poultry
	{ID: "chicken-whole", Name: "Chicken (Whole)", Category: "poultry", Unit: "kg"},
	{ID: "chicken-dressed", Name: "Chicken (Dressed)", Category: "poultry", Unit: "kg"},
	{ID: "chicken-egg", Name: "Chicken Egg", Category: "poultry", Unit: "piece"},
	{ID: "duck", Name: "Duck", Category: "poultry", Unit: "kg"},
	{ID: "duck-egg", Name: "Duck Egg (Itlog na Pato)", Category: "poultry", Unit: "piece"},

	// Fish
	{ID: "bangus", Name: "Bangus (Milkfish)", Category: "fish", Unit: "kg"},
	{ID: "tilapia", Name: "Tilapia", Category: "fish", Unit: "kg"},
	{ID: "galunggong", Name: "Galunggong (Round Scad)", Category: "fish", Unit: "kg"},
	{ID: "sardines", Name: "Sardines", Category: "fish", Unit: "kg"},
	{ID: "tuna", Name: "Tuna", Category: "fish", Unit: "kg"},
	{ID: "lapu-lapu", Name: "Lapu-lapu (Grouper)", Category: "fish", Unit: "kg"},
	{ID: "maya-maya", Name: "Maya-maya (Red Snapper)", Category: "fish", Unit: "kg"},
	{ID: "shrimp", Name: "Shrimp (Hipon)", Category: "fish", Unit: "kg"},
	{ID: "crab", Name: "Crab (Alimango)", Category: "fish", Unit: "kg"},
	{ID: "squid", Name: "Squid (Pusit)", Category: "fish", Unit: "kg"},

	// Other
	{ID: "corn-yellow", Name: "Corn (Yellow)", Category: "other", Unit: "kg"},
	{ID: "corn-white", Name: "Corn (White)", Category: "other", Unit: "kg"},
	{ID: "sugar", Name: "Sugar", Category: "other", Unit: "kg"},
	{ID: "coffee-beans", Name: "Coffee Beans", Category: "other", Unit: "kg"},
	{ID: "coconut-oil", Name: "Coconut Oil", Category: "other", Unit: "liter"},
}

// GetProductByID returns the catalog entry for id, or nil
func GetProductByID(id string) *models.Product {
	for i := range Products {
		if Products[i].ID == id {
			p := Products[i]
			return &p
		}
	}
	return nil
}
