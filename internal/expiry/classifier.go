// Package expiry estimates grocery shelf life and learns from the corrections
// users make to suggested expiry dates.
package expiry

import (
	"strings"

	"github.com/foxxcyber/fresh-feed/internal/models"
)

type categoryRule struct {
	category models.Category
	keywords []string
}

// infoCategoryRules normalise a free-text category from product metadata
var infoCategoryRules = []categoryRule{
	{models.CategoryDairy, []string{"dairy", "mejeri", "milk", "mjölk", "cheese", "ost"}},
	{models.CategoryMeat, []string{"meat", "kött", "chark", "poultry", "fågel"}},
	{models.CategoryFish, []string{"fish", "fisk", "seafood", "skaldjur"}},
	{models.CategoryFruit, []string{"fruit", "frukt", "berries", "bär"}},
	{models.CategoryVegetable, []string{"vegetable", "grönsak", "grönt", "produce", "rotfrukt"}},
	{models.CategoryBread, []string{"bread", "bröd", "bakery", "bageri"}},
	{models.CategoryCanned, []string{"canned", "konserv"}},
	{models.CategoryDryGoods, []string{"dry-goods", "dry goods", "torrvar", "pasta", "cereal", "spannmål"}},
	{models.CategoryFrozen, []string{"frozen", "fryst", "frys"}},
	{models.CategoryBeverage, []string{"beverage", "dryck", "drink", "juice"}},
	{models.CategoryCandy, []string{"candy", "godis", "sweets", "konfekt", "snacks"}},
	{models.CategorySauce, []string{"sauce", "sås", "condiment", "dressing"}},
	{models.CategorySpice, []string{"spice", "krydd"}},
}

// nameCategoryRules classify a product by its name. Frozen and canned come
// first because they qualify otherwise perishable items ("fryst lax",
// "tonfisk i vatten").
var nameCategoryRules = []categoryRule{
	{models.CategoryFrozen, []string{
		"fryst", "frysta", "djupfryst", "frozen", "glass", "fiskpinnar", "pommes", "frysbär",
		"frysgrönsaker", "ice cream", "pizza fryst", "wok-grönsaker",
	}},
	{models.CategoryCanned, []string{
		"konserv", "burk", "tonfisk", "krossade tomater", "kokosmjölk", "majs på burk",
		"bönor i", "canned", "tinned", "ärtsoppa", "sardiner", "makrill i tomat",
	}},
	{models.CategoryMeat, []string{
		"kött", "färs", "kyckling", "fläsk", "bacon", "skinka", "korv", "biff", "kotlett",
		"entrecote", "oxfilé", "lamm", "kalkon", "salami", "pålägg", "chicken", "beef",
		"pork", "sausage", "turkey", "meat",
	}},
	{models.CategoryFish, []string{
		"fisk", "lax", "torsk", "sej", "räk", "sill", "makrill", "kolja", "rödspätta",
		"musslor", "kräft", "hummer", "fish", "salmon", "shrimp", "cod", "prawn",
	}},
	{models.CategoryDairy, []string{
		"mjölk", "grädde", "gräddfil", "fil", "yoghurt", "kvarg", "keso", "ost", "smör",
		"crème fraiche", "creme fraiche", "kesella", "ägg", "milk", "cream", "yogurt",
		"cheese", "butter", "egg",
	}},
	{models.CategoryFruit, []string{
		"banan", "äpple", "päron", "apelsin", "citron", "lime", "vindruv", "jordgubb",
		"blåbär", "hallon", "mango", "ananas", "kiwi", "melon", "persika", "plommon",
		"avokado", "clementin", "banana", "apple", "orange", "grape", "berry", "fruit",
	}},
	{models.CategoryVegetable, []string{
		"sallad", "spenat", "tomat", "gurka", "paprika", "morot", "morötter", "potatis",
		"lök", "broccoli", "blomkål", "kål", "zucchini", "aubergine", "svamp",
		"champinjon", "selleri", "purjo", "rödbet", "sparris", "ärtor", "lettuce",
		"tomato", "carrot", "potato", "onion", "vegetable",
	}},
	{models.CategoryBread, []string{
		"bröd", "limpa", "fralla", "frallor", "bulle", "bullar", "baguette", "tortilla",
		"pitabröd", "kaka", "croissant", "bagel", "bread", "bun", "roll",
	}},
	{models.CategoryDryGoods, []string{
		"pasta", "spaghetti", "makaroner", "ris", "mjöl", "havregryn", "müsli", "flingor",
		"socker", "linser", "couscous", "bulgur", "quinoa", "nudlar", "flour", "rice",
		"oats", "cereal", "sugar",
	}},
	{models.CategoryBeverage, []string{
		"juice", "läsk", "saft", "vatten", "kaffe", "öl", "vin", "cider", "smoothie",
		"soda", "coffee", "water", "drink",
	}},
	{models.CategoryCandy, []string{
		"godis", "choklad", "kex", "chips", "lakrits", "karamell", "tuggummi", "snacks",
		"popcorn", "candy", "chocolate", "cookie",
	}},
	{models.CategorySauce, []string{
		"sås", "ketchup", "senap", "majonnäs", "dressing", "pesto", "salsa", "sylt",
		"marmelad", "soja", "sauce", "mustard", "mayo", "jam",
	}},
	{models.CategorySpice, []string{
		"krydd", "salt", "peppar", "kanel", "oregano", "basilika", "timjan", "curry",
		"vanilj", "spice", "pepper", "cinnamon",
	}},
}

// Classify returns the category of a product. Structured metadata wins over
// the product name; anything unmatched is models.CategoryUnknown.
func Classify(productName string, info *models.ProductInfo) models.Category {
	if info != nil && strings.TrimSpace(info.Category) != "" {
		if c := matchRules(infoCategoryRules, normalize(info.Category)); c != models.CategoryUnknown {
			return c
		}
	}

	return matchRules(nameCategoryRules, normalize(productName))
}

func matchRules(rules []categoryRule, text string) models.Category {
	if text == "" {
		return models.CategoryUnknown
	}
	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.category
			}
		}
	}
	return models.CategoryUnknown
}

// normalize lowercases and collapses whitespace
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
