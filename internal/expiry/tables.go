package expiry

import (
	"github.com/foxxcyber/fresh-feed/internal/models"
)

// ShelfLifeEntry maps a lowercase keyword to a shelf life in days
type ShelfLifeEntry struct {
	Keyword string
	Days    int
}

// productShelfLife is scanned in order and the first keyword contained in the
// product name wins. Compound words must come before the words they contain
// ("filmjölk" before "mjölk", "mjölk" before "mjöl", "vitlök" before "lök").
var productShelfLife = []ShelfLifeEntry{
	// Dairy
	{"filmjölk", 10},
	{"havremjölk", 10},
	{"mjölk", 7},
	{"gräddfil", 14},
	{"grädde", 10},
	{"crème fraiche", 21},
	{"creme fraiche", 21},
	{"yoghurt", 14},
	{"kvarg", 14},
	{"keso", 10},
	{"färskost", 14},
	{"smör", 60},
	{"ägg", 28},
	{"milk", 7},
	{"cream", 10},
	{"yogurt", 14},
	{"butter", 60},
	{"eggs", 28},

	// Meat
	{"köttfärs", 2},
	{"blandfärs", 2},
	{"kyckling", 2},
	{"fläskfilé", 3},
	{"fläsk", 3},
	{"bacon", 7},
	{"skinka", 7},
	{"korv", 10},
	{"rostbiff", 5},
	{"nötkött", 3},
	{"lammkött", 3},
	{"chicken", 2},
	{"beef", 3},
	{"sausage", 10},

	// Fish, canned tuna first since it contains "fisk"
	{"tonfisk", 730},
	{"lax", 2},
	{"torsk", 2},
	{"räkor", 2},
	{"sill", 30},
	{"salmon", 2},
	{"shrimp", 2},

	// Cheese after meat so "rostbiff" never reads as "ost"
	{"ost", 30},
	{"cheese", 30},

	// Fruit
	{"banan", 5},
	{"äpple", 21},
	{"päron", 7},
	{"apelsin", 14},
	{"citron", 21},
	{"vindruvor", 7},
	{"jordgubb", 3},
	{"blåbär", 4},
	{"hallon", 3},
	{"avokado", 4},
	{"apple", 21},

	// Vegetables
	{"sallad", 5},
	{"spenat", 4},
	{"tomat", 7},
	{"gurka", 7},
	{"paprika", 10},
	{"morot", 21},
	{"morötter", 21},
	{"potatis", 30},
	{"vitlök", 90},
	{"lök", 30},
	{"broccoli", 5},
	{"champinjon", 5},
	{"svamp", 5},

	// Bread
	{"knäckebröd", 180},
	{"limpa", 7},
	{"bröd", 5},
	{"bullar", 3},
	{"bread", 5},

	// Long life
	{"konserv", 730},
	{"pasta", 730},
	{"havregryn", 365},
	{"mjöl", 365},
	{"socker", 1095},
	{"glass", 365},
	{"juice", 10},
	{"läsk", 180},
	{"kaffe", 180},
	{"choklad", 180},
	{"ketchup", 180},
	{"senap", 180},
	{"majonnäs", 60},
	{"peppar", 730},
	{"salt", 1095},
	{"ris", 730},
}

// categoryShelfLife holds the default shelf life per category. CategoryUnknown
// has no default so metadata and the fixed fallback can apply.
var categoryShelfLife = map[models.Category]int{
	models.CategoryDairy:     7,
	models.CategoryMeat:      3,
	models.CategoryFish:      2,
	models.CategoryFruit:     7,
	models.CategoryVegetable: 7,
	models.CategoryBread:     5,
	models.CategoryCanned:    730,
	models.CategoryDryGoods:  365,
	models.CategoryFrozen:    180,
	models.CategoryBeverage:  14,
	models.CategoryCandy:     180,
	models.CategorySauce:     90,
	models.CategorySpice:     730,
}

// ProductShelfLifeTable returns a copy of the ordered keyword table
func ProductShelfLifeTable() []ShelfLifeEntry {
	table := make([]ShelfLifeEntry, len(productShelfLife))
	copy(table, productShelfLife)
	return table
}

// CategoryDefaultDays returns the default shelf life for a category
func CategoryDefaultDays(category models.Category) (int, bool) {
	days, ok := categoryShelfLife[category]
	return days, ok
}
