package models

import (
	"strings"
)

// Category is a food category label used for shelf-life defaults and learning
type Category string

const (
	CategoryDairy     Category = "dairy"
	CategoryMeat      Category = "meat"
	CategoryFish      Category = "fish"
	CategoryFruit     Category = "fruit"
	CategoryVegetable Category = "vegetable"
	CategoryBread     Category = "bread"
	CategoryCanned    Category = "canned"
	CategoryDryGoods  Category = "dry-goods"
	CategoryFrozen    Category = "frozen"
	CategoryBeverage  Category = "beverage"
	CategoryCandy     Category = "candy"
	CategorySauce     Category = "sauce"
	CategorySpice     Category = "spice"
	CategoryUnknown   Category = "unknown"
)

// Categories lists every known category in enumeration order
var Categories = []Category{
	CategoryDairy,
	CategoryMeat,
	CategoryFish,
	CategoryFruit,
	CategoryVegetable,
	CategoryBread,
	CategoryCanned,
	CategoryDryGoods,
	CategoryFrozen,
	CategoryBeverage,
	CategoryCandy,
	CategorySauce,
	CategorySpice,
	CategoryUnknown,
}

// Swedish labels used by the UI
var categoryLabels = map[string]Category{
	"mejeri":    CategoryDairy,
	"kött":      CategoryMeat,
	"fisk":      CategoryFish,
	"frukt":     CategoryFruit,
	"grönsaker": CategoryVegetable,
	"grönsak":   CategoryVegetable,
	"bröd":      CategoryBread,
	"konserver": CategoryCanned,
	"torrvaror": CategoryDryGoods,
	"fryst":     CategoryFrozen,
	"frysvaror": CategoryFrozen,
	"dryck":     CategoryBeverage,
	"drycker":   CategoryBeverage,
	"godis":     CategoryCandy,
	"sås":       CategorySauce,
	"såser":     CategorySauce,
	"krydda":    CategorySpice,
	"kryddor":   CategorySpice,
	"okänd":     CategoryUnknown,
}

// ParseCategory maps an English or Swedish label to a Category.
// Anything unrecognised is CategoryUnknown.
func ParseCategory(label string) Category {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return CategoryUnknown
	}

	for _, c := range Categories {
		if string(c) == label {
			return c
		}
	}

	if c, ok := categoryLabels[label]; ok {
		return c
	}

	return CategoryUnknown
}

// IsKnown reports whether the category is a real label other than unknown
func (c Category) IsKnown() bool {
	if c == CategoryUnknown || c == "" {
		return false
	}
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
