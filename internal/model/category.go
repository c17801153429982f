package model

import "strings"

// Category is the merchandising category of a perishable item.
type Category string

const (
	CategoryProduce Category = "produce"
	CategoryDairy   Category = "dairy"
	CategoryBakery  Category = "bakery"
	CategoryMeat    Category = "meat"
	CategoryFrozen  Category = "frozen"
	CategoryOther   Category = "other"
)

// Categories lists every category in encoding order.
var Categories = []Category{
	CategoryBakery,
	CategoryDairy,
	CategoryFrozen,
	CategoryMeat,
	CategoryOther,
	CategoryProduce,
}

// ParseCategory normalizes s into a Category. Unrecognized values map to
// CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryProduce, CategoryDairy, CategoryBakery, CategoryMeat, CategoryFrozen:
		return c
	default:
		return CategoryOther
	}
}

// IsPerishable reports whether the category spoils within days rather than weeks.
func (c Category) IsPerishable() bool {
	return c == CategoryProduce || c == CategoryBakery
}
