// Package catalog holds the static item catalog the order form is built from:
// an ordered list of categories, each with an ordered list of items, plus the
// fixed store and vendor enumerations. The catalog is read-only at runtime;
// changes to it do not retroactively affect already-stored drafts.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed items.json
var itemsJSON []byte

// Item is a single orderable material.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category is a named, ordered group of items.
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// stores is the fixed enumeration of store locations a draft may reference.
var stores = []string{
	"A stn -0501",
	"D stn-9042",
	"E stn -0503",
	"B stn 0500",
}

// vendors is the fixed vendor dropdown list.
var vendors = []string{
	"Apex Electricals (22106)",
	"Northline Supply (23784)",
	"Active Power (22189)",
	"Meridian Traders (19683)",
	"Dynamo Agencies (23780)",
	"Vintek Controls (23782)",
	"Sai Hardware (24805)",
	"Velcor Projects (14489)",
}

var (
	categories    []Category
	categoryIndex map[string]int
	itemIndex     map[string]map[string]int
)

func init() {
	if err := json.Unmarshal(itemsJSON, &categories); err != nil {
		panic(fmt.Sprintf("catalog: parsing embedded items.json: %v", err))
	}

	categoryIndex = make(map[string]int, len(categories))
	itemIndex = make(map[string]map[string]int, len(categories))
	for ci, cat := range categories {
		categoryIndex[cat.Name] = ci
		items := make(map[string]int, len(cat.Items))
		for ii, item := range cat.Items {
			items[item.ID] = ii
		}
		itemIndex[cat.Name] = items
	}
}

// Categories returns the catalog's categories in canonical order.
func Categories() []Category {
	return categories
}

// CategoryRank returns the canonical position of a category, or false if the
// category is not part of the catalog.
func CategoryRank(name string) (int, bool) {
	rank, ok := categoryIndex[name]
	return rank, ok
}

// ItemRank returns the canonical position of an item within its category, or
// false if either is unknown.
func ItemRank(category, itemID string) (int, bool) {
	items, ok := itemIndex[category]
	if !ok {
		return 0, false
	}
	rank, ok := items[itemID]
	return rank, ok
}

// Stores returns the fixed store enumeration.
func Stores() []string {
	return stores
}

// ValidStore reports whether s is one of the fixed store locations.
func ValidStore(s string) bool {
	for _, store := range stores {
		if store == s {
			return true
		}
	}
	return false
}

// Vendors returns the fixed vendor list.
func Vendors() []string {
	return vendors
}
