// Package report turns drafts into email report payloads. Aggregation is
// pure: it reads drafts, never mutates them, and is deterministic for a given
// input, which is what makes the dispatch paths testable without a mailbox.
package report

import (
	"sort"
	"time"

	"scraptrack/internal/catalog"
	"scraptrack/internal/model"
)

// LineItem is a single category+item+quantity selection with a non-zero
// quantity, flattened out of a draft's form data.
type LineItem struct {
	ID       string
	Name     string
	Quantity float64
	Category string
}

// Section is one order's slice of a report: submitter metadata plus the
// order's line items.
type Section struct {
	Number   int
	Name     string
	Email    string
	Store    string
	Vendor   string
	OrderNo  string
	Engineer string
	Items    []LineItem
}

// Report is an ordered sequence of order sections plus batch summary data.
type Report struct {
	Sections    []Section
	TotalOrders int
	GeneratedAt time.Time
}

// Build constructs a report over the given drafts, one numbered section per
// draft in input order. Batch callers pass drafts oldest-first so sections
// read "Order #1" onward in creation order.
func Build(drafts []model.Draft, generatedAt time.Time) Report {
	r := Report{
		TotalOrders: len(drafts),
		GeneratedAt: generatedAt,
	}
	for i, d := range drafts {
		r.Sections = append(r.Sections, Section{
			Number:   i + 1,
			Name:     d.Name,
			Email:    d.Email,
			Store:    d.Store,
			Vendor:   d.Vendor,
			OrderNo:  d.OrderNo,
			Engineer: d.Engineer,
			Items:    Flatten(d.FormData),
		})
	}
	return r
}

// Flatten converts form data into line items, excluding zero-quantity
// entries. Categories contributing no non-zero entries are omitted entirely.
// Go maps carry no insertion order, so the catalog's category and item order
// is the canonical one; categories or items not in the catalog sort after the
// known ones, alphabetically and by ID respectively.
func Flatten(fd model.FormData) []LineItem {
	var categories []string
	for name, items := range fd {
		for _, item := range items {
			if item.Quantity != 0 {
				categories = append(categories, name)
				break
			}
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		return categoryLess(categories[i], categories[j])
	})

	var out []LineItem
	for _, name := range categories {
		var items []LineItem
		for _, item := range fd[name] {
			if item.Quantity == 0 {
				continue
			}
			items = append(items, LineItem{
				ID:       item.ID,
				Name:     item.Name,
				Quantity: float64(item.Quantity),
				Category: name,
			})
		}
		sort.Slice(items, func(i, j int) bool {
			return itemLess(name, items[i], items[j])
		})
		out = append(out, items...)
	}
	return out
}

func categoryLess(a, b string) bool {
	ra, aKnown := catalog.CategoryRank(a)
	rb, bKnown := catalog.CategoryRank(b)
	switch {
	case aKnown && bKnown:
		return ra < rb
	case aKnown != bKnown:
		return aKnown
	default:
		return a < b
	}
}

func itemLess(category string, a, b LineItem) bool {
	ra, aKnown := catalog.ItemRank(category, a.ID)
	rb, bKnown := catalog.ItemRank(category, b.ID)
	switch {
	case aKnown && bKnown:
		return ra < rb
	case aKnown != bKnown:
		return aKnown
	default:
		return a.ID < b.ID
	}
}
