// Package menu projects an index into a UI-agnostic filter menu description.
package menu

import (
	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
	"github.com/kailas-cloud/glossameta/internal/domain/setindex"
)

// Bounds describes the extent of an interval category.
type Bounds struct {
	Min int
	Max int
}

// Entry is one row of the filter menu.
type Entry struct {
	Key         string
	DisplayName string
	Kind        category.Kind
	// Values lists the distinct non-null values of a discrete category.
	Values []category.Value
	// Bounds is set for interval categories.
	Bounds *Bounds
	// HasNull reports that some records have no value in this category.
	HasNull bool
}

// Build derives the menu from the index, in schema order. Geo categories are
// driven by the map and are left out. It is computed once per index.
func Build(ix *setindex.Index) []Entry {
	var entries []Entry
	for _, c := range ix.Schema().Categories() {
		e := Entry{
			Key:         c.Key(),
			DisplayName: c.DisplayName(),
			Kind:        c.Kind(),
			HasNull:     ix.HasNull(c.Key()),
		}
		switch c.Kind() {
		case category.Geo:
			continue
		case category.Interval:
			e.Bounds = intervalBounds(ix.NumericKeys(c.Key()))
		default:
			e.Values = ix.Values(c.Key())
		}
		entries = append(entries, e)
	}
	return entries
}

// intervalBounds returns min/max of sorted keys; 0/0 when there are none.
func intervalBounds(keys []int) *Bounds {
	if len(keys) == 0 {
		return &Bounds{}
	}
	return &Bounds{Min: keys[0], Max: keys[len(keys)-1]}
}

// InitialSelection returns the starting filter state where everything is
// selected: every location, every discrete value and every interval's full
// range, including null wherever null occurs.
func InitialSelection(ix *setindex.Index, entries []Entry) selection.Selection {
	sel := selection.New()

	if loc := ix.Schema().LocationCategory(); loc != "" {
		sel = sel.Reset(loc)
		if ix.HasNull(loc) {
			sel = sel.AddValue(loc, category.Null)
		}
		for _, v := range ix.Values(loc) {
			sel = sel.AddValue(loc, v)
		}
	}

	for _, e := range entries {
		switch e.Kind {
		case category.Interval:
			if e.HasNull {
				sel = sel.AddValue(e.Key, category.Null)
			}
			sel = sel.SetRange(e.Key, e.Bounds.Min, e.Bounds.Max, ix)
		default:
			sel = sel.Reset(e.Key)
			if e.HasNull {
				sel = sel.AddValue(e.Key, category.Null)
			}
			for _, v := range e.Values {
				sel = sel.AddValue(e.Key, v)
			}
		}
	}
	return sel
}
