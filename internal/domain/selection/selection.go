// Package selection models the user's active filter state.
//
// A Selection maps category keys to the set of selected values in that
// category. A value present means "included in the filter". A category that
// is absent does not constrain the result; a category that is present but
// empty matches nothing.
//
// Selections are immutable: every operation returns a new Selection and
// leaves the receiver untouched, so a stored selection is always replaced as
// a whole.
package selection

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/glossameta/internal/domain/category"
)

type valueSet map[category.Value]struct{}

// Selection is the active filter state across categories.
type Selection struct {
	cats map[string]valueSet
}

// NumericKeys exposes the integer value keys present in a category.
type NumericKeys interface {
	NumericKeys(categoryKey string) []int
}

// New creates an empty selection (no constraints).
func New() Selection {
	return Selection{cats: map[string]valueSet{}}
}

// Reconstruct creates a Selection from stored category values.
// A category mapped to an empty slice is kept as present-but-empty.
func Reconstruct(m map[string][]category.Value) Selection {
	cats := make(map[string]valueSet, len(m))
	for k, vals := range m {
		vs := make(valueSet, len(vals))
		for _, v := range vals {
			vs[v] = struct{}{}
		}
		cats[k] = vs
	}
	return Selection{cats: cats}
}

// Categories returns the present category keys in sorted order.
func (s Selection) Categories() []string {
	return slices.Sorted(maps.Keys(s.cats))
}

// Contains reports whether the category is present (possibly empty).
func (s Selection) Contains(categoryKey string) bool {
	_, ok := s.cats[categoryKey]
	return ok
}

// Has reports whether v is selected in the category.
func (s Selection) Has(categoryKey string, v category.Value) bool {
	_, ok := s.cats[categoryKey][v]
	return ok
}

// Values returns the selected values of a category, null first and the rest
// sorted. ok is false when the category is absent.
func (s Selection) Values(categoryKey string) (values []category.Value, ok bool) {
	vs, ok := s.cats[categoryKey]
	if !ok {
		return nil, false
	}
	values = make([]category.Value, 0, len(vs))
	for v := range vs {
		values = append(values, v)
	}
	slices.SortFunc(values, compareValues)
	return values, true
}

// Map returns a copy of the selection as category -> values.
func (s Selection) Map() map[string][]category.Value {
	out := make(map[string][]category.Value, len(s.cats))
	for k := range s.cats {
		out[k], _ = s.Values(k)
	}
	return out
}

// Len returns the number of present categories.
func (s Selection) Len() int { return len(s.cats) }

// AddValue marks v as selected, creating the category if needed. Idempotent.
func (s Selection) AddValue(categoryKey string, v category.Value) Selection {
	out, vs := s.edit(categoryKey)
	vs[v] = struct{}{}
	return out
}

// RemoveValue deselects v. Missing categories and values are a no-op.
func (s Selection) RemoveValue(categoryKey string, v category.Value) Selection {
	if !s.Has(categoryKey, v) {
		return s
	}
	out, vs := s.edit(categoryKey)
	delete(vs, v)
	return out
}

// SetRange replaces the category's selection with the integer keys in
// [lo, hi] that exist in keys. A previously selected null survives, so
// "include unset records" is kept across slider moves.
func (s Selection) SetRange(categoryKey string, lo, hi int, keys NumericKeys) Selection {
	keepNull := s.Has(categoryKey, category.Null)

	out := s.shallowCopy()
	vs := valueSet{}
	if keepNull {
		vs[category.Null] = struct{}{}
	}
	for _, k := range keys.NumericKeys(categoryKey) {
		if k >= lo && k <= hi {
			vs[category.String(strconv.Itoa(k))] = struct{}{}
		}
	}
	out.cats[categoryKey] = vs
	return out
}

// Clear removes the category entirely, lifting its constraint.
func (s Selection) Clear(categoryKey string) Selection {
	if !s.Contains(categoryKey) {
		return s
	}
	out := s.shallowCopy()
	delete(out.cats, categoryKey)
	return out
}

// Reset keeps the category present with nothing selected, so it matches no
// records until values are added back.
func (s Selection) Reset(categoryKey string) Selection {
	out := s.shallowCopy()
	out.cats[categoryKey] = valueSet{}
	return out
}

// edit returns a copy of s whose categoryKey set is private to the copy.
func (s Selection) edit(categoryKey string) (Selection, valueSet) {
	out := s.shallowCopy()
	vs := make(valueSet, len(s.cats[categoryKey])+1)
	maps.Copy(vs, s.cats[categoryKey])
	out.cats[categoryKey] = vs
	return out, vs
}

// shallowCopy copies the category map; value sets are shared and must be
// replaced, never mutated, by the caller.
func (s Selection) shallowCopy() Selection {
	cats := make(map[string]valueSet, len(s.cats)+1)
	maps.Copy(cats, s.cats)
	return Selection{cats: cats}
}

func compareValues(a, b category.Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return -1
	case b.IsNull():
		return 1
	}
	ai, aerr := strconv.Atoi(a.String())
	bi, berr := strconv.Atoi(b.String())
	if aerr == nil && berr == nil {
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
	}
	return strings.Compare(a.String(), b.String())
}
