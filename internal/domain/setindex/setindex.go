// Package setindex builds the inverted index from category/value pairs to
// record sets and evaluates selections against it.
//
// Within one category the selected values are combined by union; across
// categories the per-category results are combined by intersection.
package setindex

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/glossameta/internal/domain"
	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/dataset"
	"github.com/kailas-cloud/glossameta/internal/domain/idset"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
)

// DefaultNullToken is the cell content that denotes an unset value.
const DefaultNullToken = "null"

// Index is the read-only inverted index of one dataset.
// Category keys are fixed at construction.
type Index struct {
	schema    category.Schema
	ids       []string
	ordinals  map[string]uint32
	cats      map[string]map[category.Value]idset.Set
	numeric   map[string][]int
	locations []string
	universe  idset.Set
}

type buildOptions struct {
	nullToken string
}

// Option configures Build.
type Option func(*buildOptions)

// WithNullToken sets the cell content mapped to category.Null.
// An empty token disables null detection.
func WithNullToken(token string) Option {
	return func(o *buildOptions) { o.nullToken = token }
}

// Build indexes every (record, category, value) triple with a non-empty cell.
// Records are numbered in dataset order; the id is always column 0.
func Build(ds dataset.Dataset, schema category.Schema, opts ...Option) (*Index, error) {
	o := buildOptions{nullToken: DefaultNullToken}
	for _, opt := range opts {
		opt(&o)
	}

	type column struct {
		key string
		pos int
	}
	cols := make([]column, 0, len(schema.Categories()))
	for _, c := range schema.Categories() {
		pos, ok := ds.ColumnIndex(c.SourceColumn())
		if !ok {
			return nil, fmt.Errorf(
				"%w: column %q for category %q not in dataset", domain.ErrInvalidSchema, c.SourceColumn(), c.Key(),
			)
		}
		cols = append(cols, column{key: c.Key(), pos: pos})
	}

	n := ds.Len()
	ix := &Index{
		schema:    schema,
		ids:       make([]string, n),
		ordinals:  make(map[string]uint32, n),
		cats:      make(map[string]map[category.Value]idset.Set, len(cols)),
		numeric:   make(map[string][]int, len(cols)),
		locations: make([]string, n),
	}
	for _, c := range cols {
		ix.cats[c.key] = map[category.Value]idset.Set{}
	}

	locKey := schema.LocationCategory()
	for i, row := range ds.Rows() {
		ord := uint32(i) //nolint:gosec // dataset size is bounded well below 2^32
		ix.ids[i] = row[0]
		ix.ordinals[row[0]] = ord
		ix.universe.Add(ord)

		for _, c := range cols {
			cell := row[c.pos]
			if cell == "" {
				continue
			}
			v := category.String(cell)
			if o.nullToken != "" && cell == o.nullToken {
				v = category.Null
			}
			set := ix.cats[c.key][v]
			set.Add(ord)
			ix.cats[c.key][v] = set

			if c.key == locKey && !v.IsNull() {
				ix.locations[i] = cell
			}
		}
	}

	for key, values := range ix.cats {
		ix.numeric[key] = numericKeys(values)
	}

	return ix, nil
}

// numericKeys returns the sorted values that are canonical integer strings.
func numericKeys(values map[category.Value]idset.Set) []int {
	var out []int
	for v := range values {
		if v.IsNull() {
			continue
		}
		n, err := strconv.Atoi(v.String())
		if err != nil || strconv.Itoa(n) != v.String() {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Schema returns the schema the index was built with.
func (ix *Index) Schema() category.Schema { return ix.schema }

// Len returns the number of indexed records.
func (ix *Index) Len() int { return len(ix.ids) }

// Universe returns every record.
func (ix *Index) Universe() idset.Set { return ix.universe.Clone() }

// HasCategory reports whether the category was indexed.
func (ix *Index) HasCategory(key string) bool {
	_, ok := ix.cats[key]
	return ok
}

// CategoryIndex returns a copy of the value -> records mapping of a category.
func (ix *Index) CategoryIndex(key string) (map[category.Value]idset.Set, bool) {
	values, ok := ix.cats[key]
	if !ok {
		return nil, false
	}
	out := make(map[category.Value]idset.Set, len(values))
	for v, s := range values {
		out[v] = s.Clone()
	}
	return out, true
}

// Values returns the distinct values of a category, null excluded, sorted.
func (ix *Index) Values(key string) []category.Value {
	values := ix.cats[key]
	out := make([]category.Value, 0, len(values))
	for _, v := range slices.SortedFunc(maps.Keys(values), func(a, b category.Value) int {
		return strings.Compare(a.String(), b.String())
	}) {
		if !v.IsNull() {
			out = append(out, v)
		}
	}
	return out
}

// HasNull reports whether some record holds the null value in the category.
func (ix *Index) HasNull(key string) bool {
	_, ok := ix.cats[key][category.Null]
	return ok
}

// NumericKeys returns the sorted integer values present in a category.
func (ix *Index) NumericKeys(key string) []int {
	return slices.Clone(ix.numeric[key])
}

// Select evaluates a selection: union of the selected values' records within
// each present category, then intersection across categories. Absent
// categories are skipped; an empty selection or an empty category yields no
// records. A category missing from the index is a caller bug and is reported
// as ErrUnknownCategory.
func (ix *Index) Select(sel selection.Selection) (idset.Set, error) {
	keys := sel.Categories()
	perCategory := make([]idset.Set, 0, len(keys))
	for _, key := range keys {
		values, ok := ix.cats[key]
		if !ok {
			return idset.Set{}, domain.NewUnknownCategory(key)
		}
		selected, _ := sel.Values(key)
		sets := make([]idset.Set, 0, len(selected))
		for _, v := range selected {
			if s, found := values[v]; found {
				sets = append(sets, s)
			}
		}
		perCategory = append(perCategory, idset.Union(sets...))
	}
	return idset.Intersection(perCategory...), nil
}

// Records maps a set to record ids in dataset order.
func (ix *Index) Records(set idset.Set) []string {
	out := make([]string, 0, set.Len())
	for ord := range set.All() {
		if int(ord) < len(ix.ids) {
			out = append(out, ix.ids[ord])
		}
	}
	return out
}

// Locations returns the distinct, sorted locations of the records in set.
// Records without a location are ignored.
func (ix *Index) Locations(set idset.Set) []string {
	seen := make(map[string]struct{})
	for ord := range set.All() {
		if int(ord) >= len(ix.locations) {
			continue
		}
		if loc := ix.locations[ord]; loc != "" {
			seen[loc] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// LocationOf returns the location of a record.
func (ix *Index) LocationOf(recordID string) (string, bool) {
	ord, ok := ix.ordinals[recordID]
	if !ok || ix.locations[ord] == "" {
		return "", false
	}
	return ix.locations[ord], true
}
