package category

import (
	"fmt"

	"github.com/kailas-cloud/glossameta/internal/domain"
)

// Schema is the closed set of categories known at build time, together with
// the id column and the category that carries record locations.
type Schema struct {
	categories       []Category
	byKey            map[string]int
	idColumn         string
	locationCategory string
}

// NewSchema validates and creates a Schema.
// locationCategory may be empty when the dataset has no geographic dimension.
func NewSchema(idColumn, locationCategory string, categories []Category) (Schema, error) {
	if idColumn == "" {
		return Schema{}, fmt.Errorf("%w: id column is required", domain.ErrInvalidSchema)
	}
	if len(categories) == 0 {
		return Schema{}, fmt.Errorf("%w: at least one category is required", domain.ErrInvalidSchema)
	}

	byKey := make(map[string]int, len(categories))
	for i, c := range categories {
		if _, dup := byKey[c.Key()]; dup {
			return Schema{}, fmt.Errorf("%w: duplicate category %q", domain.ErrInvalidSchema, c.Key())
		}
		if c.SourceColumn() == idColumn {
			return Schema{}, fmt.Errorf("%w: category %q reads the id column", domain.ErrInvalidSchema, c.Key())
		}
		byKey[c.Key()] = i
	}

	if locationCategory != "" {
		if _, ok := byKey[locationCategory]; !ok {
			return Schema{}, fmt.Errorf(
				"%w: location category %q is not declared", domain.ErrInvalidSchema, locationCategory,
			)
		}
	}

	cats := make([]Category, len(categories))
	copy(cats, categories)

	return Schema{
		categories:       cats,
		byKey:            byKey,
		idColumn:         idColumn,
		locationCategory: locationCategory,
	}, nil
}

// Categories returns the categories in declaration order.
func (s Schema) Categories() []Category {
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Category looks up a category by key.
func (s Schema) Category(key string) (Category, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return Category{}, false
	}
	return s.categories[i], true
}

// Has reports whether key is a declared category.
func (s Schema) Has(key string) bool {
	_, ok := s.byKey[key]
	return ok
}

// IDColumn returns the name of the unique record id column.
func (s Schema) IDColumn() string { return s.idColumn }

// LocationCategory returns the key of the location category, or "".
func (s Schema) LocationCategory() string { return s.locationCategory }
