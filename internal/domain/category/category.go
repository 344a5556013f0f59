package category

import "fmt"

// Category is an immutable value object describing one metadata dimension.
type Category struct {
	key          string
	displayName  string
	kind         Kind
	sourceColumn string
}

// New validates and creates a Category.
// displayName and sourceColumn default to key when empty.
func New(key, displayName string, kind Kind, sourceColumn string) (Category, error) {
	if key == "" {
		return Category{}, fmt.Errorf("category key is required")
	}
	if len(key) > 64 {
		return Category{}, fmt.Errorf("category key %q too long (max 64)", key)
	}
	if !kind.IsValid() {
		return Category{}, fmt.Errorf("invalid kind %q for category %q", kind, key)
	}
	if displayName == "" {
		displayName = key
	}
	if sourceColumn == "" {
		sourceColumn = key
	}
	return Category{key: key, displayName: displayName, kind: kind, sourceColumn: sourceColumn}, nil
}

// Key returns the category identifier.
func (c Category) Key() string { return c.key }

// DisplayName returns the label shown in the filter menu.
func (c Category) DisplayName() string { return c.displayName }

// Kind returns the filtering kind.
func (c Category) Kind() Kind { return c.kind }

// SourceColumn returns the dataset column the category is read from.
func (c Category) SourceColumn() string { return c.sourceColumn }
