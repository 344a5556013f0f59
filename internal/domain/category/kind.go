package category

// Kind is how a category is filtered.
type Kind string

// Category kind constants.
const (
	// Discrete categories are filtered by checking individual values.
	Discrete Kind = "discrete"
	// Interval categories hold integer values and are filtered by range.
	Interval Kind = "interval"
	// Geo categories are discrete but driven by the map, not the menu.
	Geo Kind = "geo"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == Discrete || k == Interval || k == Geo
}
