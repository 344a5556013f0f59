package glossameta

import (
	"fmt"

	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/geo"
	"github.com/kailas-cloud/glossameta/internal/domain/menu"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
	filteruc "github.com/kailas-cloud/glossameta/internal/usecase/filter"
)

// Kind is how a category is filtered.
type Kind string

// Kind constants.
const (
	KindDiscrete Kind = "discrete"
	KindInterval Kind = "interval"
	KindGeo      Kind = "geo"
)

// Category declares one filterable column. Kind defaults to KindDiscrete
// and Column defaults to Key.
type Category struct {
	Key         string
	DisplayName string
	Kind        Kind
	Column      string
}

// Schema declares the metadata table layout.
type Schema struct {
	IDColumn         string
	LocationCategory string
	Categories       []Category
}

// Value is a category value. The null value stands for records that have
// no value in the category.
type Value = category.Value

// Null is the value of records with a missing cell.
var Null = category.Null

// Text returns a non-null value.
func Text(s string) Value { return category.String(s) }

// Bounds is the observed integer range of an interval category.
type Bounds struct {
	Min int
	Max int
}

// MenuEntry describes one category offered for filtering.
type MenuEntry struct {
	Key         string
	DisplayName string
	Kind        Kind
	Values      []Value
	Bounds      *Bounds
	HasNull     bool
}

// Marker is one map location.
type Marker struct {
	Location     string
	Lat          float64
	Lng          float64
	Selected     bool // at least one matching record is here
	AreaSelected bool // the location is inside the map selection
}

// Result is the outcome of evaluating a selection.
type Result struct {
	SessionID     string
	Selection     map[string][]Value
	RecordIDs     []string
	Locations     []string
	RecordCount   int
	LocationCount int
	Markers       []Marker
}

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Circle is a disc on the map.
type Circle struct {
	Center       Point
	RadiusMeters float64
}

// Area is a union of polygons and circles. An empty area selects every location.
type Area struct {
	Polygons [][]Point
	Circles  []Circle
}

// --- Converters ---

func toInternalSchema(s Schema) (category.Schema, error) {
	cats := make([]category.Category, 0, len(s.Categories))
	for i, c := range s.Categories {
		kind := category.Kind(c.Kind)
		if kind == "" {
			kind = category.Discrete
		}
		ic, err := category.New(c.Key, c.DisplayName, kind, c.Column)
		if err != nil {
			return category.Schema{}, fmt.Errorf("category %d: %w", i, err)
		}
		cats = append(cats, ic)
	}
	return category.NewSchema(s.IDColumn, s.LocationCategory, cats)
}

func fromInternalMenu(entries []menu.Entry) []MenuEntry {
	out := make([]MenuEntry, len(entries))
	for i, e := range entries {
		out[i] = MenuEntry{
			Key:         e.Key,
			DisplayName: e.DisplayName,
			Kind:        Kind(e.Kind),
			Values:      e.Values,
			HasNull:     e.HasNull,
		}
		if e.Bounds != nil {
			out[i].Bounds = &Bounds{Min: e.Bounds.Min, Max: e.Bounds.Max}
		}
	}
	return out
}

func fromInternalResult(r filteruc.Result) Result {
	markers := make([]Marker, len(r.Markers))
	for i, m := range r.Markers {
		markers[i] = Marker{
			Location:     m.Location,
			Lat:          m.Lat,
			Lng:          m.Lng,
			Selected:     m.Selected,
			AreaSelected: m.AreaSelected,
		}
	}
	return Result{
		SessionID:     r.SessionID,
		Selection:     r.Selection.Map(),
		RecordIDs:     r.RecordIDs,
		Locations:     r.Locations,
		RecordCount:   r.RecordCount,
		LocationCount: r.LocationCount,
		Markers:       markers,
	}
}

func toInternalSelection(m map[string][]Value) selection.Selection {
	return selection.Reconstruct(m)
}

func toInternalArea(a Area) geo.Area {
	area := geo.Area{
		Polygons: make([]geo.Polygon, len(a.Polygons)),
		Circles:  make([]geo.Circle, len(a.Circles)),
	}
	for i, poly := range a.Polygons {
		pts := make(geo.Polygon, len(poly))
		for j, p := range poly {
			pts[j] = geo.Point{Lat: p.Lat, Lng: p.Lng}
		}
		area.Polygons[i] = pts
	}
	for i, c := range a.Circles {
		area.Circles[i] = geo.Circle{
			Center:       geo.Point{Lat: c.Center.Lat, Lng: c.Center.Lng},
			RadiusMeters: c.RadiusMeters,
		}
	}
	return area
}
