package filter

import (
	"slices"

	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/geo"
	"github.com/kailas-cloud/glossameta/internal/domain/selection"
)

// Marker is one location pin on the map.
type Marker struct {
	Location string
	Lat      float64
	Lng      float64
	// Selected: at least one matching record lives at this location.
	Selected bool
	// AreaSelected: the location passes the location-category selection.
	AreaSelected bool
}

// Result is the outcome of evaluating a selection.
type Result struct {
	SessionID     string
	Selection     selection.Selection
	RecordIDs     []string
	Locations     []string
	RecordCount   int
	LocationCount int
	Markers       []Marker
}

// buildMarkers returns markers for every known coordinate, sorted by location.
func buildMarkers(
	coords geo.Coordinates, locationCategory string, sel selection.Selection, matched []string,
) []Marker {
	if len(coords) == 0 {
		return nil
	}
	locs := make([]string, 0, len(coords))
	for loc := range coords {
		locs = append(locs, loc)
	}
	slices.Sort(locs)

	markers := make([]Marker, 0, len(locs))
	for _, loc := range locs {
		p := coords[loc]
		_, hit := slices.BinarySearch(matched, loc)
		markers = append(markers, Marker{
			Location:     loc,
			Lat:          p.Lat,
			Lng:          p.Lng,
			Selected:     hit,
			AreaSelected: areaAdmits(sel, locationCategory, loc),
		})
	}
	return markers
}

// areaAdmits reports whether the location category lets loc through.
// An absent category constrains nothing.
func areaAdmits(sel selection.Selection, locationCategory, loc string) bool {
	if locationCategory == "" || !sel.Contains(locationCategory) {
		return true
	}
	return sel.Has(locationCategory, category.String(loc))
}
