package geo

import (
	"maps"
	"math"
	"slices"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Coordinates maps location values to their map position.
type Coordinates map[string]Point

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Polygon is a closed ring of vertices; the last vertex connects to the first.
// Repeating the first vertex at the end is allowed.
type Polygon []Point

// Contains reports whether p lies inside the polygon or on its boundary.
// Polygons are treated as planar in lat/lng space, which is accurate enough
// for hand-drawn selections that do not cross the antimeridian.
func (poly Polygon) Contains(p Point) bool {
	ring, ok := poly.ring()
	if !ok {
		return false
	}
	return xy.IsPointInRing(geom.XY, geom.Coord{p.Lng, p.Lat}, ring.FlatCoords())
}

// ring returns the polygon's exterior ring in (lng, lat) order, closed.
// It fails for fewer than three distinct vertices.
func (poly Polygon) ring() (*geom.LinearRing, bool) {
	coords := make([]geom.Coord, 0, len(poly)+1)
	for _, v := range poly {
		coords = append(coords, geom.Coord{v.Lng, v.Lat})
	}
	if len(poly) > 0 && poly[0] != poly[len(poly)-1] {
		coords = append(coords, coords[0])
	}
	if len(coords) < 4 {
		return nil, false
	}
	g, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{coords})
	if err != nil {
		return nil, false
	}
	return g.LinearRing(0), true
}

// Circle is a great-circle disc around a center point.
type Circle struct {
	Center       Point
	RadiusMeters float64
}

// Contains reports whether p lies within the circle's radius.
func (c Circle) Contains(p Point) bool {
	return Haversine(c.Center.Lat, c.Center.Lng, p.Lat, p.Lng) <= c.RadiusMeters
}

// Area is a union of drawn shapes.
type Area struct {
	Polygons []Polygon
	Circles  []Circle
}

// IsEmpty reports whether no shape has been drawn.
func (a Area) IsEmpty() bool {
	return len(a.Polygons) == 0 && len(a.Circles) == 0
}

// Contains reports whether p lies inside any shape of the area.
func (a Area) Contains(p Point) bool {
	for _, poly := range a.Polygons {
		if poly.Contains(p) {
			return true
		}
	}
	for _, c := range a.Circles {
		if c.Contains(p) {
			return true
		}
	}
	return false
}

// Locations returns the sorted locations inside the area. An empty area
// admits every location, so clearing all shapes restores the full map.
func (a Area) Locations(coords Coordinates) []string {
	if a.IsEmpty() {
		return slices.Sorted(maps.Keys(coords))
	}
	var out []string
	for loc, p := range coords {
		if a.Contains(p) {
			out = append(out, loc)
		}
	}
	slices.Sort(out)
	return out
}
