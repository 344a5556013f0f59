package geo

import (
	"math"
	"slices"
	"testing"
)

func TestHaversine_SamePoint(t *testing.T) {
	d := Haversine(59.9139, 10.7522, 59.9139, 10.7522)
	if d != 0 {
		t.Fatalf("want 0, got %f", d)
	}
}

func TestHaversine_Oslo_Bergen(t *testing.T) {
	// ~305 km
	d := Haversine(59.9139, 10.7522, 60.3913, 5.3221)
	if d < 295_000 || d > 315_000 {
		t.Fatalf("want ~305km, got %.0fm", d)
	}
}

func TestHaversine_Antipodal(t *testing.T) {
	d := Haversine(0, 0, 0, 180)
	want := math.Pi * EarthRadiusMeters
	if math.Abs(d-want) > 1 {
		t.Fatalf("want %.0f, got %.0f", want, d)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		valid    bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{0, -180.5, false},
	}
	for _, tt := range tests {
		if got := ValidateCoordinates(tt.lat, tt.lon); got != tt.valid {
			t.Errorf("ValidateCoordinates(%f, %f) = %v, want %v", tt.lat, tt.lon, got, tt.valid)
		}
	}
}

var square = Polygon{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 10}, {Lat: 10, Lng: 10}, {Lat: 10, Lng: 0}}

func TestPolygon_Contains(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{Lat: 5, Lng: 5}, true},
		{"outside east", Point{Lat: 5, Lng: 11}, false},
		{"outside north", Point{Lat: 12, Lng: 5}, false},
		{"near corner inside", Point{Lat: 0.1, Lng: 0.1}, true},
		{"on edge", Point{Lat: 0, Lng: 5}, true},
		{"on vertex", Point{Lat: 10, Lng: 10}, true},
		{"just outside edge", Point{Lat: -0.001, Lng: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := square.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPolygon_Concave(t *testing.T) {
	// U shape: the notch between the arms is outside.
	u := Polygon{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 9}, {Lat: 9, Lng: 9}, {Lat: 9, Lng: 6},
		{Lat: 3, Lng: 6}, {Lat: 3, Lng: 3}, {Lat: 9, Lng: 3}, {Lat: 9, Lng: 0},
	}
	if u.Contains(Point{Lat: 6, Lng: 4.5}) {
		t.Error("notch should be outside")
	}
	if !u.Contains(Point{Lat: 6, Lng: 1.5}) {
		t.Error("left arm should be inside")
	}
}

func TestPolygon_Degenerate(t *testing.T) {
	if (Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}).Contains(Point{Lat: 0.5, Lng: 0.5}) {
		t.Error("two-vertex polygon contains nothing")
	}
}

func TestPolygon_ExplicitlyClosed(t *testing.T) {
	closed := append(slices.Clone(square), square[0])
	for _, p := range []Point{{Lat: 5, Lng: 5}, {Lat: 12, Lng: 5}, {Lat: 0.1, Lng: 0.1}} {
		if got, want := closed.Contains(p), square.Contains(p); got != want {
			t.Errorf("Contains(%+v) = %v on closed ring, %v on open ring", p, got, want)
		}
	}

	// A closed ring with only two distinct vertices is a line.
	line := Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 0}}
	if line.Contains(Point{Lat: 0.5, Lng: 0.5}) {
		t.Error("closed two-vertex ring contains nothing")
	}
}

func TestPolygon_Empty(t *testing.T) {
	if (Polygon{}).Contains(Point{}) {
		t.Error("empty polygon contains nothing")
	}
}

func TestCircle_Contains(t *testing.T) {
	c := Circle{Center: Point{Lat: 59.9139, Lng: 10.7522}, RadiusMeters: 50_000}
	if !c.Contains(Point{Lat: 59.95, Lng: 10.8}) {
		t.Error("nearby point should be inside")
	}
	if c.Contains(Point{Lat: 60.3913, Lng: 5.3221}) {
		t.Error("Bergen is not within 50km of Oslo")
	}
}

func TestArea_Locations(t *testing.T) {
	coords := Coordinates{
		"inside":  {Lat: 5, Lng: 5},
		"outside": {Lat: 50, Lng: 50},
		"circled": {Lat: 40, Lng: 40},
	}

	all := Area{}.Locations(coords)
	if !slices.Equal(all, []string{"circled", "inside", "outside"}) {
		t.Errorf("empty area = %v, want all", all)
	}

	area := Area{
		Polygons: []Polygon{square},
		Circles:  []Circle{{Center: Point{Lat: 40, Lng: 40}, RadiusMeters: 1000}},
	}
	if got := area.Locations(coords); !slices.Equal(got, []string{"circled", "inside"}) {
		t.Errorf("Locations = %v", got)
	}
}
