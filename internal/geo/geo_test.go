package geo

import (
	"encoding/json"
	"math"
	"testing"
)

// TestDistanceMeters_SydneyScenario checks the two reference pairs used by
// the proximity engine: ~140 m inside the radius and ~5.9 km outside it.
func TestDistanceMeters_SydneyScenario(t *testing.T) {
	school := Point{Lat: -33.8688, Lng: 151.2093}

	near := Point{Lat: -33.8700, Lng: 151.2100}
	d := DistanceMeters(school, near)
	if d < 135 || d > 150 {
		t.Errorf("near address distance = %.1f m, want ~140 m", d)
	}

	far := Point{Lat: -33.9200, Lng: 151.2093}
	d = DistanceMeters(school, far)
	if d < 5500 || d > 6000 {
		t.Errorf("far address distance = %.1f m, want ~5.9 km", d)
	}
}

// TestDistanceMeters_Symmetric verifies distance(a,b) == distance(b,a).
func TestDistanceMeters_Symmetric(t *testing.T) {
	a := Point{Lat: -33.8688, Lng: 151.2093}
	b := Point{Lat: -37.8136, Lng: 144.9631}
	if d1, d2 := DistanceMeters(a, b), DistanceMeters(b, a); math.Abs(d1-d2) > 1e-6 {
		t.Errorf("asymmetric distance: %.6f vs %.6f", d1, d2)
	}
}

// TestBuffer_RadiusWithinTolerance samples every boundary vertex of a 5 km
// buffer and requires its geodesic distance from the center to stay within
// 1% of the requested radius, at both a Sydney and a Hobart latitude.
func TestBuffer_RadiusWithinTolerance(t *testing.T) {
	const radius = 5000.0
	centers := []Point{
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: -42.8821, Lng: 147.3272},
	}
	for _, center := range centers {
		buf := Buffer(center, radius, 64)
		if len(buf.Rings) != 1 {
			t.Fatalf("buffer has %d rings, want 1", len(buf.Rings))
		}
		for i, v := range buf.Rings[0] {
			d := DistanceMeters(center, v)
			if math.Abs(d-radius)/radius > 0.01 {
				t.Errorf("center %+v vertex %d: boundary distance %.1f m outside 1%% of %v", center, i, d, radius)
			}
		}
	}
}

// TestBuffer_RingClosed verifies the ring is explicitly closed.
func TestBuffer_RingClosed(t *testing.T) {
	buf := Buffer(Point{Lat: -33.9, Lng: 151.2}, 5000, 32)
	ring := buf.Rings[0]
	if ring[0] != ring[len(ring)-1] {
		t.Errorf("ring not closed: first=%+v last=%+v", ring[0], ring[len(ring)-1])
	}
}

// TestBuffer_ContainsCenterNotEdge: the generated buffer must contain its own
// center and points just inside the radius, and exclude points past it.
func TestBuffer_ContainsCenterNotEdge(t *testing.T) {
	center := Point{Lat: -33.8688, Lng: 151.2093}
	buf := Buffer(center, 5000, 64)

	if !buf.Contains(center) {
		t.Error("buffer does not contain its center")
	}
	inside := Point{Lat: -33.8700, Lng: 151.2100} // ~140 m out
	if !buf.Contains(inside) {
		t.Error("buffer excludes a point 140 m from center")
	}
	outside := Point{Lat: -33.9200, Lng: 151.2093} // ~5.7 km out
	if buf.Contains(outside) {
		t.Error("buffer contains a point 5.7 km from center")
	}
}

func squareAround(lat, lng, half float64) Polygon {
	return Polygon{Rings: [][]Point{{
		{Lat: lat - half, Lng: lng - half},
		{Lat: lat - half, Lng: lng + half},
		{Lat: lat + half, Lng: lng + half},
		{Lat: lat + half, Lng: lng - half},
		{Lat: lat - half, Lng: lng - half},
	}}}
}

// TestPolygonContains_Boundary verifies the containment predicate is
// boundary-inclusive: vertices and edge midpoints count as inside.
func TestPolygonContains_Boundary(t *testing.T) {
	sq := squareAround(-33.87, 151.21, 0.01)

	cases := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{Lat: -33.87, Lng: 151.21}, true},
		{"vertex", Point{Lat: -33.88, Lng: 151.20}, true},
		{"edge midpoint", Point{Lat: -33.88, Lng: 151.21}, true},
		{"just outside", Point{Lat: -33.8812, Lng: 151.21}, false},
		{"far outside", Point{Lat: -34.5, Lng: 151.21}, false},
	}
	for _, tc := range cases {
		if got := sq.Contains(tc.p); got != tc.want {
			t.Errorf("%s: Contains(%+v) = %v, want %v", tc.name, tc.p, got, tc.want)
		}
	}
}

// TestPolygonContains_Hole verifies a point inside a hole is excluded but a
// point on the hole boundary stays included.
func TestPolygonContains_Hole(t *testing.T) {
	outer := squareAround(0, 0, 1.0).Rings[0]
	hole := squareAround(0, 0, 0.2).Rings[0]
	pg := Polygon{Rings: [][]Point{outer, hole}}

	if pg.Contains(Point{Lat: 0, Lng: 0}) {
		t.Error("point inside hole reported as contained")
	}
	if !pg.Contains(Point{Lat: 0.5, Lng: 0.5}) {
		t.Error("point between hole and outer ring reported as outside")
	}
	if !pg.Contains(Point{Lat: 0.2, Lng: 0}) {
		t.Error("point on hole boundary reported as outside")
	}
}

// TestMultiPolygon_GeoJSONRoundTrip decodes a MultiPolygon geometry, checks
// containment against both members, and re-encodes.
func TestMultiPolygon_GeoJSONRoundTrip(t *testing.T) {
	src := []byte(`{"type":"MultiPolygon","coordinates":[
		[[[151.20,-33.88],[151.22,-33.88],[151.22,-33.86],[151.20,-33.86],[151.20,-33.88]]],
		[[[150.00,-34.00],[150.10,-34.00],[150.10,-33.90],[150.00,-33.90],[150.00,-34.00]]]
	]}`)

	var mp MultiPolygon
	if err := json.Unmarshal(src, &mp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(mp.Polygons) != 2 {
		t.Fatalf("got %d polygons, want 2", len(mp.Polygons))
	}
	if !mp.Contains(Point{Lat: -33.87, Lng: 151.21}) {
		t.Error("point in first member not contained")
	}
	if !mp.Contains(Point{Lat: -33.95, Lng: 150.05}) {
		t.Error("point in second member not contained")
	}
	if mp.Contains(Point{Lat: -35.0, Lng: 149.0}) {
		t.Error("point outside both members contained")
	}

	out, err := json.Marshal(mp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again MultiPolygon
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if len(again.Polygons) != 2 {
		t.Errorf("round trip lost polygons: got %d", len(again.Polygons))
	}
}

// TestPolygon_UnmarshalPolygonGeometry accepts a plain Polygon geometry.
func TestPolygon_UnmarshalPolygonGeometry(t *testing.T) {
	src := []byte(`{"type":"Polygon","coordinates":[[[151.20,-33.88],[151.22,-33.88],[151.22,-33.86],[151.20,-33.86],[151.20,-33.88]]]}`)
	var pg Polygon
	if err := json.Unmarshal(src, &pg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !pg.Contains(Point{Lat: -33.87, Lng: 151.21}) {
		t.Error("decoded polygon does not contain interior point")
	}
}
