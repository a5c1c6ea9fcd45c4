// Package geo holds the pure geometry primitives used outside the database:
// geodesic distance, Web Mercator projection, circular buffers, and
// point-in-polygon containment. The heavyweight predicates over the full
// address table stay in PostGIS; this package covers buffer vertex
// generation, response distances, and the live containment fallback.
package geo

import "math"

const (
	// EarthRadiusMeters is the mean earth radius used by the haversine formula.
	EarthRadiusMeters = 6371000.0

	// mercatorRadius is the WGS84 semi-major axis used by Web Mercator (EPSG:3857).
	mercatorRadius = 6378137.0
)

// Point is a geographic coordinate in decimal degrees (WGS84).
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceMeters returns the great-circle distance between two points using
// the haversine formula. Accurate to ~0.5% against the ellipsoid, which is
// inside the tolerance for ranking and radius checks across the continent.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// mercXY projects a geographic point to Web Mercator meters.
func mercXY(p Point) (x, y float64) {
	x = mercatorRadius * p.Lng * math.Pi / 180
	y = mercatorRadius * math.Log(math.Tan(math.Pi/4+p.Lat*math.Pi/360))
	return
}

// mercPoint unprojects Web Mercator meters back to geographic coordinates.
func mercPoint(x, y float64) Point {
	lng := x / mercatorRadius * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/mercatorRadius)) - math.Pi/2) * 180 / math.Pi
	return Point{Lat: lat, Lng: lng}
}

// mercatorScale is the local scale factor of the Web Mercator projection:
// one projected meter covers cos(lat) true meters, so a circle of the true
// radius must be drawn at radius/cos(lat) in projected space.
func mercatorScale(lat float64) float64 {
	return math.Cos(lat * math.Pi / 180)
}

// Buffer builds a circular polygon of the given geodesic radius around
// center: project to Web Mercator, trace a circle corrected for the local
// projection scale, unproject each vertex. segments controls the vertex
// count; 64 keeps the boundary error well under the 1% tolerance.
func Buffer(center Point, radiusMeters float64, segments int) Polygon {
	if segments < 8 {
		segments = 8
	}
	cx, cy := mercXY(center)
	r := radiusMeters / mercatorScale(center.Lat)

	ring := make([]Point, 0, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		ring = append(ring, mercPoint(cx+r*math.Cos(theta), cy+r*math.Sin(theta)))
	}
	// Close the ring.
	ring = append(ring, ring[0])

	return Polygon{Rings: [][]Point{ring}}
}
