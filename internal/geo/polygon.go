package geo

import (
	"encoding/json"
	"fmt"
)

// Polygon is a single polygon: an exterior ring followed by zero or more
// holes. Rings are closed (first vertex repeated last) in [lat,lng] Points;
// the GeoJSON encoding emits [lng,lat] pairs per the standard.
type Polygon struct {
	Rings [][]Point
}

// MultiPolygon is a set of polygons. Catchment boundaries for schools that
// serve disjoint areas arrive as multi-polygons.
type MultiPolygon struct {
	Polygons []Polygon
}

// Contains reports whether p lies inside the polygon, holes excluded.
// The predicate is boundary-inclusive: a point exactly on a ring edge or
// vertex counts as contained. The same rule is used everywhere membership
// is decided so the two directions of the resolver agree.
func (pg Polygon) Contains(p Point) bool {
	if len(pg.Rings) == 0 {
		return false
	}
	if onRing(p, pg.Rings[0]) {
		return true
	}
	if !inRing(p, pg.Rings[0]) {
		return false
	}
	for _, hole := range pg.Rings[1:] {
		if onRing(p, hole) {
			return true
		}
		if inRing(p, hole) {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside any member polygon.
func (mp MultiPolygon) Contains(p Point) bool {
	for _, pg := range mp.Polygons {
		if pg.Contains(p) {
			return true
		}
	}
	return false
}

// inRing is a standard ray-casting test against one closed ring.
func inRing(p Point, ring []Point) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) &&
			p.Lng < (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lng {
			inside = !inside
		}
	}
	return inside
}

// onRing reports whether p sits on a segment of the ring, within a small
// degree epsilon (~1 cm).
func onRing(p Point, ring []Point) bool {
	const eps = 1e-7
	for i := 0; i+1 < len(ring); i++ {
		if pointOnSegment(p, ring[i], ring[i+1], eps) {
			return true
		}
	}
	return false
}

func pointOnSegment(p, a, b Point, eps float64) bool {
	minLat, maxLat := a.Lat, b.Lat
	if minLat > maxLat {
		minLat, maxLat = maxLat, minLat
	}
	minLng, maxLng := a.Lng, b.Lng
	if minLng > maxLng {
		minLng, maxLng = maxLng, minLng
	}
	if p.Lat < minLat-eps || p.Lat > maxLat+eps || p.Lng < minLng-eps || p.Lng > maxLng+eps {
		return false
	}
	cross := (b.Lng-a.Lng)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lng-a.Lng)
	return cross < eps && cross > -eps
}

// geojsonGeometry mirrors the GeoJSON geometry object shape.
type geojsonGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// MarshalJSON encodes the polygon as a GeoJSON Polygon geometry with
// [longitude, latitude] coordinate order.
func (pg Polygon) MarshalJSON() ([]byte, error) {
	coords, err := json.Marshal(ringsToCoords(pg.Rings))
	if err != nil {
		return nil, err
	}
	return json.Marshal(geojsonGeometry{Type: "Polygon", Coordinates: coords})
}

// UnmarshalJSON accepts GeoJSON Polygon and MultiPolygon geometries; a
// multi-polygon with a single member collapses into that member.
func (pg *Polygon) UnmarshalJSON(data []byte) error {
	var mp MultiPolygon
	if err := mp.UnmarshalJSON(data); err != nil {
		return err
	}
	if len(mp.Polygons) > 0 {
		*pg = mp.Polygons[0]
	}
	return nil
}

// MarshalJSON encodes as a GeoJSON MultiPolygon geometry.
func (mp MultiPolygon) MarshalJSON() ([]byte, error) {
	all := make([][][][2]float64, 0, len(mp.Polygons))
	for _, pg := range mp.Polygons {
		all = append(all, ringsToCoords(pg.Rings))
	}
	coords, err := json.Marshal(all)
	if err != nil {
		return nil, err
	}
	return json.Marshal(geojsonGeometry{Type: "MultiPolygon", Coordinates: coords})
}

// UnmarshalJSON accepts GeoJSON Polygon or MultiPolygon geometries.
func (mp *MultiPolygon) UnmarshalJSON(data []byte) error {
	var g geojsonGeometry
	if err := json.Unmarshal(data, &g); err != nil {
		return err
	}
	switch g.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return err
		}
		mp.Polygons = []Polygon{{Rings: coordsToRings(rings)}}
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return err
		}
		mp.Polygons = mp.Polygons[:0]
		for _, rings := range polys {
			mp.Polygons = append(mp.Polygons, Polygon{Rings: coordsToRings(rings)})
		}
	default:
		return fmt.Errorf("unsupported geometry type %q", g.Type)
	}
	return nil
}

func ringsToCoords(rings [][]Point) [][][2]float64 {
	out := make([][][2]float64, 0, len(rings))
	for _, ring := range rings {
		r := make([][2]float64, 0, len(ring))
		for _, p := range ring {
			r = append(r, [2]float64{p.Lng, p.Lat})
		}
		out = append(out, r)
	}
	return out
}

func coordsToRings(coords [][][2]float64) [][]Point {
	rings := make([][]Point, 0, len(coords))
	for _, c := range coords {
		ring := make([]Point, 0, len(c))
		for _, xy := range c {
			ring = append(ring, Point{Lat: xy[1], Lng: xy[0]})
		}
		rings = append(rings, ring)
	}
	return rings
}
