// Package spatial wraps an in-memory R-tree over geocoded address points.
// Nearest-neighbor queries must go through an index structure; a linear scan
// over millions of points cannot meet interactive latency.
package spatial

import (
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/SchoolRadar/SR-Backend/internal/geo"
)

const (
	// metersPerDegreeLat is the approximate ground length of one degree of
	// latitude, used to size bounding boxes in degree space.
	metersPerDegreeLat = 111320.0

	// pointTolerance is the degenerate-rectangle size for point entries.
	pointTolerance = 1e-7
)

// Entry is one indexed address point.
type Entry struct {
	ID    string
	Point geo.Point
	rect  rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *Entry) Bounds() rtreego.Rect {
	return e.rect
}

// Neighbor is a query result: an entry plus its geodesic distance from the
// query point.
type Neighbor struct {
	ID             string
	Point          geo.Point
	DistanceMeters float64
}

// Index is a concurrency-safe R-tree over address points. Readers share an
// RLock; the only writer is the bulk (re)load.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	size int
}

// NewIndex returns an empty 2-dimensional index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(2, 25, 50)}
}

// Insert adds one point. Points are keyed (lng, lat) to match the x/y
// convention of the tree.
func (ix *Index) Insert(id string, p geo.Point) {
	e := &Entry{ID: id, Point: p}
	e.rect = rectAt(p)

	ix.mu.Lock()
	ix.tree.Insert(e)
	ix.size++
	ix.mu.Unlock()
}

// Load replaces the entire tree with the given entries. Used by the bulk
// loader after an address import so readers never see a half-built tree.
func (ix *Index) Load(entries []Entry) {
	tree := rtreego.NewTree(2, 25, 50)
	for i := range entries {
		e := entries[i]
		e.rect = rectAt(e.Point)
		tree.Insert(&e)
	}

	ix.mu.Lock()
	ix.tree = tree
	ix.size = len(entries)
	ix.mu.Unlock()
}

// Size returns the number of indexed points.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}

// Nearest returns the k closest entries to p in ascending geodesic distance,
// ties broken by ID. The tree ranks candidates in degree space, which is
// anisotropic away from the equator, so it oversamples and re-ranks with the
// haversine distance before cutting to k.
func (ix *Index) Nearest(p geo.Point, k int) []Neighbor {
	if k <= 0 {
		return nil
	}

	ix.mu.RLock()
	oversample := k * 4
	if oversample < k+8 {
		oversample = k + 8
	}
	raw := ix.tree.NearestNeighbors(oversample, rtreego.Point{p.Lng, p.Lat})
	ix.mu.RUnlock()

	out := rank(raw, p)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Within returns every entry within radiusMeters of p, ascending by distance
// with ID tie-break. A degree-space bounding box prunes the tree before the
// exact geodesic filter.
func (ix *Index) Within(p geo.Point, radiusMeters float64) []Neighbor {
	if radiusMeters <= 0 {
		return nil
	}

	dLat := radiusMeters / metersPerDegreeLat
	dLng := dLat / math.Max(math.Cos(p.Lat*math.Pi/180), 1e-6)
	bbox, err := rtreego.NewRect(
		rtreego.Point{p.Lng - dLng, p.Lat - dLat},
		[]float64{2 * dLng, 2 * dLat},
	)
	if err != nil {
		return nil
	}

	ix.mu.RLock()
	raw := ix.tree.SearchIntersect(bbox)
	ix.mu.RUnlock()

	candidates := rank(raw, p)
	out := candidates[:0]
	for _, n := range candidates {
		if n.DistanceMeters <= radiusMeters {
			out = append(out, n)
		}
	}
	return out
}

func rectAt(p geo.Point) rtreego.Rect {
	return rtreego.Point{p.Lng, p.Lat}.ToRect(pointTolerance)
}

func rank(raw []rtreego.Spatial, from geo.Point) []Neighbor {
	out := make([]Neighbor, 0, len(raw))
	for _, s := range raw {
		e, ok := s.(*Entry)
		if !ok {
			continue
		}
		out = append(out, Neighbor{
			ID:             e.ID,
			Point:          e.Point,
			DistanceMeters: geo.DistanceMeters(from, e.Point),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].ID < out[j].ID
	})
	return out
}
