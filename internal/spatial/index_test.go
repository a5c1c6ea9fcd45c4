package spatial

import (
	"fmt"
	"testing"

	"github.com/SchoolRadar/SR-Backend/internal/geo"
)

func sydneyGrid() []Entry {
	// A 5x5 grid of points roughly 1.1 km apart around the Sydney CBD.
	var entries []Entry
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			entries = append(entries, Entry{
				ID: fmt.Sprintf("GA%02d%02d", i, j),
				Point: geo.Point{
					Lat: -33.8688 + float64(i-2)*0.01,
					Lng: 151.2093 + float64(j-2)*0.01,
				},
			})
		}
	}
	return entries
}

// TestNearest_OrderAndCount verifies k results come back in ascending
// geodesic distance, nearest first.
func TestNearest_OrderAndCount(t *testing.T) {
	ix := NewIndex()
	ix.Load(sydneyGrid())

	center := geo.Point{Lat: -33.8688, Lng: 151.2093}
	got := ix.Nearest(center, 5)
	if len(got) != 5 {
		t.Fatalf("got %d neighbors, want 5", len(got))
	}
	if got[0].ID != "GA0202" {
		t.Errorf("nearest = %s, want the grid center GA0202", got[0].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceMeters < got[i-1].DistanceMeters {
			t.Errorf("result %d closer than result %d (%.1f < %.1f)",
				i, i-1, got[i].DistanceMeters, got[i-1].DistanceMeters)
		}
	}
}

// TestNearest_TieBreakDeterministic: equidistant points must come back in ID
// order on every query.
func TestNearest_TieBreakDeterministic(t *testing.T) {
	ix := NewIndex()
	ix.Insert("GA-B", geo.Point{Lat: -33.8688, Lng: 151.2193}) // due east
	ix.Insert("GA-A", geo.Point{Lat: -33.8688, Lng: 151.1993}) // due west, same distance

	center := geo.Point{Lat: -33.8688, Lng: 151.2093}
	for run := 0; run < 3; run++ {
		got := ix.Nearest(center, 2)
		if len(got) != 2 {
			t.Fatalf("got %d neighbors, want 2", len(got))
		}
		if got[0].ID != "GA-A" || got[1].ID != "GA-B" {
			t.Errorf("run %d: order = %s,%s, want GA-A,GA-B", run, got[0].ID, got[1].ID)
		}
	}
}

// TestWithin_RadiusBoundary: a point past the radius never appears; points
// inside always do.
func TestWithin_RadiusBoundary(t *testing.T) {
	ix := NewIndex()
	ix.Insert("GA-NEAR", geo.Point{Lat: -33.8700, Lng: 151.2100}) // ~140 m
	ix.Insert("GA-FAR", geo.Point{Lat: -33.9200, Lng: 151.2093})  // ~5.7 km

	center := geo.Point{Lat: -33.8688, Lng: 151.2093}
	got := ix.Within(center, 5000)
	if len(got) != 1 {
		t.Fatalf("got %d entries within 5 km, want 1", len(got))
	}
	if got[0].ID != "GA-NEAR" {
		t.Errorf("within result = %s, want GA-NEAR", got[0].ID)
	}
	if got[0].DistanceMeters < 135 || got[0].DistanceMeters > 150 {
		t.Errorf("distance = %.1f m, want ~140 m", got[0].DistanceMeters)
	}
}

// TestWithin_InvalidRadius returns nothing for non-positive radii.
func TestWithin_InvalidRadius(t *testing.T) {
	ix := NewIndex()
	ix.Insert("GA1", geo.Point{Lat: -33.8688, Lng: 151.2093})
	if got := ix.Within(geo.Point{Lat: -33.8688, Lng: 151.2093}, 0); len(got) != 0 {
		t.Errorf("Within radius 0 returned %d entries", len(got))
	}
}

// TestLoad_ReplacesTree: a reload swaps the contents wholesale.
func TestLoad_ReplacesTree(t *testing.T) {
	ix := NewIndex()
	ix.Load(sydneyGrid())
	if ix.Size() != 25 {
		t.Fatalf("size = %d, want 25", ix.Size())
	}

	ix.Load([]Entry{{ID: "GA-ONLY", Point: geo.Point{Lat: -33.8688, Lng: 151.2093}}})
	if ix.Size() != 1 {
		t.Errorf("size after reload = %d, want 1", ix.Size())
	}
	got := ix.Nearest(geo.Point{Lat: -33.8688, Lng: 151.2093}, 10)
	if len(got) != 1 || got[0].ID != "GA-ONLY" {
		t.Errorf("reloaded tree returned %v", got)
	}
}
