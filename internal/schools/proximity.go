package schools

import (
	"context"
	"fmt"
	"log"

	"github.com/SchoolRadar/SR-Backend/internal/db"
	"github.com/SchoolRadar/SR-Backend/internal/geo"
	"github.com/SchoolRadar/SR-Backend/internal/gnaf"
	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"github.com/SchoolRadar/SR-Backend/internal/spatial"
)

// addressIndex is the in-memory R-tree over geocoded address points,
// serving nearest-N queries without a database round trip. Loaded once
// at startup; Load swaps wholesale so refreshes never block readers.
var addressIndex = spatial.NewIndex()

// LoadAddressIndex fills the in-memory index from the address store.
// Ungeocoded rows are skipped.
func LoadAddressIndex(ctx context.Context) (int, error) {
	rows, err := db.DB.WithContext(ctx).Raw(`
		SELECT gnaf_pid, ST_Y(geom) AS lat, ST_X(geom) AS lng
		FROM gnaf.addresses
		WHERE geom IS NOT NULL
	`).Rows()
	if err != nil {
		return 0, qerr.FromContext(fmt.Errorf("load address index: %w", err))
	}
	defer rows.Close()

	var entries []spatial.Entry
	for rows.Next() {
		var pid string
		var lat, lng float64
		if err := rows.Scan(&pid, &lat, &lng); err != nil {
			return 0, fmt.Errorf("scan index row: %w", err)
		}
		entries = append(entries, spatial.Entry{ID: pid, Point: geo.Point{Lat: lat, Lng: lng}})
	}

	addressIndex.Load(entries)
	log.Printf("[Proximity] address index loaded: %d points", len(entries))
	return len(entries), nil
}

// AddressesNearSchool returns geocoded addresses within radiusMeters of
// the school, nearest first. Unfiltered queries are capped at the
// configured candidate limit so a CBD school cannot pull the whole
// suburb tree in one response.
func AddressesNearSchool(ctx context.Context, acaraID string, radiusMeters float64, f gnaf.Filters, limit, offset int) ([]gnaf.AddressOut, int64, error) {
	s, err := lookupSchoolRecord(ctx, acaraID)
	if err != nil {
		return nil, 0, err
	}
	if !s.Geocoded() {
		return nil, 0, fmt.Errorf("school %s has no geocode: %w", acaraID, qerr.ErrUngeocoded)
	}

	if radiusMeters <= 0 {
		radiusMeters = defaultRadius
	}

	unfiltered := f.Empty()
	if unfiltered {
		if offset >= candidateCap {
			return []gnaf.AddressOut{}, int64(candidateCap), nil
		}
		if offset+limit > candidateCap {
			limit = candidateCap - offset
		}
	}

	out, total, err := gnaf.Within(ctx, s.Point(), radiusMeters, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if unfiltered && total > int64(candidateCap) {
		total = int64(candidateCap)
	}
	return out, total, nil
}

// NearestAddresses returns the k closest geocoded addresses to a school
// from the in-memory index, nearest first with stable tie-breaks.
func NearestAddresses(ctx context.Context, acaraID string, k int) ([]gnaf.AddressOut, error) {
	s, err := lookupSchoolRecord(ctx, acaraID)
	if err != nil {
		return nil, err
	}
	if !s.Geocoded() {
		return nil, fmt.Errorf("school %s has no geocode: %w", acaraID, qerr.ErrUngeocoded)
	}
	if k <= 0 {
		return nil, qerr.Invalid("k must be positive, got %d", k)
	}
	if k > candidateCap {
		k = candidateCap
	}

	neighbors := addressIndex.Nearest(s.Point(), k)
	if len(neighbors) == 0 {
		return []gnaf.AddressOut{}, nil
	}

	ids := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		ids = append(ids, n.ID)
	}

	var addrs []gnaf.Address
	if err := db.DB.WithContext(ctx).Where("gnaf_pid IN ?", ids).Find(&addrs).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("hydrate neighbors: %w", err))
	}
	byID := make(map[string]gnaf.Address, len(addrs))
	for _, a := range addrs {
		byID[a.GnafPID] = a
	}

	out := make([]gnaf.AddressOut, 0, len(neighbors))
	for _, n := range neighbors {
		a, ok := byID[n.ID]
		if !ok {
			// Index lagging a reimport; skip rather than fail the page.
			continue
		}
		ao := a.Out()
		dist := n.DistanceMeters
		ao.DistanceMeters = &dist
		out = append(out, ao)
	}
	return out, nil
}
