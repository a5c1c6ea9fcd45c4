package gnaf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SchoolRadar/SR-Backend/internal/db"
	"github.com/SchoolRadar/SR-Backend/internal/geo"
	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Filters narrows attribute and radius searches. Zero-value fields are
// ignored; set fields are ANDed together. Text fields match
// case-insensitively on prefix.
type Filters struct {
	StreetName string
	StreetType string
	Suburb     string
	State      string
	Postcode   string

	// StreetNumber matches number_first exactly, or falls inside a
	// number_first..number_last range when the row covers one.
	StreetNumber *int

	// MinConfidence drops geocodes below the band, per the configured
	// ranking. Empty means no confidence floor.
	MinConfidence Confidence
	Ranking       Ranking
}

// Empty reports whether no filter field is set, i.e. the query would
// match the whole catalogue.
func (f Filters) Empty() bool {
	return f.StreetName == "" && f.StreetType == "" && f.Suburb == "" &&
		f.State == "" && f.Postcode == "" && f.StreetNumber == nil &&
		f.MinConfidence == ""
}

// LookupAddress fetches a single address by its identifier.
func LookupAddress(ctx context.Context, gnafPID string) (*Address, error) {
	var addr Address
	err := db.DB.WithContext(ctx).First(&addr, "gnaf_pid = ?", gnafPID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("address %s: %w", gnafPID, qerr.ErrNotFound)
	}
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("lookup address: %w", err))
	}
	return &addr, nil
}

// whereClauses renders the filter set into SQL conditions with positional
// args starting at argIdx. A confidence floor expands into the set of
// acceptable bands because band order is config-driven, not lexical.
func (f Filters) whereClauses(argIdx int) ([]string, []interface{}, int) {
	var conds []string
	var args []interface{}

	add := func(col, val string) {
		if val == "" {
			return
		}
		conds = append(conds, fmt.Sprintf("%s ILIKE $%d", col, argIdx))
		args = append(args, escapeLike(val)+"%")
		argIdx++
	}

	add("street_name", f.StreetName)
	add("street_type", f.StreetType)
	add("locality", f.Suburb)
	add("state", f.State)
	add("postcode", f.Postcode)

	if f.StreetNumber != nil {
		conds = append(conds, fmt.Sprintf(
			"(number_first = $%d OR (number_first <= $%d AND number_last >= $%d))",
			argIdx, argIdx, argIdx,
		))
		args = append(args, *f.StreetNumber)
		argIdx++
	}

	if f.MinConfidence != "" {
		conds = append(conds, fmt.Sprintf("confidence = ANY($%d)", argIdx))
		args = append(args, pq.Array(f.Ranking.AtOrAbove(f.MinConfidence)))
		argIdx++
	}

	return conds, args, argIdx
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FindByAttributes returns addresses matching the filters, ordered by
// suburb, street, then number for stable paging, with the unpaged total.
// Ungeocoded addresses are included.
func FindByAttributes(ctx context.Context, f Filters, limit, offset int) ([]Address, int64, error) {
	conds, args, _ := f.whereClauses(1)
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM gnaf.addresses WHERE %s`, where)
	if err := db.DB.WithContext(ctx).Raw(countQuery, args...).Scan(&total).Error; err != nil {
		return nil, 0, qerr.FromContext(fmt.Errorf("count addresses: %w", err))
	}

	query := fmt.Sprintf(`
		SELECT *
		FROM gnaf.addresses
		WHERE %s
		ORDER BY locality, street_name, number_first NULLS LAST, gnaf_pid
		LIMIT %d OFFSET %d
	`, where, limit, offset)

	var addrs []Address
	if err := db.DB.WithContext(ctx).Raw(query, args...).Scan(&addrs).Error; err != nil {
		return nil, 0, qerr.FromContext(fmt.Errorf("find addresses: %w", err))
	}

	return addrs, total, nil
}

// Within returns geocoded addresses inside radiusMeters of center, nearest
// first with gnaf_pid breaking distance ties, plus the unpaged match count.
// A coarse bounding box narrows the GIST scan before the exact geography
// predicate runs.
func Within(ctx context.Context, center geo.Point, radiusMeters float64, f Filters, limit, offset int) ([]AddressOut, int64, error) {
	if radiusMeters <= 0 {
		return nil, 0, qerr.Invalid("radius must be positive, got %v", radiusMeters)
	}

	// Degree envelope padded 20% over the great-circle radius. Latitude
	// scaling is ignored on purpose: the box only has to be a superset.
	deg := radiusMeters / 111000.0 * 1.2

	conds, args, argIdx := f.whereClauses(1)
	where := ""
	if len(conds) > 0 {
		where = "AND " + strings.Join(conds, " AND ")
	}

	spatial := fmt.Sprintf(`
		geom IS NOT NULL
		AND geom && ST_Expand(ST_SetSRID(ST_MakePoint($%d, $%d), 4326), $%d)
		AND ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography, $%d)
	`, argIdx, argIdx+1, argIdx+2, argIdx, argIdx+1, argIdx+3)
	args = append(args, center.Lng, center.Lat, deg, radiusMeters)

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM gnaf.addresses WHERE %s %s`, spatial, where)
	if err := db.DB.WithContext(ctx).Raw(countQuery, args...).Scan(&total).Error; err != nil {
		return nil, 0, qerr.FromContext(fmt.Errorf("count addresses in radius: %w", err))
	}

	query := fmt.Sprintf(`
		SELECT *,
			ST_Distance(geom::geography, ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography) AS distance_meters
		FROM gnaf.addresses
		WHERE %s %s
		ORDER BY distance_meters, gnaf_pid
		LIMIT %d OFFSET %d
	`, argIdx, argIdx+1, spatial, where, limit, offset)

	rows, err := db.DB.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, 0, qerr.FromContext(fmt.Errorf("radius search: %w", err))
	}
	defer rows.Close()

	var out []AddressOut
	for rows.Next() {
		// Report the same geodesic distance the ORDER BY ranked on, so
		// displayed distances are monotonic within a page.
		var row struct {
			Address
			DistanceMeters float64
		}
		if err := db.DB.ScanRows(rows, &row); err != nil {
			return nil, 0, fmt.Errorf("scan address row: %w", err)
		}
		ao := row.Address.Out()
		dist := row.DistanceMeters
		ao.DistanceMeters = &dist
		out = append(out, ao)
	}

	if out == nil {
		out = []AddressOut{}
	}
	return out, total, nil
}

// StateCount is one row of the per-state catalogue summary.
type StateCount struct {
	State     string `json:"state"`
	Addresses int64  `json:"addresses"`
	Geocoded  int64  `json:"geocoded"`
}

// Stats summarises the catalogue per state.
func Stats(ctx context.Context) ([]StateCount, error) {
	var counts []StateCount
	err := db.DB.WithContext(ctx).Raw(`
		SELECT state,
			COUNT(*) AS addresses,
			COUNT(geom) AS geocoded
		FROM gnaf.addresses
		GROUP BY state
		ORDER BY state
	`).Scan(&counts).Error
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("address stats: %w", err))
	}
	return counts, nil
}

// GroupCount is one drill-down aggregate row.
type GroupCount struct {
	Name      string `json:"name"`
	Addresses int64  `json:"addresses"`
}

// SuburbsByState lists the suburbs recorded for a state with their
// address counts, for drill-down navigation.
func SuburbsByState(ctx context.Context, state string) ([]GroupCount, error) {
	if state == "" {
		return nil, qerr.Invalid("state is required")
	}
	var suburbs []GroupCount
	err := db.DB.WithContext(ctx).Raw(`
		SELECT locality AS name, COUNT(*) AS addresses
		FROM gnaf.addresses
		WHERE state = $1
		GROUP BY locality
		ORDER BY locality
	`, strings.ToUpper(state)).Scan(&suburbs).Error
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("suburbs by state: %w", err))
	}
	return suburbs, nil
}

// PostcodesBySuburb lists the postcodes seen for a suburb name with
// their address counts.
func PostcodesBySuburb(ctx context.Context, suburb string) ([]GroupCount, error) {
	if suburb == "" {
		return nil, qerr.Invalid("suburb is required")
	}
	var postcodes []GroupCount
	err := db.DB.WithContext(ctx).Raw(`
		SELECT postcode AS name, COUNT(*) AS addresses
		FROM gnaf.addresses
		WHERE locality ILIKE $1 AND postcode <> ''
		GROUP BY postcode
		ORDER BY postcode
	`, escapeLike(suburb)).Scan(&postcodes).Error
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("postcodes by suburb: %w", err))
	}
	return postcodes, nil
}
