package schools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SchoolRadar/SR-Backend/internal/db"
	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// schoolRow carries a School plus its derived-data flags from a single
// query, avoiding an EXISTS round trip per result.
type schoolRow struct {
	School
	HasCatchment  bool
	HasGeomBuffer bool
}

const schoolFlagsSelect = `
	s.*,
	EXISTS (SELECT 1 FROM schools.catchments c WHERE c.school_id = s.acara_id) AS has_catchment,
	EXISTS (SELECT 1 FROM schools.buffers b WHERE b.school_id = s.acara_id) AS has_geom_buffer
`

// LookupSchool fetches a single school with its derived-data flags.
func LookupSchool(ctx context.Context, acaraID string) (*SchoolOut, error) {
	var row schoolRow
	err := db.DB.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT %s FROM schools.schools s WHERE s.acara_id = $1
	`, schoolFlagsSelect), acaraID).Scan(&row).Error
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("lookup school: %w", err))
	}
	if row.AcaraID == "" {
		return nil, fmt.Errorf("school %s: %w", acaraID, qerr.ErrNotFound)
	}
	out := row.School.Out(row.HasCatchment, row.HasGeomBuffer)
	return &out, nil
}

// lookupSchoolRecord fetches the raw school row without flags, for
// internal callers that need the point.
func lookupSchoolRecord(ctx context.Context, acaraID string) (*School, error) {
	var s School
	err := db.DB.WithContext(ctx).First(&s, "acara_id = ?", acaraID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("school %s: %w", acaraID, qerr.ErrNotFound)
	}
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("lookup school: %w", err))
	}
	return &s, nil
}

// SearchSchools matches schools by name, ranked exact match first, then
// name-prefix matches, then substring matches, alphabetical within each
// tier. Optional state/sector/type filters are ANDed.
func SearchSchools(ctx context.Context, name, state, sector, schoolType string, limit int) ([]SchoolOut, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, qerr.Invalid("name is required")
	}
	if limit <= 0 {
		limit = 20
	}

	schoolType = strings.ToLower(strings.TrimSpace(schoolType))
	if schoolType != "" && !SchoolType(schoolType).Valid() {
		return nil, qerr.Invalid("unknown school type %q", schoolType)
	}

	conds := []string{"s.name ILIKE $1"}
	args := []interface{}{"%" + escapeLike(name) + "%"}
	argIdx := 2

	for _, f := range []struct{ col, val string }{
		{"s.state", strings.ToUpper(state)},
		{"s.sector", strings.ToLower(sector)},
		{"s.type", schoolType},
	} {
		if f.val == "" {
			continue
		}
		conds = append(conds, fmt.Sprintf("%s = $%d", f.col, argIdx))
		args = append(args, f.val)
		argIdx++
	}

	// Rank tiers: exact name, prefix, then any substring.
	query := fmt.Sprintf(`
		SELECT %s,
			CASE
				WHEN LOWER(s.name) = LOWER($%d) THEN 0
				WHEN s.name ILIKE $%d THEN 1
				ELSE 2
			END AS match_rank
		FROM schools.schools s
		WHERE %s
		ORDER BY match_rank, s.name, s.acara_id
		LIMIT %d
	`, schoolFlagsSelect, argIdx, argIdx+1, strings.Join(conds, " AND "), limit)
	args = append(args, name, escapeLike(name)+"%")

	var rows []schoolRow
	if err := db.DB.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("search schools: %w", err))
	}

	out := make([]SchoolOut, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.School.Out(row.HasCatchment, row.HasGeomBuffer))
	}
	return out, nil
}

// CatchmentsForSchool lists a school's boundaries with their polygon
// geometry as GeoJSON, primary intake first.
func CatchmentsForSchool(ctx context.Context, acaraID string) ([]CatchmentOut, error) {
	if _, err := lookupSchoolRecord(ctx, acaraID); err != nil {
		return nil, err
	}

	var rows []struct {
		ID        uuid.UUID
		SchoolID  string
		Kind      CatchmentKind
		UpdatedAt time.Time
		Geometry  string
	}
	err := db.DB.WithContext(ctx).Raw(`
		SELECT id, school_id, kind, updated_at, ST_AsGeoJSON(geom) AS geometry
		FROM schools.catchments
		WHERE school_id = $1
		ORDER BY kind, id
	`, acaraID).Scan(&rows).Error
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("catchments for school: %w", err))
	}

	out := make([]CatchmentOut, 0, len(rows))
	for _, r := range rows {
		out = append(out, CatchmentOut{
			ID:        r.ID,
			SchoolID:  r.SchoolID,
			Kind:      r.Kind,
			UpdatedAt: r.UpdatedAt,
			Geometry:  json.RawMessage(r.Geometry),
		})
	}
	return out, nil
}

// ResolveByCatchment maps a catchment identifier back to its school.
func ResolveByCatchment(ctx context.Context, catchmentID uuid.UUID) (*SchoolOut, error) {
	c, err := lookupCatchment(ctx, catchmentID)
	if err != nil {
		return nil, err
	}
	return LookupSchool(ctx, c.SchoolID)
}

// lookupCatchment fetches one boundary by id.
func lookupCatchment(ctx context.Context, id uuid.UUID) (*Catchment, error) {
	var c Catchment
	err := db.DB.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("catchment %s: %w", id, qerr.ErrNotFound)
	}
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("lookup catchment: %w", err))
	}
	return &c, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
