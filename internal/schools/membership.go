package schools

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/SchoolRadar/SR-Backend/internal/db"
	"github.com/SchoolRadar/SR-Backend/internal/geo"
	"github.com/SchoolRadar/SR-Backend/internal/gnaf"
	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatchmentMatch pairs a school with the boundary that contained the
// query point. A school appears once per matching boundary kind.
type CatchmentMatch struct {
	School      SchoolOut     `json:"school"`
	CatchmentID uuid.UUID     `json:"catchment_id"`
	Kind        CatchmentKind `json:"kind"`
}

// membershipStale reports whether any catchment changed after the last
// completed membership rebuild. True also when no rebuild has ever run.
func membershipStale(ctx context.Context) (bool, error) {
	last, err := lastRebuild(ctx, "membership")
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}

	var changed int64
	err = db.DB.WithContext(ctx).
		Model(&Catchment{}).
		Where("updated_at > ?", *last.CompletedAt).
		Count(&changed).Error
	if err != nil {
		return false, qerr.FromContext(fmt.Errorf("staleness check: %w", err))
	}
	return changed > 0, nil
}

// matchRow is the scan target shared by the live and cached membership
// queries; both project schoolFlagsSelect plus the boundary columns.
type matchRow struct {
	School
	HasCatchment  bool
	HasGeomBuffer bool
	CatchmentID   uuid.UUID
	Kind          CatchmentKind
}

func (row matchRow) Match(stale bool) CatchmentMatch {
	out := row.School.Out(row.HasCatchment, row.HasGeomBuffer)
	out.CatchmentKind = string(row.Kind)
	out.Stale = stale
	return CatchmentMatch{
		School:      out,
		CatchmentID: row.CatchmentID,
		Kind:        row.Kind,
	}
}

// SchoolsContaining resolves which catchments contain a point, returning
// every match. Only official catchment boundaries participate; derived
// reach buffers never confer membership. Arbitrary points have no cache
// key, so they always run the live boundary-inclusive predicate; the
// Stale flag marks responses produced while the membership cache lags
// the boundary data.
func SchoolsContaining(ctx context.Context, p geo.Point) ([]CatchmentMatch, bool, error) {
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return nil, false, qerr.Invalid("coordinates out of range: %v,%v", p.Lat, p.Lng)
	}

	stale, err := membershipStale(ctx)
	if err != nil {
		return nil, false, err
	}

	// ST_Covers rather than ST_Contains: a point exactly on the boundary
	// belongs to the catchment, matching the Go-side polygon rule.
	query := fmt.Sprintf(`
		SELECT %s, c.id AS catchment_id, c.kind
		FROM schools.catchments c
		JOIN schools.schools s ON s.acara_id = c.school_id
		WHERE ST_Covers(c.geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY s.name, c.kind
	`, schoolFlagsSelect)

	rows, err := db.DB.WithContext(ctx).Raw(query, p.Lng, p.Lat).Rows()
	if err != nil {
		return nil, false, qerr.FromContext(fmt.Errorf("catchment containment query: %w", err))
	}
	defer rows.Close()

	matches := []CatchmentMatch{}
	for rows.Next() {
		var row matchRow
		if err := db.DB.ScanRows(rows, &row); err != nil {
			return nil, false, fmt.Errorf("scan catchment match: %w", err)
		}
		matches = append(matches, row.Match(stale))
	}

	return matches, stale, nil
}

// cachedMatchesForAddress reads the precomputed membership rows for one
// address. An empty result is not proof of non-membership: the address
// may postdate the last rebuild, so callers fall through to the live
// predicate when nothing is cached.
func cachedMatchesForAddress(ctx context.Context, gnafPID string) ([]CatchmentMatch, error) {
	query := fmt.Sprintf(`
		SELECT %s, c.id AS catchment_id, c.kind
		FROM schools.memberships m
		JOIN schools.catchments c ON c.id = m.catchment_id
		JOIN schools.schools s ON s.acara_id = m.school_id
		WHERE m.gnaf_pid = $1
		ORDER BY s.name, c.kind
	`, schoolFlagsSelect)

	rows, err := db.DB.WithContext(ctx).Raw(query, gnafPID).Rows()
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("cached memberships: %w", err))
	}
	defer rows.Close()

	var matches []CatchmentMatch
	for rows.Next() {
		var row matchRow
		if err := db.DB.ScanRows(rows, &row); err != nil {
			return nil, fmt.Errorf("scan cached match: %w", err)
		}
		matches = append(matches, row.Match(false))
	}
	return matches, nil
}

// SchoolsForAddress resolves catchment membership for a stored address,
// preferring the precomputed cache. Live evaluation takes over when the
// cache lags the boundary data or has no rows for the address (new
// addresses land there until the next rebuild). Ungeocoded addresses
// cannot be resolved.
func SchoolsForAddress(ctx context.Context, gnafPID string) ([]CatchmentMatch, bool, error) {
	addr, err := gnaf.LookupAddress(ctx, gnafPID)
	if err != nil {
		return nil, false, err
	}
	if !addr.Geocoded() {
		return nil, false, fmt.Errorf("address %s has no geocode: %w", gnafPID, qerr.ErrUngeocoded)
	}

	stale, err := membershipStale(ctx)
	if err != nil {
		return nil, false, err
	}
	if !stale {
		matches, err := cachedMatchesForAddress(ctx, gnafPID)
		if err != nil {
			return nil, false, err
		}
		if len(matches) > 0 {
			return matches, false, nil
		}
	}

	return SchoolsContaining(ctx, addr.Point())
}

// AddressesInCatchment pages through the precomputed membership set for
// one boundary, ordered by address id for stable paging.
func AddressesInCatchment(ctx context.Context, catchmentID uuid.UUID, limit, offset int) ([]gnaf.AddressOut, int64, bool, error) {
	if _, err := lookupCatchment(ctx, catchmentID); err != nil {
		return nil, 0, false, err
	}

	stale, err := membershipStale(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	var total int64
	err = db.DB.WithContext(ctx).
		Model(&Membership{}).
		Where("catchment_id = ?", catchmentID).
		Count(&total).Error
	if err != nil {
		return nil, 0, false, qerr.FromContext(fmt.Errorf("count memberships: %w", err))
	}

	var addrs []gnaf.Address
	err = db.DB.WithContext(ctx).Raw(`
		SELECT a.*
		FROM schools.memberships m
		JOIN gnaf.addresses a ON a.gnaf_pid = m.gnaf_pid
		WHERE m.catchment_id = $1
		ORDER BY a.gnaf_pid
		LIMIT $2 OFFSET $3
	`, catchmentID, limit, offset).Scan(&addrs).Error
	if err != nil {
		return nil, 0, false, qerr.FromContext(fmt.Errorf("addresses in catchment: %w", err))
	}

	out := make([]gnaf.AddressOut, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Out())
	}
	return out, total, stale, nil
}

// RebuildMembership recomputes the full address-to-catchment cache with
// one set-based containment join into a staging table, then swaps it in.
// Safe to re-run at any time; the result depends only on current data.
func RebuildMembership(ctx context.Context) (*Rebuild, error) {
	rec := &Rebuild{
		ID:        uuid.New(),
		Kind:      "membership",
		StartedAt: time.Now(),
	}

	if err := db.DB.WithContext(ctx).Exec(`DROP TABLE IF EXISTS schools.memberships_staging`).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("drop memberships staging: %w", err))
	}
	if err := db.DB.WithContext(ctx).Exec(`CREATE TABLE schools.memberships_staging (LIKE schools.memberships INCLUDING ALL)`).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("create memberships staging: %w", err))
	}

	computedAt := time.Now()
	res := db.DB.WithContext(ctx).Exec(`
		INSERT INTO schools.memberships_staging (catchment_id, gnaf_pid, school_id, computed_at)
		SELECT c.id, a.gnaf_pid, c.school_id, $1
		FROM schools.catchments c
		JOIN gnaf.addresses a
			ON a.geom IS NOT NULL
			AND a.geom && c.geom
			AND ST_Covers(c.geom, a.geom)
	`, computedAt)
	if res.Error != nil {
		return nil, qerr.FromContext(fmt.Errorf("compute memberships: %w", res.Error))
	}
	rec.Built = int(res.RowsAffected)
	rec.Processed = rec.Built

	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DROP TABLE schools.memberships`).Error; err != nil {
			return err
		}
		return tx.Exec(`ALTER TABLE schools.memberships_staging RENAME TO memberships`).Error
	})
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("swap memberships: %w", err))
	}

	now := time.Now()
	rec.CompletedAt = &now
	if err := db.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("record rebuild: %w", err))
	}

	log.Printf("[Membership] cache rebuilt: pairs=%d", rec.Built)
	return rec, nil
}
