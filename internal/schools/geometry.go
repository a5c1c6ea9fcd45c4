package schools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/SchoolRadar/SR-Backend/internal/db"
	"github.com/SchoolRadar/SR-Backend/internal/geo"
	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// bufferSegments controls the circle approximation. 64 keeps the radius
// error well under the 1% the distance maths already tolerates.
const bufferSegments = 64

// buildBufferGeoJSON computes the reach polygon for a school point.
func buildBufferGeoJSON(center geo.Point, radiusMeters float64) ([]byte, error) {
	poly := geo.Buffer(center, radiusMeters, bufferSegments)
	return json.Marshal(poly)
}

// BufferForSchool returns the stored reach polygon as GeoJSON along with
// the school point it was built around. Schools without a geocode cannot
// have one.
func BufferForSchool(ctx context.Context, acaraID string) (*Buffer, json.RawMessage, geo.Point, error) {
	s, err := lookupSchoolRecord(ctx, acaraID)
	if err != nil {
		return nil, nil, geo.Point{}, err
	}
	if !s.Geocoded() {
		return nil, nil, geo.Point{}, fmt.Errorf("school %s has no geocode: %w", acaraID, qerr.ErrUngeocoded)
	}

	var row struct {
		Buffer
		GeoJSON string
	}
	err = db.DB.WithContext(ctx).Raw(`
		SELECT school_id, radius_meters, built_at, ST_AsGeoJSON(geom) AS geo_json
		FROM schools.buffers
		WHERE school_id = $1
	`, acaraID).Scan(&row).Error
	if err != nil {
		return nil, nil, geo.Point{}, qerr.FromContext(fmt.Errorf("buffer for school: %w", err))
	}
	if row.SchoolID == "" {
		return nil, nil, geo.Point{}, fmt.Errorf("buffer for school %s: %w", acaraID, qerr.ErrNotFound)
	}
	return &row.Buffer, json.RawMessage(row.GeoJSON), s.Point(), nil
}

// RebuildBuffers regenerates every school's reach polygon into a staging
// table and swaps it in atomically, so readers never observe a partially
// rebuilt set. Returns the recorded rebuild with its outcome counts.
func RebuildBuffers(ctx context.Context, radiusMeters float64) (*Rebuild, error) {
	rec := &Rebuild{
		ID:        uuid.New(),
		Kind:      "buffers",
		StartedAt: time.Now(),
	}

	var all []School
	if err := db.DB.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("load schools: %w", err))
	}

	var withCatchment []string
	if err := db.DB.WithContext(ctx).Raw(`
		SELECT DISTINCT school_id FROM schools.catchments
	`).Scan(&withCatchment).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("load catchment links: %w", err))
	}
	hasCatchment := make(map[string]bool, len(withCatchment))
	for _, id := range withCatchment {
		hasCatchment[id] = true
	}

	if err := db.DB.WithContext(ctx).Exec(`DROP TABLE IF EXISTS schools.buffers_staging`).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("drop buffers staging: %w", err))
	}
	if err := db.DB.WithContext(ctx).Exec(`CREATE TABLE schools.buffers_staging (LIKE schools.buffers INCLUDING ALL)`).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("create buffers staging: %w", err))
	}

	builtAt := time.Now()
	for _, s := range all {
		rec.Processed++
		if hasCatchment[s.AcaraID] {
			rec.Attached++
		}
		if !s.Geocoded() {
			rec.Skipped++
			continue
		}

		gj, err := buildBufferGeoJSON(s.Point(), radiusMeters)
		if err != nil {
			log.Printf("[Geometry] buffer for %s failed: %v", s.AcaraID, err)
			rec.Failed++
			continue
		}

		err = db.DB.WithContext(ctx).Exec(`
			INSERT INTO schools.buffers_staging (school_id, radius_meters, geom, built_at)
			VALUES ($1, $2, ST_SetSRID(ST_GeomFromGeoJSON($3), 4326), $4)
		`, s.AcaraID, radiusMeters, string(gj), builtAt).Error
		if err != nil {
			log.Printf("[Geometry] insert buffer for %s failed: %v", s.AcaraID, err)
			rec.Failed++
			continue
		}
		rec.Built++
	}

	// Swap staging in under one transaction; DDL is transactional in
	// Postgres so a crash mid-swap leaves the old table intact.
	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DROP TABLE schools.buffers`).Error; err != nil {
			return err
		}
		return tx.Exec(`ALTER TABLE schools.buffers_staging RENAME TO buffers`).Error
	})
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("swap buffers: %w", err))
	}

	now := time.Now()
	rec.CompletedAt = &now
	if err := db.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("record rebuild: %w", err))
	}

	log.Printf("[Geometry] buffers rebuilt: processed=%d built=%d skipped=%d failed=%d catchment-attached=%d",
		rec.Processed, rec.Built, rec.Skipped, rec.Failed, rec.Attached)
	return rec, nil
}

// lastRebuild returns the most recent completed rebuild of a kind, nil
// if none has ever run.
func lastRebuild(ctx context.Context, kind string) (*Rebuild, error) {
	var r Rebuild
	err := db.DB.WithContext(ctx).
		Where("kind = ? AND completed_at IS NOT NULL", kind).
		Order("completed_at DESC").
		Limit(1).
		Find(&r).Error
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("last rebuild: %w", err))
	}
	if r.ID == uuid.Nil {
		return nil, nil
	}
	return &r, nil
}
