package schools

import (
	"log"

	"github.com/SchoolRadar/SR-Backend/internal/config"
	"github.com/SchoolRadar/SR-Backend/internal/db"
)

// defaultRadius and candidateCap come from the loaded policy. Set once
// in Init.
var (
	defaultRadius float64
	candidateCap  int
)

// Init prepares the schools schema and wires the proximity policy.
func Init(cfg config.Config) {
	defaultRadius = cfg.BufferRadiusMeters
	candidateCap = cfg.ProximityCandidateCap

	if err := db.EnsureSchema(db.DB, "schools"); err != nil {
		log.Fatal("Failed to ensure schema schools: ", err)
	}

	if err := db.DB.AutoMigrate(
		&School{},
		&Catchment{},
		&Buffer{},
		&Membership{},
		&Rebuild{},
	); err != nil {
		log.Fatal("Failed to auto-migrate schools tables: ", err)
	}

	for name, stmt := range map[string]string{
		"schools_geom_gist":    `CREATE INDEX IF NOT EXISTS schools_geom_gist ON schools.schools USING GIST (geom)`,
		"catchments_geom_gist": `CREATE INDEX IF NOT EXISTS catchments_geom_gist ON schools.catchments USING GIST (geom)`,
		"buffers_geom_gist":    `CREATE INDEX IF NOT EXISTS buffers_geom_gist ON schools.buffers USING GIST (geom)`,
	} {
		if err := db.DB.Exec(stmt).Error; err != nil {
			log.Fatalf("Failed to create %s: %v", name, err)
		}
	}
}
