package gnaf

import (
	"log"

	"github.com/SchoolRadar/SR-Backend/internal/config"
	"github.com/SchoolRadar/SR-Backend/internal/db"
)

// ranking orders confidence bands per the loaded policy. Set once in Init.
var ranking Ranking

// defaultRadiusMeters is the radius used when a proximity query omits one.
var defaultRadiusMeters float64

// Init prepares the gnaf schema and wires the confidence policy.
func Init(cfg config.Config) {
	ranking = NewRanking(cfg.ConfidenceRanking)
	defaultRadiusMeters = cfg.BufferRadiusMeters

	if err := db.EnsureSchema(db.DB, "gnaf"); err != nil {
		log.Fatal("Failed to ensure schema gnaf: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error; err != nil {
		log.Fatal("Failed to enable postgis extension: ", err)
	}

	if err := db.DB.AutoMigrate(&Address{}); err != nil {
		log.Fatal("Failed to auto-migrate gnaf tables: ", err)
	}

	// AutoMigrate cannot express a GIST index, and the radius search is
	// a sequential scan without one.
	if err := db.DB.Exec(`
		CREATE INDEX IF NOT EXISTS addresses_geom_gist
		ON gnaf.addresses USING GIST (geom)
	`).Error; err != nil {
		log.Fatal("Failed to create addresses_geom_gist: ", err)
	}
}

// ActiveRanking exposes the loaded confidence policy to other packages.
func ActiveRanking() Ranking {
	return ranking
}
