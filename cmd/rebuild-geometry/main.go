package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/SchoolRadar/SR-Backend/internal/config"
	"github.com/SchoolRadar/SR-Backend/internal/db"
	"github.com/SchoolRadar/SR-Backend/internal/gnaf"
	"github.com/SchoolRadar/SR-Backend/internal/schools"
	"github.com/joho/godotenv"
)

// Rebuilds every school's derived reach polygon. Run after a school
// import or a radius policy change.
func main() {
	radius := flag.Float64("radius", 0, "buffer radius in meters (default: configured value)")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall rebuild timeout")
	flag.Parse()

	godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *radius <= 0 {
		*radius = cfg.BufferRadiusMeters
	}

	db.Connect()
	gnaf.Init(cfg)
	schools.Init(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	rec, err := schools.RebuildBuffers(ctx, *radius)
	if err != nil {
		log.Fatalf("Rebuild failed: %v", err)
	}

	fmt.Printf("Buffers rebuilt in %s (radius %.0fm)\n", time.Since(start).Round(time.Second), *radius)
	fmt.Printf("  processed: %d\n", rec.Processed)
	fmt.Printf("  built:     %d\n", rec.Built)
	fmt.Printf("  skipped:   %d (no geocode)\n", rec.Skipped)
	fmt.Printf("  failed:    %d\n", rec.Failed)
	fmt.Printf("  catchment-attached: %d\n", rec.Attached)
}
