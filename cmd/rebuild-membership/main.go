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

// Recomputes the address-to-catchment membership cache. Run after a
// catchment boundary update or an address reimport.
func main() {
	timeout := flag.Duration("timeout", time.Hour, "overall rebuild timeout")
	flag.Parse()

	godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db.Connect()
	gnaf.Init(cfg)
	schools.Init(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	rec, err := schools.RebuildMembership(ctx)
	if err != nil {
		log.Fatalf("Rebuild failed: %v", err)
	}

	fmt.Printf("Membership cache rebuilt in %s\n", time.Since(start).Round(time.Second))
	fmt.Printf("  pairs: %d\n", rec.Built)
}
