package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/SchoolRadar/SR-Backend/internal/config"
	"github.com/SchoolRadar/SR-Backend/internal/db"
	"github.com/SchoolRadar/SR-Backend/internal/geo"
	"github.com/SchoolRadar/SR-Backend/internal/gnaf"
	"github.com/SchoolRadar/SR-Backend/internal/schools"
	"github.com/joho/godotenv"
)

// Diagnostic: resolve which catchments contain a point and list the
// closest addresses, without going through the HTTP surface. With
// -boundary the point is tested against a local GeoJSON file instead,
// no database needed, using the same boundary-inclusive rule.
func main() {
	lat := flag.Float64("lat", 0, "latitude")
	lng := flag.Float64("lng", 0, "longitude")
	radius := flag.Float64("radius", 0, "also list addresses within this many meters")
	boundary := flag.String("boundary", "", "test against a GeoJSON Polygon/MultiPolygon file, offline")
	flag.Parse()

	if *lat == 0 && *lng == 0 {
		log.Fatal("usage: check-point -lat -33.8688 -lng 151.2093 [-radius 500 | -boundary file.geojson]")
	}

	p := geo.Point{Lat: *lat, Lng: *lng}

	if *boundary != "" {
		checkBoundaryFile(p, *boundary)
		return
	}

	godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db.Connect()
	gnaf.Init(cfg)
	schools.Init(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	matches, stale, err := schools.SchoolsContaining(ctx, p)
	if err != nil {
		log.Fatalf("Containment query failed: %v", err)
	}

	fmt.Printf("Point %.6f,%.6f falls in %d catchment(s)", p.Lat, p.Lng, len(matches))
	if stale {
		fmt.Print(" [membership cache stale]")
	}
	fmt.Println()
	for _, m := range matches {
		fmt.Printf("  %-10s %-12s %s (%s %s)\n",
			m.School.AcaraID, m.Kind, m.School.Name, m.School.Suburb, m.School.State)
	}

	if *radius > 0 {
		addrs, total, err := gnaf.Within(ctx, p, *radius, gnaf.Filters{}, 20, 0)
		if err != nil {
			log.Fatalf("Radius query failed: %v", err)
		}
		fmt.Printf("\n%d address(es) within %.0fm (showing %d):\n", total, *radius, len(addrs))
		for _, a := range addrs {
			fmt.Printf("  %8.1fm  %s\n", *a.DistanceMeters, a.FullAddress)
		}
	}
}

func checkBoundaryFile(p geo.Point, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Read boundary: %v", err)
	}
	var mp geo.MultiPolygon
	if err := json.Unmarshal(data, &mp); err != nil {
		log.Fatalf("Parse boundary: %v", err)
	}
	if mp.Contains(p) {
		fmt.Printf("Point %.6f,%.6f is inside the boundary\n", p.Lat, p.Lng)
		return
	}
	fmt.Printf("Point %.6f,%.6f is outside the boundary\n", p.Lat, p.Lng)
	os.Exit(1)
}
