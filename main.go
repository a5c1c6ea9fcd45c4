package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/SchoolRadar/SR-Backend/internal/autocomplete"
	"github.com/SchoolRadar/SR-Backend/internal/cache"
	"github.com/SchoolRadar/SR-Backend/internal/config"
	"github.com/SchoolRadar/SR-Backend/internal/db"
	"github.com/SchoolRadar/SR-Backend/internal/gnaf"
	"github.com/SchoolRadar/SR-Backend/internal/middleware"
	"github.com/SchoolRadar/SR-Backend/internal/schools"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db.Connect()
	cache.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	gnaf.Init(cfg)
	schools.Init(cfg)
	autocomplete.Init(cfg)

	// Load the in-memory address index in the background; nearest-address
	// queries return empty results until it is populated.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := schools.LoadAddressIndex(ctx); err != nil {
			log.Printf("[main] address index load failed: %v", err)
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.RequestsPerSecond, cfg.Burst))
	r.Use(middleware.DeadlineMiddleware(
		time.Duration(cfg.DefaultQueryTimeoutMS)*time.Millisecond,
		time.Duration(cfg.MaxQueryTimeoutMS)*time.Millisecond,
	))
	r.Get("/", RootHandler)

	r.Mount("/gnaf", gnaf.SetupRoutes())
	r.Mount("/schools", schools.SetupRoutes())
	r.Mount("/suggest", autocomplete.SetupRoutes())
	r.Mount("/admin", schools.SetupAdminRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
