package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/scaphilo/risk-data-hub/internal/db"
	"github.com/scaphilo/risk-data-hub/internal/geoserver"
	"github.com/scaphilo/risk-data-hub/internal/middleware"
	"github.com/scaphilo/risk-data-hub/internal/riskimport"
	"github.com/scaphilo/risk-data-hub/internal/risks"
	"github.com/scaphilo/risk-data-hub/internal/settings"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg := settings.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	db.Connect(cfg.DatabaseURL)
	risks.Init()

	store := risks.NewStore(db.DB)
	scheduler := risks.NewScheduler(store.AnalysisStates())
	source := geoserver.NewClient(cfg.GeoserverURL, cfg.GeoserverUser, cfg.GeoserverPassword)
	handlers := risks.NewHandlers(store, source, scheduler, cfg)
	runner := riskimport.NewRunner(store, scheduler)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/risks", risks.SetupRoutes(handlers, riskimport.SetupRoutes(runner)))

	fmt.Printf("Server listening on port :%s...\n", cfg.Port)

	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
