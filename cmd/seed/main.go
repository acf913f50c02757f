package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/scaphilo/risk-data-hub/internal/db"
	"github.com/scaphilo/risk-data-hub/internal/risks"
	"github.com/scaphilo/risk-data-hub/internal/seeds"
	"github.com/scaphilo/risk-data-hub/internal/settings"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg := settings.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db.Connect(cfg.DatabaseURL)
	risks.Init()

	if err := seeds.SeedAll(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
