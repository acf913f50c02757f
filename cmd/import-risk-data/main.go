// Command import-risk-data runs one import job to completion from the shell:
// spreadsheet data or metadata for an analysis, or an event registry for a
// region and hazard type.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/scaphilo/risk-data-hub/internal/db"
	"github.com/scaphilo/risk-data-hub/internal/riskimport"
	"github.com/scaphilo/risk-data-hub/internal/risks"
	"github.com/scaphilo/risk-data-hub/internal/settings"
)

func main() {
	var (
		mode         = flag.String("mode", "data", "import mode: data, metadata or events")
		analysisID   = flag.Uint("analysis", 0, "risk analysis id (data/metadata modes)")
		regionID     = flag.Uint("region", 0, "region id (events mode)")
		hazardTypeID = flag.Uint("hazard-type", 0, "hazard type id (events mode)")
		path         = flag.String("file", "", "path to the xlsx workbook")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("-file is required")
	}

	_ = godotenv.Load(".env.local")
	cfg := settings.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db.Connect(cfg.DatabaseURL)
	risks.Init()

	store := risks.NewStore(db.DB)
	scheduler := risks.NewScheduler(store.AnalysisStates())
	runner := riskimport.NewRunner(store, scheduler)
	ctx := context.Background()

	switch *mode {
	case "data":
		if *analysisID == 0 {
			log.Fatal("-analysis is required for data imports")
		}
		token, err := runner.ScheduleDataImport(ctx, *analysisID, *path)
		if err != nil {
			log.Fatalf("❌ Import failed: %v", err)
		}
		scheduler.Wait()
		report(scheduler, token)
	case "metadata":
		if *analysisID == 0 {
			log.Fatal("-analysis is required for metadata imports")
		}
		token, err := runner.ScheduleMetadataImport(ctx, *analysisID, *path)
		if err != nil {
			log.Fatalf("❌ Import failed: %v", err)
		}
		scheduler.Wait()
		report(scheduler, token)
	case "events":
		if *regionID == 0 || *hazardTypeID == 0 {
			log.Fatal("-region and -hazard-type are required for event imports")
		}
		count, err := runner.ImportEvents(ctx, *regionID, *hazardTypeID, *path)
		if err != nil {
			log.Fatalf("❌ Import failed after %d events: %v", count, err)
		}
		log.Printf("✅ Imported %d events", count)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func report(scheduler *risks.Scheduler, token string) {
	job, ok := scheduler.Lookup(token)
	if !ok {
		log.Fatalf("job %s vanished from the registry", token)
	}
	if job.Status == risks.StateError {
		log.Fatalf("❌ Import failed: %s", job.Error)
	}
	log.Printf("✅ Import finished with state %s", job.Status)
}
