package riskimport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type importRequest struct {
	AnalysisID uint   `json:"analysis_id"`
	Path       string `json:"path"`
}

type eventImportRequest struct {
	RegionID     uint   `json:"region_id"`
	HazardTypeID uint   `json:"hazard_type_id"`
	Path         string `json:"path"`
}

// SetupRoutes mounts the import surface. Data and metadata imports are
// scheduled fire-and-forget and answer 202 with the job token; event imports
// run inline since they touch no analysis state.
func SetupRoutes(r *Runner) http.Handler {
	router := chi.NewRouter()
	router.Post("/data", scheduleHandler(r.ScheduleDataImport))
	router.Post("/metadata", scheduleHandler(r.ScheduleMetadataImport))
	router.Post("/events", eventsHandler(r))
	return router
}

func scheduleHandler(schedule func(ctx context.Context, analysisID uint, path string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.AnalysisID == 0 || req.Path == "" {
			http.Error(w, "analysis_id and path are required", http.StatusBadRequest)
			return
		}
		token, err := schedule(r.Context(), req.AnalysisID, req.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	}
}

func eventsHandler(runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.RegionID == 0 || req.HazardTypeID == 0 || req.Path == "" {
			http.Error(w, "region_id, hazard_type_id and path are required", http.StatusBadRequest)
			return
		}
		count, err := runner.ImportEvents(r.Context(), req.RegionID, req.HazardTypeID, req.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"imported": count})
	}
}
