package risks

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the catalog's serving surface. Every route is public
// read; the ownership gate inside the handlers hides restricted analyses.
// importRoutes, when non-nil, is mounted under /import.
func SetupRoutes(h *Handlers, importRoutes http.Handler) http.Handler {
	r := chi.NewRouter()

	if importRoutes != nil {
		r.Mount("/import", importRoutes)
	}

	r.Get("/{app}/loc/{loc}", h.Location)
	r.Get("/{app}/loc/{loc}/ht/{ht}", h.HazardTypeView)
	r.Get("/{app}/loc/{loc}/ht/{ht}/at/{at}", h.AnalysisTypeView)
	r.Get("/{app}/loc/{loc}/ht/{ht}/at/{at}/an/{an}", h.DataExtraction)
	r.Get("/{app}/loc/{loc}/ht/{ht}/at/{at}/an/{an}/report", h.Report)
	r.Get("/{app}/loc/{loc}/ht/{ht}/an/{an}/evt/{evt}/lvl/{lvl}", h.EventView)
	r.Get("/{app}/ht/{ht}/evt/{evt}/details", h.EventDetails)

	r.Get("/{app}/adm_lookup/{query}", h.AdmLookup)
	r.Get("/{app}/adm_lookup/{query}/detail", h.AdmLookupDetail)
	r.Get("/{app}/geom/{loc}", h.Geometry)

	r.Get("/jobs/{token}", h.JobStatus)

	return r
}
