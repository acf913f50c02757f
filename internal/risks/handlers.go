package risks

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/scaphilo/risk-data-hub/internal/settings"
)

// Handlers serves the risk catalog. Every dependency is injected at startup;
// handlers hold no mutable state of their own.
type Handlers struct {
	store     *Store
	source    FeatureSource
	scheduler *Scheduler
	cfg       settings.Settings
}

func NewHandlers(store *Store, source FeatureSource, scheduler *Scheduler, cfg settings.Settings) *Handlers {
	return &Handlers{store: store, source: source, scheduler: scheduler, cfg: cfg}
}

// requesterGroups reads the caller's group memberships from the gateway
// header. Authentication itself happens upstream.
func requesterGroups(r *http.Request) []string {
	raw := r.Header.Get("X-User-Groups")
	if raw == "" {
		return nil
	}
	var groups []string
	for _, g := range strings.Split(raw, ",") {
		g = strings.TrimSpace(g)
		if g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// authorize runs the ownership gate; requesters presenting the configured
// country-admin group see everything.
func (h *Handlers) authorize(analysis *RiskAnalysis, groups []string) error {
	if h.cfg.CountryAdminGroup != "" {
		for _, g := range groups {
			if g == h.cfg.CountryAdminGroup {
				return nil
			}
		}
	}
	return checkAccess(analysis, groups)
}

// checkAccess enforces the ownership gate: an analysis with owner groups is
// visible only to requesters presenting one of them.
func checkAccess(analysis *RiskAnalysis, groups []string) error {
	if len(analysis.OwnerGroups) == 0 {
		return nil
	}
	for _, owner := range analysis.OwnerGroups {
		for _, g := range groups {
			if g == owner {
				return nil
			}
		}
	}
	return ErrForbidden
}

// locationContext is the resolved request scope shared by the nested routes.
type locationContext struct {
	App      *RiskApp
	Region   *Region
	Division *AdministrativeDivision
	Ancestry []AdministrativeDivision
}

func (h *Handlers) resolveLocation(ctx context.Context, appName, locCode string) (*locationContext, error) {
	app, err := h.store.AppByName(ctx, appName)
	if err != nil {
		return nil, err
	}
	region, err := h.store.RegionByName(ctx, h.cfg.DefaultRegion)
	if err != nil {
		return nil, err
	}
	div, err := h.store.DivisionByCode(ctx, locCode)
	if err != nil {
		return nil, err
	}
	ancestry, err := h.store.DivisionAncestry(ctx, div)
	if err != nil {
		return nil, err
	}
	return &locationContext{App: app, Region: region, Division: div, Ancestry: ancestry}, nil
}

func exportLocation(div *AdministrativeDivision, ancestry []AdministrativeDivision) LocationExport {
	out := LocationExport{Code: div.Code, Name: div.Name, Level: div.Level}
	for _, p := range ancestry {
		out.Parents = append(out.Parents, LocationExport{Code: p.Code, Name: p.Name, Level: p.Level})
	}
	return out
}

// navItems renders the breadcrumb chain, outermost division first.
func navItems(app string, div *AdministrativeDivision, ancestry []AdministrativeDivision) []map[string]any {
	chain := make([]*AdministrativeDivision, 0, len(ancestry)+1)
	for i := len(ancestry) - 1; i >= 0; i-- {
		chain = append(chain, &ancestry[i])
	}
	chain = append(chain, div)

	items := make([]map[string]any, 0, len(chain))
	for _, d := range chain {
		items = append(items, map[string]any{
			"label": d.Name,
			"href":  fmt.Sprintf("/risks/%s/loc/%s", app, d.Code),
		})
	}
	return items
}

// Location serves the entry view for one administrative division: its
// breadcrumb chain and the hazard types with data in the active region.
func (h *Handlers) Location(w http.ResponseWriter, r *http.Request) {
	loc, err := h.resolveLocation(r.Context(), chi.URLParam(r, "app"), chi.URLParam(r, "loc"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	hts, err := h.store.HazardTypesFor(r.Context(), loc.App.ID, loc.Region.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	overview := make([]map[string]any, 0, len(hts))
	for _, ht := range hts {
		overview = append(overview, map[string]any{
			"mnemonic":    ht.Mnemonic,
			"title":       ht.Title,
			"description": ht.Description,
			"fa_class":    ht.FAClass,
			"href":        fmt.Sprintf("/risks/%s/loc/%s/ht/%s", loc.App.Name, loc.Division.Code, ht.Mnemonic),
		})
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, map[string]any{
		"navItems":     navItems(loc.App.Name, loc.Division, loc.Ancestry),
		"location":     exportLocation(loc.Division, loc.Ancestry),
		"overview":     overview,
		"app":          loc.App.Name,
		"region":       loc.Region.Name,
		"geoserverUrl": h.cfg.PublicGeoserverURL,
	})
}

// HazardTypeView lists the analysis types available for one hazard type at a
// location, with scoped further resources.
func (h *Handlers) HazardTypeView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc, err := h.resolveLocation(ctx, chi.URLParam(r, "app"), chi.URLParam(r, "loc"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ht, err := h.store.HazardTypeByMnemonic(ctx, loc.App.ID, chi.URLParam(r, "ht"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ats, err := h.store.AnalysisTypesFor(ctx, loc.App.ID, ht.ID, loc.Region.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	exports := make([]AnalysisTypeExport, 0, len(ats))
	for _, at := range ats {
		e := AnalysisTypeExport{
			Name:        at.Name,
			Title:       at.Title,
			Description: at.Description,
			FAIcon:      at.FAIcon,
			Href:        fmt.Sprintf("/risks/%s/loc/%s/ht/%s/at/%s", loc.App.Name, loc.Division.Code, ht.Mnemonic, at.Name),
		}
		if at.AnalysisClass != nil {
			e.AnalysisClass = at.AnalysisClass.Name
		}
		exports = append(exports, e)
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, map[string]any{
		"navItems": navItems(loc.App.Name, loc.Division, loc.Ancestry),
		"location": exportLocation(loc.Division, loc.Ancestry),
		"hazardType": HazardTypeExport{
			Mnemonic:      ht.Mnemonic,
			Title:         ht.Title,
			Description:   ht.Description,
			FAClass:       ht.FAClass,
			AnalysisTypes: exports,
		},
	})
}

// AnalysisTypeView lists the analyses of one (hazard type, analysis type)
// pair covering the requested division.
func (h *Handlers) AnalysisTypeView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc, err := h.resolveLocation(ctx, chi.URLParam(r, "app"), chi.URLParam(r, "loc"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ht, err := h.store.HazardTypeByMnemonic(ctx, loc.App.ID, chi.URLParam(r, "ht"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	at, err := h.store.AnalysisTypeByName(ctx, loc.App.ID, chi.URLParam(r, "at"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	analyses, err := h.store.AnalysesFor(ctx, loc.App.ID, ht.ID, at.ID, loc.Division.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	groups := requesterGroups(r)
	cards := make([]AnalysisExport, 0, len(analyses))
	for i := range analyses {
		a := &analyses[i]
		if err := h.authorize(a, groups); err != nil {
			continue // hidden, not an error for the listing
		}
		card := AnalysisExport{
			ID:            a.ID,
			Name:          a.Name,
			UnitOfMeasure: a.UnitOfMeasure,
			FAIcon:        at.FAIcon,
			AnalysisType:  at.Name,
			HazardType:    ht.Mnemonic,
			DataFile:      a.DataFile,
			MetadataFile:  a.MetadataFile,
			Layer:         LayerExport{LayerName: a.LayerName, LayerStyle: a.StyleName},
			ReferenceLayer: LayerExport{
				LayerName:  a.ReferenceLayerName,
				LayerStyle: a.ReferenceStyleName,
			},
			AdditionalLayers: a.AdditionalLayers,
			Href: fmt.Sprintf("/risks/%s/loc/%s/ht/%s/at/%s/an/%d",
				loc.App.Name, loc.Division.Code, ht.Mnemonic, at.Name, a.ID),
		}
		if a.HazardSet != nil {
			card.Title = a.HazardSet.Title
		}
		cards = append(cards, card)
	}

	resources, err := h.store.AnalysisTypeResources(ctx, at.ID, loc.Region.ID, ht.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, map[string]any{
		"navItems":         navItems(loc.App.Name, loc.Division, loc.Ancestry),
		"location":         exportLocation(loc.Division, loc.Ancestry),
		"hazardType":       map[string]any{"mnemonic": ht.Mnemonic, "title": ht.Title},
		"analysisType":     map[string]any{"name": at.Name, "title": at.Title, "description": at.Description},
		"riskAnalyses":     cards,
		"furtherResources": resources,
	})
}

// DataExtraction is the core serving operation: resolve the analysis' axis
// bindings, fetch its feature layer filtered to the requested location, and
// reshape the rows into the dimensional table. The optional dym query
// parameter promotes a different dimension to primary.
func (h *Handlers) DataExtraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc, err := h.resolveLocation(ctx, chi.URLParam(r, "app"), chi.URLParam(r, "loc"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ht, err := h.store.HazardTypeByMnemonic(ctx, loc.App.ID, chi.URLParam(r, "ht"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	at, err := h.store.AnalysisTypeByName(ctx, loc.App.ID, chi.URLParam(r, "at"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	analysisID, err := strconv.ParseUint(chi.URLParam(r, "an"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid analysis id", http.StatusBadRequest)
		return
	}
	analysis, err := h.store.AnalysisByID(ctx, uint(analysisID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.authorize(analysis, requesterGroups(r)); err != nil {
		writeDomainError(w, err)
		return
	}

	mapping, err := BuildFieldMapping(analysis, AxisX)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if dym := r.URL.Query().Get("dym"); dym != "" {
		id, err := strconv.ParseUint(dym, 10, 32)
		if err != nil {
			http.Error(w, "Invalid dym parameter", http.StatusBadRequest)
			return
		}
		mapping.Promote(uint(id))
	}

	attributes := make([]string, 0, 2*len(mapping.Dimensions)+1)
	for _, d := range mapping.Dimensions {
		attributes = append(attributes, d.ValueColumn, d.OrderColumn)
	}
	attributes = append(attributes, "value")

	filters := map[string]string{
		"risk_analysis": analysis.Name,
		"hazard_type":   ht.Mnemonic,
		"adm_code":      loc.Division.Code,
	}
	features, err := h.source.Fetch(ctx, mapping.Layers[0], attributes, filters)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	data, err := Reshape(analysis, mapping, features, false)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dimResources := map[string][]FurtherResource{}
	for _, d := range mapping.Dimensions {
		res, err := h.store.DimensionResources(ctx, d.Info.ID, loc.Region.ID, analysis.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if len(res) > 0 {
			dimResources[d.Info.Name] = res
		}
	}

	var hazardSetResources []FurtherResource
	if analysis.HazardSet != nil {
		hazardSetResources, err = h.store.HazardSetResources(ctx, analysis.HazardSet.ID, loc.Region.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	payload := map[string]any{
		"navItems":     navItems(loc.App.Name, loc.Division, loc.Ancestry),
		"location":     exportLocation(loc.Division, loc.Ancestry),
		"hazardType":   map[string]any{"mnemonic": ht.Mnemonic, "title": ht.Title},
		"analysisType": map[string]any{"name": at.Name, "title": at.Title},
		"riskAnalysisData": map[string]any{
			"id":                 analysis.ID,
			"name":               analysis.Name,
			"unitOfMeasure":      analysis.UnitOfMeasure,
			"state":              analysis.State,
			"hazardSet":          analysis.HazardSet,
			"hazardSetResources": hazardSetResources,
			"additionalData":     analysis.AdditionalData,
			"data":               data,
		},
		"wms": map[string]any{
			"geoserverUrl": h.cfg.PublicGeoserverURL,
			"layers":       []string{analysis.LayerName},
			"styles":       []string{analysis.StyleName},
			"viewparams":   Viewparams(filters),
		},
		"furtherResources": dimResources,
		"pdfReport": fmt.Sprintf("/risks/%s/loc/%s/ht/%s/at/%s/an/%d/report",
			loc.App.Name, loc.Division.Code, ht.Mnemonic, at.Name, analysis.ID),
	}

	if at.AnalysisClass != nil && at.AnalysisClass.Name == ClassEvent {
		events, err := h.eventBlock(ctx, analysis, ht, loc, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		payload["events"] = events
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, payload)
}

// AdmLookup searches administrative divisions by code or name.
func (h *Handlers) AdmLookup(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	if query == "" {
		http.Error(w, "Missing query", http.StatusBadRequest)
		return
	}
	divs, err := h.store.SearchDivisions(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	matches := make([]LocationExport, 0, len(divs))
	for i := range divs {
		matches = append(matches, LocationExport{Code: divs[i].Code, Name: divs[i].Name, Level: divs[i].Level})
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, map[string]any{"matches": matches})
}

// AdmLookupDetail resolves one division, then walks its parent chain and
// lists every analysis attached at each level, innermost first, with a link
// into data extraction.
func (h *Handlers) AdmLookupDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app := chi.URLParam(r, "app")
	div, err := h.store.DivisionByCode(ctx, chi.URLParam(r, "query"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ancestry, err := h.store.DivisionAncestry(ctx, div)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	chain := append([]AdministrativeDivision{*div}, ancestry...)
	entries, err := lookupWalk(app, chain, func(divisionID uint) ([]RiskAnalysis, error) {
		return h.store.AnalysesForDivision(ctx, divisionID)
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, map[string]any{
		"location": exportLocation(div, ancestry),
		"analyses": entries,
	})
}

// Report serves the descriptor an external renderer turns into the PDF
// report: the analysis card plus the wms block for the map snapshot.
// The rendering itself happens outside this service.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc, err := h.resolveLocation(ctx, chi.URLParam(r, "app"), chi.URLParam(r, "loc"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ht, err := h.store.HazardTypeByMnemonic(ctx, loc.App.ID, chi.URLParam(r, "ht"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	at, err := h.store.AnalysisTypeByName(ctx, loc.App.ID, chi.URLParam(r, "at"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	analysisID, err := strconv.ParseUint(chi.URLParam(r, "an"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid analysis id", http.StatusBadRequest)
		return
	}
	analysis, err := h.store.AnalysisByID(ctx, uint(analysisID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.authorize(analysis, requesterGroups(r)); err != nil {
		writeDomainError(w, err)
		return
	}

	filters := map[string]string{
		"risk_analysis": analysis.Name,
		"hazard_type":   ht.Mnemonic,
		"adm_code":      loc.Division.Code,
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, map[string]any{
		"location":     exportLocation(loc.Division, loc.Ancestry),
		"hazardType":   map[string]any{"mnemonic": ht.Mnemonic, "title": ht.Title},
		"analysisType": map[string]any{"name": at.Name, "title": at.Title},
		"riskAnalysis": map[string]any{
			"id":            analysis.ID,
			"name":          analysis.Name,
			"unitOfMeasure": analysis.UnitOfMeasure,
			"hazardSet":     analysis.HazardSet,
		},
		"wms": map[string]any{
			"geoserverUrl": h.cfg.PublicGeoserverURL,
			"layers":       []string{analysis.LayerName},
			"styles":       []string{analysis.StyleName},
			"viewparams":   Viewparams(filters),
		},
	})
}

// Geometry serves a division boundary as a GeoJSON feature.
func (h *Handlers) Geometry(w http.ResponseWriter, r *http.Request) {
	div, err := h.store.DivisionByCode(r.Context(), chi.URLParam(r, "loc"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if div.Geom == "" {
		http.Error(w, "No geometry stored for this division", http.StatusNotFound)
		return
	}
	geom, err := wkt.Unmarshal(div.Geom)
	if err != nil {
		writeDomainError(w, fmt.Errorf("parse geometry for %s: %w", div.Code, err))
		return
	}
	feature := geojson.NewFeature(geom)
	feature.Properties = geojson.Properties{
		"code":  div.Code,
		"name":  div.Name,
		"level": div.Level,
		"srid":  div.SRID,
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeJSON(w, feature)
}

// JobStatus reports one background job by its token.
func (h *Handlers) JobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := h.scheduler.Lookup(chi.URLParam(r, "token"))
	if !ok {
		http.Error(w, "Unknown job token", http.StatusNotFound)
		return
	}
	writeJSON(w, job)
}
