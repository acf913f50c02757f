package risks

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// eventOverviewThreshold separates notable impact rows from background noise
// in the event details overview.
const eventOverviewThreshold = 1.5

// eventExport is one event row in a listing, with the aggregated measure for
// the listing's analysis when the event group layer carries one.
type eventExport struct {
	EventID   string  `json:"event_id"`
	BeginDate string  `json:"begin_date"`
	EndDate   string  `json:"end_date"`
	Year      int     `json:"year"`
	EventType string  `json:"event_type"`
	Cause     string  `json:"cause"`
	Sources   string  `json:"sources"`
	ISO2      string  `json:"iso2"`
	Value     float64 `json:"value"`
	Href      string  `json:"href"`
}

// eventBlock assembles the event listing attached to an event-class
// analysis: the most recent events touching the division (optionally
// narrowed to a date range) with the per-event aggregated measure.
func (h *Handlers) eventBlock(ctx context.Context, analysis *RiskAnalysis, ht *HazardType, loc *locationContext, from, to string) (map[string]any, error) {
	events, err := h.store.EventsFor(ctx, ht.ID, loc.Division.ID)
	if err != nil {
		return nil, err
	}
	events = filterEventsByDate(events, from, to)

	filters := map[string]string{
		"risk_analysis": analysis.Name,
		"hazard_type":   ht.Mnemonic,
		"adm_code":      loc.Division.Code,
		"level":         strconv.Itoa(loc.Division.Level),
	}
	features, err := h.source.Fetch(ctx, LayerEventGroup, nil, filters)
	if err != nil {
		return nil, err
	}
	measures := make(map[string]float64, len(features))
	for _, f := range features {
		id, _ := f.Properties["event_id"].(string)
		if id == "" {
			continue
		}
		measures[id] = floatProperty(f.Properties, "value")
	}

	exports := make([]eventExport, 0, len(events))
	for _, ev := range events {
		exports = append(exports, eventExport{
			EventID:   ev.EventID,
			BeginDate: ev.BeginDate.Format("2006-01-02"),
			EndDate:   ev.EndDate.Format("2006-01-02"),
			Year:      ev.Year,
			EventType: ev.EventType,
			Cause:     ev.Cause,
			Sources:   ev.Sources,
			ISO2:      ev.ISO2,
			Value:     measures[ev.EventID],
			Href: fmt.Sprintf("/risks/%s/loc/%s/ht/%s/an/%d/evt/%s/lvl/%d",
				loc.App.Name, loc.Division.Code, ht.Mnemonic, analysis.ID, ev.EventID, loc.Division.Level),
		})
	}

	return map[string]any{
		"data":         exports,
		"total_events": len(exports),
	}, nil
}

func filterEventsByDate(events []Event, from, to string) []Event {
	fromT, okFrom := parseDay(from)
	toT, okTo := parseDay(to)
	if !okFrom && !okTo {
		return events
	}
	var out []Event
	for _, ev := range events {
		if okFrom && ev.EndDate.Before(fromT) {
			continue
		}
		if okTo && ev.BeginDate.After(toT) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func floatProperty(props map[string]any, name string) float64 {
	switch v := props[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// EventView serves one event's values for one analysis at one aggregation
// level, straight from the event location layer.
func (h *Handlers) EventView(w http.ResponseWriter, r *http.Request) {
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
	event, err := h.store.EventByID(ctx, chi.URLParam(r, "evt"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	mapping, err := BuildFieldMapping(analysis, AxisX)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filters := map[string]string{
		"risk_analysis": analysis.Name,
		"hazard_type":   ht.Mnemonic,
		"event_id":      event.EventID,
		"adm_code":      loc.Division.Code,
		"level":         chi.URLParam(r, "lvl"),
	}
	features, err := h.source.Fetch(ctx, LayerEventLocation, nil, filters)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	data, err := Reshape(analysis, mapping, features, false)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, map[string]any{
		"location": exportLocation(loc.Division, loc.Ancestry),
		"event":    event,
		"data":     data,
		"wms": map[string]any{
			"geoserverUrl": h.cfg.PublicGeoserverURL,
			"layers":       []string{LayerEventLocation},
			"viewparams":   Viewparams(filters),
		},
	})
}

// EventDetails serves the correlation view for one event: the event's
// divisions with their indicator data, the reshaped impact table of every
// analysis flagged for event details, each merged with its risk-side
// counterpart analyses via the e_/r_ naming convention.
func (h *Handlers) EventDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, err := h.store.AppByName(ctx, chi.URLParam(r, "app"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ht, err := h.store.HazardTypeByMnemonic(ctx, app.ID, chi.URLParam(r, "ht"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	event, err := h.store.EventByID(ctx, chi.URLParam(r, "evt"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The event's divisions, plus the coarser named groups they map onto.
	divisions, err := h.store.DivisionsByCodes(ctx, splitCodes(event.NUTS3))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	mappings, err := h.store.MappingsByCodes(ctx, splitCodes(event.NUTS3))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	groupNames := make([]string, 0, len(mappings))
	seenGroups := map[string]bool{}
	for _, m := range mappings {
		if !seenGroups[m.Name] {
			seenGroups[m.Name] = true
			groupNames = append(groupNames, m.Name)
		}
	}

	adminData := make(map[string][]AdministrativeDivisionData, len(divisions))
	for _, d := range divisions {
		rows, err := h.store.AdministrativeDataFor(ctx, d.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if len(rows) > 0 {
			adminData[d.Code] = rows
		}
	}

	candidates, err := h.store.EventDetailAnalyses(ctx, ht.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	allTypes, err := h.store.AnalysisTypesByApp(ctx, app.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	groups := requesterGroups(r)
	tables := make([]map[string]any, 0, len(candidates))
	var overview []map[string]any
	for i := range candidates {
		a := &candidates[i]
		if h.authorize(a, groups) != nil {
			continue
		}
		full, err := h.store.AnalysisByID(ctx, a.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		data, err := h.eventDetailTable(ctx, full, ht, event)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		merged := data.Values
		if counterpart := RelatedAnalysisType(&full.AnalysisType, allTypes); counterpart != nil {
			related := RelatedAnalyses(candidates, ht.ID, primaryDimValues(data), counterpart.ID, event)
			for j := range related {
				rel, err := h.store.AnalysisByID(ctx, related[j].ID)
				if err != nil {
					writeDomainError(w, err)
					return
				}
				relData, err := h.groupedValuesTable(ctx, rel, ht, event)
				if err != nil {
					writeDomainError(w, err)
					return
				}
				merged = MergeValues(merged, relData.Values)
			}
		}

		for _, row := range merged {
			if len(row) == 0 {
				continue
			}
			if floatCell(row[len(row)-1]) >= eventOverviewThreshold {
				overview = append(overview, map[string]any{
					"analysis": full.Name,
					"row":      row,
				})
			}
		}

		tables = append(tables, map[string]any{
			"id":            full.ID,
			"name":          full.Name,
			"analysisType":  full.AnalysisType.Name,
			"unitOfMeasure": full.UnitOfMeasure,
			"dimensions":    data.Dimensions,
			"values":        merged,
		})
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, map[string]any{
		"event":              event,
		"divisions":          divisions,
		"divisionGroups":     groupNames,
		"administrativeData": adminData,
		"analyses":           tables,
		"overview":           overview,
	})
}

// eventDetailTable fetches and reshapes one analysis' slice of the event
// details layer. Capitalized rendering keeps labels mergeable across
// differently-cased source layers.
func (h *Handlers) eventDetailTable(ctx context.Context, analysis *RiskAnalysis, ht *HazardType, event *Event) (*ReshapeResult, error) {
	mapping, err := BuildFieldMapping(analysis, AxisX)
	if err != nil {
		return nil, err
	}
	filters := map[string]string{
		"risk_analysis": analysis.Name,
		"hazard_type":   ht.Mnemonic,
		"event_id":      event.EventID,
	}
	features, err := h.source.Fetch(ctx, LayerEventDetails, nil, filters)
	if err != nil {
		return nil, err
	}
	return Reshape(analysis, mapping, features, true)
}

// groupedValuesTable fetches and reshapes a risk-side analysis' aggregate
// rows over the event's divisions. The grouped-values layer is keyed by
// adm_code, not event_id, so the event rides the filter as its division
// codes joined by "__".
func (h *Handlers) groupedValuesTable(ctx context.Context, analysis *RiskAnalysis, ht *HazardType, event *Event) (*ReshapeResult, error) {
	mapping, err := BuildFieldMapping(analysis, AxisX)
	if err != nil {
		return nil, err
	}
	filters := map[string]string{
		"risk_analysis": analysis.Name,
		"hazard_type":   ht.Mnemonic,
		"adm_code":      strings.Join(splitCodes(event.NUTS3), "__"),
	}
	features, err := h.source.Fetch(ctx, LayerGroupedValues, nil, filters)
	if err != nil {
		return nil, err
	}
	return Reshape(analysis, mapping, features, true)
}

// primaryDimValues collects the first-column labels of a reshaped event
// table; the correlator matches them against related analyses' binding
// values. An empty table therefore matches nothing.
func primaryDimValues(data *ReshapeResult) []string {
	out := make([]string, 0, len(data.Values))
	for _, row := range data.Values {
		if len(row) == 0 {
			continue
		}
		if s, ok := row[0].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// floatCell reads a numeric measure out of a reshaped cell, which may be a
// capitalized string rendering.
func floatCell(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
