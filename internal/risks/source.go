package risks

import (
	"context"
	"sort"
	"strings"
)

// Feature layers served by the external source for the risk catalog.
const (
	LayerAnalysis      = "geonode:risk_analysis"
	LayerEventLocation = "geonode:risk_analysis_event_location"
	LayerEventGroup    = "geonode:risk_analysis_event_group"
	LayerEventDetails  = "geonode:risk_analysis_event_details"
	LayerGroupedValues = "geonode:risk_analysis_grouped_values"
)

// FeatureSource reads tabular features from the external geospatial service.
// Implementations are read-only: a fetch must never mutate the source.
type FeatureSource interface {
	Fetch(ctx context.Context, layer string, attributes []string, filters map[string]string) ([]Feature, error)
}

// Viewparams renders a filter mapping as a SQL-view parameter string
// (key:value pairs joined by semicolons, keys sorted for stable URLs). The
// same string feeds both the feature source and the WMS block handed to
// clients.
func Viewparams(filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k, v := range filters {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+filters[k])
	}
	return strings.Join(parts, ";")
}
