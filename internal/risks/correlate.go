package risks

import "strings"

// Analysis types come in event/risk pairs linked by a naming convention:
// swapping the leading "e_"/"r_" prefix of one name yields the other.
const (
	eventTypePrefix = "e_"
	riskTypePrefix  = "r_"
)

// RelatedTypeName maps an analysis type name onto its event/risk counterpart
// name, or "" when the name carries neither prefix.
func RelatedTypeName(name string) string {
	switch {
	case strings.HasPrefix(name, eventTypePrefix):
		return riskTypePrefix + strings.TrimPrefix(name, eventTypePrefix)
	case strings.HasPrefix(name, riskTypePrefix):
		return eventTypePrefix + strings.TrimPrefix(name, riskTypePrefix)
	default:
		return ""
	}
}

// RelatedAnalysisType finds the registered counterpart of an analysis type
// among candidates, or nil when none is registered under the swapped name.
func RelatedAnalysisType(at *AnalysisType, candidates []AnalysisType) *AnalysisType {
	want := RelatedTypeName(at.Name)
	if want == "" {
		return nil
	}
	for i := range candidates {
		if candidates[i].Name == want {
			return &candidates[i]
		}
	}
	return nil
}

// RelatedAnalyses filters candidates down to those correlatable with an
// event: same hazard type, flagged for event details, of the given analysis
// type, and bound to at least one of the given dimension values
// (case-insensitively). A non-empty event type further restricts to analyses
// whose tags contain it. The loose substring match on tags is intentional.
func RelatedAnalyses(candidates []RiskAnalysis, hazardTypeID uint, dimensionValues []string, analysisTypeID uint, event *Event) []RiskAnalysis {
	wanted := make(map[string]bool, len(dimensionValues))
	for _, v := range dimensionValues {
		wanted[strings.ToLower(v)] = true
	}

	var out []RiskAnalysis
	for _, a := range candidates {
		if a.HazardTypeID != hazardTypeID || a.AnalysisTypeID != analysisTypeID || !a.ShowInEventDetails {
			continue
		}
		if !bindsAnyValue(a.DymensionBindings, wanted) {
			continue
		}
		if event != nil && event.EventType != "" && !strings.Contains(a.Tags, event.EventType) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func bindsAnyValue(bindings []RiskAnalysisDymensionInfo, wanted map[string]bool) bool {
	for _, b := range bindings {
		if wanted[strings.ToLower(b.Value)] {
			return true
		}
	}
	return false
}

// MergeValues appends the rows of related analyses to the base rows,
// preserving the base ordering. Rows are assumed to share the capitalized
// label rendering so labels from differently-cased sources line up.
func MergeValues(base [][]any, related ...[][]any) [][]any {
	out := make([][]any, 0, len(base))
	out = append(out, base...)
	for _, rows := range related {
		out = append(out, rows...)
	}
	return out
}
