package risks

import (
	"fmt"
	"sort"
)

// AxisDescription is the per-value slice of a dimension's binding as it
// applies to one analysis.
type AxisDescription struct {
	LayerAttribute          string           `json:"layer_attribute"`
	LayerReferenceAttribute string           `json:"layer_reference_attribute,omitempty"`
	Order                   int              `json:"order"`
	ScenarioDescription     string           `json:"scenario_description,omitempty"`
	Resource                *FurtherResource `json:"resource,omitempty"`
}

// DimensionExport is the serving shape of one dimension bound to one
// analysis: the catalog identity plus the axis descriptions and ordered
// categorical values specific to that analysis.
type DimensionExport struct {
	ID       uint                       `json:"id"`
	Name     string                     `json:"name"`
	Abstract string                     `json:"abstract"`
	Unit     string                     `json:"unit"`
	Layers   map[string]AxisDescription `json:"layers"`
	Values   []string                   `json:"values"`
}

// ExportDimensions renders the dimensions of a field mapping, in mapping
// order, with each dimension's layers and values taken from the analysis'
// own bindings.
func ExportDimensions(analysis *RiskAnalysis, mapping *FieldMapping) []DimensionExport {
	out := make([]DimensionExport, 0, len(mapping.Dimensions))
	for _, dim := range mapping.Dimensions {
		out = append(out, exportDimension(analysis, dim.Info))
	}
	return out
}

func exportDimension(analysis *RiskAnalysis, info DymensionInfo) DimensionExport {
	var bindings []RiskAnalysisDymensionInfo
	for _, b := range analysis.DymensionBindings {
		if b.DymensionInfoID == info.ID {
			bindings = append(bindings, b)
		}
	}
	sort.SliceStable(bindings, func(i, j int) bool { return bindings[i].Order < bindings[j].Order })

	layers := make(map[string]AxisDescription, len(bindings))
	values := make([]string, 0, len(bindings))
	for _, b := range bindings {
		values = append(values, b.Value)
		layers[b.Value] = AxisDescription{
			LayerAttribute:          b.LayerAttribute,
			LayerReferenceAttribute: b.LayerReferenceAttribute,
			Order:                   b.Order,
			ScenarioDescription:     b.ScenarioDescription,
			Resource:                b.Resource,
		}
	}
	return DimensionExport{
		ID:       info.ID,
		Name:     info.Name,
		Abstract: info.Abstract,
		Unit:     info.Unit,
		Layers:   layers,
		Values:   values,
	}
}

// HazardTypeExport is the serving shape of a hazard type within a location
// context, carrying its sibling hazard types and the analysis types
// available for it.
type HazardTypeExport struct {
	Mnemonic      string               `json:"mnemonic"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	FAClass       string               `json:"fa_class"`
	AnalysisTypes []AnalysisTypeExport `json:"analysis_types"`
}

// AnalysisTypeExport is the serving shape of an analysis type.
type AnalysisTypeExport struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	FAIcon        string `json:"fa_icon"`
	AnalysisClass string `json:"analysis_class,omitempty"`
	Href          string `json:"href"`
}

// LocationExport is the serving shape of an administrative division plus its
// ancestry chain, outermost first.
type LocationExport struct {
	Code    string           `json:"code"`
	Name    string           `json:"name"`
	Level   int              `json:"level"`
	Parents []LocationExport `json:"parents,omitempty"`
}

// AnalysisExport is the catalog card for one risk analysis in a listing.
type AnalysisExport struct {
	ID               uint        `json:"id"`
	Name             string      `json:"name"`
	Title            string      `json:"title"`
	UnitOfMeasure    string      `json:"unit_of_measure"`
	FAIcon           string      `json:"fa_icon"`
	AnalysisType     string      `json:"analysis_type"`
	HazardType       string      `json:"hazard_type"`
	DataFile         string      `json:"data_file,omitempty"`
	MetadataFile     string      `json:"metadata_file,omitempty"`
	Layer            LayerExport `json:"layer"`
	ReferenceLayer   LayerExport `json:"reference_layer"`
	AdditionalLayers []string    `json:"additional_layers,omitempty"`
	Href             string      `json:"href"`
}

// LayerExport names a feature layer and its style.
type LayerExport struct {
	LayerName  string `json:"layer_name"`
	LayerStyle string `json:"layer_style,omitempty"`
}

// AnalysisRef is the minimal handle on an analysis in a lookup listing.
type AnalysisRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// LookupEntry links one analysis found during the adm lookup walk back to
// its data-extraction endpoint, tagged with the division it was found at.
type LookupEntry struct {
	RiskAnalysis AnalysisRef `json:"riskAnalysis"`
	AnalysisType string      `json:"analysisType"`
	HazardType   string      `json:"hazardType"`
	AdmCode      string      `json:"admCode"`
	AdmName      string      `json:"admName"`
	APIURL       string      `json:"apiUrl"`
}

func lookupEntry(app string, ra *RiskAnalysis, div *AdministrativeDivision) LookupEntry {
	return LookupEntry{
		RiskAnalysis: AnalysisRef{ID: ra.ID, Name: ra.Name},
		AnalysisType: ra.AnalysisType.Name,
		HazardType:   ra.HazardType.Mnemonic,
		AdmCode:      div.Code,
		AdmName:      div.Name,
		APIURL: fmt.Sprintf("/risks/%s/loc/%s/ht/%s/at/%s/an/%d",
			app, div.Code, ra.HazardType.Mnemonic, ra.AnalysisType.Name, ra.ID),
	}
}

// lookupWalk visits the division chain innermost first, collecting an entry
// for every analysis the first time it appears. Analyses attached at more
// than one level are reported at the innermost one.
func lookupWalk(app string, chain []AdministrativeDivision, analysesFor func(divisionID uint) ([]RiskAnalysis, error)) ([]LookupEntry, error) {
	seen := map[uint]bool{}
	entries := []LookupEntry{}
	for i := range chain {
		div := &chain[i]
		ras, err := analysesFor(div.ID)
		if err != nil {
			return nil, err
		}
		for j := range ras {
			if seen[ras[j].ID] {
				continue
			}
			seen[ras[j].ID] = true
			entries = append(entries, lookupEntry(app, &ras[j], div))
		}
	}
	return entries, nil
}
