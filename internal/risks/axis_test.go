package risks

import (
	"errors"
	"testing"
)

func binding(dymID uint, name, attr, axis string, order int, value string) RiskAnalysisDymensionInfo {
	return RiskAnalysisDymensionInfo{
		DymensionInfoID: dymID,
		DymensionInfo:   DymensionInfo{ID: dymID, Name: name},
		LayerAttribute:  attr,
		Axis:            axis,
		Order:           order,
		Value:           value,
	}
}

func TestResolveAxis_SingleAttribute(t *testing.T) {
	bindings := []RiskAnalysisDymensionInfo{
		binding(1, "Round Period", "dim1", AxisX, 0, "RP-10"),
		binding(1, "Round Period", "dim1", AxisX, 1, "RP-20"),
		binding(2, "Scenario", "dim2", AxisY, 0, "Base"),
	}

	attr, err := ResolveAxis(bindings, 1, "Round Period")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attr != "dim1" {
		t.Errorf("expected dim1, got %q", attr)
	}
}

func TestResolveAxis_Ambiguous(t *testing.T) {
	bindings := []RiskAnalysisDymensionInfo{
		binding(1, "Round Period", "dim1", AxisX, 0, "RP-10"),
		binding(1, "Round Period", "dim2", AxisX, 1, "RP-20"),
	}

	_, err := ResolveAxis(bindings, 1, "Round Period")
	var amb *AmbiguousAxisError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguousAxisError, got %v", err)
	}
	if len(amb.Attributes) != 2 {
		t.Errorf("expected 2 conflicting attributes, got %d", len(amb.Attributes))
	}
}

func TestAxisAttribute(t *testing.T) {
	if got := AxisAttribute("dim1"); got != "d1" {
		t.Errorf("expected d1, got %q", got)
	}
	if got := AxisAttribute("dim12"); got != "d12" {
		t.Errorf("expected d12, got %q", got)
	}
}

func TestBuildFieldMapping_PrimaryFirst(t *testing.T) {
	analysis := &RiskAnalysis{
		LayerName: "geonode:eq_impact",
		DymensionBindings: []RiskAnalysisDymensionInfo{
			binding(2, "Scenario", "dim2", AxisY, 0, "Base"),
			binding(1, "Round Period", "dim1", AxisX, 0, "RP-10"),
			binding(1, "Round Period", "dim1", AxisX, 1, "RP-20"),
		},
	}

	mapping, err := BuildFieldMapping(analysis, AxisX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mapping.Dimensions) != 2 {
		t.Fatalf("expected 2 dimensions, got %d", len(mapping.Dimensions))
	}
	if mapping.Dimensions[0].Info.Name != "Round Period" {
		t.Errorf("expected Round Period first, got %q", mapping.Dimensions[0].Info.Name)
	}
	if mapping.Dimensions[0].ValueColumn != "dim1_value" || mapping.Dimensions[0].OrderColumn != "dim1_order" {
		t.Errorf("unexpected columns: %q / %q", mapping.Dimensions[0].ValueColumn, mapping.Dimensions[0].OrderColumn)
	}
	if len(mapping.Layers) != 1 || mapping.Layers[0] != "geonode:eq_impact" {
		t.Errorf("unexpected layers: %v", mapping.Layers)
	}
}

func TestFieldMapping_Promote(t *testing.T) {
	analysis := &RiskAnalysis{
		DymensionBindings: []RiskAnalysisDymensionInfo{
			binding(1, "Round Period", "dim1", AxisX, 0, "RP-10"),
			binding(2, "Scenario", "dim2", AxisY, 0, "Base"),
		},
	}
	mapping, err := BuildFieldMapping(analysis, AxisX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mapping.Promote(2)
	if mapping.Dimensions[0].Info.ID != 2 {
		t.Errorf("expected dimension 2 promoted to front, got %d", mapping.Dimensions[0].Info.ID)
	}

	// Unknown ids leave the order alone.
	mapping.Promote(99)
	if mapping.Dimensions[0].Info.ID != 2 {
		t.Errorf("unknown id reordered the mapping: %+v", mapping.Dimensions)
	}
}
