package risks

import (
	"errors"
	"reflect"
	"testing"
)

func roundPeriodAnalysis() *RiskAnalysis {
	return &RiskAnalysis{
		LayerName: "geonode:eq_impact",
		DymensionBindings: []RiskAnalysisDymensionInfo{
			binding(1, "Round Period", "dim1", AxisX, 0, "RP-10"),
			binding(1, "Round Period", "dim1", AxisX, 1, "RP-20"),
			binding(2, "Scenario", "dim2", AxisY, 0, "Base"),
			binding(2, "Scenario", "dim2", AxisY, 1, "Scenario-1"),
		},
	}
}

func mustMapping(t *testing.T, analysis *RiskAnalysis) *FieldMapping {
	t.Helper()
	mapping, err := BuildFieldMapping(analysis, AxisX)
	if err != nil {
		t.Fatalf("field mapping: %v", err)
	}
	return mapping
}

func TestReshape_OrdersByCompositeKey(t *testing.T) {
	analysis := roundPeriodAnalysis()
	features := []Feature{
		{ID: "f1", Properties: map[string]any{
			"dim1_value": "RP-20", "dim1_order": float64(1),
			"dim2_value": "Base", "dim2_order": float64(0),
			"value": 9.0,
		}},
		{ID: "f2", Properties: map[string]any{
			"dim1_value": "RP-10", "dim1_order": float64(0),
			"dim2_value": "Base", "dim2_order": float64(0),
			"value": 5.0,
		}},
	}

	result, err := Reshape(analysis, mustMapping(t, analysis), features, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]any{
		{"RP-10", "Base", 5.0},
		{"RP-20", "Base", 9.0},
	}
	if !reflect.DeepEqual(result.Values, want) {
		t.Errorf("unexpected values:\n got %v\nwant %v", result.Values, want)
	}
}

// The primary dimension's order is scaled by 1000, so [primary=2, secondary=1]
// keys as 2001 and sorts after [primary=1, secondary=5] keying as 1005.
func TestReshape_MixedRadixKey(t *testing.T) {
	analysis := roundPeriodAnalysis()
	features := []Feature{
		{ID: "a", Properties: map[string]any{
			"dim1_value": "late", "dim1_order": float64(2),
			"dim2_value": "first", "dim2_order": float64(1),
			"value": 1.0,
		}},
		{ID: "b", Properties: map[string]any{
			"dim1_value": "early", "dim1_order": float64(1),
			"dim2_value": "fifth", "dim2_order": float64(5),
			"value": 2.0,
		}},
	}

	result, err := Reshape(analysis, mustMapping(t, analysis), features, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Values[0][0] != "early" || result.Values[1][0] != "late" {
		t.Errorf("expected key 1005 before 2001, got %v", result.Values)
	}
}

func TestReshape_MissingOrderDefaultsToZero(t *testing.T) {
	analysis := roundPeriodAnalysis()
	features := []Feature{
		{ID: "a", Properties: map[string]any{
			"dim1_value": "RP-20", "dim1_order": float64(1),
			"dim2_value": "Base",
			"value":      9.0,
		}},
		{ID: "b", Properties: map[string]any{
			"dim1_value": "RP-10",
			"dim2_value": "Base",
			"value":      5.0,
		}},
	}

	result, err := Reshape(analysis, mustMapping(t, analysis), features, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Values[0][0] != "RP-10" {
		t.Errorf("expected defaulted key 0 to sort first, got %v", result.Values)
	}
}

func TestReshape_MissingValueColumnFailsLoudly(t *testing.T) {
	analysis := roundPeriodAnalysis()
	features := []Feature{
		{ID: "broken", Properties: map[string]any{
			"dim1_value": "RP-10",
			"value":      5.0,
		}},
	}

	_, err := Reshape(analysis, mustMapping(t, analysis), features, false)
	var mf *MissingFieldError
	if !errors.As(err, &mf) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if mf.Field != "dim2_value" {
		t.Errorf("expected dim2_value reported, got %q", mf.Field)
	}
}

func TestReshape_Idempotent(t *testing.T) {
	analysis := roundPeriodAnalysis()
	features := []Feature{
		{ID: "a", Properties: map[string]any{
			"dim1_value": "RP-10", "dim1_order": float64(0),
			"dim2_value": "Base", "dim2_order": float64(0),
			"value": 5.0,
		}},
	}
	mapping := mustMapping(t, analysis)

	first, err := Reshape(analysis, mapping, features, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Reshape(analysis, mapping, features, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reshape is not idempotent:\n first %v\nsecond %v", first, second)
	}
}

func TestReshape_Capitalize(t *testing.T) {
	analysis := roundPeriodAnalysis()
	features := []Feature{
		{ID: "a", Properties: map[string]any{
			"dim1_value": "rp-10", "dim1_order": float64(0),
			"dim2_value": "BASE", "dim2_order": float64(0),
			"value": 5.5,
		}},
	}

	result, err := Reshape(analysis, mustMapping(t, analysis), features, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]any{{"Rp-10", "Base", "5.5"}}
	if !reflect.DeepEqual(result.Values, want) {
		t.Errorf("unexpected capitalized values:\n got %v\nwant %v", result.Values, want)
	}
}

func TestReshape_DimensionExports(t *testing.T) {
	analysis := roundPeriodAnalysis()
	analysis.DymensionBindings[0].DymensionInfo.Unit = "Years"
	analysis.DymensionBindings[1].DymensionInfo.Unit = "Years"

	result, err := Reshape(analysis, mustMapping(t, analysis), nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Dimensions) != 2 {
		t.Fatalf("expected 2 dimension exports, got %d", len(result.Dimensions))
	}
	rp := result.Dimensions[0]
	if rp.Name != "Round Period" {
		t.Errorf("expected Round Period first, got %q", rp.Name)
	}
	if !reflect.DeepEqual(rp.Values, []string{"RP-10", "RP-20"}) {
		t.Errorf("unexpected values order: %v", rp.Values)
	}
	if rp.Layers["RP-20"].LayerAttribute != "dim1" || rp.Layers["RP-20"].Order != 1 {
		t.Errorf("unexpected axis description: %+v", rp.Layers["RP-20"])
	}
}

func TestCapitalizeCell(t *testing.T) {
	cases := map[any]string{
		"flash flood": "Flash flood",
		"EARTHQUAKE":  "Earthquake",
		"":            "",
		1.5:           "1.5",
	}
	for in, want := range cases {
		if got := capitalizeCell(in); got != want {
			t.Errorf("capitalizeCell(%v) = %q, want %q", in, got, want)
		}
	}
}

// A dimension export carries enough to reconstruct the binding set: walking
// Values through Layers must recover exactly the layer attribute the axis
// resolver picked for the dimension.
func TestExportDimensions_RecoverResolvedAttribute(t *testing.T) {
	analysis := roundPeriodAnalysis()
	dims := ExportDimensions(analysis, mustMapping(t, analysis))
	if len(dims) != 2 {
		t.Fatalf("expected 2 dimension exports, got %d", len(dims))
	}

	for _, dim := range dims {
		want, err := ResolveAxis(analysis.DymensionBindings, dim.ID, dim.Name)
		if err != nil {
			t.Fatalf("resolve axis for %s: %v", dim.Name, err)
		}

		seen := map[string]bool{}
		for _, v := range dim.Values {
			desc, ok := dim.Layers[v]
			if !ok {
				t.Fatalf("dimension %s exports value %q with no layer description", dim.Name, v)
			}
			seen[desc.LayerAttribute] = true
		}
		if len(seen) != 1 || !seen[want] {
			t.Errorf("dimension %s exports attributes %v, want exactly {%s}", dim.Name, seen, want)
		}
	}
}
