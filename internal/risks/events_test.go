package risks

import (
	"context"
	"reflect"
	"testing"
)

// fakeSource records the last fetch so tests can assert on the layer and
// filters a handler built.
type fakeSource struct {
	layer    string
	filters  map[string]string
	features []Feature
	err      error
}

func (f *fakeSource) Fetch(_ context.Context, layer string, _ []string, filters map[string]string) ([]Feature, error) {
	f.layer = layer
	f.filters = filters
	return f.features, f.err
}

func TestEventDetailTable_FetchesEventScopedRows(t *testing.T) {
	src := &fakeSource{features: []Feature{
		{ID: "f1", Properties: map[string]any{
			"dim1_value": "RP-10", "dim1_order": float64(0),
			"dim2_value": "base", "dim2_order": float64(0),
			"value": 5.5,
		}},
	}}
	h := &Handlers{source: src}
	event := &Event{EventID: "EQ_123", NUTS3: "IT001;IT002"}

	data, err := h.eventDetailTable(context.Background(), roundPeriodAnalysis(), &HazardType{Mnemonic: "EQ"}, event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.layer != LayerEventDetails {
		t.Errorf("fetched layer %q, want %q", src.layer, LayerEventDetails)
	}
	if src.filters["event_id"] != "EQ_123" {
		t.Errorf("event_id filter = %q, want EQ_123", src.filters["event_id"])
	}
	want := [][]any{{"Rp-10", "Base", "5.5"}}
	if !reflect.DeepEqual(data.Values, want) {
		t.Errorf("unexpected values:\n got %v\nwant %v", data.Values, want)
	}
}

// Risk-side counterparts are aggregates keyed by division, so their table
// comes from the grouped-values layer scoped to the event's divisions, not
// from event-scoped rows.
func TestGroupedValuesTable_QueriesEventDivisions(t *testing.T) {
	src := &fakeSource{}
	h := &Handlers{source: src}
	event := &Event{EventID: "EQ_123", NUTS3: "IT001; IT002;"}

	_, err := h.groupedValuesTable(context.Background(), roundPeriodAnalysis(), &HazardType{Mnemonic: "EQ"}, event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.layer != LayerGroupedValues {
		t.Errorf("fetched layer %q, want %q", src.layer, LayerGroupedValues)
	}
	if got := src.filters["adm_code"]; got != "IT001__IT002" {
		t.Errorf("adm_code filter = %q, want IT001__IT002", got)
	}
	if _, ok := src.filters["event_id"]; ok {
		t.Errorf("grouped-values fetch must not filter by event_id, got %q", src.filters["event_id"])
	}
}

func TestPrimaryDimValues(t *testing.T) {
	data := &ReshapeResult{Values: [][]any{
		{"Rp-10", "Base", "5.5"},
		{"Rp-20", "Base", "9.0"},
		{},
	}}
	got := primaryDimValues(data)
	want := []string{"Rp-10", "Rp-20"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("primaryDimValues = %v, want %v", got, want)
	}

	if got := primaryDimValues(&ReshapeResult{}); len(got) != 0 {
		t.Errorf("empty table should yield no correlation values, got %v", got)
	}
}
