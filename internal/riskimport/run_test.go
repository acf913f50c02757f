package riskimport

import (
	"reflect"
	"testing"

	"github.com/scaphilo/risk-data-hub/internal/risks"
)

func TestReshapeSheet(t *testing.T) {
	rows := [][]string{
		{"Adm Unit", "RP-10", "RP-20"},
		{"Milano", "5.0", "9.0"},
		{"Roma", "2.5"},
		{""},
	}

	data, err := reshapeSheet(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(data.ColumnNames, []string{"RP-10", "RP-20"}) {
		t.Errorf("unexpected column names: %v", data.ColumnNames)
	}
	if !reflect.DeepEqual(data.RowNames, []string{"Milano", "Roma"}) {
		t.Errorf("unexpected row names: %v", data.RowNames)
	}
	// Short rows pad out to the header width.
	want := [][]string{{"5.0", "9.0"}, {"2.5", ""}}
	if !reflect.DeepEqual(data.Values, want) {
		t.Errorf("unexpected values:\n got %v\nwant %v", data.Values, want)
	}
}

func TestReshapeSheet_Invalid(t *testing.T) {
	if _, err := reshapeSheet(nil); err == nil {
		t.Error("expected error for empty sheet")
	}
	if _, err := reshapeSheet([][]string{{"only-labels"}}); err == nil {
		t.Error("expected error for header without value columns")
	}
}

func TestApplyMetadataField(t *testing.T) {
	var hs risks.HazardSet

	applyMetadataField(&hs, "Title", "Hospitals affected by river flood")
	applyMetadataField(&hs, " begin date ", "2015-01-01")
	applyMetadataField(&hs, "KEYWORDS", "flood, hospitals")
	applyMetadataField(&hs, "unknown_key", "ignored")

	if hs.Title != "Hospitals affected by river flood" {
		t.Errorf("unexpected title %q", hs.Title)
	}
	if hs.BeginDate != "2015-01-01" {
		t.Errorf("unexpected begin date %q", hs.BeginDate)
	}
	if hs.Keyword != "flood, hospitals" {
		t.Errorf("unexpected keyword %q", hs.Keyword)
	}
}
