package geoserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scaphilo/risk-data-hub/internal/risks"
)

const collectionJSON = `{
	"type": "FeatureCollection",
	"features": [
		{"id": "risk_analysis.1", "properties": {"dim1_value": "RP-10", "dim1_order": 0, "value": 5.0}},
		{"id": "risk_analysis.2", "properties": {"dim1_value": "RP-20", "dim1_order": 1, "value": 9.0}}
	]
}`

func TestClient_Fetch(t *testing.T) {
	var gotQuery map[string][]string
	var gotUser, gotPass string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wfs" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(collectionJSON))
	}))
	defer server.Close()

	client := NewClient(server.URL, "admin", "geoserver")
	features, err := client.Fetch(context.Background(), "geonode:risk_analysis",
		[]string{"dim1_value", "dim1_order", "value"},
		map[string]string{"adm_code": "IT015", "hazard_type": "EQ"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}
	if features[0].ID != "risk_analysis.1" {
		t.Errorf("unexpected feature id %q", features[0].ID)
	}
	if features[0].Properties["dim1_value"] != "RP-10" {
		t.Errorf("unexpected property: %v", features[0].Properties)
	}

	if got := gotQuery["typeNames"]; len(got) != 1 || got[0] != "geonode:risk_analysis" {
		t.Errorf("unexpected typeNames: %v", got)
	}
	if got := gotQuery["viewparams"]; len(got) != 1 || got[0] != "adm_code:IT015;hazard_type:EQ" {
		t.Errorf("unexpected viewparams: %v", got)
	}
	if got := gotQuery["propertyName"]; len(got) != 1 || got[0] != "dim1_value,dim1_order,value" {
		t.Errorf("unexpected propertyName: %v", got)
	}
	if got := gotQuery["outputFormat"]; len(got) != 1 || got[0] != "application/json" {
		t.Errorf("unexpected outputFormat: %v", got)
	}
	if gotUser != "admin" || gotPass != "geoserver" {
		t.Errorf("unexpected credentials %q / %q", gotUser, gotPass)
	}
}

func TestClient_FetchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "layer not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "")
	_, err := client.Fetch(context.Background(), "geonode:missing", nil, nil)

	var svc *risks.ServiceError
	if !errors.As(err, &svc) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svc.Service != "geoserver" {
		t.Errorf("unexpected service %q", svc.Service)
	}
}

func TestClient_FetchBadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<ows:ExceptionReport/>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "")
	_, err := client.Fetch(context.Background(), "geonode:risk_analysis", nil, nil)

	var svc *risks.ServiceError
	if !errors.As(err, &svc) {
		t.Fatalf("expected ServiceError for non-JSON payload, got %v", err)
	}
}
