package risks

import (
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/lib/pq"

	"github.com/scaphilo/risk-data-hub/internal/settings"
)

func TestRequesterGroups(t *testing.T) {
	req := httptest.NewRequest("GET", "/risks/data_extraction/loc/IT015", nil)
	if got := requesterGroups(req); got != nil {
		t.Errorf("expected nil without header, got %v", got)
	}

	req.Header.Set("X-User-Groups", "italy_admins, , analysts")
	want := []string{"italy_admins", "analysts"}
	if got := requesterGroups(req); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCheckAccess(t *testing.T) {
	open := &RiskAnalysis{}
	if err := checkAccess(open, nil); err != nil {
		t.Errorf("unowned analysis must be open, got %v", err)
	}

	restricted := &RiskAnalysis{OwnerGroups: pq.StringArray{"italy_admins"}}
	if err := checkAccess(restricted, nil); err != ErrForbidden {
		t.Errorf("expected ErrForbidden for anonymous requester, got %v", err)
	}
	if err := checkAccess(restricted, []string{"analysts"}); err != ErrForbidden {
		t.Errorf("expected ErrForbidden for wrong group, got %v", err)
	}
	if err := checkAccess(restricted, []string{"analysts", "italy_admins"}); err != nil {
		t.Errorf("expected access for owner group, got %v", err)
	}
}

func TestAuthorize_CountryAdminBypass(t *testing.T) {
	h := &Handlers{cfg: settings.Settings{CountryAdminGroup: "country_admins"}}
	restricted := &RiskAnalysis{OwnerGroups: pq.StringArray{"italy_admins"}}

	if err := h.authorize(restricted, []string{"country_admins"}); err != nil {
		t.Errorf("expected country-admin bypass, got %v", err)
	}
	if err := h.authorize(restricted, []string{"analysts"}); err != ErrForbidden {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestViewparams(t *testing.T) {
	got := Viewparams(map[string]string{
		"risk_analysis": "EQ impact",
		"hazard_type":   "EQ",
		"adm_code":      "IT015",
		"event_id":      "",
	})
	want := "adm_code:IT015;hazard_type:EQ;risk_analysis:EQ impact"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := Viewparams(nil); got != "" {
		t.Errorf("expected empty string for no filters, got %q", got)
	}
}

func TestNavItems(t *testing.T) {
	europe := AdministrativeDivision{Code: "EU", Name: "Europe", Level: 0}
	italy := AdministrativeDivision{Code: "IT", Name: "Italy", Level: 1, ParentID: &europe.ID}
	milano := &AdministrativeDivision{Code: "IT015", Name: "Milano", Level: 2}

	items := navItems("data_extraction", milano, []AdministrativeDivision{italy, europe})
	if len(items) != 3 {
		t.Fatalf("expected 3 breadcrumb items, got %d", len(items))
	}
	if items[0]["label"] != "Europe" || items[2]["label"] != "Milano" {
		t.Errorf("unexpected breadcrumb order: %v", items)
	}
	if items[2]["href"] != "/risks/data_extraction/loc/IT015" {
		t.Errorf("unexpected href: %v", items[2]["href"])
	}
}

func TestLookupWalk_DedupsAcrossParentChain(t *testing.T) {
	milano := AdministrativeDivision{ID: 10, Code: "IT015", Name: "Milano", Level: 2}
	italy := AdministrativeDivision{ID: 1, Code: "IT", Name: "Italy", Level: 1}

	impact := RiskAnalysis{
		ID:           7,
		Name:         "EQ impact",
		HazardType:   HazardType{Mnemonic: "EQ"},
		AnalysisType: AnalysisType{Name: "r_impact"},
	}
	loss := RiskAnalysis{
		ID:           8,
		Name:         "EQ loss",
		HazardType:   HazardType{Mnemonic: "EQ"},
		AnalysisType: AnalysisType{Name: "r_loss"},
	}

	byDivision := map[uint][]RiskAnalysis{
		10: {impact},
		1:  {impact, loss}, // impact attached at both levels
	}
	entries, err := lookupWalk("data_extraction", []AdministrativeDivision{milano, italy}, func(id uint) ([]RiskAnalysis, error) {
		return byDivision[id], nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), entries)
	}
	if entries[0].AdmCode != "IT015" {
		t.Errorf("duplicated analysis should be reported at the innermost level, got %q", entries[0].AdmCode)
	}
	if entries[1].RiskAnalysis.Name != "EQ loss" || entries[1].AdmCode != "IT" {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
	if entries[0].APIURL != "/risks/data_extraction/loc/IT015/ht/EQ/at/r_impact/an/7" {
		t.Errorf("unexpected apiUrl: %q", entries[0].APIURL)
	}
}
