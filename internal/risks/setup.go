package risks

import (
	"log"

	"github.com/scaphilo/risk-data-hub/internal/db"
)

// Init ensures the risks schema exists and migrates the catalog tables.
func Init() {
	if err := db.EnsureSchema(db.DB, "risks"); err != nil {
		log.Fatal("Failed to ensure schema risks: ", err)
	}

	if err := db.DB.AutoMigrate(
		&RiskApp{},
		&AnalysisClass{},
		&HazardType{},
		&AnalysisType{},
		&Region{},
		&AdministrativeDivision{},
		&AdministrativeDivisionMapping{},
		&RegionDivision{},
		&DymensionInfo{},
		&RiskAnalysis{},
		&RiskAnalysisDymensionInfo{},
		&RiskAnalysisDivision{},
		&PointOfContact{},
		&HazardSet{},
		&FurtherResource{},
		&AnalysisTypeFurtherResource{},
		&DymensionInfoFurtherResource{},
		&HazardSetFurtherResource{},
		&Event{},
		&EventDivision{},
		&AdditionalData{},
		&AdministrativeData{},
		&AdministrativeDivisionData{},
	); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
