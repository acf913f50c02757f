package risks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Store wraps catalog persistence. Lookup misses come back as NotFoundError
// so handlers can map them to 404s without inspecting gorm internals.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func notFound(kind, key string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Kind: kind, Key: key}
	}
	return err
}

// AppByName resolves a risk app.
func (s *Store) AppByName(ctx context.Context, name string) (*RiskApp, error) {
	var app RiskApp
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&app).Error; err != nil {
		return nil, notFound("app", name, err)
	}
	return &app, nil
}

// RegionByName resolves a region.
func (s *Store) RegionByName(ctx context.Context, name string) (*Region, error) {
	var region Region
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&region).Error; err != nil {
		return nil, notFound("region", name, err)
	}
	return &region, nil
}

// DivisionByCode resolves an administrative division by its code.
func (s *Store) DivisionByCode(ctx context.Context, code string) (*AdministrativeDivision, error) {
	var div AdministrativeDivision
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&div).Error; err != nil {
		return nil, notFound("location", code, err)
	}
	return &div, nil
}

// DivisionAncestry walks the parent chain of a division, innermost first.
func (s *Store) DivisionAncestry(ctx context.Context, div *AdministrativeDivision) ([]AdministrativeDivision, error) {
	var chain []AdministrativeDivision
	parentID := div.ParentID
	for parentID != nil {
		var parent AdministrativeDivision
		if err := s.db.WithContext(ctx).First(&parent, *parentID).Error; err != nil {
			return nil, notFound("location", fmt.Sprintf("id=%d", *parentID), err)
		}
		chain = append(chain, parent)
		parentID = parent.ParentID
	}
	return chain, nil
}

// SearchDivisions finds divisions whose name or code matches the query,
// capped at 20 rows.
func (s *Store) SearchDivisions(ctx context.Context, query string) ([]AdministrativeDivision, error) {
	var divs []AdministrativeDivision
	err := s.db.WithContext(ctx).
		Where("code = ? OR name ILIKE ?", query, "%"+query+"%").
		Order("level, name").
		Limit(20).
		Find(&divs).Error
	return divs, err
}

// DivisionsByCodes resolves many divisions at once, skipping unknown codes.
func (s *Store) DivisionsByCodes(ctx context.Context, codes []string) ([]AdministrativeDivision, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var divs []AdministrativeDivision
	if err := s.db.WithContext(ctx).Where("code IN ?", codes).Find(&divs).Error; err != nil {
		return nil, err
	}
	return divs, nil
}

// MappingsByCodes cross-walks division codes through the mapping table,
// returning the mappings with their named parent groups preloaded.
func (s *Store) MappingsByCodes(ctx context.Context, codes []string) ([]AdministrativeDivisionMapping, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var mappings []AdministrativeDivisionMapping
	err := s.db.WithContext(ctx).
		Preload("Parent").Preload("Child").
		Joins("JOIN risks.administrative_divisions cd ON cd.id = risks.administrative_division_mappings.child_id").
		Where("cd.code IN ?", codes).
		Find(&mappings).Error
	if err != nil {
		return nil, err
	}
	return mappings, nil
}

// HazardTypesFor lists hazard types of an app that have at least one analysis
// in the given region, in catalog order.
func (s *Store) HazardTypesFor(ctx context.Context, appID, regionID uint) ([]HazardType, error) {
	var hts []HazardType
	err := s.db.WithContext(ctx).
		Where("app_id = ? AND id IN (?)", appID,
			s.db.Model(&RiskAnalysis{}).Select("hazard_type_id").Where("region_id = ?", regionID)).
		Order("sort_order").
		Find(&hts).Error
	return hts, err
}

// HazardTypeByMnemonic resolves a hazard type within an app.
func (s *Store) HazardTypeByMnemonic(ctx context.Context, appID uint, mnemonic string) (*HazardType, error) {
	var ht HazardType
	if err := s.db.WithContext(ctx).Where("app_id = ? AND mnemonic = ?", appID, mnemonic).First(&ht).Error; err != nil {
		return nil, notFound("hazard type", mnemonic, err)
	}
	return &ht, nil
}

// AnalysisTypesFor lists the analysis types of an app that have at least one
// analysis for the given hazard type and region.
func (s *Store) AnalysisTypesFor(ctx context.Context, appID, hazardTypeID, regionID uint) ([]AnalysisType, error) {
	var ats []AnalysisType
	err := s.db.WithContext(ctx).
		Preload("AnalysisClass").
		Where("app_id = ? AND id IN (?)", appID,
			s.db.Model(&RiskAnalysis{}).Select("analysis_type_id").
				Where("hazard_type_id = ? AND region_id = ?", hazardTypeID, regionID)).
		Find(&ats).Error
	return ats, err
}

// AnalysisTypeByName resolves an analysis type within an app.
func (s *Store) AnalysisTypeByName(ctx context.Context, appID uint, name string) (*AnalysisType, error) {
	var at AnalysisType
	err := s.db.WithContext(ctx).Preload("AnalysisClass").
		Where("app_id = ? AND name = ?", appID, name).First(&at).Error
	if err != nil {
		return nil, notFound("analysis type", name, err)
	}
	return &at, nil
}

// AnalysisTypesByApp lists every analysis type of an app; the correlator
// searches this set for event/risk counterparts.
func (s *Store) AnalysisTypesByApp(ctx context.Context, appID uint) ([]AnalysisType, error) {
	var ats []AnalysisType
	err := s.db.WithContext(ctx).Where("app_id = ?", appID).Find(&ats).Error
	return ats, err
}

// AnalysesFor lists the analyses of one (app, hazard type, analysis type)
// triple that cover the given division.
func (s *Store) AnalysesFor(ctx context.Context, appID, hazardTypeID, analysisTypeID, divisionID uint) ([]RiskAnalysis, error) {
	var ras []RiskAnalysis
	err := s.db.WithContext(ctx).
		Preload("HazardType").Preload("AnalysisType").Preload("HazardSet").
		Joins("JOIN risks.risk_analysis_divisions rad ON rad.risk_analysis_id = risks.risk_analyses.id").
		Where("app_id = ? AND hazard_type_id = ? AND analysis_type_id = ? AND rad.division_id = ?",
			appID, hazardTypeID, analysisTypeID, divisionID).
		Find(&ras).Error
	return ras, err
}

// AnalysesForDivision lists analyses attached directly to one division,
// regardless of app or analysis type. The adm lookup detail walk calls it
// once per level of the parent chain.
func (s *Store) AnalysesForDivision(ctx context.Context, divisionID uint) ([]RiskAnalysis, error) {
	var ras []RiskAnalysis
	err := s.db.WithContext(ctx).
		Preload("HazardType").Preload("AnalysisType").
		Joins("JOIN risks.risk_analysis_divisions rad ON rad.risk_analysis_id = risks.risk_analyses.id").
		Where("rad.division_id = ?", divisionID).
		Find(&ras).Error
	return ras, err
}

// AnalysisByID loads one analysis with everything the serving layer needs:
// bindings (with dimension and resource), catalog relations and metadata.
func (s *Store) AnalysisByID(ctx context.Context, id uint) (*RiskAnalysis, error) {
	var ra RiskAnalysis
	err := s.db.WithContext(ctx).
		Preload("DymensionBindings", func(tx *gorm.DB) *gorm.DB { return tx.Order("sort_order") }).
		Preload("DymensionBindings.DymensionInfo").
		Preload("DymensionBindings.Resource").
		Preload("HazardType").Preload("AnalysisType").Preload("AnalysisType.AnalysisClass").
		Preload("Region").Preload("HazardSet").Preload("AdditionalData").
		First(&ra, id).Error
	if err != nil {
		return nil, notFound("analysis", fmt.Sprintf("id=%d", id), err)
	}
	return &ra, nil
}

// EventDetailAnalyses lists analyses of a hazard type flagged for event
// details, with their bindings preloaded for correlation.
func (s *Store) EventDetailAnalyses(ctx context.Context, hazardTypeID uint) ([]RiskAnalysis, error) {
	var ras []RiskAnalysis
	err := s.db.WithContext(ctx).
		Preload("DymensionBindings").Preload("DymensionBindings.DymensionInfo").
		Preload("AnalysisType").
		Where("hazard_type_id = ? AND show_in_event_details = true", hazardTypeID).
		Find(&ras).Error
	return ras, err
}

// EventByID resolves an event.
func (s *Store) EventByID(ctx context.Context, eventID string) (*Event, error) {
	var ev Event
	err := s.db.WithContext(ctx).
		Preload("HazardType").Preload("Region").
		Where("event_id = ?", eventID).First(&ev).Error
	if err != nil {
		return nil, notFound("event", eventID, err)
	}
	return &ev, nil
}

// EventsFor lists the most recent events of a hazard type touching a
// division, capped at 50.
func (s *Store) EventsFor(ctx context.Context, hazardTypeID, divisionID uint) ([]Event, error) {
	var evs []Event
	err := s.db.WithContext(ctx).
		Joins("JOIN risks.event_divisions ed ON ed.event_id = risks.events.event_id").
		Where("hazard_type_id = ? AND ed.division_id = ?", hazardTypeID, divisionID).
		Order("begin_date DESC").
		Limit(50).
		Find(&evs).Error
	return evs, err
}

// AdministrativeDataFor lists indicator values of one division.
func (s *Store) AdministrativeDataFor(ctx context.Context, divisionID uint) ([]AdministrativeDivisionData, error) {
	var rows []AdministrativeDivisionData
	err := s.db.WithContext(ctx).
		Preload("Data").
		Where("division_id = ?", divisionID).
		Order("dimension").
		Find(&rows).Error
	return rows, err
}

// AnalysisTypeResources lists further resources attached to an analysis
// type, keeping region/hazard-scoped entries only when they match.
func (s *Store) AnalysisTypeResources(ctx context.Context, analysisTypeID, regionID, hazardTypeID uint) ([]FurtherResource, error) {
	var links []AnalysisTypeFurtherResource
	err := s.db.WithContext(ctx).
		Preload("Resource").
		Where("analysis_type_id = ?", analysisTypeID).
		Where("region_id IS NULL OR region_id = ?", regionID).
		Where("hazard_type_id IS NULL OR hazard_type_id = ?", hazardTypeID).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return resourcesOf(len(links), func(i int) FurtherResource { return links[i].Resource }), nil
}

// DimensionResources lists further resources attached to a dimension,
// narrowed by region and analysis where the link says so.
func (s *Store) DimensionResources(ctx context.Context, dymensionInfoID, regionID, analysisID uint) ([]FurtherResource, error) {
	var links []DymensionInfoFurtherResource
	err := s.db.WithContext(ctx).
		Preload("Resource").
		Where("dymension_info_id = ?", dymensionInfoID).
		Where("region_id IS NULL OR region_id = ?", regionID).
		Where("risk_analysis_id IS NULL OR risk_analysis_id = ?", analysisID).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return resourcesOf(len(links), func(i int) FurtherResource { return links[i].Resource }), nil
}

// HazardSetResources lists further resources attached to a metadata record.
func (s *Store) HazardSetResources(ctx context.Context, hazardSetID, regionID uint) ([]FurtherResource, error) {
	var links []HazardSetFurtherResource
	err := s.db.WithContext(ctx).
		Preload("Resource").
		Where("hazard_set_id = ?", hazardSetID).
		Where("region_id IS NULL OR region_id = ?", regionID).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return resourcesOf(len(links), func(i int) FurtherResource { return links[i].Resource }), nil
}

func resourcesOf(n int, at func(int) FurtherResource) []FurtherResource {
	out := make([]FurtherResource, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, at(i))
	}
	return out
}

// ReplaceAdditionalData swaps the imported sheets of an analysis in one
// transaction.
func (s *Store) ReplaceAdditionalData(ctx context.Context, analysisID uint, sheets []AdditionalData) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("risk_analysis_id = ?", analysisID).Delete(&AdditionalData{}).Error; err != nil {
			return err
		}
		for i := range sheets {
			sheets[i].RiskAnalysisID = analysisID
		}
		if len(sheets) == 0 {
			return nil
		}
		return tx.Create(&sheets).Error
	})
}

// UpsertEvent writes an event row and its division links, replacing any
// previous links. Division codes that do not resolve are skipped.
func (s *Store) UpsertEvent(ctx context.Context, ev *Event) error {
	codes := splitCodes(ev.NUTS3)
	divs, err := s.DivisionsByCodes(ctx, codes)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(ev).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", ev.EventID).Delete(&EventDivision{}).Error; err != nil {
			return err
		}
		for _, d := range divs {
			link := EventDivision{EventID: ev.EventID, DivisionID: d.ID}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveHazardSet persists a metadata record and points the analysis at it.
func (s *Store) SaveHazardSet(ctx context.Context, hs *HazardSet) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(hs).Error; err != nil {
			return err
		}
		return tx.Model(&RiskAnalysis{}).Where("id = ?", hs.RiskAnalysisID).
			Update("hazard_set_id", hs.ID).Error
	})
}

// SetDataFile records the imported data file path on an analysis.
func (s *Store) SetDataFile(ctx context.Context, analysisID uint, path string) error {
	return s.db.WithContext(ctx).Model(&RiskAnalysis{}).Where("id = ?", analysisID).
		Update("data_file", path).Error
}

// SetMetadataFile records the imported metadata file path on an analysis.
func (s *Store) SetMetadataFile(ctx context.Context, analysisID uint, path string) error {
	return s.db.WithContext(ctx).Model(&RiskAnalysis{}).Where("id = ?", analysisID).
		Update("metadata_file", path).Error
}

// splitCodes splits a semicolon-delimited division code list, trimming
// whitespace and dropping empties.
func splitCodes(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ";") {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// AnalysisStateStore adapts Store to the scheduler's StateStore over the
// analysis state column, re-reading the row before every write.
type AnalysisStateStore struct {
	db *gorm.DB
}

func (s *Store) AnalysisStates() *AnalysisStateStore {
	return &AnalysisStateStore{db: s.db}
}

func (a *AnalysisStateStore) State(ctx context.Context, id uint) (State, error) {
	var ra RiskAnalysis
	if err := a.db.WithContext(ctx).Select("id", "state").First(&ra, id).Error; err != nil {
		return "", notFound("analysis", fmt.Sprintf("id=%d", id), err)
	}
	return ra.State, nil
}

func (a *AnalysisStateStore) SetState(ctx context.Context, id uint, state State) error {
	var ra RiskAnalysis
	if err := a.db.WithContext(ctx).Select("id", "state").First(&ra, id).Error; err != nil {
		return notFound("analysis", fmt.Sprintf("id=%d", id), err)
	}
	return a.db.WithContext(ctx).Model(&ra).Update("state", state).Error
}
