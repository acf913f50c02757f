// Package riskimport loads risk analysis spreadsheets into the catalog:
// per-sheet additional data tables, hazard set metadata and event registries.
package riskimport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/scaphilo/risk-data-hub/internal/risks"
)

// Runner executes import jobs against the catalog. Long-running entry points
// go through the scheduler so the owning analysis' state tracks progress.
type Runner struct {
	store     *risks.Store
	scheduler *risks.Scheduler
}

func NewRunner(store *risks.Store, scheduler *risks.Scheduler) *Runner {
	return &Runner{store: store, scheduler: scheduler}
}

// ScheduleDataImport queues a spreadsheet data import for an analysis and
// returns the job token.
func (r *Runner) ScheduleDataImport(ctx context.Context, analysisID uint, path string) (string, error) {
	return r.scheduler.Schedule(ctx, "import-risk-data", analysisID, func(ctx context.Context) error {
		return r.ImportData(ctx, analysisID, path)
	})
}

// ScheduleMetadataImport queues a metadata import for an analysis.
func (r *Runner) ScheduleMetadataImport(ctx context.Context, analysisID uint, path string) (string, error) {
	return r.scheduler.Schedule(ctx, "import-risk-metadata", analysisID, func(ctx context.Context) error {
		return r.ImportMetadata(ctx, analysisID, path)
	})
}

// sheetData is the persisted shape of one imported sheet: the header row
// becomes column_names (sans the leading row-label cell), the first column
// becomes row_names, the rest is the value grid.
type sheetData struct {
	ColumnNames []string   `json:"column_names"`
	RowNames    []string   `json:"row_names"`
	Values      [][]string `json:"values"`
}

// ImportData reads every sheet of an xlsx workbook into the analysis'
// additional data records and stamps the data file path.
func (r *Runner) ImportData(ctx context.Context, analysisID uint, path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	var sheets []risks.AdditionalData
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return fmt.Errorf("read sheet %q: %w", name, err)
		}
		data, err := reshapeSheet(rows)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		sheets = append(sheets, risks.AdditionalData{Name: name, Data: datatypes.JSON(raw)})
	}
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s has no sheets", path)
	}

	if err := r.store.ReplaceAdditionalData(ctx, analysisID, sheets); err != nil {
		return err
	}
	log.Printf("[riskimport] analysis %d: imported %d sheets from %s", analysisID, len(sheets), path)
	return r.store.SetDataFile(ctx, analysisID, path)
}

func reshapeSheet(rows [][]string) (*sheetData, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet")
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("header row needs a label column and at least one value column")
	}
	data := &sheetData{ColumnNames: header[1:]}
	for _, row := range rows[1:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		data.RowNames = append(data.RowNames, row[0])
		values := make([]string, len(header)-1)
		for i := range values {
			if i+1 < len(row) {
				values[i] = row[i+1]
			}
		}
		data.Values = append(data.Values, values)
	}
	return data, nil
}

// ImportMetadata reads the key/value metadata sheet of an xlsx workbook into
// the analysis' hazard set and stamps the metadata file path.
func (r *Runner) ImportMetadata(ctx context.Context, analysisID uint, path string) error {
	analysis, err := r.store.AnalysisByID(ctx, analysisID)
	if err != nil {
		return err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheetList[0])
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheetList[0], err)
	}

	hs := risks.HazardSet{RiskAnalysisID: analysis.ID, CountryID: analysis.RegionID}
	if analysis.HazardSet != nil {
		hs = *analysis.HazardSet
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		applyMetadataField(&hs, row[0], row[1])
	}

	if err := r.store.SaveHazardSet(ctx, &hs); err != nil {
		return err
	}
	log.Printf("[riskimport] analysis %d: metadata %q imported from %s", analysisID, hs.Title, path)
	return r.store.SetMetadataFile(ctx, analysisID, path)
}

// applyMetadataField maps one metadata sheet row onto a hazard set field.
// Keys are matched case-insensitively with spaces collapsed to underscores;
// unknown keys are ignored so workbooks can carry extra annotations.
func applyMetadataField(hs *risks.HazardSet, key, value string) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_") {
	case "title":
		hs.Title = value
	case "date":
		hs.Date = value
	case "date_type":
		hs.DateType = value
	case "edition":
		hs.Edition = value
	case "abstract":
		hs.Abstract = value
	case "purpose":
		hs.Purpose = value
	case "keyword", "keywords":
		hs.Keyword = value
	case "use_constraints":
		hs.UseConstraints = value
	case "other_constraints":
		hs.OtherConstraints = value
	case "spatial_representation_type":
		hs.SpatialRepresentationType = value
	case "language":
		hs.Language = value
	case "begin_date":
		hs.BeginDate = value
	case "end_date":
		hs.EndDate = value
	case "bounds":
		hs.Bounds = value
	case "supplemental_information":
		hs.SupplementalInformation = value
	case "online_resource":
		hs.OnlineResource = value
	case "url":
		hs.URL = value
	case "description":
		hs.Description = value
	case "reference_system_code":
		hs.ReferenceSystemCode = value
	case "data_quality_statement":
		hs.DataQualityStatement = value
	case "category":
		hs.Category = value
	}
}

// ImportEvents reads an event registry workbook into the events table,
// linking each event to the divisions listed in its code column. Returns the
// number of events written.
func (r *Runner) ImportEvents(ctx context.Context, regionID, hazardTypeID uint, path string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return 0, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheetList[0])
	if err != nil {
		return 0, err
	}
	if len(rows) < 2 {
		return 0, fmt.Errorf("event sheet %q has no data rows", sheetList[0])
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	count := 0
	for _, row := range rows[1:] {
		id := cell(row, "event_id")
		if id == "" {
			continue
		}
		begin, _ := time.Parse("2006-01-02", cell(row, "begin_date"))
		end, _ := time.Parse("2006-01-02", cell(row, "end_date"))
		year, _ := strconv.Atoi(cell(row, "year"))
		if year == 0 && !begin.IsZero() {
			year = begin.Year()
		}
		ev := &risks.Event{
			EventID:      id,
			HazardTypeID: hazardTypeID,
			RegionID:     regionID,
			ISO2:         cell(row, "iso2"),
			NUTS3:        cell(row, "nuts3"),
			BeginDate:    begin,
			EndDate:      end,
			Year:         year,
			EventType:    cell(row, "event_type"),
			EventSource:  cell(row, "event_source"),
			Cause:        cell(row, "cause"),
			Notes:        cell(row, "notes"),
			Sources:      cell(row, "sources"),
		}
		if err := r.store.UpsertEvent(ctx, ev); err != nil {
			return count, fmt.Errorf("event %s: %w", id, err)
		}
		count++
	}
	log.Printf("[riskimport] imported %d events from %s", count, path)
	return count, nil
}
