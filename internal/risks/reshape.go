package risks

import (
	"fmt"
	"sort"
	"strconv"
	"unicode"
)

// Feature is one row of tabular geospatial data returned by the feature
// source, keyed by property name.
type Feature struct {
	ID         string
	Properties map[string]any
}

// ReshapeResult is the serving shape for dimensional analysis data: the
// analysis-contextual dimension exports plus one row per feature, each row
// being the dimension labels in dimension order followed by the measure.
type ReshapeResult struct {
	Dimensions []DimensionExport `json:"dimensions"`
	Values     [][]any           `json:"values"`
}

// Reshape pivots raw feature records into ordered rows. The primary
// dimension (first in mapping.Dimensions) dominates the ordering: each
// feature's sort key is its primary order value scaled by 1000 plus the
// unscaled order values of the remaining dimensions. Order columns default
// to 0 when absent; value columns must be present. Secondary order values of
// 1000 or more would collide with the primary scale, a known limitation the
// catalog's data has never approached.
//
// With capitalize set, every cell is rendered as a string with only its
// first rune upper-cased, which normalizes labels when merging rows from
// analyses keyed with differing case.
func Reshape(analysis *RiskAnalysis, mapping *FieldMapping, features []Feature, capitalize bool) (*ReshapeResult, error) {
	type keyedRow struct {
		key int
		row []any
	}
	rows := make([]keyedRow, 0, len(features))

	for _, f := range features {
		row := make([]any, 0, len(mapping.Dimensions)+1)
		key := 0
		for i, dim := range mapping.Dimensions {
			v, ok := f.Properties[dim.ValueColumn]
			if !ok {
				return nil, &MissingFieldError{Field: dim.ValueColumn, FeatureID: f.ID}
			}
			row = append(row, v)

			ord := intProperty(f.Properties, dim.OrderColumn)
			if i == 0 {
				ord *= 1000
			}
			key += ord
		}
		measure, ok := f.Properties["value"]
		if !ok {
			return nil, &MissingFieldError{Field: "value", FeatureID: f.ID}
		}
		row = append(row, measure)
		rows = append(rows, keyedRow{key: key, row: row})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].key < rows[j].key })

	values := make([][]any, len(rows))
	for i, kr := range rows {
		if capitalize {
			for j, cell := range kr.row {
				kr.row[j] = capitalizeCell(cell)
			}
		}
		values[i] = kr.row
	}

	return &ReshapeResult{
		Dimensions: ExportDimensions(analysis, mapping),
		Values:     values,
	}, nil
}

// intProperty reads an integer-valued property, tolerating the float64 and
// string renderings JSON decoding produces. Missing or unparseable values
// count as 0.
func intProperty(props map[string]any, name string) int {
	v, ok := props[name]
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

// capitalizeCell stringifies a cell and upper-cases only its first rune,
// lower-casing the rest.
func capitalizeCell(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		s = ""
	default:
		s = fmt.Sprintf("%v", t)
	}
	runes := []rune(s)
	for i, r := range runes {
		if i == 0 {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
	}
	return string(runes)
}
