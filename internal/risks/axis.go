package risks

// ResolveAxis returns the single physical layer attribute the given
// dimension's bindings point at. Every binding of the same dimension must
// carry the same layer_attribute; anything else means the catalog is
// misconfigured and the dimension cannot be projected onto one column.
func ResolveAxis(bindings []RiskAnalysisDymensionInfo, dymensionInfoID uint, dimensionName string) (string, error) {
	seen := map[string]bool{}
	var attrs []string
	for _, b := range bindings {
		if b.DymensionInfoID != dymensionInfoID {
			continue
		}
		if !seen[b.LayerAttribute] {
			seen[b.LayerAttribute] = true
			attrs = append(attrs, b.LayerAttribute)
		}
	}
	if len(attrs) != 1 {
		return "", &AmbiguousAxisError{Dimension: dimensionName, Attributes: attrs}
	}
	return attrs[0], nil
}

// AxisAttribute derives the feature property name that carries a dimension's
// categorical value from the attribute that carries its numeric index. Layer
// attributes follow the dim1/dim2/... convention; the value column keeps the
// suffix and swaps the prefix for "d": dim1 -> d1.
func AxisAttribute(layerAttribute string) string {
	if len(layerAttribute) < 4 {
		return layerAttribute
	}
	return "d" + layerAttribute[3:]
}

// FieldMapping describes how one analysis projects onto its feature layer:
// which dimension is primary (drives row grouping), the resolved axis
// attributes per dimension, and the layers to query.
type FieldMapping struct {
	// Dimensions in serving order, primary first.
	Dimensions []DimensionAxis
	Layers     []string
}

// DimensionAxis is one resolved dimension axis. ValueColumn and OrderColumn
// are the feature property names carrying the categorical label and its
// integer rank for this dimension.
type DimensionAxis struct {
	Info           DymensionInfo
	LayerAttribute string
	ValueColumn    string
	OrderColumn    string
}

// BuildFieldMapping resolves every dimension bound to the analysis into a
// FieldMapping. The dimension bound to the requested axis comes first; the
// remaining dimensions follow in the order they appear in the bindings.
func BuildFieldMapping(analysis *RiskAnalysis, primaryAxis string) (*FieldMapping, error) {
	var primary *DimensionAxis
	var rest []DimensionAxis
	resolved := map[uint]bool{}

	for _, b := range analysis.DymensionBindings {
		if resolved[b.DymensionInfoID] {
			continue
		}
		resolved[b.DymensionInfoID] = true

		attr, err := ResolveAxis(analysis.DymensionBindings, b.DymensionInfoID, b.DymensionInfo.Name)
		if err != nil {
			return nil, err
		}
		axis := DimensionAxis{
			Info:           b.DymensionInfo,
			LayerAttribute: attr,
			ValueColumn:    attr + "_value",
			OrderColumn:    attr + "_order",
		}
		if b.Axis == primaryAxis && primary == nil {
			primary = &axis
		} else {
			rest = append(rest, axis)
		}
	}

	dims := rest
	if primary != nil {
		dims = append([]DimensionAxis{*primary}, rest...)
	}
	return &FieldMapping{
		Dimensions: dims,
		Layers:     []string{analysis.LayerName},
	}, nil
}

// Promote moves the dimension with the given catalog id to the front of the
// mapping, making it the primary ordering dimension. Unknown ids leave the
// mapping untouched.
func (m *FieldMapping) Promote(dymensionInfoID uint) {
	for i, d := range m.Dimensions {
		if d.Info.ID == dymensionInfoID {
			promoted := append([]DimensionAxis{d}, m.Dimensions[:i]...)
			m.Dimensions = append(promoted, m.Dimensions[i+1:]...)
			return
		}
	}
}
