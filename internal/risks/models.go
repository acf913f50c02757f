package risks

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// State is the lifecycle state of a schedulable entity (import and
// analysis-creation jobs move it through queued -> processing -> ready|error).
type State string

const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateReady      State = "ready"
	StateError      State = "error"
)

// Risk app names. Hazard types, analysis types and analyses are namespaced
// by app so the same catalog can back multiple client applications.
const (
	AppDataExtraction = "data_extraction"
	AppCostBenefit    = "cost_benefit_analysis"
	AppTest           = "test"
)

// Analysis class names. The class drives which branch of the data extraction
// view an analysis is served through.
const (
	ClassRisk  = "risk"
	ClassEvent = "event"
)

// Axis letters for dimension bindings.
const (
	AxisX = "x"
	AxisY = "y"
	AxisZ = "z"
)

type RiskApp struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;size:64"`
}

type AnalysisClass struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"index;size:30"`
	Title string `json:"title" gorm:"size:80"`
}

// HazardType describes a hazard (earthquake, flood, ...) an analysis relates to.
type HazardType struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Mnemonic    string `json:"mnemonic" gorm:"index;size:30"`
	Title       string `json:"title" gorm:"size:80"`
	Order       int    `json:"order" gorm:"column:sort_order"`
	Description string `json:"description"`
	FAClass     string `json:"fa_class" gorm:"size:64;default:fa-times"`
	AppID       uint   `json:"app_id"`
	App         RiskApp
}

// AnalysisType groups analyses of the same kind ("Loss Impact", "Impact
// Analysis", ...) under one app and analysis class.
type AnalysisType struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"index;size:30"`
	Title           string `json:"title" gorm:"size:80"`
	Description     string `json:"description"`
	FAIcon          string `json:"fa_icon" gorm:"size:30"`
	AppID           uint   `json:"app_id"`
	App             RiskApp
	AnalysisClassID *uint `json:"analysis_class_id"`
	AnalysisClass   *AnalysisClass
}

// Region groups a set of administrative divisions. Level 0 is global,
// 1 continent, 2 sub-continent, 3 country.
type Region struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"index;size:30"`
	Level       int            `json:"level" gorm:"index"`
	OwnerGroups pq.StringArray `json:"owner_groups" gorm:"type:text[]"`
}

// AdministrativeDivision is one node of the location hierarchy (GAUL/NUTS
// dataset). Geometry is stored as WKT alongside its SRID.
type AdministrativeDivision struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Code     string `json:"code" gorm:"uniqueIndex;size:30"`
	Name     string `json:"name" gorm:"index;size:100"`
	Geom     string `json:"-"`
	SRID     int    `json:"srid" gorm:"default:4326"`
	Level    int    `json:"level"`
	ParentID *uint  `json:"parent_id"`
	Parent   *AdministrativeDivision
}

// AdministrativeDivisionMapping cross-walks divisions between independent
// coding schemes: it groups finer-grained child divisions under a coarser
// named code not otherwise present in the division tree.
type AdministrativeDivisionMapping struct {
	ID       uint                   `json:"id" gorm:"primaryKey"`
	Code     string                 `json:"code" gorm:"index;size:50"`
	Name     string                 `json:"name" gorm:"size:100"`
	ParentID uint                   `json:"parent_id"`
	Parent   AdministrativeDivision `gorm:"foreignKey:ParentID"`
	ChildID  uint                   `json:"child_id"`
	Child    AdministrativeDivision `gorm:"foreignKey:ChildID"`
}

type RegionDivision struct {
	ID         uint `gorm:"primaryKey"`
	RegionID   uint `gorm:"index:uniq_region_div,unique"`
	DivisionID uint `gorm:"index:uniq_region_div,unique"`
}

// DymensionInfo is a named categorical axis ("Round Period", "Scenario")
// along which the values of a multi-dimensional feature layer vary. The layer
// looks like {risk_analysis, dim1, dim2, ..., dimN, value}; a binding set for
// one analysis describes which dimN carries which dimension and in what order
// its categorical values appear.
type DymensionInfo struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"index;size:30"`
	Abstract string `json:"abstract"`
	Unit     string `json:"unit" gorm:"size:30"`
}

// RiskAnalysisDymensionInfo binds one dimension to one physical feature-layer
// attribute for one analysis (the axis binding). All bindings of the same
// (analysis, dimension) pair must carry the same LayerAttribute.
type RiskAnalysisDymensionInfo struct {
	ID              uint `json:"id" gorm:"primaryKey"`
	RiskAnalysisID  uint `json:"risk_analysis_id" gorm:"index"`
	DymensionInfoID uint `json:"dymension_info_id" gorm:"index"`
	DymensionInfo   DymensionInfo
	Order           int    `json:"order" gorm:"column:sort_order"`
	Value           string `json:"value" gorm:"index;size:80"`
	Axis            string `json:"axis" gorm:"index;size:10"`
	LayerAttribute  string `json:"layer_attribute" gorm:"size:80"`

	LayerReferenceAttribute string `json:"layer_reference_attribute" gorm:"size:80"`
	ScenarioDescription     string `json:"scenario_description" gorm:"size:255"`
	ResourceID              *uint  `json:"resource_id"`
	Resource                *FurtherResource
}

// RiskAnalysis is a named computation result for one hazard type and analysis
// type, backed by a geospatial feature layer and a set of dimension bindings.
type RiskAnalysis struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	Name               string `json:"name" gorm:"index;size:100"`
	UnitOfMeasure      string `json:"unit_of_measure" gorm:"size:255"`
	ShowInEventDetails bool   `json:"show_in_event_details"`
	// Tags is free text matched against an event's event_type when
	// correlating analyses with events.
	Tags           string `json:"tags" gorm:"size:255"`
	DescriptorFile string `json:"descriptor_file" gorm:"size:255"`
	DataFile       string `json:"data_file" gorm:"size:255"`
	MetadataFile   string `json:"metadata_file" gorm:"size:255"`
	State          State  `json:"state" gorm:"size:64;default:ready"`

	RegionID       uint `json:"region_id"`
	Region         Region
	AnalysisTypeID uint `json:"analysis_type_id"`
	AnalysisType   AnalysisType
	HazardTypeID   uint `json:"hazard_type_id"`
	HazardType     HazardType
	HazardSetID    *uint `json:"hazard_set_id"`
	HazardSet      *HazardSet
	AppID          uint `json:"app_id"`
	App            RiskApp

	// Feature layer backing this analysis plus optional reference/styling
	// layers, all referenced by typename on the feature source.
	LayerName          string         `json:"layer_name" gorm:"size:255"`
	StyleName          string         `json:"style_name" gorm:"size:255"`
	ReferenceLayerName string         `json:"reference_layer_name" gorm:"size:255"`
	ReferenceStyleName string         `json:"reference_style_name" gorm:"size:255"`
	AdditionalLayers   pq.StringArray `json:"additional_layers" gorm:"type:text[]"`

	// OwnerGroups restrict visibility when they include the configured
	// country-admin group.
	OwnerGroups pq.StringArray `json:"owner_groups" gorm:"type:text[]"`

	DymensionBindings []RiskAnalysisDymensionInfo `json:"-" gorm:"foreignKey:RiskAnalysisID"`
	AdditionalData    []AdditionalData            `json:"-" gorm:"foreignKey:RiskAnalysisID"`
}

type RiskAnalysisDivision struct {
	ID             uint `gorm:"primaryKey"`
	RiskAnalysisID uint `gorm:"index:uniq_ra_div,unique"`
	DivisionID     uint `gorm:"index:uniq_ra_div,unique"`
}

// PointOfContact is the contact or author of a risk dataset's metadata.
type PointOfContact struct {
	ID               uint   `json:"id" gorm:"primaryKey"`
	IndividualName   string `json:"individual_name" gorm:"size:255"`
	OrganizationName string `json:"organization_name" gorm:"size:255"`
	PositionName     string `json:"position_name" gorm:"size:255"`
	Voice            string `json:"voice" gorm:"size:255"`
	Facsimile        string `json:"facsimile" gorm:"size:30"`
	DeliveryPoint    string `json:"delivery_point" gorm:"size:255"`
	City             string `json:"city" gorm:"size:80"`
	PostalCode       string `json:"postal_code" gorm:"size:30"`
	EMail            string `json:"e_mail" gorm:"size:255"`
	Role             string `json:"role" gorm:"size:255"`
	UpdateFrequency  string `json:"update_frequency"`

	DivisionID *uint `json:"division_id"`
	CountryID  *uint `json:"country_id"`
}

// HazardSet is the metadata record associated with a risk analysis
// (identification, point of contact, keywords, extent, distribution info).
type HazardSet struct {
	ID                        uint   `json:"id" gorm:"primaryKey"`
	Title                     string `json:"title" gorm:"size:255"`
	Date                      string `json:"date" gorm:"size:20"`
	DateType                  string `json:"date_type" gorm:"size:20"`
	Edition                   string `json:"edition" gorm:"size:30"`
	Abstract                  string `json:"abstract"`
	Purpose                   string `json:"purpose"`
	Keyword                   string `json:"keyword"`
	UseConstraints            string `json:"use_constraints" gorm:"size:255"`
	OtherConstraints          string `json:"other_constraints" gorm:"size:255"`
	SpatialRepresentationType string `json:"spatial_representation_type" gorm:"size:150"`
	Language                  string `json:"language" gorm:"size:80"`
	BeginDate                 string `json:"begin_date" gorm:"size:20"`
	EndDate                   string `json:"end_date" gorm:"size:20"`
	Bounds                    string `json:"bounds" gorm:"size:150"`
	SupplementalInformation   string `json:"supplemental_information" gorm:"size:255"`
	OnlineResource            string `json:"online_resource" gorm:"size:255"`
	URL                       string `json:"url" gorm:"size:255"`
	Description               string `json:"description" gorm:"size:255"`
	ReferenceSystemCode       string `json:"reference_system_code" gorm:"size:30"`
	DataQualityStatement      string `json:"data_quality_statement"`
	Category                  string `json:"category" gorm:"size:80"`
	CategoryFAIcon            string `json:"category_fa_icon" gorm:"size:80"`

	POCID          *uint           `json:"poc_id"`
	POC            *PointOfContact `gorm:"foreignKey:POCID"`
	AuthorID       *uint           `json:"author_id"`
	Author         *PointOfContact `gorm:"foreignKey:AuthorID"`
	CountryID      uint            `json:"country_id"`
	Country        Region          `gorm:"foreignKey:CountryID"`
	RiskAnalysisID uint            `json:"risk_analysis_id" gorm:"index"`
}

// FurtherResource is an additional catalog resource that can be attached to
// analysis types, dimensions or hazard sets, optionally narrowed by region,
// hazard type or analysis (NULL meaning "applies everywhere").
type FurtherResource struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Text        string `json:"text"`
	Title       string `json:"title" gorm:"size:255"`
	Abstract    string `json:"abstract"`
	UUID        string `json:"uuid" gorm:"size:36"`
	License     string `json:"license" gorm:"size:255"`
	Date        string `json:"date" gorm:"size:20"`
	Category    string `json:"category" gorm:"size:80"`
	IsPublished bool   `json:"is_published"`
	Thumbnail   string `json:"thumbnail" gorm:"size:255"`
	DetailURL   string `json:"detail_url" gorm:"size:255"`
}

type AnalysisTypeFurtherResource struct {
	ID             uint  `gorm:"primaryKey"`
	RegionID       *uint `gorm:"index"`
	HazardTypeID   *uint `gorm:"index"`
	AnalysisTypeID uint  `gorm:"index"`
	ResourceID     uint
	Resource       FurtherResource `gorm:"foreignKey:ResourceID"`
}

type DymensionInfoFurtherResource struct {
	ID              uint  `gorm:"primaryKey"`
	RegionID        *uint `gorm:"index"`
	RiskAnalysisID  *uint `gorm:"index"`
	DymensionInfoID uint  `gorm:"index"`
	ResourceID      uint
	Resource        FurtherResource `gorm:"foreignKey:ResourceID"`
}

type HazardSetFurtherResource struct {
	ID          uint  `gorm:"primaryKey"`
	RegionID    *uint `gorm:"index"`
	HazardSetID uint  `gorm:"index"`
	ResourceID  uint
	Resource    FurtherResource `gorm:"foreignKey:ResourceID"`
}

// Event is a recorded hazard occurrence. NUTS3 holds the semicolon-delimited
// affected division codes as imported; the precise division links live in
// EventDivision.
type Event struct {
	EventID      string `json:"event_id" gorm:"primaryKey;size:25"`
	HazardTypeID uint   `json:"hazard_type_id"`
	HazardType   HazardType
	RegionID     uint `json:"region_id"`
	Region       Region

	ISO2        string    `json:"iso2" gorm:"size:10"`
	NUTS3       string    `json:"nuts3" gorm:"size:255"`
	BeginDate   time.Time `json:"begin_date"`
	EndDate     time.Time `json:"end_date"`
	Year        int       `json:"year"`
	EventType   string    `json:"event_type" gorm:"size:50"`
	EventSource string    `json:"event_source" gorm:"size:255"`
	Cause       string    `json:"cause" gorm:"size:255"`
	Notes       string    `json:"notes" gorm:"size:255"`
	Sources     string    `json:"sources" gorm:"size:255"`

	RelatedLayers pq.StringArray `json:"related_layers" gorm:"type:text[]"`
}

type EventDivision struct {
	ID         uint   `gorm:"primaryKey"`
	EventID    string `gorm:"index;size:25"`
	DivisionID uint   `gorm:"index"`
}

// AdditionalData is one imported spreadsheet sheet attached to an analysis,
// stored as {column_names, row_names, values}.
type AdditionalData struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"size:255"`
	RiskAnalysisID uint           `json:"risk_analysis_id" gorm:"index"`
	Data           datatypes.JSON `json:"data"`
}

// AdministrativeData names a per-division indicator (population, GDP, ...).
type AdministrativeData struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	Name          string `json:"name" gorm:"size:50"`
	IndicatorType string `json:"indicator_type" gorm:"size:50"`
	UnitOfMeasure string `json:"unit_of_measure" gorm:"size:10"`
}

// AdministrativeDivisionData carries one indicator value for one division,
// keyed by a dimension label (typically the reference year).
type AdministrativeDivisionData struct {
	ID         uint               `json:"id" gorm:"primaryKey"`
	Dimension  string             `json:"dimension" gorm:"index;size:50"`
	Value      string             `json:"value" gorm:"size:50"`
	DataID     uint               `json:"data_id"`
	Data       AdministrativeData `gorm:"foreignKey:DataID"`
	DivisionID uint               `json:"division_id"`
}

func (RiskApp) TableName() string                { return "risks.apps" }
func (AnalysisClass) TableName() string          { return "risks.analysis_classes" }
func (HazardType) TableName() string             { return "risks.hazard_types" }
func (AnalysisType) TableName() string           { return "risks.analysis_types" }
func (Region) TableName() string                 { return "risks.regions" }
func (AdministrativeDivision) TableName() string { return "risks.administrative_divisions" }
func (AdministrativeDivisionMapping) TableName() string {
	return "risks.administrative_division_mappings"
}
func (RegionDivision) TableName() string              { return "risks.region_divisions" }
func (DymensionInfo) TableName() string               { return "risks.dymension_infos" }
func (RiskAnalysisDymensionInfo) TableName() string   { return "risks.risk_analysis_dymension_infos" }
func (RiskAnalysis) TableName() string                { return "risks.risk_analyses" }
func (RiskAnalysisDivision) TableName() string        { return "risks.risk_analysis_divisions" }
func (PointOfContact) TableName() string              { return "risks.points_of_contact" }
func (HazardSet) TableName() string                   { return "risks.hazard_sets" }
func (FurtherResource) TableName() string             { return "risks.further_resources" }
func (AnalysisTypeFurtherResource) TableName() string { return "risks.analysis_type_further_resources" }
func (DymensionInfoFurtherResource) TableName() string {
	return "risks.dymension_info_further_resources"
}
func (HazardSetFurtherResource) TableName() string   { return "risks.hazard_set_further_resources" }
func (Event) TableName() string                      { return "risks.events" }
func (EventDivision) TableName() string              { return "risks.event_divisions" }
func (AdditionalData) TableName() string             { return "risks.additional_data" }
func (AdministrativeData) TableName() string         { return "risks.administrative_data" }
func (AdministrativeDivisionData) TableName() string { return "risks.administrative_division_data" }
