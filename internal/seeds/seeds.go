// Package seeds loads the baseline catalog fixtures (apps, analysis classes,
// regions, hazard types, analysis types, dimensions) into the database.
package seeds

import (
	_ "embed"
	"fmt"
	"log"

	"github.com/goccy/go-yaml"
	"gorm.io/gorm"

	"github.com/scaphilo/risk-data-hub/internal/db"
	"github.com/scaphilo/risk-data-hub/internal/risks"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalog struct {
	Apps            []string `yaml:"apps"`
	AnalysisClasses []struct {
		Name  string `yaml:"name"`
		Title string `yaml:"title"`
	} `yaml:"analysis_classes"`
	Regions []struct {
		Name  string `yaml:"name"`
		Level int    `yaml:"level"`
	} `yaml:"regions"`
	HazardTypes []struct {
		Mnemonic    string `yaml:"mnemonic"`
		Title       string `yaml:"title"`
		Order       int    `yaml:"order"`
		FAClass     string `yaml:"fa_class"`
		App         string `yaml:"app"`
		Description string `yaml:"description"`
	} `yaml:"hazard_types"`
	AnalysisTypes []struct {
		Name        string `yaml:"name"`
		Title       string `yaml:"title"`
		App         string `yaml:"app"`
		Class       string `yaml:"class"`
		FAIcon      string `yaml:"fa_icon"`
		Description string `yaml:"description"`
	} `yaml:"analysis_types"`
	Dimensions []struct {
		Name     string `yaml:"name"`
		Abstract string `yaml:"abstract"`
		Unit     string `yaml:"unit"`
	} `yaml:"dimensions"`
}

// SeedAll loads the embedded catalog fixture, creating rows that do not
// exist yet and leaving existing ones untouched.
func SeedAll() error {
	var cat catalog
	if err := yaml.Unmarshal(catalogYAML, &cat); err != nil {
		return fmt.Errorf("failed to parse catalog.yaml: %w", err)
	}

	apps := map[string]uint{}
	for _, name := range cat.Apps {
		app := risks.RiskApp{Name: name}
		if err := getOrCreate(&app, "name = ?", name); err != nil {
			return fmt.Errorf("app %s: %w", name, err)
		}
		apps[name] = app.ID
	}

	classes := map[string]uint{}
	for _, c := range cat.AnalysisClasses {
		class := risks.AnalysisClass{Name: c.Name, Title: c.Title}
		if err := getOrCreate(&class, "name = ?", c.Name); err != nil {
			return fmt.Errorf("analysis class %s: %w", c.Name, err)
		}
		classes[c.Name] = class.ID
	}

	for _, r := range cat.Regions {
		region := risks.Region{Name: r.Name, Level: r.Level}
		if err := getOrCreate(&region, "name = ?", r.Name); err != nil {
			return fmt.Errorf("region %s: %w", r.Name, err)
		}
	}

	for _, ht := range cat.HazardTypes {
		appID, ok := apps[ht.App]
		if !ok {
			return fmt.Errorf("hazard type %s references unknown app %q", ht.Mnemonic, ht.App)
		}
		row := risks.HazardType{
			Mnemonic:    ht.Mnemonic,
			Title:       ht.Title,
			Order:       ht.Order,
			FAClass:     ht.FAClass,
			Description: ht.Description,
			AppID:       appID,
		}
		if err := getOrCreate(&row, "mnemonic = ? AND app_id = ?", ht.Mnemonic, appID); err != nil {
			return fmt.Errorf("hazard type %s: %w", ht.Mnemonic, err)
		}
	}

	for _, at := range cat.AnalysisTypes {
		appID, ok := apps[at.App]
		if !ok {
			return fmt.Errorf("analysis type %s references unknown app %q", at.Name, at.App)
		}
		row := risks.AnalysisType{
			Name:        at.Name,
			Title:       at.Title,
			FAIcon:      at.FAIcon,
			Description: at.Description,
			AppID:       appID,
		}
		if classID, ok := classes[at.Class]; ok {
			row.AnalysisClassID = &classID
		}
		if err := getOrCreate(&row, "name = ? AND app_id = ?", at.Name, appID); err != nil {
			return fmt.Errorf("analysis type %s: %w", at.Name, err)
		}
	}

	for _, d := range cat.Dimensions {
		row := risks.DymensionInfo{Name: d.Name, Abstract: d.Abstract, Unit: d.Unit}
		if err := getOrCreate(&row, "name = ?", d.Name); err != nil {
			return fmt.Errorf("dimension %s: %w", d.Name, err)
		}
	}

	log.Printf("✅ Catalog seeded: %d apps, %d hazard types, %d analysis types, %d dimensions",
		len(cat.Apps), len(cat.HazardTypes), len(cat.AnalysisTypes), len(cat.Dimensions))
	return nil
}

// getOrCreate loads the row matched by the condition into dest, creating it
// from dest's current field values when missing.
func getOrCreate(dest any, query string, args ...any) error {
	err := db.DB.Where(query, args...).First(dest).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return db.DB.Create(dest).Error
}
