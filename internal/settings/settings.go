package settings

import (
	"errors"
	"os"
	"strings"
)

// Common errors
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required")
	ErrMissingGeoserver   = errors.New("GEOSERVER_URL environment variable is required")
)

// Settings holds all process-wide configuration. It is loaded once in main
// and passed explicitly to the constructors that need it; nothing reads the
// environment after startup.
type Settings struct {
	Port        string
	DatabaseURL string

	// External feature source (GeoServer WFS endpoint and credentials).
	GeoserverURL      string
	GeoserverUser     string
	GeoserverPassword string
	// PublicGeoserverURL is the address clients use for WMS requests. Falls
	// back to GeoserverURL when unset.
	PublicGeoserverURL string

	// DefaultRegion names the region served when a request carries none.
	DefaultRegion string

	// CountryAdminGroup is the group name marking analyses restricted to
	// country administrators.
	CountryAdminGroup string
}

// LoadFromEnv loads settings from environment variables.
//
// Environment variables:
//   - PORT: HTTP listen port (default: "5050")
//   - DATABASE_URL: postgres DSN (required)
//   - GEOSERVER_URL: WFS endpoint base, e.g. https://geo.example.org/geoserver (required)
//   - GEOSERVER_USER / GEOSERVER_PASSWORD: feature source credentials
//   - GEOSERVER_PUBLIC_URL: client-facing WMS base (default: GEOSERVER_URL)
//   - DEFAULT_REGION: region name used when none is requested (default: "Europe")
//   - COUNTRY_ADMIN_GROUP: group gating country-restricted analyses
func LoadFromEnv() Settings {
	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	geoURL := strings.TrimRight(os.Getenv("GEOSERVER_URL"), "/")
	publicURL := strings.TrimRight(os.Getenv("GEOSERVER_PUBLIC_URL"), "/")
	if publicURL == "" {
		publicURL = geoURL
	}

	region := os.Getenv("DEFAULT_REGION")
	if region == "" {
		region = "Europe"
	}

	return Settings{
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		GeoserverURL:       geoURL,
		GeoserverUser:      os.Getenv("GEOSERVER_USER"),
		GeoserverPassword:  os.Getenv("GEOSERVER_PASSWORD"),
		PublicGeoserverURL: publicURL,
		DefaultRegion:      region,
		CountryAdminGroup:  os.Getenv("COUNTRY_ADMIN_GROUP"),
	}
}

// Validate checks that required settings are present.
func (s Settings) Validate() error {
	if s.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if s.GeoserverURL == "" {
		return ErrMissingGeoserver
	}
	return nil
}
