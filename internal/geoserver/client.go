// Package geoserver implements the feature source port of the risks engine
// against a GeoServer WFS endpoint.
package geoserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/scaphilo/risk-data-hub/internal/risks"
)

// Client is an HTTP client for GeoServer's WFS GetFeature endpoint.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a WFS client. Requests are rate limited to keep bursts of
// catalog queries from starving GeoServer's request queue.
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

// Fetch issues a WFS 2.0 GetFeature query against one layer. Filters become
// SQL-view parameters (viewparams); attributes, when non-empty, restrict the
// returned properties via propertyName.
func (c *Client) Fetch(ctx context.Context, layer string, attributes []string, filters map[string]string) ([]risks.Feature, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("service", "WFS")
	params.Set("version", "2.0.0")
	params.Set("request", "GetFeature")
	params.Set("typeNames", layer)
	params.Set("outputFormat", "application/json")
	if vp := risks.Viewparams(filters); vp != "" {
		params.Set("viewparams", vp)
	}
	if len(attributes) > 0 {
		params.Set("propertyName", strings.Join(attributes, ","))
	}

	fullURL := fmt.Sprintf("%s/wfs?%s", c.baseURL, params.Encode())

	start := time.Now()
	log.Printf("[geoserver] GET %s viewparams=%q", layer, params.Get("viewparams"))

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &risks.ServiceError{Service: "geoserver", Op: "GetFeature " + layer, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d", resp.StatusCode)
		return nil, &risks.ServiceError{Service: "geoserver", Op: "GetFeature " + layer, Err: err}
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, &risks.ServiceError{Service: "geoserver", Op: "decode " + layer, Err: err}
	}

	features := make([]risks.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		features = append(features, risks.Feature{ID: f.ID, Properties: f.Properties})
	}
	log.Printf("[geoserver] %s returned %d features in %s", layer, len(features), time.Since(start).Round(time.Millisecond))
	return features, nil
}

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		ID         string         `json:"id"`
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}
