// Package core provides shared utilities for the carbon footprint MCP tools.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// Default OSRM service base URL
	defaultOSRMBaseURL = "https://router.project-osrm.org"

	// Default cache size for route results
	defaultRouteCacheSize = 256
)

var (
	// Global route cache
	routeCache     *lru.Cache[string, *OSRMResult]
	routeCacheOnce sync.Once
)

// OSRMOptions defines options for OSRM route requests
type OSRMOptions struct {
	// Base URL for the OSRM service
	BaseURL string

	// Profile to use (car, bike, foot)
	Profile string

	// Overview determines the geometry precision
	// "simplified", "full", "false"
	Overview string

	// Geometries controls the format of the returned geometry
	// "polyline", "polyline6", "geojson"
	Geometries string

	// Client is the HTTP client to use for requests
	Client *http.Client

	// RetryOptions controls retry behavior
	RetryOptions RetryOptions
}

// DefaultOSRMOptions returns reasonable defaults for OSRM requests
func DefaultOSRMOptions() OSRMOptions {
	return OSRMOptions{
		BaseURL:      defaultOSRMBaseURL,
		Profile:      "car",
		Overview:     "simplified",
		Geometries:   "polyline",
		Client:       &http.Client{Timeout: 10 * time.Second},
		RetryOptions: DefaultRetryOptions,
	}
}

// OSRMRoute represents a route returned by the OSRM service
type OSRMRoute struct {
	Duration float64 `json:"duration"` // Duration in seconds
	Distance float64 `json:"distance"` // Distance in meters
	Geometry string  `json:"geometry"` // Encoded polyline or GeoJSON
	Weight   float64 `json:"weight"`   // Weight value (typically duration)
}

// OSRMWaypoint represents a waypoint in the route
type OSRMWaypoint struct {
	Name     string    `json:"name"`     // Street name
	Location []float64 `json:"location"` // Coordinates [lon, lat]
	Distance float64   `json:"distance"` // Distance from requested coordinate
}

// OSRMResult represents the complete response from the OSRM service
type OSRMResult struct {
	Code      string         `json:"code"`      // Status code
	Message   string         `json:"message"`   // Error message if applicable
	Routes    []OSRMRoute    `json:"routes"`    // Array of routes
	Waypoints []OSRMWaypoint `json:"waypoints"` // Array of waypoints
}

// initCache initializes the route cache
func initCache() {
	routeCacheOnce.Do(func() {
		var err error
		routeCache, err = lru.New[string, *OSRMResult](defaultRouteCacheSize)
		if err != nil {
			routeCache, _ = lru.New[string, *OSRMResult](16) // Fallback to smaller cache
		}
	})
}

// cacheKey generates a cache key for a route request
func cacheKey(coordinates [][]float64, options OSRMOptions) string {
	var coordsStr strings.Builder
	for i, coord := range coordinates {
		if i > 0 {
			coordsStr.WriteString(";")
		}
		coordsStr.WriteString(fmt.Sprintf("%.6f,%.6f", coord[0], coord[1]))
	}

	optStr := fmt.Sprintf("%s;%s;%s",
		options.Profile,
		options.Overview,
		options.Geometries)

	return coordsStr.String() + "|" + optStr
}

// GetRoute fetches a route from the OSRM service. Coordinates are given
// as [lon, lat] pairs, the order OSRM expects.
func GetRoute(ctx context.Context, coordinates [][]float64, options OSRMOptions) (*OSRMResult, error) {
	logger := slog.Default().With("service", "osrm")

	initCache()

	key := cacheKey(coordinates, options)

	if cached, found := routeCache.Get(key); found {
		logger.Debug("route cache hit", "key", key)
		return cached, nil
	}

	logger.Debug("route cache miss", "key", key)

	var coordStr strings.Builder
	for i, coord := range coordinates {
		if i > 0 {
			coordStr.WriteString(";")
		}
		coordStr.WriteString(fmt.Sprintf("%.6f,%.6f", coord[0], coord[1]))
	}

	if options.BaseURL == "" {
		options.BaseURL = defaultOSRMBaseURL
	}

	if options.Client == nil {
		options.Client = &http.Client{Timeout: 10 * time.Second}
	}

	baseURL := fmt.Sprintf("%s/route/v1/%s/%s",
		strings.TrimRight(options.BaseURL, "/"),
		options.Profile,
		coordStr.String())

	reqURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	query := reqURL.Query()
	query.Add("overview", options.Overview)
	query.Add("geometries", options.Geometries)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "carbonmcp/1.0")

	resp, err := WithRetry(ctx, req, options.Client, options.RetryOptions)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &OSRMResult{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, err
	}

	if result.Code != "Ok" {
		return nil, fmt.Errorf("OSRM error: %s", result.Message)
	}

	routeCache.Add(key, result)

	return result, nil
}
