package osm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ecotrace/carbonmcp/pkg/tracing"
)

// ErrNoResults indicates the geocoder returned no matches for a query
var ErrNoResults = errors.New("no geocoding results found")

// StatusError reports a non-success HTTP status from an upstream
// service. Callers can inspect the status code to decide how to
// present the failure.
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// geocodeCache caches geocoding results to reduce Nominatim load.
// Addresses rarely move; an hour is conservative.
var geocodeCache = NewTTLCache[string, *Place](time.Hour)

// Address is the structured address breakdown returned by Nominatim
// when addressdetails is requested.
type Address struct {
	HouseNumber string `json:"house_number,omitempty"`
	Road        string `json:"road,omitempty"`
	Suburb      string `json:"suburb,omitempty"`
	City        string `json:"city,omitempty"`
	Town        string `json:"town,omitempty"`
	Village     string `json:"village,omitempty"`
	County      string `json:"county,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Locality returns the most specific populated-place name available
func (a Address) Locality() string {
	for _, s := range []string{a.City, a.Town, a.Village, a.Suburb, a.County} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Place is a geocoded location
type Place struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     Address `json:"address"`
}

// nominatimResult mirrors the Nominatim JSON response shape.
// Coordinates come back as strings.
type nominatimResult struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Address     Address `json:"address"`
}

func (r *nominatimResult) toPlace() (*Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in response: %w", err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in response: %w", err)
	}
	return &Place{
		DisplayName: r.DisplayName,
		Latitude:    lat,
		Longitude:   lon,
		Address:     r.Address,
	}, nil
}

// Geocode resolves a free-form address or place name to coordinates
// using Nominatim. Known named locations are resolved from the local
// override table before any network call.
func (c *Client) Geocode(ctx context.Context, query string) (*Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty geocoding query")
	}

	if place, ok := LookupOverride(query); ok {
		c.logger.Debug("geocode resolved from override table", "query", query)
		return place, nil
	}

	cacheKey := "search:" + strings.ToLower(query)
	if cached, ok := geocodeCache.Get(cacheKey); ok {
		tracing.SetAttributes(ctx, tracing.CacheAttributes(tracing.CacheTypeGeocode, true, cacheKey)...)
		return cached, nil
	}
	tracing.SetAttributes(ctx, tracing.CacheAttributes(tracing.CacheTypeGeocode, false, cacheKey)...)

	reqURL := fmt.Sprintf("%s/search?%s", NominatimBaseURL, url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}.Encode())

	ctx, span := tracing.StartSpan(ctx, "nominatim.search")
	defer span.End()
	span.SetAttributes(attribute.String(tracing.AttrServiceName, tracing.ServiceNominatim))

	results, err := c.fetchNominatim(ctx, reqURL, "search")
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoResults, query)
	}

	place, err := results[0].toPlace()
	if err != nil {
		return nil, err
	}

	geocodeCache.Set(cacheKey, place)
	return place, nil
}

// ReverseGeocode resolves coordinates to the nearest address
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error) {
	if err := ValidateCoords(lat, lon); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("reverse:%.6f,%.6f", lat, lon)
	if cached, ok := geocodeCache.Get(cacheKey); ok {
		tracing.SetAttributes(ctx, tracing.CacheAttributes(tracing.CacheTypeGeocode, true, cacheKey)...)
		return cached, nil
	}

	reqURL := fmt.Sprintf("%s/reverse?%s", NominatimBaseURL, url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":         {"json"},
		"addressdetails": {"1"},
	}.Encode())

	ctx, span := tracing.StartSpan(ctx, "nominatim.reverse")
	defer span.End()
	span.SetAttributes(attribute.String(tracing.AttrServiceName, tracing.ServiceNominatim))

	req, err := NewRequestWithUserAgent(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := MonitoredDoRequest(ctx, req, "reverse")
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("reverse geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocoding failed: %w", &StatusError{Service: "Nominatim", StatusCode: resp.StatusCode})
	}

	var result nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode reverse geocoding response: %w", err)
	}
	if result.DisplayName == "" {
		return nil, ErrNoResults
	}

	place, err := result.toPlace()
	if err != nil {
		return nil, err
	}

	geocodeCache.Set(cacheKey, place)
	return place, nil
}

// fetchNominatim performs a Nominatim query that returns a result list
func (c *Client) fetchNominatim(ctx context.Context, reqURL, operation string) ([]nominatimResult, error) {
	req, err := NewRequestWithUserAgent(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := MonitoredDoRequest(ctx, req, operation)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding failed: %w", &StatusError{Service: "Nominatim", StatusCode: resp.StatusCode})
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	return results, nil
}

// ClearGeocodeCache empties the geocode cache. Intended for tests.
func ClearGeocodeCache() {
	geocodeCache.Clear()
}
