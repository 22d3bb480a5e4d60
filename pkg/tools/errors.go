// Package tools provides the carbon footprint MCP tools implementations.
package tools

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ecotrace/carbonmcp/pkg/osm"
)

// APIError represents an error that occurred while communicating with
// an external API service, with information to help users recover.
type APIError struct {
	Service     string // The API service name (e.g., "Nominatim", "OSRM")
	StatusCode  int    // HTTP status code
	Message     string // Error message
	Recoverable bool   // Whether the error can be recovered from
	Guidance    string // Guidance for users on how to recover
}

// Error implements the error interface and provides a formatted error message.
func (e *APIError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s API error (%d): %s. %s", e.Service, e.StatusCode, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Service, e.StatusCode, e.Message)
}

// Common error guidance messages
const (
	// Nominatim guidance
	GuidanceNominatimAddressFormat = "Try using a more standard address format or provide city and country."
	GuidanceNominatimRateLimit     = "Please try again in a few seconds."
	GuidanceNominatimTimeout       = "Check your internet connection and try again, or use different geocoding parameters."
	GuidanceNominatimGeneral       = "Check your address formatting and try again."

	// OSRM guidance
	GuidanceOSRMRouteNotFound = "The routing service could not be used for the specified points. The straight-line distance was used instead."

	// Footprint guidance
	GuidanceActivityInputs = "Check that each activity value is within its documented range and try again."
	GuidanceCountryCode    = "Use a two-letter ISO country code such as MY, SG or US."

	// Generic guidance
	GuidanceGeneral      = "Please try again later or modify your request parameters."
	GuidanceNetworkError = "Check your internet connection and try again."
)

// nominatimGuidance maps a Nominatim HTTP status to recovery guidance.
func nominatimGuidance(statusCode int) string {
	switch statusCode {
	case http.StatusTooManyRequests:
		return GuidanceNominatimRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return GuidanceNominatimTimeout
	default:
		return GuidanceNominatimGeneral
	}
}

// serviceAPIError converts an upstream status error into an APIError
// carrying service-specific guidance. It reports false for errors that
// did not come from an upstream HTTP status.
func serviceAPIError(err error) (*APIError, bool) {
	var statusErr *osm.StatusError
	if !errors.As(err, &statusErr) {
		return nil, false
	}
	return NewAPIError(statusErr.Service, statusErr.StatusCode, statusErr.Error(),
		nominatimGuidance(statusErr.StatusCode)), true
}

// NewAPIError creates a new APIError with appropriate guidance based on status code.
func NewAPIError(service string, statusCode int, message, guidance string) *APIError {
	// Use provided guidance if available, otherwise infer based on status code
	if guidance == "" {
		switch statusCode {
		case http.StatusTooManyRequests:
			guidance = "Rate limit exceeded. Please try again in a few moments."
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			guidance = "The request timed out. Please try again."
		case http.StatusBadRequest:
			guidance = "The request was invalid. Check your parameters and try again."
		case http.StatusInternalServerError:
			guidance = "The server encountered an error. This is likely temporary, please try again later."
		case http.StatusServiceUnavailable:
			guidance = "The service is temporarily unavailable. Please try again later."
		default:
			guidance = GuidanceGeneral
		}
	}

	return &APIError{
		Service:     service,
		StatusCode:  statusCode,
		Message:     message,
		Recoverable: statusCode != http.StatusBadRequest,
		Guidance:    guidance,
	}
}

// ErrorWithGuidance returns a properly formatted error response with user guidance.
func ErrorWithGuidance(err *APIError) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s\n\nGuidance: %s", err.Message, err.Guidance)
	return mcp.NewToolResultError(errorText)
}

// ErrorResponse returns a plain error result for tool handlers.
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// GetToolUsageExample returns an example JSON snippet for using a specific tool.
// This is helpful for providing guidance when parameter validation fails.
func GetToolUsageExample(toolName string) string {
	examples := map[string]string{
		"geocode_address": `{
  "address": "Menara Kuala Lumpur, Kuala Lumpur"
}`,
		"reverse_geocode": `{
  "latitude": 3.1390,
  "longitude": 101.6869
}`,
		"geo_distance": `{
  "from": {"latitude": 3.1390, "longitude": 101.6869},
  "to": {"latitude": 1.3521, "longitude": 103.8198}
}`,
		"estimate_commute_distance": `{
  "home": "Yayasan Selangor",
  "work": "KLCC"
}`,
		"calculate_footprint": `{
  "distance_km": 10,
  "work_days_per_year": 230,
  "electricity_kwh_per_month": 200,
  "waste_kg_per_week": 5,
  "meals_per_day": 3,
  "country": "MY"
}`,
		"compare_footprint": `{
  "total_tonnes": 4.01,
  "country": "MY"
}`,
		"footprint_tips": `{
  "transport": 0.64,
  "electricity": 1.97,
  "diet": 1.37,
  "waste": 0.03
}`,
		"analyze_commute_footprint": `{
  "home": "Yayasan Selangor",
  "work": "KLCC",
  "work_days_per_year": 230,
  "electricity_kwh_per_month": 200,
  "waste_kg_per_week": 5,
  "meals_per_day": 3,
  "country": "MY"
}`,
		"get_map_image": `{
  "latitude": 3.1390,
  "longitude": 101.6869,
  "zoom": 15
}`,
	}

	if example, exists := examples[toolName]; exists {
		return example
	}

	// Generic example if not found
	return `{
  "latitude": 3.1390,
  "longitude": 101.6869
}`
}
