// Package core provides shared utilities for the carbon footprint MCP tools.
package core

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
)

// ValidationError represents a validation error for coordinates or other values
type ValidationError struct {
	Code     string
	Message  string
	Guidance string
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidateCoords checks if latitude and longitude are within valid ranges
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return ValidationError{
			Code:     string(ErrInvalidLatitude),
			Message:  fmt.Sprintf("Latitude must be between -90 and 90, got %f", lat),
			Guidance: "Ensure latitude is in decimal degrees",
		}
	}
	if lon < -180 || lon > 180 {
		return ValidationError{
			Code:     string(ErrInvalidLongitude),
			Message:  fmt.Sprintf("Longitude must be between -180 and 180, got %f", lon),
			Guidance: "Ensure longitude is in decimal degrees",
		}
	}
	return nil
}

// ParseCoords extracts and validates latitude and longitude from a CallToolRequest
// It allows specifying alternative key names for latitude and longitude
func ParseCoords(req mcp.CallToolRequest, latKey, lonKey string) (float64, float64, error) {
	if latKey == "" {
		latKey = "latitude"
	}
	if lonKey == "" {
		lonKey = "longitude"
	}

	lat := mcp.ParseFloat64(req, latKey, 0)
	lon := mcp.ParseFloat64(req, lonKey, 0)

	if err := ValidateCoords(lat, lon); err != nil {
		return 0, 0, err
	}

	return lat, lon, nil
}

// ParseCoordsWithLog extracts and validates coordinates, logging failures
func ParseCoordsWithLog(req mcp.CallToolRequest, logger *slog.Logger, latKey, lonKey string) (float64, float64, error) {
	lat, lon, err := ParseCoords(req, latKey, lonKey)
	if err != nil {
		logger.Error("invalid coordinates", "error", err)
		return 0, 0, err
	}
	return lat, lon, nil
}
