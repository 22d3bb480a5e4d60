package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ecotrace/carbonmcp/pkg/coords"
	"github.com/ecotrace/carbonmcp/pkg/geo"
	"github.com/ecotrace/carbonmcp/pkg/osm"
)

// InputParser is a generic function to parse request arguments into a strongly typed struct
func InputParser[T any](req mcp.CallToolRequest) (T, *mcp.CallToolResult, error) {
	var input T

	// Convert the arguments to JSON
	inputJSON, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return input, ErrorResponse(fmt.Sprintf("Invalid input format: %v", err)), err
	}

	// Parse into the specified type
	if err := json.Unmarshal(inputJSON, &input); err != nil {
		return input, ErrorResponse(fmt.Sprintf("Failed to parse input: %v", err)), err
	}

	return input, nil, nil
}

// WithParsedInput is a higher-order function that handles request parsing and error handling
func WithParsedInput[T any](
	handlerName string,
	handler func(ctx context.Context, input T, logger *slog.Logger) (interface{}, error),
) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := slog.Default().With("tool", handlerName)

		// Parse the input
		input, _, err := InputParser[T](req)
		if err != nil {
			logger.Error("failed to parse input", "error", err)
			return ErrorResponse(fmt.Sprintf("Failed to parse input: %v\n\nExample input for %s:\n%s",
				err, handlerName, GetToolUsageExample(handlerName))), nil
		}

		// Call the handler with the parsed input
		result, err := handler(ctx, input, logger)
		if err != nil {
			logger.Error("handler error", "error", err)
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return ErrorWithGuidance(apiErr), nil
			}
			return ErrorResponse(fmt.Sprintf("Failed to process request: %v", err)), nil
		}

		// Marshal the result
		resultBytes, err := json.Marshal(result)
		if err != nil {
			logger.Error("failed to marshal result", "error", err)
			return ErrorResponse("Failed to generate result"), nil
		}

		return mcp.NewToolResultText(string(resultBytes)), nil
	}
}

// ValidateCoordinates validates latitude and longitude are within valid ranges
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", lon)
	}
	return nil
}

// ResolvedLocation is a location string resolved to coordinates, either
// parsed directly or geocoded.
type ResolvedLocation struct {
	Location    geo.Location `json:"location"`
	DisplayName string       `json:"display_name,omitempty"`
	Address     *osm.Address `json:"address,omitempty"`
	Source      string       `json:"source"` // "coordinates" or "geocode"
}

// ResolveLocation turns a free-form location string into coordinates.
// Coordinate strings (decimal, DMS, UTM) are parsed locally; anything
// else is geocoded through Nominatim.
func ResolveLocation(ctx context.Context, client *osm.Client, input string) (*ResolvedLocation, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty location")
	}

	if coords.IsCoordinate(input) {
		parsed, err := coords.Parse(input)
		if err != nil {
			return nil, fmt.Errorf("failed to parse coordinates %q: %w", input, err)
		}
		return &ResolvedLocation{
			Location: parsed.Location,
			Source:   "coordinates",
		}, nil
	}

	place, err := client.Geocode(ctx, input)
	if err != nil {
		if apiErr, ok := serviceAPIError(err); ok {
			return nil, apiErr
		}
		return nil, err
	}
	return &ResolvedLocation{
		Location: geo.Location{
			Latitude:  place.Latitude,
			Longitude: place.Longitude,
		},
		DisplayName: place.DisplayName,
		Address:     &place.Address,
		Source:      "geocode",
	}, nil
}
