package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ecotrace/carbonmcp/pkg/core"
	"github.com/ecotrace/carbonmcp/pkg/osm"
)

// geoClient is the shared service client used by all geocoding tools
var geoClient = osm.NewClient()

// GeocodeOutput is the result of address resolution
type GeocodeOutput struct {
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	DisplayName string       `json:"display_name,omitempty"`
	Address     *osm.Address `json:"address,omitempty"`
	Source      string       `json:"source"`
}

// GeocodeAddressTool returns a tool definition for geocoding an address
func GeocodeAddressTool() mcp.Tool {
	return mcp.NewTool("geocode_address",
		mcp.WithDescription("Convert an address, place name or coordinate string (decimal, DMS, UTM) to latitude/longitude with a structured address breakdown"),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("The address, place name or coordinate string to resolve"),
		),
	)
}

// HandleGeocodeAddress implements address geocoding
func HandleGeocodeAddress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("geocode_address", func(ctx context.Context, input struct {
		Address string `json:"address"`
	}, logger *slog.Logger) (interface{}, error) {
		if input.Address == "" {
			return nil, fmt.Errorf("address is required")
		}

		resolved, err := ResolveLocation(ctx, geoClient, input.Address)
		if err != nil {
			if errors.Is(err, osm.ErrNoResults) {
				return nil, core.NewError(core.ErrAddressNotFound, fmt.Sprintf("No results found for %q", input.Address)).
					WithQuery(input.Address).
					WithGuidance(GuidanceNominatimAddressFormat)
			}
			return nil, err
		}

		return GeocodeOutput{
			Latitude:    resolved.Location.Latitude,
			Longitude:   resolved.Location.Longitude,
			DisplayName: resolved.DisplayName,
			Address:     resolved.Address,
			Source:      resolved.Source,
		}, nil
	})(ctx, req)
}

// ReverseGeocodeOutput is the result of reverse geocoding
type ReverseGeocodeOutput struct {
	DisplayName string      `json:"display_name"`
	Address     osm.Address `json:"address"`
}

// ReverseGeocodeTool returns a tool definition for reverse geocoding
func ReverseGeocodeTool() mcp.Tool {
	return mcp.NewTool("reverse_geocode",
		mcp.WithDescription("Convert geographic coordinates to the nearest street address"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("The latitude coordinate"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("The longitude coordinate"),
		),
	)
}

// HandleReverseGeocode implements coordinate-to-address resolution
func HandleReverseGeocode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "reverse_geocode")

	lat, lon, err := core.ParseCoordsWithLog(req, logger, "latitude", "longitude")
	if err != nil {
		return core.NewError(core.ErrInvalidInput, err.Error()).
			WithGuidance("Example input:\n" + GetToolUsageExample("reverse_geocode")).
			ToMCPResult(), nil
	}

	place, err := geoClient.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Error("reverse geocoding failed", "error", err)
		if errors.Is(err, osm.ErrNoResults) {
			return core.NewError(core.ErrNoResults, "No address found for the given coordinates").
				WithGuidance("Try coordinates closer to a populated area.").
				ToMCPResult(), nil
		}
		if apiErr, ok := serviceAPIError(err); ok {
			return ErrorWithGuidance(apiErr), nil
		}
		return ErrorResponse(fmt.Sprintf("Reverse geocoding failed: %v", err)), nil
	}

	output := ReverseGeocodeOutput{
		DisplayName: place.DisplayName,
		Address:     place.Address,
	}

	return resultJSON(logger, output)
}

// resultJSON marshals a value into a text tool result
func resultJSON(logger *slog.Logger, v interface{}) (*mcp.CallToolResult, error) {
	resultBytes, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}
	return mcp.NewToolResultText(string(resultBytes)), nil
}
