package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ecotrace/carbonmcp/pkg/cache"
	"github.com/ecotrace/carbonmcp/pkg/core"
	"github.com/ecotrace/carbonmcp/pkg/geo"
	"github.com/ecotrace/carbonmcp/pkg/monitoring"
	"github.com/ecotrace/carbonmcp/pkg/osm"
)

// estimatorOptions builds the OSRM options for distance estimation.
// A variable so tests can point it at a mock routing server.
var estimatorOptions = routedEstimatorOptions

// routedEstimatorOptions applies the routing service rate limiter to
// the estimator's HTTP client, so the -osrm-rps flag governs route
// requests as well as health checks.
func routedEstimatorOptions() core.OSRMOptions {
	opts := core.EstimatorOptions()
	opts.Client.Transport = osm.RateLimitTransport(opts.Client.Transport)
	return opts
}

// GeoDistanceInput defines the input parameters for calculating distance
type GeoDistanceInput struct {
	From geo.Location `json:"from"`
	To   geo.Location `json:"to"`
}

// GeoDistanceOutput defines the output for distance calculation
type GeoDistanceOutput struct {
	Distance float64 `json:"distance"` // in meters
}

// GeoDistanceTool returns a tool definition for calculating geographic distance
func GeoDistanceTool() mcp.Tool {
	return mcp.NewTool("geo_distance",
		mcp.WithDescription("Calculate the great-circle distance between two geographic coordinates using the Haversine formula"),
		mcp.WithObject("from",
			mcp.Required(),
			mcp.Description("The starting point as {latitude, longitude}"),
		),
		mcp.WithObject("to",
			mcp.Required(),
			mcp.Description("The ending point as {latitude, longitude}"),
		),
	)
}

// HandleGeoDistance implements geographic distance calculation
func HandleGeoDistance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "geo_distance")

	input, errResult, err := InputParser[GeoDistanceInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if input.From.IsZero() {
		logger.Error("missing 'from' coordinates")
		return ErrorResponse("Missing 'from' coordinates"), nil
	}
	if input.To.IsZero() {
		logger.Error("missing 'to' coordinates")
		return ErrorResponse("Missing 'to' coordinates"), nil
	}

	if err := core.ValidateCoords(input.From.Latitude, input.From.Longitude); err != nil {
		logger.Error("invalid 'from' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'from' coordinates: %s", err)), nil
	}
	if err := core.ValidateCoords(input.To.Latitude, input.To.Longitude); err != nil {
		logger.Error("invalid 'to' coordinates", "error", err)
		return ErrorResponse(fmt.Sprintf("Invalid 'to' coordinates: %s", err)), nil
	}

	distance := geo.HaversineDistance(
		input.From.Latitude, input.From.Longitude,
		input.To.Latitude, input.To.Longitude,
	)

	return resultJSON(logger, GeoDistanceOutput{Distance: distance})
}

// EstimateCommuteDistanceInput defines the input for commute distance estimation
type EstimateCommuteDistanceInput struct {
	// Home and Work accept an address, place name or coordinate string
	Home string `json:"home"`
	Work string `json:"work"`
}

// EstimateCommuteDistanceOutput defines the output for commute distance estimation
type EstimateCommuteDistanceOutput struct {
	Home     *ResolvedLocation     `json:"home"`
	Work     *ResolvedLocation     `json:"work"`
	Estimate core.DistanceEstimate `json:"estimate"`
	Bounds   geo.BoundingBox       `json:"bounds"`
	Note     string                `json:"note,omitempty"`
}

// EstimateCommuteDistanceTool returns a tool definition for estimating commute distance
func EstimateCommuteDistanceTool() mcp.Tool {
	return mcp.NewTool("estimate_commute_distance",
		mcp.WithDescription("Estimate the one-way commute distance between home and work. Uses the road network when the routing service responds, the straight-line distance otherwise"),
		mcp.WithString("home",
			mcp.Required(),
			mcp.Description("Home location: address, place name or coordinate string"),
		),
		mcp.WithString("work",
			mcp.Required(),
			mcp.Description("Workplace location: address, place name or coordinate string"),
		),
	)
}

// HandleEstimateCommuteDistance implements commute distance estimation
func HandleEstimateCommuteDistance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("estimate_commute_distance", func(ctx context.Context, input EstimateCommuteDistanceInput, logger *slog.Logger) (interface{}, error) {
		cacheKey := fmt.Sprintf("commute:%s|%s", strings.ToLower(input.Home), strings.ToLower(input.Work))
		if cached, found := cache.GetGlobalCache().Get(cacheKey); found {
			if output, ok := cached.(EstimateCommuteDistanceOutput); ok {
				monitoring.RecordCacheHit("commute")
				return output, nil
			}
		}
		monitoring.RecordCacheMiss("commute")

		home, work, err := resolveCommuteEndpoints(ctx, input.Home, input.Work)
		if err != nil {
			return nil, err
		}

		estimate := core.EstimateDistance(ctx, home.Location, work.Location, estimatorOptions())
		monitoring.RecordDistanceEstimate(string(estimate.Method))

		logger.Info("commute distance estimated",
			"km", estimate.Km,
			"method", estimate.Method,
		)

		output := EstimateCommuteDistanceOutput{
			Home:     home,
			Work:     work,
			Estimate: estimate,
			Bounds:   *commuteBounds(home.Location, work.Location),
		}
		if estimate.Method == core.DistanceMethodHaversine {
			output.Note = GuidanceOSRMRouteNotFound
		}
		cache.GetGlobalCache().Set(cacheKey, output)

		return output, nil
	})(ctx, req)
}

// resolveCommuteEndpoints resolves the home and work location strings
func resolveCommuteEndpoints(ctx context.Context, homeStr, workStr string) (home, work *ResolvedLocation, err error) {
	home, err = ResolveLocation(ctx, geoClient, homeStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve home location: %w", err)
	}

	work, err = ResolveLocation(ctx, geoClient, workStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve work location: %w", err)
	}

	return home, work, nil
}
