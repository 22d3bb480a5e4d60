// Package tools provides the carbon footprint MCP tools implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecotrace/carbonmcp/pkg/monitoring"
	"github.com/ecotrace/carbonmcp/pkg/tracing"
)

// Registry contains all tool definitions and handlers
type Registry struct {
	logger *slog.Logger
}

// NewRegistry creates a new tool registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
	}
}

// ToolDefinition represents a carbon footprint MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	defs := []ToolDefinition{
		// Version and capability tools
		{
			Name:        "get_version",
			Description: "Get the version information for this carbon footprint MCP",
			Tool:        GetVersionTool(),
			Handler:     HandleGetVersion,
		},

		// Geocoding tools
		{
			Name:        "geocode_address",
			Description: "Convert an address, place name or coordinate string (decimal, DMS, UTM) to lat/lon with a structured address",
			Tool:        GeocodeAddressTool(),
			Handler:     HandleGeocodeAddress,
		},
		{
			Name:        "reverse_geocode",
			Description: "Convert geographic coordinates to a street address. Parameters: latitude (number), longitude (number)",
			Tool:        ReverseGeocodeTool(),
			Handler:     HandleReverseGeocode,
		},

		// Distance tools
		{
			Name:        "geo_distance",
			Description: "Calculate distance between two points. Parameters: from (object with latitude/longitude), to (object with latitude/longitude)",
			Tool:        GeoDistanceTool(),
			Handler:     HandleGeoDistance,
		},
		{
			Name:        "estimate_commute_distance",
			Description: "Estimate one-way commute distance between home and work locations. Parameters: home (string), work (string)",
			Tool:        EstimateCommuteDistanceTool(),
			Handler:     HandleEstimateCommuteDistance,
		},

		// Footprint tools
		{
			Name:        "calculate_footprint",
			Description: "Calculate an annual carbon footprint from activity inputs. Parameters: distance_km, work_days_per_year, electricity_kwh_per_month, waste_kg_per_week, meals_per_day, country",
			Tool:        CalculateFootprintTool(),
			Handler:     HandleCalculateFootprint,
		},
		{
			Name:        "compare_footprint",
			Description: "Compare a footprint total against a national per-capita average. Parameters: total_tonnes (number), country (string)",
			Tool:        CompareFootprintTool(),
			Handler:     HandleCompareFootprint,
		},
		{
			Name:        "footprint_tips",
			Description: "Get reduction tips for the dominant emission category. Parameters: transport, electricity, diet, waste (numbers, tonnes CO2/year)",
			Tool:        FootprintTipsTool(),
			Handler:     HandleFootprintTips,
		},
		{
			Name:        "analyze_commute_footprint",
			Description: "Full analysis: resolve locations, estimate commute distance, calculate footprint, compare and advise. Parameters: home, work, work_days_per_year, electricity_kwh_per_month, waste_kg_per_week, meals_per_day, country",
			Tool:        AnalyzeCommuteFootprintTool(),
			Handler:     HandleAnalyzeCommuteFootprint,
		},

		// Visualization tools
		{
			Name:        "get_map_image",
			Description: "Get a map image of a specified location. Parameters: latitude (number), longitude (number), zoom (number, 1-19)",
			Tool:        GetMapImageTool(),
			Handler:     HandleGetMapImage,
		},
	}

	return defs
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		// Wrap handler with tracing and metrics
		tracedHandler := r.wrapWithTracing(def.Name, def.Handler)
		mcpServer.AddTool(def.Tool, tracedHandler)
	}
}

// wrapWithTracing wraps a tool handler with OpenTelemetry tracing and
// Prometheus metrics.
func (r *Registry) wrapWithTracing(toolName string, handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		spanName := fmt.Sprintf("mcp.tool.%s", toolName)
		ctx, span := tracing.StartSpan(ctx, spanName,
			trace.WithAttributes(
				attribute.String(tracing.AttrMCPToolName, toolName),
			),
		)
		defer span.End()

		startTime := time.Now()

		result, err := handler(ctx, req)

		duration := time.Since(startTime)
		durationMs := duration.Milliseconds()

		// Determine status
		status := tracing.StatusSuccess
		success := err == nil && !IsErrorResult(result)
		if err != nil {
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		monitoring.RecordMCPRequest(toolName, duration, success)

		// Calculate result size
		resultSize := 0
		if result != nil && result.Content != nil {
			if data, marshalErr := json.Marshal(result.Content); marshalErr == nil {
				resultSize = len(data)
			}
		}

		span.SetAttributes(
			attribute.String(tracing.AttrMCPToolStatus, status),
			attribute.Int64(tracing.AttrMCPToolDuration, durationMs),
			attribute.Int(tracing.AttrMCPResultSize, resultSize),
		)

		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", durationMs,
			"status", status,
			"result_size", resultSize,
		)

		return result, err
	}
}

// GetToolNames returns a list of all tool names.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// RegisterAll registers all tools with the MCP server.
func (r *Registry) RegisterAll(mcpServer *server.MCPServer) {
	r.RegisterTools(mcpServer)
}
