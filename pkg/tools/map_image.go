package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ecotrace/carbonmcp/pkg/core"
	"github.com/ecotrace/carbonmcp/pkg/osm"
)

// GetMapImageTool returns a tool definition for retrieving and displaying map images
func GetMapImageTool() mcp.Tool {
	return mcp.NewTool("get_map_image",
		mcp.WithDescription("Retrieve an OpenStreetMap image of a location, useful for sanity-checking resolved home and work coordinates"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("The latitude coordinate"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("The longitude coordinate"),
		),
		mcp.WithNumber("zoom",
			mcp.Description("Zoom level (1-19, higher values show more detail)"),
			mcp.DefaultNumber(14),
		),
	)
}

// mapImageMetadata accompanies the tile image in the tool result.
type mapImageMetadata struct {
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
	Zoom     int           `json:"zoom"`
	TileInfo core.TileInfo `json:"tile_info"`
	MapURL   string        `json:"map_url"`
}

// HandleGetMapImage implements map image retrieval and display functionality
func HandleGetMapImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "get_map_image")

	lat, lon, err := core.ParseCoordsWithLog(req, logger, "latitude", "longitude")
	if err != nil {
		return core.NewError(core.ErrInvalidInput, err.Error()).
			WithGuidance("Example input:\n" + GetToolUsageExample("get_map_image")).
			ToMCPResult(), nil
	}

	zoom := int(mcp.ParseFloat64(req, "zoom", 14))
	if zoom < 1 || zoom > 19 {
		return core.NewError(core.ErrInvalidInput, "Zoom level must be between 1 and 19").ToMCPResult(), nil
	}

	tileX, tileY := core.LatLonToTile(lat, lon, zoom)
	tileInfo := core.GetTileInfo(tileX, tileY, zoom)
	osmURL := fmt.Sprintf("https://www.openstreetmap.org/#map=%d/%.6f/%.6f", zoom, lat, lon)

	var meta mapImageMetadata
	meta.Coordinates.Latitude = lat
	meta.Coordinates.Longitude = lon
	meta.Zoom = zoom
	meta.TileInfo = tileInfo
	meta.MapURL = osmURL

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		logger.Error("failed to marshal metadata", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	tileURL := fmt.Sprintf("https://tile.openstreetmap.org/%d/%d/%d.png", zoom, tileX, tileY)
	imageData, err := fetchImageFromURL(ctx, tileURL)
	if err != nil {
		logger.Error("failed to fetch image", "error", err)
		return ErrorWithGuidance(NewAPIError("tile server", 0, "Failed to fetch map image", GuidanceNetworkError)), nil
	}

	description := fmt.Sprintf("Map location: %.6f, %.6f (zoom level: %d)\n", lat, lon, zoom) +
		fmt.Sprintf("View this location on OpenStreetMap: %s\n\n", osmURL) +
		"Map area information:\n" +
		fmt.Sprintf("- Bounds: North: %.6f, South: %.6f, East: %.6f, West: %.6f\n",
			tileInfo.NorthLat, tileInfo.SouthLat, tileInfo.EastLon, tileInfo.WestLon) +
		fmt.Sprintf("- Scale: %s (%.2f meters per pixel)\n", tileInfo.MapScale, tileInfo.PixelSize) +
		fmt.Sprintf("- Tile: %d/%d/%d\n", zoom, tileX, tileY) +
		"- Attribution: © OpenStreetMap contributors"

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(imageData),
				MIMEType: "image/png",
			},
			mcp.TextContent{
				Type: "text",
				Text: description + "\n\nMetadata: " + string(metaJSON),
			},
		},
	}, nil
}

// fetchImageFromURL retrieves an image from a URL, retrying transient
// failures with backoff.
func fetchImageFromURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", osm.GetUserAgent())

	resp, err := core.DoWithRetry(ctx, req, core.DefaultClient)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
