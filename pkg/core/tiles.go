// Package core provides shared utilities for the carbon footprint MCP tools.
package core

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// DefaultTileProvider is the default OSM tile server
	DefaultTileProvider = "https://tile.openstreetmap.org"

	// DefaultTileSize is the size of OSM tiles in pixels
	DefaultTileSize = 256
)

// LatLonToTile converts latitude, longitude and zoom to tile coordinates
func LatLonToTile(lat, lon float64, zoom int) (x, y int) {
	lat = math.Max(-85.05112878, math.Min(85.05112878, lat))
	n := math.Pow(2, float64(zoom))

	x = int(math.Floor((lon + 180.0) / 360.0 * n))
	y = int(math.Floor((1.0 - math.Log(math.Tan(lat*math.Pi/180.0)+1.0/math.Cos(lat*math.Pi/180.0))/math.Pi) / 2.0 * n))

	return x, y
}

// TileToLatLon converts tile coordinates to latitude, longitude
func TileToLatLon(x, y, zoom int) (lat, lon float64) {
	n := math.Pow(2, float64(zoom))
	lon = float64(x)/n*360.0 - 180.0

	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	lat = latRad * 180.0 / math.Pi

	return lat, lon
}

// TileInfo contains information about a map tile
type TileInfo struct {
	Zoom      int     `json:"zoom"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	NorthLat  float64 `json:"north_lat"`
	SouthLat  float64 `json:"south_lat"`
	EastLon   float64 `json:"east_lon"`
	WestLon   float64 `json:"west_lon"`
	TileURL   string  `json:"tile_url"`
	PixelSize float64 `json:"pixel_size_meters"` // Approximate meters per pixel at this zoom/latitude
	MapScale  string  `json:"map_scale"`         // Approximate map scale (e.g. "1:10000")
}

// GetTileInfo returns information about a tile
func GetTileInfo(x, y, zoom int) TileInfo {
	yCenter := float64(y) + 0.5
	centerLat, centerLon := TileToLatLon(x, int(yCenter), zoom)

	northLat, westLon := TileToLatLon(x, y, zoom)
	southLat, eastLon := TileToLatLon(x+1, y+1, zoom)

	// Approximate meters per pixel at this latitude
	metersPerPixel := 156543.03 * math.Cos(centerLat*math.Pi/180) / math.Pow(2, float64(zoom))

	// Approximate map scale assuming 96 DPI (1 pixel = 0.26 mm)
	mapScale := metersPerPixel / 0.00026

	return TileInfo{
		Zoom:      zoom,
		X:         x,
		Y:         y,
		CenterLat: centerLat,
		CenterLon: centerLon,
		NorthLat:  northLat,
		SouthLat:  southLat,
		EastLon:   eastLon,
		WestLon:   westLon,
		TileURL:   fmt.Sprintf("%s/%d/%d/%d.png", DefaultTileProvider, zoom, x, y),
		PixelSize: metersPerPixel,
		MapScale:  "1:" + strconv.FormatInt(int64(math.Round(mapScale)), 10),
	}
}
