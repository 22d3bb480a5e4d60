// Package geo provides primitive geographic types and calculations
// shared by the carbon footprint tools.
package geo

import "math"

const (
	// EarthRadius is the mean Earth radius in meters
	EarthRadius = 6371000.0
)

// Location represents a geographic coordinate in decimal degrees (WGS84)
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the location is within the valid coordinate ranges
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// IsZero reports whether the location is the zero value (0, 0).
// Used by tools to detect missing coordinate input.
func (l Location) IsZero() bool {
	return l.Latitude == 0 && l.Longitude == 0
}

// HaversineDistance calculates the great-circle distance in meters between
// two points given as latitude/longitude in decimal degrees.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadius * c
}

// HaversineDistanceKm is a convenience wrapper returning kilometers.
func HaversineDistanceKm(from, to Location) float64 {
	return HaversineDistance(from.Latitude, from.Longitude, to.Latitude, to.Longitude) / 1000
}

// BoundingBox represents a geographic bounding box
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// NewBoundingBox creates an empty bounding box that extends with the first
// point added to it.
func NewBoundingBox() *BoundingBox {
	return &BoundingBox{
		MinLat: math.MaxFloat64,
		MinLon: math.MaxFloat64,
		MaxLat: -math.MaxFloat64,
		MaxLon: -math.MaxFloat64,
	}
}

// ExtendWithPoint grows the bounding box to include the given point
func (b *BoundingBox) ExtendWithPoint(lat, lon float64) {
	if lat < b.MinLat {
		b.MinLat = lat
	}
	if lat > b.MaxLat {
		b.MaxLat = lat
	}
	if lon < b.MinLon {
		b.MinLon = lon
	}
	if lon > b.MaxLon {
		b.MaxLon = lon
	}
}

// Center returns the center point of the bounding box
func (b *BoundingBox) Center() Location {
	return Location{
		Latitude:  (b.MinLat + b.MaxLat) / 2,
		Longitude: (b.MinLon + b.MaxLon) / 2,
	}
}
