package geo

import (
	"math"
	"testing"
)

func TestHaversineDistanceSamePoint(t *testing.T) {
	d := HaversineDistance(3.1390, 101.6869, 3.1390, 101.6869)
	if d != 0 {
		t.Errorf("expected 0 for identical points, got %f", d)
	}
}

func TestHaversineDistanceSymmetry(t *testing.T) {
	ab := HaversineDistance(3.1390, 101.6869, 1.3521, 103.8198)
	ba := HaversineDistance(1.3521, 103.8198, 3.1390, 101.6869)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", ab, ba)
	}
}

func TestHaversineDistanceKnownPairs(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64 // meters
		tolerance              float64
	}{
		{
			name: "Kuala Lumpur to Singapore",
			lat1: 3.1390, lon1: 101.6869,
			lat2: 1.3521, lon2: 103.8198,
			expected:  315000,
			tolerance: 5000,
		},
		{
			name: "New York to Los Angeles",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 34.0522, lon2: -118.2437,
			expected:  3935740,
			tolerance: 10000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(d-tt.expected) > tt.tolerance {
				t.Errorf("expected %f +/- %f meters, got %f", tt.expected, tt.tolerance, d)
			}
		})
	}
}

func TestHaversineDistanceKm(t *testing.T) {
	kl := Location{Latitude: 3.1390, Longitude: 101.6869}
	sg := Location{Latitude: 1.3521, Longitude: 103.8198}

	km := HaversineDistanceKm(kl, sg)
	if math.Abs(km-315) > 5 {
		t.Errorf("expected ~315 km, got %f", km)
	}
}

func TestLocationValid(t *testing.T) {
	tests := []struct {
		name  string
		loc   Location
		valid bool
	}{
		{"valid", Location{Latitude: 3.14, Longitude: 101.69}, true},
		{"lat too high", Location{Latitude: 91, Longitude: 0}, false},
		{"lat too low", Location{Latitude: -91, Longitude: 0}, false},
		{"lon too high", Location{Latitude: 0, Longitude: 181}, false},
		{"lon too low", Location{Latitude: 0, Longitude: -181}, false},
		{"boundary", Location{Latitude: 90, Longitude: -180}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestBoundingBox(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.ExtendWithPoint(3.1390, 101.6869)
	bbox.ExtendWithPoint(1.3521, 103.8198)

	if bbox.MinLat != 1.3521 || bbox.MaxLat != 3.1390 {
		t.Errorf("unexpected lat bounds: %f..%f", bbox.MinLat, bbox.MaxLat)
	}
	if bbox.MinLon != 101.6869 || bbox.MaxLon != 103.8198 {
		t.Errorf("unexpected lon bounds: %f..%f", bbox.MinLon, bbox.MaxLon)
	}

	c := bbox.Center()
	if math.Abs(c.Latitude-2.24555) > 1e-6 {
		t.Errorf("unexpected center latitude %f", c.Latitude)
	}
}
