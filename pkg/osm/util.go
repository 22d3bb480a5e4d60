package osm

import (
	"fmt"
)

// Base URLs for the external services. The Nominatim and OSRM URLs
// are variables so tests can point them at mock servers.
var (
	NominatimBaseURL = "https://nominatim.openstreetmap.org"
	OSRMBaseURL      = "https://router.project-osrm.org"
)

// ValidateCoords validates latitude and longitude values.
// Returns an error if the coordinates are invalid.
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", lon)
	}
	return nil
}
