package osm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const mockSearchResponse = `[{
	"display_name": "Kuala Lumpur, Malaysia",
	"lat": "3.1516964",
	"lon": "101.6942371",
	"address": {
		"city": "Kuala Lumpur",
		"state": "Kuala Lumpur",
		"country": "Malaysia",
		"country_code": "my"
	}
}]`

const mockReverseResponse = `{
	"display_name": "Jalan Ampang, Kuala Lumpur, Malaysia",
	"lat": "3.1579",
	"lon": "101.7116",
	"address": {
		"road": "Jalan Ampang",
		"city": "Kuala Lumpur",
		"state": "Kuala Lumpur",
		"country": "Malaysia",
		"country_code": "my"
	}
}`

// withMockNominatim points the Nominatim base URL at a test server
// for the duration of a test.
func withMockNominatim(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	orig := NominatimBaseURL
	NominatimBaseURL = srv.URL
	ClearGeocodeCache()
	t.Cleanup(func() {
		NominatimBaseURL = orig
		ClearGeocodeCache()
		srv.Close()
	})
	return srv
}

func TestGeocode(t *testing.T) {
	requests := 0
	withMockNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if got := r.URL.Query().Get("addressdetails"); got != "1" {
			t.Errorf("addressdetails = %q, want 1", got)
		}
		fmt.Fprint(w, mockSearchResponse)
	})

	c := NewClient()
	place, err := c.Geocode(context.Background(), "Kuala Lumpur")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}

	if place.Latitude != 3.1516964 || place.Longitude != 101.6942371 {
		t.Errorf("got (%f, %f)", place.Latitude, place.Longitude)
	}
	if place.Address.Locality() != "Kuala Lumpur" {
		t.Errorf("Locality = %q, want Kuala Lumpur", place.Address.Locality())
	}
	if place.Address.CountryCode != "my" {
		t.Errorf("CountryCode = %q, want my", place.Address.CountryCode)
	}

	// Second lookup should hit the cache
	if _, err := c.Geocode(context.Background(), "kuala lumpur"); err != nil {
		t.Fatalf("cached Geocode failed: %v", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (cache miss)", requests)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	withMockNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	c := NewClient()
	_, err := c.Geocode(context.Background(), "xzzyqv nowhere")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
}

func TestGeocodeEmptyQuery(t *testing.T) {
	c := NewClient()
	if _, err := c.Geocode(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestGeocodeOverride(t *testing.T) {
	// No mock server; the override must short-circuit the network call
	orig := NominatimBaseURL
	NominatimBaseURL = "http://127.0.0.1:0"
	defer func() { NominatimBaseURL = orig }()

	c := NewClient()
	place, err := c.Geocode(context.Background(), "  Yayasan Selangor  ")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if place.Address.City != "Petaling Jaya" {
		t.Errorf("City = %q, want Petaling Jaya", place.Address.City)
	}

	// Mutating the returned place must not corrupt the table
	place.Address.City = "changed"
	again, _ := c.Geocode(context.Background(), "yayasan selangor")
	if again.Address.City != "Petaling Jaya" {
		t.Error("override table was mutated through a returned place")
	}
}

func TestReverseGeocode(t *testing.T) {
	withMockNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lat") == "" || q.Get("lon") == "" {
			t.Error("missing lat/lon parameters")
		}
		fmt.Fprint(w, mockReverseResponse)
	})

	c := NewClient()
	place, err := c.ReverseGeocode(context.Background(), 3.1579, 101.7116)
	if err != nil {
		t.Fatalf("ReverseGeocode failed: %v", err)
	}
	if place.Address.Road != "Jalan Ampang" {
		t.Errorf("Road = %q, want Jalan Ampang", place.Address.Road)
	}
}

func TestReverseGeocodeInvalidCoords(t *testing.T) {
	c := NewClient()
	if _, err := c.ReverseGeocode(context.Background(), 91, 0); err == nil {
		t.Fatal("expected error for invalid latitude")
	}
}

func TestGeocodeServerError(t *testing.T) {
	withMockNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	c := NewClient()
	_, err := c.Geocode(context.Background(), "Kuala Lumpur")
	if err == nil {
		t.Fatal("expected error for 503 response")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want a StatusError", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", statusErr.StatusCode)
	}
	if statusErr.Service != "Nominatim" {
		t.Errorf("service = %q, want Nominatim", statusErr.Service)
	}
}

func TestRegisterOverride(t *testing.T) {
	// No mock server; the registered override must short-circuit the
	// network call like the built-in entries
	orig := NominatimBaseURL
	NominatimBaseURL = "http://127.0.0.1:0"
	defer func() { NominatimBaseURL = orig }()

	RegisterOverride("  Taman Tugu  ", Place{
		DisplayName: "Taman Tugu, Kuala Lumpur, Malaysia",
		Latitude:    3.1526,
		Longitude:   101.6845,
		Address: Address{
			City:        "Kuala Lumpur",
			Country:     "Malaysia",
			CountryCode: "my",
		},
	})

	c := NewClient()
	place, err := c.Geocode(context.Background(), "taman tugu")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if place.Latitude != 3.1526 || place.Longitude != 101.6845 {
		t.Errorf("got (%f, %f), want (3.1526, 101.6845)", place.Latitude, place.Longitude)
	}
}

func TestOverrideConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			RegisterOverride(fmt.Sprintf("concurrent spot %d", i), Place{
				DisplayName: "Concurrent Spot",
				Latitude:    3.0,
				Longitude:   101.0,
			})
		}()
		go func() {
			defer wg.Done()
			LookupOverride("klcc")
		}()
	}
	wg.Wait()
}

func TestValidateCoords(t *testing.T) {
	tests := []struct {
		lat, lon float64
		wantErr  bool
	}{
		{3.15, 101.69, false},
		{-90, -180, false},
		{90, 180, false},
		{90.1, 0, true},
		{0, -180.1, true},
	}
	for _, tt := range tests {
		err := ValidateCoords(tt.lat, tt.lon)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCoords(%f, %f) err = %v, wantErr %v", tt.lat, tt.lon, err, tt.wantErr)
		}
	}
}
