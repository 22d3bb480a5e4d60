package core

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecotrace/carbonmcp/pkg/geo"
)

var (
	kualaLumpur = geo.Location{Latitude: 3.1390, Longitude: 101.6869}
	singapore   = geo.Location{Latitude: 1.3521, Longitude: 103.8198}
)

func estimatorTestOptions(server *httptest.Server) OSRMOptions {
	options := EstimatorOptions()
	options.BaseURL = server.URL
	options.Client = server.Client()
	return options
}

func TestFetchRouteDistance(t *testing.T) {
	server, _ := newMockServer()
	defer server.Close()
	resetRouteCache()

	estimate, err := FetchRouteDistance(context.Background(), kualaLumpur, singapore, estimatorTestOptions(server))
	if err != nil {
		t.Fatal(err)
	}
	if estimate.Km != 100 {
		t.Errorf("expected 100 km, got %f", estimate.Km)
	}
	if estimate.Method != DistanceMethodRoute {
		t.Errorf("expected route method, got %s", estimate.Method)
	}
	if estimate.Geometry != "mock" {
		t.Errorf("expected geometry passthrough, got %q", estimate.Geometry)
	}
}

func TestFetchRouteDistanceNoRoutes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"Ok","routes":[],"waypoints":[]}`))
	}))
	defer server.Close()
	resetRouteCache()

	_, err := FetchRouteDistance(context.Background(), kualaLumpur, singapore, estimatorTestOptions(server))
	if err == nil {
		t.Fatal("expected error for empty routes array")
	}
}

func TestEstimateDistanceFallsBackToHaversine(t *testing.T) {
	server, count := newErrorServer(http.StatusServiceUnavailable)
	defer server.Close()
	resetRouteCache()

	estimate := EstimateDistance(context.Background(), kualaLumpur, singapore, estimatorTestOptions(server))

	if estimate.Method != DistanceMethodHaversine {
		t.Fatalf("expected haversine fallback, got %s", estimate.Method)
	}
	// exactly one routing attempt before falling back
	if *count != 1 {
		t.Errorf("expected exactly 1 routing attempt, got %d", *count)
	}

	expected := geo.HaversineDistanceKm(kualaLumpur, singapore)
	if estimate.Km != expected {
		t.Errorf("fallback should equal haversine distance: expected %f, got %f", expected, estimate.Km)
	}
	if math.Abs(estimate.Km-315) > 5 {
		t.Errorf("KL-Singapore haversine should be ~315 km, got %f", estimate.Km)
	}
}

func TestEstimateDistanceNetworkFailure(t *testing.T) {
	// Server closed before the request is made
	server, _ := newMockServer()
	options := estimatorTestOptions(server)
	server.Close()
	resetRouteCache()

	estimate := EstimateDistance(context.Background(), kualaLumpur, singapore, options)
	if estimate.Method != DistanceMethodHaversine {
		t.Fatalf("expected haversine fallback on network failure, got %s", estimate.Method)
	}
}

func TestEstimateDistanceSamePoint(t *testing.T) {
	server, _ := newErrorServer(http.StatusServiceUnavailable)
	defer server.Close()
	resetRouteCache()

	estimate := EstimateDistance(context.Background(), kualaLumpur, kualaLumpur, estimatorTestOptions(server))
	if estimate.Km != 0 {
		t.Errorf("expected 0 km for identical points, got %f", estimate.Km)
	}
}

func TestEstimateDistanceUsesRouteWhenAvailable(t *testing.T) {
	server, _ := newMockServer()
	defer server.Close()
	resetRouteCache()

	estimate := EstimateDistance(context.Background(), kualaLumpur, singapore, estimatorTestOptions(server))
	if estimate.Method != DistanceMethodRoute {
		t.Fatalf("expected route method, got %s", estimate.Method)
	}
	if estimate.Km != 100 {
		t.Errorf("expected 100 km from mock route, got %f", estimate.Km)
	}
}
