package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheckerStatus(t *testing.T) {
	hc := NewHealthChecker(ServiceName, "test")
	defer hc.Shutdown()

	health := hc.GetHealth()
	if health.Status != "healthy" {
		t.Errorf("status with no connections = %q, want healthy", health.Status)
	}

	hc.UpdateConnection("nominatim", "connected", 12, nil)
	hc.UpdateConnection("osrm", "connected", 30, nil)
	if got := hc.GetHealth().Status; got != "healthy" {
		t.Errorf("status = %q, want healthy", got)
	}

	// One of two in error: degraded, not unhealthy
	hc.UpdateConnection("osrm", "error", 0, errors.New("timeout"))
	if got := hc.GetHealth().Status; got != "degraded" {
		t.Errorf("status = %q, want degraded", got)
	}

	// Both in error: unhealthy
	hc.UpdateConnection("nominatim", "error", 0, errors.New("timeout"))
	if got := hc.GetHealth().Status; got != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", got)
	}

	hc.RemoveConnection("nominatim")
	hc.RemoveConnection("osrm")
	if got := hc.GetHealth().Status; got != "healthy" {
		t.Errorf("status after removal = %q, want healthy", got)
	}
}

func TestHealthHandler(t *testing.T) {
	hc := NewHealthChecker(ServiceName, "test")
	defer hc.Shutdown()

	hc.UpdateConnection("nominatim", "connected", 10, nil)

	rec := httptest.NewRecorder()
	hc.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}

	var health ServiceHealth
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Service != ServiceName {
		t.Errorf("service = %q, want %q", health.Service, ServiceName)
	}
	if _, ok := health.Connections["nominatim"]; !ok {
		t.Error("expected nominatim connection in response")
	}
}

func TestHealthHandlerUnhealthy(t *testing.T) {
	hc := NewHealthChecker(ServiceName, "test")
	defer hc.Shutdown()

	hc.UpdateConnection("nominatim", "error", 0, errors.New("down"))

	rec := httptest.NewRecorder()
	hc.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", rec.Code)
	}
}

func TestReadinessAndLiveness(t *testing.T) {
	hc := NewHealthChecker(ServiceName, "test")
	defer hc.Shutdown()

	rec := httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("readiness status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d, want 200", rec.Code)
	}
}
