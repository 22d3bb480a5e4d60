package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ecotrace/carbonmcp/pkg/footprint"
)

func TestNewServer(t *testing.T) {
	s, err := NewServer()
	if err != nil {
		t.Errorf("NewServer() error = %v", err)
	}
	if s == nil {
		t.Error("NewServer() returned nil server")
	}
}

func TestServer_Run(t *testing.T) {
	s, err := NewServer()
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := s.RunWithContext(ctx); err != nil {
			t.Errorf("RunWithContext() error = %v", err)
		}
	}()

	s.Shutdown()
	s.WaitForShutdown()
}

func TestHandler_Health(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger)
	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	status, err := h.handleHealth(rr, req)
	if err != nil {
		t.Fatalf("handleHealth returned error: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestHandler_Footprint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger)

	req := httptest.NewRequest("GET",
		"/footprint?distance_km=10&work_days_per_year=230&electricity_kwh_per_month=200&waste_kg_per_week=5&meals_per_day=3", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		Country string                   `json:"country"`
		Report  footprint.EmissionReport `json:"report"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Country != "MY" {
		t.Errorf("country = %q, want MY", body.Country)
	}
	if body.Report.Total != 4.01 {
		t.Errorf("total = %f, want 4.01", body.Report.Total)
	}
}

func TestHandler_FootprintInvalidInput(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger)

	// missing work_days_per_year fails validation
	req := httptest.NewRequest("GET", "/footprint?distance_km=10&meals_per_day=3", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandler_NotFound(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger)

	req := httptest.NewRequest("GET", "/nope", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestIsProcessRunning(t *testing.T) {
	if !isProcessRunning(os.Getpid()) {
		t.Errorf("isProcessRunning(%d) = false, want true (current process)", os.Getpid())
	}
	if !isProcessRunning(os.Getppid()) {
		t.Errorf("isProcessRunning(%d) = false, want true (parent process)", os.Getppid())
	}
	if isProcessRunning(999999) {
		t.Error("isProcessRunning(999999) = true, want false")
	}
	if isProcessRunning(-1) {
		t.Error("isProcessRunning(-1) = true, want false")
	}
}
