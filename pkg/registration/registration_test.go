package registration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientDisabledIsNoOp(t *testing.T) {
	c := NewClient(Config{Enabled: false}, testLogger())
	c.Start(context.Background())
	if c.IsRegistered() {
		t.Error("disabled client should not register")
	}
	c.Stop()
}

func TestClientRegistersAndDeregisters(t *testing.T) {
	var registrations, deregistrations atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			registrations.Add(1)

			var req RegistrationRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode registration: %v", err)
			}
			if req.Name != "carbonmcp" {
				t.Errorf("name = %q, want carbonmcp", req.Name)
			}
			if req.Type != "mcp" {
				t.Errorf("type = %q, want mcp (default)", req.Type)
			}

			json.NewEncoder(w).Encode(RegistrationResponse{
				Status:     "ok",
				Name:       req.Name,
				TTLSeconds: 90,
			})
		case http.MethodDelete:
			deregistrations.Add(1)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{
		Enabled:           true,
		RegistryURL:       srv.URL,
		ServiceName:       "carbonmcp",
		HeartbeatInterval: time.Hour, // keep the loop to its initial registration
	}, testLogger())

	c.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for !c.IsRegistered() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !c.IsRegistered() {
		t.Fatal("client did not register within deadline")
	}

	c.Stop()

	if got := registrations.Load(); got != 1 {
		t.Errorf("registrations = %d, want 1", got)
	}
	if got := deregistrations.Load(); got != 1 {
		t.Errorf("deregistrations = %d, want 1", got)
	}
	if c.IsRegistered() {
		t.Error("client should not be registered after Stop")
	}
}

func TestClientSurvivesUnavailableRegistry(t *testing.T) {
	c := NewClient(Config{
		Enabled:           true,
		RegistryURL:       "http://127.0.0.1:0",
		ServiceName:       "carbonmcp",
		HeartbeatInterval: time.Hour,
		Timeout:           100 * time.Millisecond,
	}, testLogger())

	c.Start(context.Background())
	time.Sleep(200 * time.Millisecond)

	if c.IsRegistered() {
		t.Error("client should not report registered when registry is down")
	}
	c.Stop()
}
