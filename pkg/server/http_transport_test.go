package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

func newTestTransport(t *testing.T, config HTTPTransportConfig) *HTTPTransport {
	t.Helper()
	mcpSrv := mcpserver.NewMCPServer("test-server", "0.0.1")
	return NewHTTPTransport(mcpSrv, config, nil)
}

func TestDefaultHTTPTransportConfig(t *testing.T) {
	config := DefaultHTTPTransportConfig()

	if config.Addr != ":7082" {
		t.Errorf("Addr = %q, want :7082", config.Addr)
	}
	if config.SSEEndpoint != "/sse" {
		t.Errorf("SSEEndpoint = %q, want /sse", config.SSEEndpoint)
	}
	if config.MsgEndpoint != "/message" {
		t.Errorf("MsgEndpoint = %q, want /message", config.MsgEndpoint)
	}
	if config.AuthType != "none" {
		t.Errorf("AuthType = %q, want none", config.AuthType)
	}
	if config.RateLimit <= 0 {
		t.Errorf("RateLimit = %f, want > 0", config.RateLimit)
	}
}

func TestServiceDiscovery(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()

	transport.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var discovery map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&discovery); err != nil {
		t.Fatalf("failed to decode discovery response: %v", err)
	}

	endpoints, ok := discovery["endpoints"].(map[string]interface{})
	if !ok {
		t.Fatalf("discovery response missing endpoints: %+v", discovery)
	}
	if endpoints["sse"] != "http://example.com/sse" {
		t.Errorf("sse endpoint = %v, want http://example.com/sse", endpoints["sse"])
	}
	if endpoints["message"] != "http://example.com/message" {
		t.Errorf("message endpoint = %v, want http://example.com/message", endpoints["message"])
	}

	auth, ok := discovery["auth"].(map[string]interface{})
	if !ok || auth["required"] != false {
		t.Errorf("auth = %v, want required=false", discovery["auth"])
	}
}

func TestServiceDiscoveryMethodNotAllowed(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	transport.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealthEndpointFallback(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())

	for _, path := range []string{"/health", "/ready", "/live"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()

			transport.mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("GET %s = %d, want 200", path, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("GET %s content type = %q, want application/json", path, ct)
			}
		})
	}
}

func TestAuthMiddlewareBearer(t *testing.T) {
	config := DefaultHTTPTransportConfig()
	config.AuthType = "bearer"
	config.AuthToken = "xK9mQ2vL8pR4wN7j"
	transport := newTestTransport(t, config)

	protected := transport.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/message", nil)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 JSON-RPC error, got %d", rec.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/message", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 JSON-RPC error, got %d", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/message", nil)
		req.Header.Set("Authorization", "Bearer "+config.AuthToken)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("health bypasses auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestHTTPSEnforcement(t *testing.T) {
	config := DefaultHTTPTransportConfig()
	config.ForceHTTPS = true
	transport := newTestTransport(t, config)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "example.com"
	rec := httptest.NewRecorder()

	transport.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/" {
		t.Errorf("Location = %q, want https://example.com/", loc)
	}
}

func TestDebugEndpoints(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())

	for _, path := range []string{"/sse/debug", "/message/debug"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()

			transport.mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("GET %s = %d, want 200", path, rec.Code)
			}

			var debug map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&debug); err != nil {
				t.Errorf("failed to decode debug response: %v", err)
			}
		})
	}
}
