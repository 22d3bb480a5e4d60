package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/ecotrace/carbonmcp/pkg/core"
	"github.com/ecotrace/carbonmcp/pkg/monitoring"
)

// HTTPTransportConfig holds configuration for the HTTP transport
type HTTPTransportConfig struct {
	Addr           string  `json:"addr"`             // HTTP server address (e.g., ":8080")
	BaseURL        string  `json:"base_url"`         // Base URL for service discovery
	AuthType       string  `json:"auth_type"`        // Authentication type: "bearer", "basic", "none"
	AuthToken      string  `json:"auth_token"`       // Authentication token
	SSEEndpoint    string  `json:"sse_endpoint"`     // SSE endpoint path (default: "/sse")
	MsgEndpoint    string  `json:"msg_endpoint"`     // Message endpoint path (default: "/message")
	RateLimit      float64 `json:"rate_limit"`       // Requests per second per IP (0 = disabled)
	RateBurst      int     `json:"rate_burst"`       // Burst size for rate limiter
	MaxRequestSize int64   `json:"max_request_size"` // Maximum request body size in bytes
	MaxHeaderBytes int     `json:"max_header_bytes"` // Maximum header size in bytes
	TLSCertFile    string  `json:"tls_cert_file"`    // Path to TLS certificate file
	TLSKeyFile     string  `json:"tls_key_file"`     // Path to TLS private key file
	ForceHTTPS     bool    `json:"force_https"`      // Force HTTPS redirect for HTTP requests
}

// DefaultHTTPTransportConfig returns sensible defaults
func DefaultHTTPTransportConfig() HTTPTransportConfig {
	return HTTPTransportConfig{
		Addr:           ":7082",
		BaseURL:        "",
		AuthType:       "none",
		AuthToken:      "",
		SSEEndpoint:    "/sse",
		MsgEndpoint:    "/message",
		RateLimit:      10,
		RateBurst:      20,
		MaxRequestSize: 10 << 20, // 10 MB
		MaxHeaderBytes: 1 << 20,  // 1 MB
		TLSCertFile:    "",
		TLSKeyFile:     "",
		ForceHTTPS:     false,
	}
}

// HTTPTransport implements HTTP+SSE dual transport for MCP
type HTTPTransport struct {
	config        HTTPTransportConfig
	logger        *slog.Logger
	sseServer     *mcpserver.SSEServer
	mux           *http.ServeMux
	httpSrv       *http.Server
	rateLimiter   *RateLimiter
	healthChecker *monitoring.HealthChecker
	mu            sync.RWMutex
}

// NewHTTPTransport creates a new HTTP transport instance
func NewHTTPTransport(mcpServer *mcpserver.MCPServer, config HTTPTransportConfig, logger *slog.Logger) *HTTPTransport {
	if logger == nil {
		logger = slog.Default()
	}

	if config.AuthType != "none" && config.AuthToken != "" {
		if err := core.ValidateAuthToken(config.AuthToken); err != nil {
			logger.Warn("weak authentication token detected", "error", err.Error())
		}
	}

	sseServer := mcpserver.NewSSEServer(
		mcpServer,
		mcpserver.WithSSEEndpoint(config.SSEEndpoint),
		mcpserver.WithMessageEndpoint(config.MsgEndpoint),
		mcpserver.WithBaseURL(config.BaseURL),
	)

	mux := http.NewServeMux()

	transport := &HTTPTransport{
		config:    config,
		logger:    logger,
		sseServer: sseServer,
		mux:       mux,
	}

	transport.setupRoutes()

	return transport
}

// SetHealthChecker sets the health checker for the HTTP transport
func (t *HTTPTransport) SetHealthChecker(hc *monitoring.HealthChecker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.healthChecker = hc
}

// setupRoutes configures all HTTP routes
func (t *HTTPTransport) setupRoutes() {
	// Root endpoint for service discovery
	t.mux.HandleFunc("/", t.httpsEnforcement(t.handleServiceDiscovery))

	// Health check endpoints (no auth required)
	t.mux.HandleFunc("/health", t.probeHandler(
		func(hc *monitoring.HealthChecker) http.HandlerFunc { return hc.HealthHandler() },
		map[string]interface{}{"status": "ok"}))
	t.mux.HandleFunc("/ready", t.probeHandler(
		func(hc *monitoring.HealthChecker) http.HandlerFunc { return hc.ReadinessHandler() },
		map[string]interface{}{"ready": true, "status": "ok"}))
	t.mux.HandleFunc("/live", t.probeHandler(
		func(hc *monitoring.HealthChecker) http.HandlerFunc { return hc.LivenessHandler() },
		map[string]interface{}{"alive": true}))

	// Debug endpoints (no auth required)
	t.mux.HandleFunc(t.config.SSEEndpoint+"/debug", t.debugHandler(t.config.SSEEndpoint,
		"Server-Sent Events endpoint for MCP communication",
		"Connect with Accept: text/event-stream header"))
	t.mux.HandleFunc(t.config.MsgEndpoint+"/debug", t.debugHandler(t.config.MsgEndpoint,
		"JSON-RPC message endpoint for MCP communication",
		"POST JSON-RPC messages with sessionId query parameter"))

	// Mount both SSE and Message handlers so POST /message and SSE /sse
	// both work
	t.mux.Handle(t.config.SSEEndpoint, t.httpsEnforcement(t.authMiddleware(t.sseServer.SSEHandler()).ServeHTTP))
	t.mux.Handle(t.config.SSEEndpoint+"/", t.httpsEnforcement(t.authMiddleware(t.sseServer.SSEHandler()).ServeHTTP))
	t.mux.Handle(t.config.MsgEndpoint, t.httpsEnforcement(t.authMiddleware(t.sseServer.MessageHandler()).ServeHTTP))
	t.mux.Handle(t.config.MsgEndpoint+"/", t.httpsEnforcement(t.authMiddleware(t.sseServer.MessageHandler()).ServeHTTP))
}

// httpsEnforcement redirects HTTP requests to HTTPS if ForceHTTPS is enabled
func (t *HTTPTransport) httpsEnforcement(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if t.config.ForceHTTPS && r.TLS == nil {
			httpsURL := "https://" + r.Host + r.RequestURI

			t.logger.Info("redirecting HTTP request to HTTPS",
				"client_ip", r.RemoteAddr,
				"original_url", r.URL.String(),
				"redirect_url", httpsURL)

			http.Redirect(w, r, httpsURL, http.StatusMovedPermanently)
			return
		}

		next(w, r)
	}
}

// authMiddleware provides authentication for MCP endpoints
func (t *HTTPTransport) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Health, discovery and debug endpoints stay open
		if r.URL.Path == "/health" || r.URL.Path == "/ready" || r.URL.Path == "/live" ||
			r.URL.Path == "/" ||
			r.URL.Path == t.config.SSEEndpoint+"/debug" || r.URL.Path == t.config.MsgEndpoint+"/debug" {
			next.ServeHTTP(w, r)
			return
		}

		if t.config.AuthType == "none" {
			next.ServeHTTP(w, r)
			return
		}

		var authResult core.AuthResult

		switch t.config.AuthType {
		case "bearer":
			authHeader := r.Header.Get("Authorization")
			authResult = core.AuthenticateBearer(authHeader, t.config.AuthToken)

		case "basic":
			username, password, ok := r.BasicAuth()
			if !ok {
				authResult = core.AuthResult{
					Authorized: false,
					Error:      "Missing basic auth credentials",
				}
			} else {
				authResult = core.AuthenticateBasic(username, password, t.config.AuthToken)
			}

		default:
			authResult = core.AuthResult{
				Authorized: false,
				Error:      "Unknown auth type",
			}
		}

		if !authResult.Authorized {
			t.logger.Warn("authentication failed",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
				"auth_type", t.config.AuthType,
				"error", authResult.Error,
				"auth_duration", authResult.Duration)

			w.Header().Set("WWW-Authenticate", "Bearer")
			t.writeJSONRPCError(w, nil, -32602, "Authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleServiceDiscovery provides service discovery for MCP clients
func (t *HTTPTransport) handleServiceDiscovery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	baseURL := t.config.BaseURL
	if baseURL == "" {
		// Prefer HTTPS if TLS is configured or forced
		scheme := "http"
		if r.TLS != nil || t.config.ForceHTTPS || (t.config.TLSCertFile != "" && t.config.TLSKeyFile != "") {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}

	// Minimal service discovery to avoid information disclosure
	t.writeJSON(w, map[string]interface{}{
		"service":   "mcp-server",
		"transport": "HTTP+SSE",
		"endpoints": map[string]string{
			"sse":     baseURL + t.config.SSEEndpoint,
			"message": baseURL + t.config.MsgEndpoint,
		},
		"capabilities": map[string]interface{}{
			"tools":   true,
			"prompts": true,
		},
		"auth": map[string]interface{}{
			"required": t.config.AuthType != "none",
		},
	})
}

// probeHandler serves a health-style endpoint, delegating to the wired
// health checker when one is set and otherwise returning the fallback JSON.
func (t *HTTPTransport) probeHandler(pick func(*monitoring.HealthChecker) http.HandlerFunc, fallback map[string]interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		t.mu.RLock()
		hc := t.healthChecker
		t.mu.RUnlock()

		if hc != nil {
			pick(hc)(w, r)
			return
		}
		t.writeJSON(w, fallback)
	}
}

// debugHandler describes an MCP endpoint for humans poking at the server.
func (t *HTTPTransport) debugHandler(endpoint, description, usage string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		t.writeJSON(w, map[string]interface{}{
			"endpoint":    endpoint,
			"description": description,
			"usage":       usage,
			"transport":   "HTTP+SSE",
		})
	}
}

// writeJSON encodes payload with a JSON content type.
func (t *HTTPTransport) writeJSON(w http.ResponseWriter, payload map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSONRPCError writes a JSON-RPC error response
func (t *HTTPTransport) writeJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string) {
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		t.logger.Error("failed to encode JSON-RPC error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Start begins serving HTTP requests
func (t *HTTPTransport) Start() error {
	t.mu.Lock()

	if t.httpSrv != nil {
		t.mu.Unlock()
		return core.NewError(core.ErrInternalError, "HTTP transport already started").
			WithGuidance("The HTTP transport is already running. Stop it before starting again.")
	}

	handler := http.Handler(t.mux)
	if t.config.RateLimit > 0 {
		t.rateLimiter = NewRateLimiter(rate.Limit(t.config.RateLimit), t.config.RateBurst)
		handler = t.rateLimiter.Middleware(handler)
	}
	handler = TracingMiddleware()(handler) // Outermost so every request gets a span
	handler = LoggingMiddleware(t.logger)(handler)
	handler = SecurityHeaders(handler)
	handler = RequestSizeLimiter(t.config.MaxRequestSize)(handler)

	t.httpSrv = &http.Server{
		Addr:           t.config.Addr,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: t.config.MaxHeaderBytes,
	}

	useTLS := t.config.TLSCertFile != "" && t.config.TLSKeyFile != ""

	t.logger.Info("starting HTTP transport",
		"addr", t.config.Addr,
		"sse_endpoint", t.config.SSEEndpoint,
		"message_endpoint", t.config.MsgEndpoint,
		"auth_type", t.config.AuthType,
		"base_url", t.config.BaseURL,
		"tls_enabled", useTLS,
		"force_https", t.config.ForceHTTPS)

	if t.config.ForceHTTPS && !useTLS {
		t.logger.Warn("HTTPS enforcement enabled but no TLS certificates provided - HTTP requests will be redirected")
	}

	t.mu.Unlock() // Release lock before blocking call
	if useTLS {
		return t.httpSrv.ListenAndServeTLS(t.config.TLSCertFile, t.config.TLSKeyFile)
	}
	return t.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP transport
func (t *HTTPTransport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.httpSrv == nil {
		return nil
	}

	t.logger.Info("shutting down HTTP transport")

	if t.rateLimiter != nil {
		t.rateLimiter.Stop()
		t.rateLimiter = nil
	}

	// Shutdown SSE server first
	if err := t.sseServer.Shutdown(ctx); err != nil {
		t.logger.Error("failed to shutdown SSE server", "error", err)
	}

	err := t.httpSrv.Shutdown(ctx)
	t.httpSrv = nil
	return err
}

// GetBaseURL returns the configured base URL
func (t *HTTPTransport) GetBaseURL() string {
	return t.config.BaseURL
}

// GetConfig returns the transport configuration
func (t *HTTPTransport) GetConfig() HTTPTransportConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.config
}
