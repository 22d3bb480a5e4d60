// Package server provides the MCP server implementation for the carbon footprint tools.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ecotrace/carbonmcp/pkg/tools"
)

const (
	// ServerName is the name of the MCP server
	ServerName = "carbon-footprint-mcp-server"

	// ServerVersion is the version of the MCP server
	ServerVersion = "0.1.0"
)

// Server encapsulates the MCP server with the carbon footprint tools.
type Server struct {
	srv          *mcpserver.MCPServer
	logger       *slog.Logger
	stopCh       chan struct{}
	doneCh       chan struct{}
	running      bool
	mu           sync.Mutex
	once         sync.Once // Ensure we only close stopCh once
	ctxCancel    context.CancelFunc
	ctxGoroutine sync.Once // Ensure we only start one context goroutine
}

// NewServer creates a new carbon footprint MCP server with all tools registered.
func NewServer() (*Server, error) {
	logger := slog.Default()
	logger.Info("initializing carbon footprint MCP server",
		"name", ServerName,
		"version", ServerVersion)

	srv := mcpserver.NewMCPServer(
		ServerName,
		ServerVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	registry := tools.NewRegistry(logger)
	registry.RegisterAll(srv)

	footprintPrompt := mcp.NewPrompt("footprint_system",
		mcp.WithPromptDescription("System prompt with footprint analysis instructions"),
	)

	srv.AddPrompt(footprintPrompt, func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return mcp.NewGetPromptResult(
			"Footprint Analysis Instructions",
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleAssistant,
					mcp.NewTextContent(footprintSystemPrompt()),
				),
			},
		), nil
	})

	return &Server{
		srv:    srv,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// footprintSystemPrompt returns guidance for assistants driving the
// footprint tools.
func footprintSystemPrompt() string {
	return `You help users estimate their personal annual carbon footprint.

Collect five activity inputs before calculating: one-way commute distance
in km (or home and work locations), commuting days per year, household
electricity use in kWh per month, waste in kg per week, and meals per day.

When the user gives home and work locations instead of a distance, prefer
analyze_commute_footprint, which resolves both locations, estimates the
driving distance and produces the full report in one call. Locations may
be addresses, place names or coordinates in decimal, DMS or UTM form.

A distance estimate marked "haversine" is a straight-line approximation
used when the routing service is unavailable; mention this to the user.

Report each category and the total in tonnes CO2 per year, compare the
total against the national average, and offer the reduction tips for the
dominant category.`
}

// Run starts the MCP server using stdin/stdout for communication.
// This method blocks until the server is stopped or an error occurs.
func (s *Server) Run() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go s.monitorParentProcess(5 * time.Second)

	go func() {
		defer close(s.doneCh)
		err := mcpserver.ServeStdio(s.srv)
		if err != nil && err != io.EOF {
			s.logger.Error("server error", "error", err)
		}

		// Ensure the main Run loop is notified that the
		// server has finished processing.
		s.Shutdown()
	}()

	<-s.stopCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	// Wait for server to finish before returning
	<-s.doneCh
	return nil
}

// RunWithContext starts the MCP server and allows for graceful shutdown via context.
// This method blocks until the context is canceled or an error occurs.
func (s *Server) RunWithContext(ctx context.Context) error {
	s.ctxGoroutine.Do(func() {
		derived, cancel := context.WithCancel(ctx)
		s.ctxCancel = cancel

		go func() {
			select {
			case <-derived.Done():
				s.Shutdown()
			case <-s.stopCh:
				// Already being shut down
			}
		}()
	})

	return s.Run()
}

// Shutdown initiates a graceful shutdown of the server.
// It does not block and returns immediately.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	// Avoid panics on double close of the channel
	s.once.Do(func() {
		close(s.stopCh)
	})

	if s.ctxCancel != nil {
		s.ctxCancel()
	}
}

// WaitForShutdown blocks until the server has fully shut down.
func (s *Server) WaitForShutdown() {
	<-s.doneCh
}

// GetMCPServer returns the underlying MCP server instance for HTTP transport
func (s *Server) GetMCPServer() *mcpserver.MCPServer {
	return s.srv
}

// Handler exposes a minimal REST bridge over the footprint tools
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new server handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	path := r.URL.Path
	method := r.Method

	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = generateRequestID()
	}

	h.logger.Info("request started",
		"request_id", reqID,
		"method", method,
		"path", path,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent())

	var status int
	var err error

	switch {
	case path == "/health":
		status, err = h.handleHealth(w, r)
	case path == "/geocode":
		status, err = h.handleGeocode(w, r)
	case path == "/distance":
		status, err = h.handleDistance(w, r)
	case path == "/footprint":
		status, err = h.handleFootprint(w, r)
	case path == "/commute":
		status, err = h.handleCommute(w, r)
	default:
		http.NotFound(w, r)
		status = http.StatusNotFound
		err = nil
	}

	duration := time.Since(start)
	if err != nil {
		h.logger.Error("request failed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration,
			"error", err)
	} else {
		h.logger.Info("request completed",
			"request_id", reqID,
			"method", method,
			"path", path,
			"status", status,
			"duration", duration)
	}
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		h.logger.Error("failed to write health response", "error", err)
		return http.StatusOK, err
	}

	return http.StatusOK, nil
}

// handleGeocode handles geocoding requests
func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) (int, error) {
	q := r.URL.Query()

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "geocode_address",
			Arguments: map[string]any{
				"address": q.Get("address"),
			},
		},
	}

	result, err := tools.HandleGeocodeAddress(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result, "geocode")
}

// handleDistance handles commute distance estimation requests
func (h *Handler) handleDistance(w http.ResponseWriter, r *http.Request) (int, error) {
	q := r.URL.Query()

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "estimate_commute_distance",
			Arguments: map[string]any{
				"home": q.Get("home"),
				"work": q.Get("work"),
			},
		},
	}

	result, err := tools.HandleEstimateCommuteDistance(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result, "distance")
}

// handleFootprint handles footprint calculation requests
func (h *Handler) handleFootprint(w http.ResponseWriter, r *http.Request) (int, error) {
	q := r.URL.Query()

	args := map[string]any{
		"distance_km":               queryFloat(q, "distance_km"),
		"work_days_per_year":        queryFloat(q, "work_days_per_year"),
		"electricity_kwh_per_month": queryFloat(q, "electricity_kwh_per_month"),
		"waste_kg_per_week":         queryFloat(q, "waste_kg_per_week"),
		"meals_per_day":             queryFloat(q, "meals_per_day"),
	}
	if country := q.Get("country"); country != "" {
		args["country"] = country
	}
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "calculate_footprint",
			Arguments: args,
		},
	}

	result, err := tools.HandleCalculateFootprint(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result, "footprint")
}

// handleCommute handles full commute analysis requests
func (h *Handler) handleCommute(w http.ResponseWriter, r *http.Request) (int, error) {
	q := r.URL.Query()

	args := map[string]any{
		"home":                      q.Get("home"),
		"work":                      q.Get("work"),
		"work_days_per_year":        queryFloat(q, "work_days_per_year"),
		"electricity_kwh_per_month": queryFloat(q, "electricity_kwh_per_month"),
		"waste_kg_per_week":         queryFloat(q, "waste_kg_per_week"),
		"meals_per_day":             queryFloat(q, "meals_per_day"),
	}
	if country := q.Get("country"); country != "" {
		args["country"] = country
	}
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "analyze_commute_footprint",
			Arguments: args,
		},
	}

	result, err := tools.HandleAnalyzeCommuteFootprint(r.Context(), req)
	if err != nil {
		return http.StatusInternalServerError, err
	}

	return h.writeToolResult(w, result, "commute")
}

// writeToolResult writes a tool result as a JSON HTTP response
func (h *Handler) writeToolResult(w http.ResponseWriter, result *mcp.CallToolResult, name string) (int, error) {
	var content string
	for _, c := range result.Content {
		if t, ok := c.(mcp.TextContent); ok {
			content = t.Text
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	if result.IsError {
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)

	if _, err := w.Write([]byte(content)); err != nil {
		h.logger.Error("failed to write response", "handler", name, "error", err)
		return status, err
	}

	return status, nil
}

// queryFloat parses a numeric query parameter, returning 0 for missing
// or malformed values so the tool's own validation reports the problem
func queryFloat(q url.Values, key string) float64 {
	v, err := strconv.ParseFloat(q.Get(key), 64)
	if err != nil {
		return 0
	}
	return v
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return time.Now().Format("20060102150405.000000000")
}
