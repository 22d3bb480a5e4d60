package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecotrace/carbonmcp/pkg/cache"
	"github.com/ecotrace/carbonmcp/pkg/monitoring"
	"github.com/ecotrace/carbonmcp/pkg/osm"
	"github.com/ecotrace/carbonmcp/pkg/registration"
	"github.com/ecotrace/carbonmcp/pkg/server"
	"github.com/ecotrace/carbonmcp/pkg/tools"
	"github.com/ecotrace/carbonmcp/pkg/tracing"
	ver "github.com/ecotrace/carbonmcp/pkg/version"
)

var (
	showVersionFlag bool
	debug           bool
	generateConfig  string
	userAgent       string
	mergeOnly       bool

	// HTTP transport flags
	enableHTTP    bool
	httpOnly      bool
	httpAddr      string
	httpBaseURL   string
	httpAuthType  string
	httpAuthToken string

	// Monitoring flags
	enableMonitoring bool
	monitoringAddr   string

	// Registration flags
	enableRegistration bool
	registryURL        string
	serviceURL         string
	internalURL        string

	// Rate limits for each external service
	nominatimRPS   float64
	nominatimBurst int
	osrmRPS        float64
	osrmBurst      int
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&generateConfig, "generate-config", "", "Generate an MCP client config file at the specified path")
	flag.StringVar(&userAgent, "user-agent", osm.DefaultUserAgent, "User-Agent string for external API requests")
	flag.BoolVar(&mergeOnly, "merge-only", false, "Only merge new config, don't overwrite existing")

	// HTTP transport flags
	flag.BoolVar(&enableHTTP, "enable-http", false, "Enable HTTP+SSE transport (in addition to stdio)")
	flag.BoolVar(&httpOnly, "http-only", false, "Run HTTP transport only, skip stdio (requires --enable-http)")
	flag.StringVar(&httpAddr, "http-addr", ":7082", "HTTP server address")
	flag.StringVar(&httpBaseURL, "http-base-url", "", "Base URL for HTTP transport (auto-detected if empty)")
	flag.StringVar(&httpAuthType, "http-auth-type", "none", "HTTP authentication type: none, bearer, basic")
	flag.StringVar(&httpAuthToken, "http-auth-token", "", "HTTP authentication token")

	// Monitoring flags
	flag.BoolVar(&enableMonitoring, "enable-monitoring", true, "Enable Prometheus metrics and health endpoints")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")

	// Registration flags
	flag.BoolVar(&enableRegistration, "enable-registration", false, "Enable service registration with a service registry")
	flag.StringVar(&registryURL, "registry-url", "", "Service registry URL")
	flag.StringVar(&serviceURL, "service-url", "", "External URL where this service is accessible")
	flag.StringVar(&internalURL, "internal-url", "", "Internal URL for container environments")

	// Nominatim rate limits
	flag.Float64Var(&nominatimRPS, "nominatim-rps", 1.0, "Nominatim rate limit in requests per second")
	flag.IntVar(&nominatimBurst, "nominatim-burst", 1, "Nominatim rate limit burst size")

	// OSRM rate limits
	flag.Float64Var(&osrmRPS, "osrm-rps", 1.0, "OSRM rate limit in requests per second")
	flag.IntVar(&osrmBurst, "osrm-burst", 1, "OSRM rate limit burst size")
}

func main() {
	flag.Parse()

	var logLevel slog.Level
	if debug {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry tracing
	ctx := context.Background()
	shutdownTracing, err := tracing.InitTracing(ctx, ver.BuildVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		// Continue without tracing - it's not critical
	} else {
		defer func() {
			if err := shutdownTracing(ctx); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()

		if endpoint := os.Getenv("OTLP_ENDPOINT"); endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", endpoint)
		}
	}

	if showVersionFlag {
		showVersion()
		return
	}

	if generateConfig != "" {
		if err := generateClientConfig(generateConfig, mergeOnly); err != nil {
			logger.Error("failed to generate config", "error", err)
			os.Exit(1)
		}
		logger.Info("successfully generated MCP client config", "path", generateConfig)
		return
	}

	if userAgent != osm.DefaultUserAgent {
		osm.SetUserAgent(userAgent)
	}

	if nominatimRPS != 1.0 || nominatimBurst != 1 {
		osm.UpdateNominatimRateLimits(nominatimRPS, nominatimBurst)
	}
	if osrmRPS != 1.0 || osrmBurst != 1 {
		osm.UpdateOSRMRateLimits(osrmRPS, osrmBurst)
	}

	logger.Info("starting carbon footprint MCP server",
		"version", ver.BuildVersion,
		"log_level", logLevel.String(),
		"user_agent", userAgent,
		"nominatim_rps", nominatimRPS,
		"nominatim_burst", nominatimBurst,
		"osrm_rps", osrmRPS,
		"osrm_burst", osrmBurst,
		"http_enabled", enableHTTP,
		"monitoring_enabled", enableMonitoring,
		"monitoring_addr", monitoringAddr)

	// Initialize health checker
	var healthChecker *monitoring.HealthChecker
	if enableMonitoring {
		healthChecker = monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
		defer healthChecker.Shutdown()

		// Hook external service requests into the Prometheus metrics
		osm.SetMonitoringHooks(&osm.MonitoringHooks{
			OnRequest: func(service, operation string) {
				monitoring.RecordExternalServiceRequest(service, operation, 0, false) // Start request
			},
			OnResponse: func(service, operation string, duration time.Duration, success bool) {
				monitoring.RecordExternalServiceRequest(service, operation, duration, success)
			},
			OnRateLimit: func(service string, waitTime time.Duration) {
				monitoring.RecordRateLimitWait(service, waitTime)
				monitoring.RecordRateLimitExceeded(service)
			},
			OnError: func(service, errorType string) {
				monitoring.RecordError(service, errorType)
			},
		})
	}

	s, err := server.NewServer()
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if healthChecker != nil {
		startExternalServiceMonitoring(healthChecker, logger)
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Prometheus metrics server
	var monitoringServer *http.Server
	if enableMonitoring {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if healthChecker != nil {
			mux.HandleFunc("/health", healthChecker.HealthHandler())
			mux.HandleFunc("/ready", healthChecker.ReadinessHandler())
			mux.HandleFunc("/live", healthChecker.LivenessHandler())
		}

		monitoringServer = &http.Server{
			Addr:              monitoringAddr,
			Handler:           mux,
			ReadHeaderTimeout: 30 * time.Second, // Prevent Slowloris attacks
		}

		go func() {
			logger.Info("starting Prometheus metrics server", "addr", monitoringAddr)
			if err := monitoringServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("monitoring server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := monitoringServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown monitoring server", "error", err)
			}
		}()
	}

	// Registration client
	var regClient *registration.Client
	if enableRegistration {
		toolRegistry := tools.NewRegistry(logger)
		toolNames := toolRegistry.GetToolNames()

		svcURL := serviceURL
		if svcURL == "" && enableHTTP {
			svcURL = fmt.Sprintf("http://localhost%s", httpAddr)
		}
		healthURL := ""
		if svcURL != "" {
			healthURL = svcURL + "/health"
		}
		internalHealthURL := ""
		if internalURL != "" {
			internalHealthURL = internalURL + "/health"
		}

		regCfg := registration.Config{
			Enabled:           enableRegistration,
			RegistryURL:       registryURL,
			ServiceName:       "carbonmcp",
			ServiceType:       "mcp",
			ServiceURL:        svcURL,
			HealthURL:         healthURL,
			InternalURL:       internalURL,
			InternalHealthURL: internalHealthURL,
			Version:           ver.BuildVersion,
			Capabilities:      []string{"geocoding", "distance", "footprint"},
			Tools:             toolNames,
			Metadata: map[string]interface{}{
				"transport": map[string]bool{"stdio": true, "http": enableHTTP},
			},
		}
		regClient = registration.NewClient(regCfg, logger)
		regClient.Start(ctx)
		defer regClient.Stop()

		logger.Info("registration client initialized",
			"registry_url", registryURL,
			"service_url", svcURL,
			"tool_count", len(toolNames))
	}

	// HTTP transport in background if enabled
	var httpTransport *server.HTTPTransport
	if enableHTTP {
		config := server.DefaultHTTPTransportConfig()
		config.Addr = httpAddr
		config.BaseURL = httpBaseURL
		config.AuthType = httpAuthType
		config.AuthToken = httpAuthToken

		httpTransport = server.NewHTTPTransport(s.GetMCPServer(), config, logger)

		if healthChecker != nil {
			httpTransport.SetHealthChecker(healthChecker)
		}

		go func() {
			logger.Info("starting HTTP transport", "addr", httpAddr)
			if err := httpTransport.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP transport error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := httpTransport.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shutdown HTTP transport", "error", err)
			}
		}()
	}

	// Transport startup logic:
	// - HTTP not enabled: run stdio blocking on the main thread
	// - HTTP enabled, httpOnly false: run stdio in a goroutine, wait for shutdown
	// - HTTP enabled, httpOnly true: skip stdio, wait for shutdown
	if !enableHTTP {
		logger.Info("transport_enabled", "type", "stdio", "mode", "blocking")
		if err := s.RunWithContext(ctx); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	} else if httpOnly {
		logger.Info("server_ready", "transports", []string{"http"}, "http_only", true)
		<-ctx.Done()
		logger.Info("shutdown signal received")
	} else {
		go func() {
			logger.Info("transport_enabled", "type", "stdio", "mode", "background")
			if err := s.RunWithContext(ctx); err != nil {
				logger.Error("stdio transport error", "error", err)
				// Don't exit - HTTP transport may still be useful
			}
		}()

		logger.Info("server_ready", "transports", []string{"stdio", "http"})
		<-ctx.Done()
		logger.Info("shutdown signal received")
	}

	cache.StopGlobalCache()
	logger.Info("server stopped")
}

// generateClientConfig generates an MCP client configuration file
func generateClientConfig(path string, mergeOnly bool) error {
	if path == "" {
		return fmt.Errorf("config path cannot be empty")
	}
	if !strings.HasSuffix(path, ".json") {
		return fmt.Errorf("config file must have .json extension")
	}

	cleanPath := filepath.Clean(path)
	if err := validateSafePath(cleanPath); err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	configDir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var existingConfig map[string]interface{}
	if mergeOnly {
		if data, err := os.ReadFile(cleanPath); err == nil {
			if err := json.Unmarshal(data, &existingConfig); err != nil {
				return fmt.Errorf("failed to parse existing config: %w", err)
			}
		}
	}

	execPath, err := os.Executable()
	if err != nil {
		execPath = "carbonmcp"
	}

	config := map[string]interface{}{
		"mcpServers": map[string]interface{}{
			"carbonmcp": map[string]interface{}{
				"command": execPath,
				"args":    []string{},
			},
		},
	}

	if mergeOnly && existingConfig != nil {
		for k, v := range existingConfig {
			if _, exists := config[k]; !exists {
				config[k] = v
			}
		}
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateSafePath validates that a path is safe to write to within the
// current working directory
func validateSafePath(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current working directory: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	relPath, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return fmt.Errorf("failed to determine relative path: %w", err)
	}

	if strings.HasPrefix(relPath, "..") || strings.Contains(relPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %s", relPath)
	}

	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths are not allowed for security reasons")
	}

	return nil
}

// showVersion displays version information and exits
func showVersion() {
	info := ver.Info()
	fmt.Printf("carbonmcp %s (commit %s, built %s, %s)\n",
		info["version"], info["commit"], info["build_date"], info["go_version"])
}

// startExternalServiceMonitoring starts monitoring external services
func startExternalServiceMonitoring(healthChecker *monitoring.HealthChecker, logger *slog.Logger) {
	nominatimMonitor := monitoring.NewConnectionMonitor(
		"nominatim",
		healthChecker,
		func() error {
			return osm.CheckNominatimHealth()
		},
		30*time.Second,
	)
	nominatimMonitor.Start()

	osrmMonitor := monitoring.NewConnectionMonitor(
		"osrm",
		healthChecker,
		func() error {
			return osm.CheckOSRMHealth()
		},
		30*time.Second,
	)
	osrmMonitor.Start()

	logger.Info("started external service monitoring",
		"services", []string{"nominatim", "osrm"},
		"check_interval", "30s")
}
