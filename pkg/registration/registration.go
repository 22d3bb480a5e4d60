// Package registration announces this server to an external service
// registry and keeps the entry alive with heartbeats. The registry is
// strictly optional: every failure path degrades to running unregistered.
package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultHeartbeatInterval is how often the registry entry is refreshed
	// unless the config overrides it.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultTimeout bounds each registry HTTP call.
	DefaultTimeout = 5 * time.Second
)

// Config describes this service to the registry.
type Config struct {
	// Enabled controls whether registration is active (default: false)
	Enabled bool

	// RegistryURL is the base URL of the registry endpoint
	RegistryURL string

	// ServiceName is the unique name of this service
	ServiceName string

	// ServiceType is the type of service (usually "mcp")
	ServiceType string

	// ServiceURL is the external URL where this service is accessible
	ServiceURL string

	// HealthURL is the URL for health checks
	HealthURL string

	// InternalURL is the internal URL (optional, for container environments)
	InternalURL string

	// InternalHealthURL is the internal health URL (optional)
	InternalHealthURL string

	// Version is the service version
	Version string

	// Capabilities is a list of capabilities this service provides
	Capabilities []string

	// Tools is a list of MCP tools this service provides
	Tools []string

	// Metadata is additional metadata about the service
	Metadata map[string]interface{}

	// HeartbeatInterval is how often to send heartbeats (default: 30s)
	HeartbeatInterval time.Duration

	// Timeout is the HTTP request timeout (default: 5s)
	Timeout time.Duration
}

// RegistrationRequest is the body posted to the registry on every
// registration and heartbeat.
type RegistrationRequest struct {
	Name           string                 `json:"name"`
	Type           string                 `json:"type"`
	URL            string                 `json:"url"`
	HealthURL      string                 `json:"health_url"`
	InternalURL    string                 `json:"internal_url,omitempty"`
	InternalHealth string                 `json:"internal_health_url,omitempty"`
	Version        string                 `json:"version"`
	Capabilities   []string               `json:"capabilities,omitempty"`
	Tools          []string               `json:"tools,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// RegistrationResponse is what the registry returns on success.
type RegistrationResponse struct {
	Status          string    `json:"status"`
	Name            string    `json:"name"`
	TTLSeconds      int       `json:"ttl_seconds"`
	NextHeartbeatBy time.Time `json:"next_heartbeat_by"`
}

// Client registers the service and maintains its heartbeat.
type Client struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	registered atomic.Bool
}

// NewClient builds a client from cfg, filling in interval, timeout and
// service-type defaults. A disabled config yields a no-op client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ServiceType == "" {
		cfg.ServiceType = "mcp"
	}

	return &Client{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Start launches the heartbeat loop and returns immediately. Disabled or
// misconfigured clients do nothing.
func (c *Client) Start(ctx context.Context) {
	if !c.cfg.Enabled {
		c.logger.Info("service registration disabled")
		return
	}
	if c.cfg.RegistryURL == "" {
		c.logger.Warn("service registration enabled but no registry URL configured")
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.heartbeatLoop(ctx)
	}()
}

// Stop deregisters and waits for the heartbeat loop to exit.
func (c *Client) Stop() {
	if !c.cfg.Enabled || c.cancel == nil {
		return
	}

	c.deregister()
	c.cancel()
	c.wg.Wait()
}

// IsRegistered reports whether the last registry call succeeded.
func (c *Client) IsRegistered() bool {
	return c.registered.Load()
}

func (c *Client) heartbeatLoop(ctx context.Context) {
	c.register(ctx)

	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.register(ctx)
		}
	}
}

// register posts the service description; the same call doubles as the
// heartbeat. Failures are logged at Debug since an absent registry is a
// supported deployment.
func (c *Client) register(ctx context.Context) {
	body, err := json.Marshal(RegistrationRequest{
		Name:           c.cfg.ServiceName,
		Type:           c.cfg.ServiceType,
		URL:            c.cfg.ServiceURL,
		HealthURL:      c.cfg.HealthURL,
		InternalURL:    c.cfg.InternalURL,
		InternalHealth: c.cfg.InternalHealthURL,
		Version:        c.cfg.Version,
		Capabilities:   c.cfg.Capabilities,
		Tools:          c.cfg.Tools,
		Metadata:       c.cfg.Metadata,
	})
	if err != nil {
		c.logger.Error("failed to marshal registration request", "error", err)
		c.registered.Store(false)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.RegistryURL+"/api/register", bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to create registration request", "error", err)
		c.registered.Store(false)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("registration failed (registry may be unavailable)", "error", err)
		c.registered.Store(false)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		c.logger.Warn("registration rejected", "status", resp.StatusCode, "body", string(msg))
		c.registered.Store(false)
		return
	}

	var regResp RegistrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&regResp); err != nil {
		c.logger.Warn("failed to decode registration response", "error", err)
		c.registered.Store(false)
		return
	}

	if c.registered.CompareAndSwap(false, true) {
		c.logger.Info("registered with service registry",
			"name", c.cfg.ServiceName,
			"ttl_seconds", regResp.TTLSeconds)
	}
}

// deregister removes the registry entry. Uses a fresh short-lived context
// because Stop runs after the loop context is cancelled.
func (c *Client) deregister() {
	if !c.IsRegistered() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.cfg.RegistryURL+"/api/register/"+c.cfg.ServiceName, nil)
	if err != nil {
		c.logger.Debug("failed to create deregistration request", "error", err)
		return
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("deregistration failed (registry may be unavailable)", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		c.logger.Info("deregistered from service registry", "name", c.cfg.ServiceName)
	}

	c.registered.Store(false)
}
