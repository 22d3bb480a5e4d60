// Package osm provides clients for the OpenStreetMap services used
// for geocoding and routing.
package osm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ecotrace/carbonmcp/pkg/tracing"
)

const (
	// DefaultUserAgent is the default User-Agent string
	DefaultUserAgent = "CarbonMCP/0.1.0"
)

var (
	// Global HTTP client with connection pooling
	httpClient *http.Client

	// Rate limiters for each service
	nominatimLimiter *rate.Limiter
	osrmLimiter      *rate.Limiter

	// User agent string
	userAgent     string
	userAgentLock sync.RWMutex
)

// init initializes the global HTTP client and rate limiters
func init() {
	httpClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 30 * time.Second,
	}

	initRateLimiters()

	SetUserAgent(DefaultUserAgent)
}

// initRateLimiters initializes the rate limiters with default values
func initRateLimiters() {
	// Default to 1 request per second with burst of 1, per the
	// Nominatim usage policy
	nominatimLimiter = rate.NewLimiter(rate.Limit(1), 1)
	osrmLimiter = rate.NewLimiter(rate.Limit(1), 1)
}

// UpdateNominatimRateLimits updates the Nominatim rate limiter
func UpdateNominatimRateLimits(rps float64, burst int) {
	nominatimLimiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// UpdateOSRMRateLimits updates the OSRM rate limiter
func UpdateOSRMRateLimits(rps float64, burst int) {
	osrmLimiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// SetUserAgent sets the User-Agent string
func SetUserAgent(ua string) {
	userAgentLock.Lock()
	defer userAgentLock.Unlock()
	userAgent = ua
}

// GetUserAgent returns the current User-Agent string
func GetUserAgent() string {
	userAgentLock.RLock()
	defer userAgentLock.RUnlock()
	return userAgent
}

// GetClient returns the global HTTP client
func GetClient(ctx context.Context) *http.Client {
	return httpClient
}

// hostFromURL extracts the host from a URL string
func hostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Host
}

// waitForRateLimit waits for the appropriate rate limiter based on the request URL
func waitForRateLimit(ctx context.Context, req *http.Request) error {
	host := req.URL.Host

	var service string
	var limiter *rate.Limiter

	switch host {
	case hostFromURL(NominatimBaseURL):
		service = tracing.ServiceNominatim
		limiter = nominatimLimiter
	case hostFromURL(OSRMBaseURL):
		service = tracing.ServiceOSRM
		limiter = osrmLimiter
	default:
		return nil // No rate limiting for unknown hosts
	}

	if !limiter.Allow() {
		startWait := time.Now()

		tracing.AddEvent(ctx, "rate_limit_wait",
			trace.WithAttributes(
				attribute.String(tracing.AttrRateLimitService, service),
			),
		)

		err := limiter.Wait(ctx)

		waitDuration := time.Since(startWait)
		tracing.SetAttributes(ctx,
			attribute.String(tracing.AttrRateLimitService, service),
			attribute.Int64(tracing.AttrRateLimitWaitMs, waitDuration.Milliseconds()),
		)

		if err != nil {
			return err
		}
	}

	return nil
}

// rateLimitedTransport applies the service rate limiters before
// delegating to the underlying transport.
type rateLimitedTransport struct {
	base http.RoundTripper
}

func (t rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := waitForRateLimit(req.Context(), req); err != nil {
		return nil, err
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// RateLimitTransport wraps a transport so requests to the geocoding
// and routing hosts respect the configured rate limits. Requests to
// other hosts pass through untouched.
func RateLimitTransport(base http.RoundTripper) http.RoundTripper {
	return rateLimitedTransport{base: base}
}

// DoRequest performs an HTTP request with rate limiting
func DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", GetUserAgent())

	if err := waitForRateLimit(ctx, req); err != nil {
		return nil, err
	}

	return httpClient.Do(req)
}

// NewRequestWithUserAgent creates a new HTTP request with proper User-Agent header
func NewRequestWithUserAgent(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var req *http.Request
	var err error

	if body != nil {
		bodyReader, ok := body.(io.Reader)
		if !ok {
			return nil, fmt.Errorf("body must implement io.Reader")
		}
		req, err = http.NewRequestWithContext(ctx, method, url, bodyReader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}

	if err != nil {
		return nil, err
	}

	// Required by Nominatim's usage policy
	req.Header.Set("User-Agent", GetUserAgent())

	return req, nil
}

// Client wraps access to the geocoding and routing services
type Client struct {
	logger *slog.Logger
}

// NewClient creates a new service client
func NewClient() *Client {
	return &Client{
		logger: slog.Default(),
	}
}

// SetLogger sets the logger for the client
func (c *Client) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// CheckNominatimHealth checks if the Nominatim service is available
func CheckNominatimHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", NominatimBaseURL+"/status", nil)
	if err != nil {
		return fmt.Errorf("failed to create nominatim health check request: %w", err)
	}

	resp, err := DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("nominatim health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim health check returned status %d", resp.StatusCode)
	}

	return nil
}

// CheckOSRMHealth checks if the OSRM service is available
func CheckOSRMHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", OSRMBaseURL+"/nearest/v1/driving/0,0", nil)
	if err != nil {
		return fmt.Errorf("failed to create osrm health check request: %w", err)
	}

	resp, err := DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("osrm health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("osrm health check returned status %d", resp.StatusCode)
	}

	return nil
}
