package osm

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// MonitoringHooks defines hooks for monitoring HTTP requests
type MonitoringHooks struct {
	// OnRequest is called before making an HTTP request
	OnRequest func(service, operation string)

	// OnResponse is called after receiving an HTTP response
	OnResponse func(service, operation string, duration time.Duration, success bool)

	// OnRateLimit is called when a rate limit is encountered
	OnRateLimit func(service string, waitTime time.Duration)

	// OnError is called when an error occurs
	OnError func(service, errorType string)
}

var globalHooks atomic.Pointer[MonitoringHooks]

// SetMonitoringHooks installs the process-wide hooks. Passing nil disables
// monitoring.
func SetMonitoringHooks(hooks *MonitoringHooks) {
	globalHooks.Store(hooks)
}

// significantWait is the threshold below which rate-limit waits are not
// reported to OnRateLimit.
const significantWait = 100 * time.Millisecond

// MonitoredDoRequest performs req with rate limiting and fires the
// installed monitoring hooks around the call.
func MonitoredDoRequest(ctx context.Context, req *http.Request, operation string) (*http.Response, error) {
	service := serviceForHost(req.URL.Host)
	hooks := globalHooks.Load()

	if hooks != nil && hooks.OnRequest != nil {
		hooks.OnRequest(service, operation)
	}

	start := time.Now()
	if err := waitForRateLimit(ctx, req); err != nil {
		if hooks != nil && hooks.OnError != nil {
			hooks.OnError(service, "rate_limit_wait_error")
		}
		return nil, err
	}

	if waited := time.Since(start); waited > significantWait {
		if hooks != nil && hooks.OnRateLimit != nil {
			hooks.OnRateLimit(service, waited)
		}
	}

	req.Header.Set("User-Agent", GetUserAgent())

	sent := time.Now()
	resp, err := httpClient.Do(req)
	elapsed := time.Since(sent)

	if hooks != nil && hooks.OnResponse != nil {
		success := err == nil && resp != nil && resp.StatusCode < 400
		hooks.OnResponse(service, operation, elapsed, success)
	}
	if err != nil && hooks != nil && hooks.OnError != nil {
		hooks.OnError(service, "request_error")
	}

	return resp, err
}

// serviceForHost names the external service behind a request host.
func serviceForHost(host string) string {
	switch host {
	case hostFromURL(NominatimBaseURL):
		return "nominatim"
	case hostFromURL(OSRMBaseURL):
		return "osrm"
	default:
		return "unknown"
	}
}
