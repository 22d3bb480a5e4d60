// Package core provides shared utilities for the carbon footprint MCP tools.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ecotrace/carbonmcp/pkg/geo"
)

// DistanceMethod records which path produced a distance estimate.
type DistanceMethod string

const (
	// DistanceMethodRoute means the driving distance came from the
	// routing service.
	DistanceMethodRoute DistanceMethod = "route"

	// DistanceMethodHaversine means the routing service was unavailable
	// and the great-circle distance was used instead.
	DistanceMethodHaversine DistanceMethod = "haversine"
)

// routingTimeout bounds the single routing attempt. Expiry counts as a
// routing failure and triggers the haversine fallback.
const routingTimeout = 5 * time.Second

// DistanceEstimate is the result of a commute distance estimation.
type DistanceEstimate struct {
	// Km is the estimated one-way distance in kilometers
	Km float64 `json:"km"`

	// Method is "route" or "haversine"
	Method DistanceMethod `json:"method"`

	// DurationSec is the driving duration in seconds, route method only
	DurationSec float64 `json:"duration_sec,omitempty"`

	// Geometry is the encoded route polyline, route method only
	Geometry string `json:"geometry,omitempty"`
}

// EstimatorOptions returns OSRM options tuned for distance estimation:
// one attempt, short timeout. A failure here is recovered from, not
// retried.
func EstimatorOptions() OSRMOptions {
	opts := DefaultOSRMOptions()
	opts.Client = &http.Client{Timeout: routingTimeout}
	opts.RetryOptions = SingleAttempt
	return opts
}

// FetchRouteDistance asks the routing service for the driving distance
// between two points. It returns an error for any failure: network
// error, non-200 status, timeout, or a response without routes.
func FetchRouteDistance(ctx context.Context, from, to geo.Location, options OSRMOptions) (DistanceEstimate, error) {
	ctx, cancel := context.WithTimeout(ctx, routingTimeout)
	defer cancel()

	// OSRM expects [lon, lat] pairs
	coordinates := [][]float64{
		{from.Longitude, from.Latitude},
		{to.Longitude, to.Latitude},
	}

	result, err := GetRoute(ctx, coordinates, options)
	if err != nil {
		return DistanceEstimate{}, err
	}

	if len(result.Routes) == 0 {
		return DistanceEstimate{}, fmt.Errorf("routing response contains no routes")
	}

	route := result.Routes[0]
	return DistanceEstimate{
		Km:          route.Distance / 1000,
		Method:      DistanceMethodRoute,
		DurationSec: route.Duration,
		Geometry:    route.Geometry,
	}, nil
}

// EstimateDistance estimates the driving distance in kilometers between
// two points. The routing service gets exactly one attempt; on any
// failure the haversine great-circle distance is substituted. This
// function never returns an error.
func EstimateDistance(ctx context.Context, from, to geo.Location, options OSRMOptions) DistanceEstimate {
	estimate, err := FetchRouteDistance(ctx, from, to, options)
	if err == nil {
		return estimate
	}

	slog.Default().With("service", "distance").Debug("routing unavailable, using haversine fallback",
		"error", err,
		"from_lat", from.Latitude,
		"from_lon", from.Longitude,
		"to_lat", to.Latitude,
		"to_lon", to.Longitude,
	)

	return DistanceEstimate{
		Km:     geo.HaversineDistanceKm(from, to),
		Method: DistanceMethodHaversine,
	}
}
