// Package tracing provides OpenTelemetry tracing capabilities for carbonmcp
package tracing

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// ServiceName is the name of the service in traces
	ServiceName = "carbonmcp"
	// TracerName is the name of the tracer
	TracerName = "github.com/ecotrace/carbonmcp"
)

// Tracer is the process-wide tracer. It stays a no-op unless InitTracing
// finds an OTLP_ENDPOINT to export to.
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer(TracerName)

// InitTracing wires the OTLP gRPC exporter when OTLP_ENDPOINT is set and
// returns a shutdown function. Without an endpoint, tracing is a no-op and
// the returned shutdown does nothing.
func InitTracing(ctx context.Context, version string) (shutdown func(context.Context) error, err error) {
	endpoint := os.Getenv("OTLP_ENDPOINT")
	if endpoint == "" {
		Tracer = noop.NewTracerProvider().Tracer(TracerName)
		return func(ctx context.Context) error { return nil }, nil
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	))
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	res, err := serviceResource(version)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	Tracer = tp.Tracer(TracerName)

	return func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(shutdownCtx)
	}, nil
}

func serviceResource(version string) (*resource.Resource, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
			attribute.String("service.environment", env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	return res, nil
}

// StartSpan starts a new span on the package tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer.Start(ctx, name, opts...)
}

// recordingSpan returns the context's span only when it is recording.
func recordingSpan(ctx context.Context) trace.Span {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return nil
	}
	return span
}

// RecordError records an error on the span from context.
func RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	if span := recordingSpan(ctx); span != nil {
		span.RecordError(err, opts...)
	}
}

// SetStatus sets the status of the span from context.
func SetStatus(ctx context.Context, code codes.Code, description string) {
	if span := recordingSpan(ctx); span != nil {
		span.SetStatus(code, description)
	}
}

// AddEvent adds an event to the span from context.
func AddEvent(ctx context.Context, name string, opts ...trace.EventOption) {
	if span := recordingSpan(ctx); span != nil {
		span.AddEvent(name, opts...)
	}
}

// SetAttributes sets attributes on the span from context.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	if span := recordingSpan(ctx); span != nil {
		span.SetAttributes(attrs...)
	}
}
