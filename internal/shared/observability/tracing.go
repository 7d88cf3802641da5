// # internal/shared/observability/tracing.go
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "depmap"

// Tracer is the tracer used for analysis spans. It resolves against the
// global provider, so it is a no-op until InitTracing installs one.
var Tracer trace.Tracer = otel.Tracer(serviceName)

type TracingConfig struct {
	// OTLPEndpoint is the OTLP gRPC receiver, e.g. "localhost:4317".
	// Empty disables tracing.
	OTLPEndpoint string
	// SampleAll forces AlwaysSample instead of the default parent-based sampling.
	SampleAll bool
	Version   string
}

// InitTracing installs a batching OTLP tracer provider. The returned
// shutdown flushes pending spans and must be called on exit.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", serviceName),
		attribute.String("service.version", cfg.Version),
	)

	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.1))
	if cfg.SampleAll {
		sampler = sdktrace.AlwaysSample()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	Tracer = tp.Tracer(serviceName)

	return tp.Shutdown, nil
}
