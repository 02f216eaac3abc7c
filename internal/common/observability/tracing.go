// internal/common/observability/tracing.go
package observability

import (
	"fmt"

	"subsidy-recommender/internal/common/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used by the recommendation packages.
const TracerName = "subsidy-recommender"

// EnableTracing installs a global tracer provider exporting to jaeger. With
// tracing disabled the global no-op provider stays in place.
func (o *Observability) EnableTracing(cfg config.TracingConfig, serviceName, version string) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.JaegerEndpoint == "" {
		return fmt.Errorf("tracing enabled without jaeger_endpoint")
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return fmt.Errorf("failed to create jaeger exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	o.tracerShutdown = tp.Shutdown

	return nil
}

// Tracer returns the package tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
