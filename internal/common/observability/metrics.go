// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter provider (exported through the
// prometheus registry) and, when enabled, the tracer provider.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerShutdown func(context.Context) error

	runCounter  otelmetric.Int64Counter
	runDuration otelmetric.Float64Histogram
}

// New creates the meter provider. A failing exporter leaves a no-op value so
// that callers never need to nil-check.
func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	runCounter, _ := meter.Int64Counter(
		"recommendation.runs",
		otelmetric.WithDescription("Number of recommendation pipeline runs"),
	)

	runDuration, _ := meter.Float64Histogram(
		"recommendation.duration",
		otelmetric.WithDescription("Recommendation pipeline duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		runCounter:    runCounter,
		runDuration:   runDuration,
	}
}

// RecordRun counts one pipeline run; source is "http" or "worker".
func (o *Observability) RecordRun(ctx context.Context, source, status string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)
	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, attrs)
	}
	if o.runDuration != nil {
		o.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.tracerShutdown != nil {
		_ = o.tracerShutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
