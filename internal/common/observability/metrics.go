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

// Stage status values.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Observability records pipeline stage metrics through the otel SDK. The
// prometheus exporter registers with the default registry, so stage metrics
// appear on /metrics next to the HTTP metrics.
type Observability struct {
	meterProvider *metric.MeterProvider
	stageCounter  otelmetric.Int64Counter
	stageDuration otelmetric.Float64Histogram
}

// New builds the meter provider. A zero Observability is returned when the
// exporter cannot be created; its Record methods are no-ops.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}
	return newWithReader(serviceName, exporter)
}

func newWithReader(serviceName string, reader metric.Reader) (*Observability, error) {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	stageCounter, err := meter.Int64Counter(
		"intake.stage.processed",
		otelmetric.WithDescription("Number of pipeline stage executions"),
	)
	if err != nil {
		return &Observability{meterProvider: provider}, err
	}

	stageDuration, err := meter.Float64Histogram(
		"intake.stage.duration",
		otelmetric.WithDescription("Pipeline stage duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return &Observability{meterProvider: provider, stageCounter: stageCounter}, err
	}

	return &Observability{
		meterProvider: provider,
		stageCounter:  stageCounter,
		stageDuration: stageDuration,
	}, nil
}

// RecordStage counts one execution of stage and records how long it took.
func (o *Observability) RecordStage(ctx context.Context, stage string, duration time.Duration, status string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	)
	if o.stageCounter != nil {
		o.stageCounter.Add(ctx, 1, attrs)
	}
	if o.stageDuration != nil {
		o.stageDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

// Track returns a func that records stage with the elapsed time since Track
// was called. Pass the stage error; nil records StatusOK.
func (o *Observability) Track(ctx context.Context, stage string) func(err error) {
	start := time.Now()
	return func(err error) {
		status := StatusOK
		if err != nil {
			status = StatusFailed
		}
		o.RecordStage(ctx, stage, time.Since(start), status)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
