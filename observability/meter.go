package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/aggkit/logger"
	"github.com/kbukum/aggkit/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by pipeline builders and executors.
type Metrics struct {
	runTotal      metric.Int64Counter
	runDuration   metric.Float64Histogram
	runStages     metric.Int64Histogram
	stageRejected metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runTotal, err := meter.Int64Counter("aggregate.runs",
		metric.WithDescription("Total number of aggregation pipeline runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating aggregate.runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("aggregate.run.duration",
		metric.WithDescription("Duration of aggregation pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating aggregate.run.duration histogram: %w", err)
	}

	runStages, err := meter.Int64Histogram("aggregate.run.stages",
		metric.WithDescription("Number of stages per submitted pipeline"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating aggregate.run.stages histogram: %w", err)
	}

	stageRejected, err := meter.Int64Counter("aggregate.stage.rejected",
		metric.WithDescription("Stages rejected by parameter validation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating aggregate.stage.rejected counter: %w", err)
	}

	return &Metrics{
		runTotal:      runTotal,
		runDuration:   runDuration,
		runStages:     runStages,
		stageRejected: stageRejected,
	}, nil
}

// RecordRun records one pipeline submission with its outcome.
func (m *Metrics) RecordRun(ctx context.Context, status string, stages int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStatus, status))
	m.runTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
	m.runStages.Record(ctx, int64(stages), attrs)
}

// RecordRejectedStage records a stage call that failed validation.
func (m *Metrics) RecordRejectedStage(ctx context.Context, stage, code string) {
	if m == nil {
		return
	}
	m.stageRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String("code", code),
	))
}
