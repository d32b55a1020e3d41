// Package telemetry provides logging and OpenTelemetry instrumentation
// for Skywalker.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/charles-forsyth/Skywalker/config"
	"github.com/charles-forsyth/Skywalker/types"
)

// Provider wraps OTEL tracer and meter providers. Without an endpoint it
// runs with in-process no-export providers, so instrumentation calls are
// always safe.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter

	scanDuration  metric.Float64Histogram
	unitsScanned  metric.Int64Counter
	recordsFound  metric.Int64Counter
	scanFailures  metric.Int64Counter
	zombieCount   metric.Int64Counter
	zombieWasteMo metric.Float64Counter
}

// NewProvider creates a telemetry provider from config.
func NewProvider(ctx context.Context, cfg config.OTELConfig) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	p := &Provider{}

	if err := p.setupTracing(ctx, cfg, res); err != nil {
		return nil, err
	}

	if err := p.setupMetrics(ctx, cfg, res); err != nil {
		if p.tracerProvider != nil {
			_ = p.tracerProvider.Shutdown(ctx)
		}
		return nil, err
	}

	if err := p.initInstruments(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Provider) setupTracing(ctx context.Context, cfg config.OTELConfig, res *resource.Resource) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
	}

	if cfg.Traces.Enabled && cfg.Endpoint != "" {
		exp, err := createTraceExporter(ctx, cfg)
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
		sampler := sdktrace.TraceIDRatioBased(cfg.Traces.SampleRate)
		opts = append(opts, sdktrace.WithBatcher(exp), sdktrace.WithSampler(sampler))
	}

	p.tracerProvider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(p.tracerProvider)
	p.tracer = p.tracerProvider.Tracer("skywalker")

	return nil
}

func (p *Provider) setupMetrics(ctx context.Context, cfg config.OTELConfig, res *resource.Resource) error {
	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
	}

	if cfg.Metrics.Enabled && cfg.Endpoint != "" {
		exp, err := createMetricExporter(ctx, cfg)
		if err != nil {
			return fmt.Errorf("create metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	p.meterProvider = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter("skywalker")

	return nil
}

func createTraceExporter(ctx context.Context, cfg config.OTELConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

func createMetricExporter(ctx context.Context, cfg config.OTELConfig) (sdkmetric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return otlpmetricgrpc.New(ctx, opts...)
}

func (p *Provider) initInstruments() error {
	var err error

	p.scanDuration, err = p.meter.Float64Histogram(
		"skywalker_scan_duration_seconds",
		metric.WithDescription("Duration of fleet scans"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create scan_duration: %w", err)
	}

	p.unitsScanned, err = p.meter.Int64Counter(
		"skywalker_scan_units_total",
		metric.WithDescription("Scan units attempted, by outcome"),
	)
	if err != nil {
		return fmt.Errorf("create units_scanned: %w", err)
	}

	p.recordsFound, err = p.meter.Int64Counter(
		"skywalker_resources_total",
		metric.WithDescription("Normalized resource records aggregated"),
	)
	if err != nil {
		return fmt.Errorf("create records_found: %w", err)
	}

	p.scanFailures, err = p.meter.Int64Counter(
		"skywalker_scan_failures_total",
		metric.WithDescription("Failed scan units, by failure class"),
	)
	if err != nil {
		return fmt.Errorf("create scan_failures: %w", err)
	}

	p.zombieCount, err = p.meter.Int64Counter(
		"skywalker_zombies_total",
		metric.WithDescription("Zombie findings detected, by category"),
	)
	if err != nil {
		return fmt.Errorf("create zombie_count: %w", err)
	}

	p.zombieWasteMo, err = p.meter.Float64Counter(
		"skywalker_zombie_waste_monthly_usd",
		metric.WithDescription("Estimated monthly waste of zombie findings"),
	)
	if err != nil {
		return fmt.Errorf("create zombie_waste: %w", err)
	}

	return nil
}

// StartSpan starts a new span.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name)
}

// RecordScanDuration records the wall time of one fleet scan.
func (p *Provider) RecordScanDuration(ctx context.Context, d time.Duration) {
	p.scanDuration.Record(ctx, d.Seconds())
}

// RecordUnitOutcome records one completed scan unit.
func (p *Provider) RecordUnitOutcome(ctx context.Context, outcome types.ScanOutcome) {
	status := "ok"
	if outcome.Failed() {
		status = "failed"
		p.scanFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("class", string(outcome.Failure.Class)),
			attribute.String("service", string(outcome.Scope.Service)),
		))
	}
	p.unitsScanned.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("service", string(outcome.Scope.Service)),
	))
	if n := len(outcome.Records); n > 0 {
		p.recordsFound.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("service", string(outcome.Scope.Service)),
		))
	}
}

// RecordZombie records one zombie finding.
func (p *Provider) RecordZombie(ctx context.Context, finding types.ZombieFinding) {
	p.zombieCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", string(finding.Category)),
	))
	p.zombieWasteMo.Add(ctx, finding.EstimatedMonthlyCost, metric.WithAttributes(
		attribute.String("category", string(finding.Category)),
	))
}

// Shutdown flushes and shuts down the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown tracer: %w", err)
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown meter: %w", err)
		}
	}
	return nil
}
