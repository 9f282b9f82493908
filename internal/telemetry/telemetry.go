// Package telemetry provides OpenTelemetry instrumentation for ec2inv.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/ec2inv/internal/config"
	"github.com/yairfalse/ec2inv/internal/plugin"
)

const scopeName = "github.com/yairfalse/ec2inv"

// Provider wraps OTEL tracer and meter providers. Metrics are read by a
// Prometheus exporter into a private registry so a one-shot run can dump
// them to a textfile.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *promclient.Registry
	tracer         trace.Tracer
	meter          metric.Meter

	// Metrics
	fetchDuration    metric.Float64Histogram
	instancesFetched metric.Int64Counter
	fetchErrors      metric.Int64Counter
}

var _ plugin.Observer = (*Provider)(nil)

// NewProvider creates a new telemetry provider.
func NewProvider(ctx context.Context, cfg config.OTELConfig) (*Provider, error) {
	return newProvider(ctx, cfg)
}

func newProvider(ctx context.Context, cfg config.OTELConfig, extra ...sdktrace.TracerProviderOption) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	p := &Provider{}

	if err := p.setupTracing(ctx, cfg, res, extra); err != nil {
		return nil, err
	}

	if err := p.setupMetrics(res); err != nil {
		_ = p.tracerProvider.Shutdown(ctx)
		return nil, err
	}

	if err := p.initMetrics(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Provider) setupTracing(ctx context.Context, cfg config.OTELConfig, res *resource.Resource, extra []sdktrace.TracerProviderOption) error {
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
	opts = append(opts, extra...)

	p.tracerProvider = sdktrace.NewTracerProvider(opts...)
	p.tracer = p.tracerProvider.Tracer(scopeName)

	return nil
}

func (p *Provider) setupMetrics(res *resource.Resource) error {
	p.registry = promclient.NewRegistry()

	exp, err := prometheus.New(
		prometheus.WithRegisterer(p.registry),
		prometheus.WithoutScopeInfo(),
		prometheus.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("create prometheus exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exp),
	)
	p.meter = p.meterProvider.Meter(scopeName)

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

func (p *Provider) initMetrics() error {
	var err error

	p.fetchDuration, err = p.meter.Float64Histogram(
		"ec2inv_fetch_duration_seconds",
		metric.WithDescription("Duration of DescribeInstances per region"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create fetch_duration: %w", err)
	}

	p.instancesFetched, err = p.meter.Int64Counter(
		"ec2inv_instances_fetched_total",
		metric.WithDescription("Instances returned per region"),
	)
	if err != nil {
		return fmt.Errorf("create instances_fetched: %w", err)
	}

	p.fetchErrors, err = p.meter.Int64Counter(
		"ec2inv_fetch_errors_total",
		metric.WithDescription("Failed region fetches"),
	)
	if err != nil {
		return fmt.Errorf("create fetch_errors: %w", err)
	}

	return nil
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Meter returns the meter.
func (p *Provider) Meter() metric.Meter {
	return p.meter
}

// StartSpan starts a new span.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name)
}

// ObserveScan records one region fetch as a span and a set of metric points.
// The span is back-dated to start so it covers the whole call.
func (p *Provider) ObserveScan(ctx context.Context, region string, start time.Time, d time.Duration, count int, err error) {
	attrs := []attribute.KeyValue{attribute.String("region", region)}

	_, span := p.tracer.Start(ctx, "fetch "+region,
		trace.WithTimestamp(start),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End(trace.WithTimestamp(start.Add(d)))

	p.fetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))

	if err != nil {
		code := "unknown"
		var fe *plugin.FetchError
		if errors.As(err, &fe) {
			code = fe.Code
		}
		p.fetchErrors.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("code", code))...))
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		return
	}

	p.instancesFetched.Add(ctx, int64(count), metric.WithAttributes(attrs...))
	span.SetAttributes(attribute.Int("instances", count))
}

// Gatherer exposes the metrics registry.
func (p *Provider) Gatherer() promclient.Gatherer {
	return p.registry
}

// WriteTextfile writes every metric to path in the text exposition format,
// atomically, for node_exporter's textfile collector.
func (p *Provider) WriteTextfile(path string) error {
	if err := promclient.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
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
