// Package observability wires OpenTelemetry tracing and Prometheus-exported metrics
// for the weather outfit service.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Telemetry owns the providers and the service's instruments. It implements
// ports.MetricsRecorder, middleware.RequestRecorder and database.QueryObserver.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	logger         *zap.Logger

	RequestCounter       metric.Int64Counter
	RequestDuration      metric.Float64Histogram
	ErrorCounter         metric.Int64Counter
	DBQueryDuration      metric.Float64Histogram
	CacheHitCounter      metric.Int64Counter
	CacheMissCounter     metric.Int64Counter
	ProviderCallCounter  metric.Int64Counter
	ProviderCallDuration metric.Float64Histogram
	BreakerTransitions   metric.Int64Counter
}

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// OTLPEndpoint is the collector address; empty disables span export.
	OTLPEndpoint string
	SampleRate   float64
}

// InitTelemetry installs global tracer and meter providers. Metrics are exposed through the
// default Prometheus registry, so it must be called once per process.
func InitTelemetry(ctx context.Context, cfg Config, logger *zap.Logger) (*Telemetry, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracerProvider, err := initTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracer provider: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return newTelemetry(cfg.ServiceName, tracerProvider, meterProvider, logger)
}

func initTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	}

	if cfg.OTLPEndpoint != "" {
		exporter, err := otlptrace.New(
			ctx,
			otlptracegrpc.NewClient(
				otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
				otlptracegrpc.WithInsecure(),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

func newTelemetry(name string, tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider, logger *zap.Logger) (*Telemetry, error) {
	meter := mp.Meter(name)
	t := &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Tracer:         tp.Tracer(name),
		Meter:          meter,
		logger:         logger,
	}

	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&t.RequestCounter, "http_requests_total", "Total number of HTTP requests"},
		{&t.ErrorCounter, "errors_total", "Total number of errors"},
		{&t.CacheHitCounter, "cache_hits_total", "Result cache hits by payload kind"},
		{&t.CacheMissCounter, "cache_misses_total", "Result cache misses by payload kind"},
		{&t.ProviderCallCounter, "weather_provider_calls_total", "Weather provider calls by outcome"},
		{&t.BreakerTransitions, "circuit_breaker_transitions_total", "Circuit breaker state changes"},
	}

	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1")); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&t.RequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds"},
		{&t.DBQueryDuration, "db_query_duration_seconds", "Database query duration in seconds"},
		{&t.ProviderCallDuration, "weather_provider_call_duration_seconds", "Weather provider call duration in seconds"},
	}

	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s")); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Telemetry) RecordRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", statusCode),
	)

	t.RequestCounter.Add(ctx, 1, attrs)
	t.RequestDuration.Record(ctx, duration.Seconds(), attrs)

	if statusCode >= 500 {
		t.ErrorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", "http")))
	}
}

// RecordDBQuery matches database.QueryObserver.
func (t *Telemetry) RecordDBQuery(ctx context.Context, operation string, duration time.Duration, err error) {
	t.DBQueryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("error", err != nil),
	))

	if err != nil {
		t.ErrorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", "database"),
			attribute.String("operation", operation),
		))
	}
}

func (t *Telemetry) RecordCacheHit(ctx context.Context, kind string) {
	t.CacheHitCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (t *Telemetry) RecordCacheMiss(ctx context.Context, kind string) {
	t.CacheMissCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (t *Telemetry) RecordProviderCall(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))

	t.ProviderCallCounter.Add(ctx, 1, attrs)
	t.ProviderCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordBreakerTransition has the shape of circuitbreaker.Config.OnStateChange minus the gobreaker types.
func (t *Telemetry) RecordBreakerTransition(name, from, to string) {
	t.BreakerTransitions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		wrapShutdown("tracer", t.TracerProvider.Shutdown(ctx)),
		wrapShutdown("meter", t.MeterProvider.Shutdown(ctx)),
	)
}

func wrapShutdown(provider string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("failed to shutdown %s provider: %w", provider, err)
}
