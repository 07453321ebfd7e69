package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func newTestTelemetry(t *testing.T) (*Telemetry, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	tel, err := newTelemetry("weather-outfit-test",
		sdktrace.NewTracerProvider(),
		sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	return tel, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}

	return out
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key string) map[string]int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)

	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(key))
		out[v.Emit()] += dp.Value
	}

	return out
}

func TestTelemetry_CacheAndProviderMetrics(t *testing.T) {
	tel, reader := newTestTelemetry(t)
	ctx := context.Background()

	tel.RecordCacheHit(ctx, "cities")
	tel.RecordCacheHit(ctx, "cities")
	tel.RecordCacheMiss(ctx, "weather_city")
	tel.RecordProviderCall(ctx, "ok", 120*time.Millisecond)
	tel.RecordProviderCall(ctx, "provider_error", 80*time.Millisecond)
	tel.RecordBreakerTransition("weatherapi", "closed", "open")

	metrics := collect(t, reader)

	assert.Equal(t, map[string]int64{"cities": 2}, sumByAttr(t, metrics["cache_hits_total"], "kind"))
	assert.Equal(t, map[string]int64{"weather_city": 1}, sumByAttr(t, metrics["cache_misses_total"], "kind"))
	assert.Equal(t, map[string]int64{"ok": 1, "provider_error": 1}, sumByAttr(t, metrics["weather_provider_calls_total"], "outcome"))
	assert.Equal(t, map[string]int64{"open": 1}, sumByAttr(t, metrics["circuit_breaker_transitions_total"], "to"))

	hist, ok := metrics["weather_provider_call_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(2), count)
}

func TestTelemetry_ErrorsCountOnlyServerFailures(t *testing.T) {
	tel, reader := newTestTelemetry(t)
	ctx := context.Background()

	tel.RecordRequest(ctx, "GET", "/api/v1/weather", 200, time.Millisecond)
	tel.RecordRequest(ctx, "GET", "/api/v1/weather", 404, time.Millisecond)
	tel.RecordRequest(ctx, "GET", "/api/v1/weather", 503, time.Millisecond)
	tel.RecordDBQuery(ctx, "FindCityByID", time.Millisecond, errors.New("boom"))
	tel.RecordDBQuery(ctx, "FindCityByID", time.Millisecond, nil)

	metrics := collect(t, reader)

	assert.Equal(t, map[string]int64{"/api/v1/weather": 3}, sumByAttr(t, metrics["http_requests_total"], "route"))
	assert.Equal(t, map[string]int64{"http": 1, "database": 1}, sumByAttr(t, metrics["errors_total"], "type"))
}
