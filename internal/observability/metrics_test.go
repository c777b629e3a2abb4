package observability

import (
	"context"
	"testing"
	"time"

	"commerce-service-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.Record(ctx, "CreateWishlist", "OK", 20*time.Millisecond)
	m.Record(ctx, "CreateWishlist", "OK", 30*time.Millisecond)
	m.Record(ctx, "GetWishlist", "NotFound", 5*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		byName[metric.Name] = metric
	}

	counter, ok := byName["commerce_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[attribute.Distinct]int64{}
	for _, dp := range counter.DataPoints {
		counts[dp.Attributes.Equivalent()] = dp.Value
	}
	okSet := attribute.NewSet(attribute.String("method", "CreateWishlist"), attribute.String("status", "OK"))
	assert.Equal(t, int64(2), counts[okSet.Equivalent()])

	histogram, ok := byName["commerce_request_latency_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, histogram.DataPoints, 2)
}

func TestInitOTel_Disabled(t *testing.T) {
	shutdown, err := InitOTel(context.Background(), models.OtelConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSampleRatio(t *testing.T) {
	assert.Equal(t, 0.1, sampleRatio(0))
	assert.Equal(t, 0.1, sampleRatio(-3))
	assert.Equal(t, 1.0, sampleRatio(7))
	assert.Equal(t, 0.5, sampleRatio(0.5))
}
