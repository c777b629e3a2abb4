package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "commerce-service-go"

// Metrics records per-RPC request counts and latency
type Metrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewMetrics creates the instruments on meter, or on the global provider when meter is nil
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	requests, err := meter.Int64Counter("commerce_requests_total",
		metric.WithDescription("Total RPC requests by method and status code"))
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("commerce_request_latency_seconds",
		metric.WithDescription("RPC request latency by method"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &Metrics{requests: requests, latency: latency}, nil
}

func (m *Metrics) Record(ctx context.Context, method, status string, elapsed time.Duration) {
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status)))
	m.latency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("method", method)))
}
