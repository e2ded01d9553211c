// Package metrics provides OpenTelemetry instrumentation for pool/client resolution.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Client lookup results.
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Metrics tracks client lookups and pool handle construction.
type Metrics struct {
	clientLookups    metric.Int64Counter
	poolHandlesBuilt metric.Int64Counter
	resolveDuration  metric.Float64Histogram
}

// New creates the resolver instruments on meter.
func New(meter metric.Meter) (*Metrics, error) {
	lookups, err := meter.Int64Counter("userpool.client_lookups",
		metric.WithDescription("App client registration lookups by result"))
	if err != nil {
		return nil, err
	}
	handles, err := meter.Int64Counter("userpool.pool_handles_built",
		metric.WithDescription("User pool handles constructed by the resolver"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("userpool.resolve_client.duration",
		metric.WithDescription("Duration of GetUserPoolForClientID"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1))
	if err != nil {
		return nil, err
	}
	return &Metrics{
		clientLookups:    lookups,
		poolHandlesBuilt: handles,
		resolveDuration:  duration,
	}, nil
}

// ObserveClientLookup counts one lookup with result.
func (m *Metrics) ObserveClientLookup(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.clientLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// IncrementPoolHandles records one constructed pool handle.
func (m *Metrics) IncrementPoolHandles(ctx context.Context) {
	if m == nil {
		return
	}
	m.poolHandlesBuilt.Add(ctx, 1)
}

// ObserveResolveClient records the duration since start.
func (m *Metrics) ObserveResolveClient(ctx context.Context, start time.Time) {
	if m == nil {
		return
	}
	m.resolveDuration.Record(ctx, time.Since(start).Seconds())
}
