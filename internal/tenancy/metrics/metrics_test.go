package metrics

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(provider.Meter("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestMetrics_Record(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ObserveClientLookup(ctx, ResultFound)
	m.ObserveClientLookup(ctx, ResultFound)
	m.ObserveClientLookup(ctx, ResultNotFound)
	m.IncrementPoolHandles(ctx)
	m.ObserveResolveClient(ctx, time.Now())

	data := collect(t, reader)

	lookups, ok := data["userpool.client_lookups"].(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("client_lookups data = %T", data["userpool.client_lookups"])
	}
	byResult := map[string]int64{}
	for _, dp := range lookups.DataPoints {
		result, _ := dp.Attributes.Value(attribute.Key("result"))
		byResult[result.AsString()] = dp.Value
	}
	if byResult[ResultFound] != 2 || byResult[ResultNotFound] != 1 {
		t.Errorf("lookups = %v, want found=2 not_found=1", byResult)
	}

	handles, ok := data["userpool.pool_handles_built"].(metricdata.Sum[int64])
	if !ok || len(handles.DataPoints) != 1 || handles.DataPoints[0].Value != 1 {
		t.Errorf("pool_handles_built = %+v, want 1", data["userpool.pool_handles_built"])
	}

	duration, ok := data["userpool.resolve_client.duration"].(metricdata.Histogram[float64])
	if !ok || len(duration.DataPoints) != 1 || duration.DataPoints[0].Count != 1 {
		t.Errorf("resolve_client.duration = %+v, want one observation", data["userpool.resolve_client.duration"])
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.ObserveClientLookup(ctx, ResultFound)
	m.IncrementPoolHandles(ctx)
	m.ObserveResolveClient(ctx, time.Now())
}
