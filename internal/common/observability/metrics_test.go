package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordRequest(t *testing.T) {
	reader := metric.NewManualReader()
	obs := NewWithReader(reader, "vca-test")
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordRequest(ctx, "/api/vca", 200, 15*time.Millisecond)
	obs.RecordRequest(ctx, "/api/vca", 500, 5*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = m
	}
	require.Contains(t, names, "http.server.requests")
	require.Contains(t, names, "http.server.duration")

	sum, ok := names["http.server.requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)
	assert.Len(t, sum.DataPoints, 2)
}

func TestNoopIsSafe(t *testing.T) {
	var nilObs *Observability
	nilObs.RecordRequest(context.Background(), "/", 200, time.Millisecond)
	nilObs.Shutdown()

	obs := NewNoop()
	obs.RecordRequest(context.Background(), "/", 200, time.Millisecond)
	obs.Shutdown()
}
