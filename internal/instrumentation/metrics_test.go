package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetrics_ZeroValueIsNoop(t *testing.T) {
	ctx := context.Background()
	var nilMetrics *Metrics
	empty := &Metrics{}

	for _, m := range []*Metrics{nilMetrics, empty} {
		m.RecordHTTPRequest(ctx, "GET", "/availability", 200, time.Millisecond)
		m.RecordGoogleAPIOperation(ctx, OperationFreeBusy, StatusSuccess, time.Millisecond)
		m.RecordGoogleAPIRetry(ctx, OperationFreeBusy, "network_error")
		m.RecordSlotsReturned(ctx, "live", 3)
		m.RecordFallback(ctx, BookingAvailability, "network_error")
		m.RecordToolInvocation(ctx, "calendar_get_availability", StatusSuccess, time.Millisecond)
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	m.RecordSlotsReturned(context.Background(), "synthetic", 10)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_Recorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewMetrics(mp.Meter("test"), true)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordGoogleAPIOperation(ctx, OperationCreateEvent, StatusError, 250*time.Millisecond)
	m.RecordFallback(ctx, BookingAvailability, "network_error")
	m.RecordFallback(ctx, BookingAvailability, "network_error")
	m.RecordToolInvocationWithSource(ctx, "calendar_list_events", StatusSuccess, "synthetic", time.Millisecond)

	got := collect(t, reader)

	ops, ok := got["google_api_operations_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, ops.DataPoints, 1)
	assert.Equal(t, int64(1), ops.DataPoints[0].Value)

	fallback, ok := got["calendar_fallback_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, fallback.DataPoints, 1)
	assert.Equal(t, int64(2), fallback.DataPoints[0].Value)

	tools, ok := got["mcp_tool_invocations_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, tools.DataPoints, 1)
	source, ok := tools.DataPoints[0].Attributes.Value(attrSource)
	require.True(t, ok)
	assert.Equal(t, "synthetic", source.AsString())
}

func TestMetrics_DetailedLabelsDisabled(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)
	m.RecordToolInvocationWithSource(context.Background(), "calendar_list_events", StatusSuccess, "synthetic", time.Millisecond)

	tools, ok := collect(t, reader)["mcp_tool_invocations_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, tools.DataPoints, 1)
	_, ok = tools.DataPoints[0].Attributes.Value(attrSource)
	assert.False(t, ok)
}
