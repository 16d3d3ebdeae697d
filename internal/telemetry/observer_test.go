package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ManuGH/tixsim/internal/exchange"
)

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

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is %T", m.Name, m.Data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestExchangeObserver_RecordsEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	obs, err := NewExchangeObserver(mp.Meter(MeterName))
	require.NoError(t, err)

	id := uuid.New()
	obs.RunStarted(id, exchange.RunConfig{Vendors: 1, Customers: 1, Total: 5, Capacity: 2})
	obs.AttemptCompleted(exchange.Outcome{Role: exchange.RoleVendor, Reason: exchange.ReasonNoSalesYet})
	obs.AttemptCompleted(exchange.Outcome{Role: exchange.RoleCustomer, Accepted: true, Ticket: 1})
	obs.GateWaited(exchange.RoleVendor, 2*time.Millisecond)
	obs.GateTimedOut(exchange.RoleCustomer)
	obs.InvariantViolated(id, &exchange.InvariantError{Invariant: exchange.InvariantCapacity})
	obs.RunStopped(id, exchange.StopReasonHalted)

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, metrics["tixsim.exchange.attempts"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["tixsim.exchange.runs.started"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["tixsim.exchange.runs.stopped"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["tixsim.exchange.gate.timeouts"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["tixsim.exchange.invariant.violations"]))

	hist, ok := metrics["tixsim.exchange.gate.wait"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	attempts := metrics["tixsim.exchange.attempts"].Data.(metricdata.Sum[int64])
	assert.Len(t, attempts.DataPoints, 2, "accepted and rejected attempts carry distinct attributes")
}
