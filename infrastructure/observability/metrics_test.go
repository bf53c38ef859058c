package observability

import (
	"context"
	"testing"
	"time"

	"pcbank/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func manualProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(&config.Config{OTelEnabled: true})
	mp.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	mp.meter = mp.meterProvider.Meter(MetricPrefix)
	require.NoError(t, mp.createInstruments())
	mp.initialized = true
	mp.enabled = true
	return mp, reader
}

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetricsProvider_RecordsOperations(t *testing.T) {
	t.Parallel()
	mp, reader := manualProvider(t)

	mp.RecordOperation("transfer.send", "", 10*time.Millisecond)
	mp.RecordOperation("transfer.send", "insufficient_funds", time.Millisecond)
	mp.RecordSweep("expired_slots", 4)
	mp.RecordSweep("overdue_loans", 0)
	mp.RecordAuditDropped(3)

	assert.Equal(t, int64(2), sumOf(t, reader, OperationsTotal))
	assert.Equal(t, int64(4), sumOf(t, reader, SweepRemovedTotal))
	assert.Equal(t, int64(3), sumOf(t, reader, AuditEntriesDroppedTotal))
	require.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	mp := NewMetricsProvider(&config.Config{OTelEnabled: false})
	require.NoError(t, mp.Initialize(context.Background()))
	assert.NotPanics(t, func() {
		mp.RecordOperation("store.purchase", "", time.Millisecond)
		mp.RecordStatsLookup(true)
	})

	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() { nilProvider.RecordEventPublished("loan_issued") })
}
