package observability

import (
	"context"
	"testing"
	"time"

	"peerbets/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

func newManualProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(config.NewTestConfig())

	mp.mu.Lock()
	require.NoError(t, mp.start(resource.Empty(), reader))
	mp.mu.Unlock()

	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetricsProvider_RecordsBettingActivity(t *testing.T) {
	mp, reader := newManualProvider(t)

	mp.RecordPlacementAccepted("wager", "€", 1250)
	mp.RecordPlacementAccepted("wager", "€", 750)
	mp.RecordPlacementAccepted("dare", "", 0)
	mp.RecordPlacementRejected("event_closed")
	mp.RecordEventResolved("wager", 3)
	mp.RecordHTTPRequest("/events/{eventID}", "GET", 200, 15*time.Millisecond)

	assert.Equal(t, int64(3), collectSum(t, reader, PlacementsAcceptedTotal))
	assert.Equal(t, int64(2000), collectSum(t, reader, StakedCentsTotal))
	assert.Equal(t, int64(1), collectSum(t, reader, PlacementsRejectedTotal))
	assert.Equal(t, int64(3), collectSum(t, reader, DebtRecordsTotal))
}

func TestMetricsProvider_DisabledIsSilent(t *testing.T) {
	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() {
		nilProvider.RecordPlacementConflict()
		nilProvider.RecordEventCreated("wager")
	})
	assert.NoError(t, nilProvider.Shutdown(context.Background()))

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = false
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())
	assert.NotPanics(t, func() { mp.RecordEventPublished("betting.event.created") })
}
