package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/hydrospark/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:     false,
		ServiceName: "test-service",
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewEngineMetrics(t *testing.T) {
	t.Run("nil meter is rejected", func(t *testing.T) {
		_, err := telemetry.NewEngineMetrics(nil, zap.NewNop())
		assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	})

	t.Run("noop meter records without error", func(t *testing.T) {
		m, err := telemetry.NewEngineMetrics(noop.NewMeterProvider().Meter("test"), nil)
		require.NoError(t, err)

		ctx := context.Background()
		m.RecordAnomaliesDetected(ctx, 3)
		m.RecordAnomalyReviewed(ctx)
		m.RecordBillOutcome(ctx, "generated", "")
		m.RecordBillTransition(ctx, "sent")
		m.RecordForecast(ctx, "usage")
		m.RecordUsageWrite(ctx, "initial")
		m.RecordBatch(ctx, "generate_bills", time.Second)
	})

	t.Run("nil metrics is safe", func(t *testing.T) {
		var m *telemetry.EngineMetrics
		assert.NotPanics(t, func() {
			m.RecordAnomaliesDetected(context.Background(), 1)
			m.RecordBillOutcome(context.Background(), "failed", "NO_USAGE_DATA")
			m.RecordBatch(context.Background(), "detect_anomalies", time.Millisecond)
		})
	})
}

func TestEngineMetrics_Export(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := telemetry.NewEngineMetrics(provider.Meter("test"), zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAnomaliesDetected(ctx, 2)
	m.RecordAnomaliesDetected(ctx, 0)
	m.RecordAnomaliesDetected(ctx, 5)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "hydro_anomalies_detected_total" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(7), total)
}
