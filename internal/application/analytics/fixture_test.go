package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/hydrospark/backend/internal/domain/customer"
	"github.com/hydrospark/backend/internal/domain/usage"
	"github.com/hydrospark/backend/internal/infrastructure/lock"
	"github.com/hydrospark/backend/internal/infrastructure/persistence"
	"github.com/hydrospark/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var today = testutil.Day(2024, 3, 1)

type fixture struct {
	customers *persistence.GormCustomerRepository
	readings  *persistence.GormUsageRecordRepository
	anomalies *persistence.GormAnomalyRepository
	publisher *testutil.RecordingPublisher

	analytics *AnalyticsService
	anomaly   *AnomalyService
	forecast  *ForecastService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	clock := testutil.FixedClock(today.Add(9 * time.Hour))

	f := &fixture{
		customers: persistence.NewGormCustomerRepository(db),
		readings:  persistence.NewGormUsageRecordRepository(db),
		anomalies: persistence.NewGormAnomalyRepository(db),
		publisher: testutil.NewRecordingPublisher(),
	}
	f.analytics = NewAnalyticsService(f.customers, f.readings, f.anomalies, nil, clock, time.Second, zap.NewNop())
	f.anomaly = NewAnomalyService(
		f.customers, f.readings, f.anomalies,
		analytics.NewDetector(analytics.DefaultDetectorConfig()),
		lock.NewInMemoryKeyedLocker(),
		f.publisher,
		clock,
		AnomalyServiceConfig{Workers: 4, StorageTimeout: time.Second},
		zap.NewNop(),
	)
	f.forecast = NewForecastService(
		f.customers, f.readings,
		analytics.NewForecastEngine(analytics.DefaultForecastConfig()),
		billing.DefaultRateSchedule(),
		clock, time.Second, zap.NewNop(),
	)
	return f
}

func (f *fixture) seedCustomer(t *testing.T, name string) uuid.UUID {
	t.Helper()
	c, err := customer.NewCustomerAt(name, "7 Lake St", customer.CustomerTypeResidential, 1, testutil.Day(2024, 1, 1))
	require.NoError(t, err)
	require.NoError(t, f.customers.Save(context.Background(), c))
	return c.ID
}

// seedReadings stores one reading per day starting at start
func (f *fixture) seedReadings(t *testing.T, customerID uuid.UUID, start time.Time, values ...float64) {
	t.Helper()
	for i, v := range values {
		rec, err := usage.NewUsageRecord(customerID, start.AddDate(0, 0, i), v)
		require.NoError(t, err)
		require.NoError(t, f.readings.Append(context.Background(), rec))
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
