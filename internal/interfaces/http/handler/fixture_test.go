package handler

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appanalytics "github.com/hydrospark/backend/internal/application/analytics"
	appbilling "github.com/hydrospark/backend/internal/application/billing"
	appcustomer "github.com/hydrospark/backend/internal/application/customer"
	appusage "github.com/hydrospark/backend/internal/application/usage"
	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/hydrospark/backend/internal/domain/customer"
	"github.com/hydrospark/backend/internal/domain/usage"
	"github.com/hydrospark/backend/internal/infrastructure/lock"
	"github.com/hydrospark/backend/internal/infrastructure/persistence"
	"github.com/hydrospark/backend/internal/interfaces/http/middleware"
	"github.com/hydrospark/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// today is the clock date every handler test runs at
var today = testutil.Day(2024, 3, 5)

type apiFixture struct {
	engine    *gin.Engine
	customers *persistence.GormCustomerRepository
	readings  *persistence.GormUsageRecordRepository
}

// newAPI wires the full service stack over SQLite and mounts every handler
// on a bare engine, the same paths the router registers under /api/v1.
func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	clock := testutil.FixedClock(today.Add(8 * time.Hour))
	locker := lock.NewInMemoryKeyedLocker()
	publisher := testutil.NewRecordingPublisher()
	log := zap.NewNop()

	customers := persistence.NewGormCustomerRepository(db)
	readings := persistence.NewGormUsageRecordRepository(db)
	anomalies := persistence.NewGormAnomalyRepository(db)
	bills := persistence.NewGormBillRepository(db)
	rates := billing.DefaultRateSchedule()

	customerH := NewCustomerHandler(appcustomer.NewService(customers, bills, locker, clock, time.Second, log))
	usageH := NewUsageHandler(appusage.NewService(customers, readings, bills, locker, log, time.Second))
	analyticsH := NewAnalyticsHandler(appanalytics.NewAnalyticsService(customers, readings, anomalies, nil, clock, time.Second, log))
	anomalyH := NewAnomalyHandler(appanalytics.NewAnomalyService(
		customers, readings, anomalies,
		analytics.NewDetector(analytics.DefaultDetectorConfig()),
		locker, publisher, clock,
		appanalytics.AnomalyServiceConfig{Workers: 2, StorageTimeout: time.Second},
		log,
	))
	forecastH := NewForecastHandler(appanalytics.NewForecastService(
		customers, readings,
		analytics.NewForecastEngine(analytics.DefaultForecastConfig()),
		rates, clock, time.Second, log,
	))
	billingH := NewBillingHandler(appbilling.NewService(
		customers, readings, bills, rates, locker, publisher, clock,
		appbilling.Config{Workers: 2, StorageTimeout: time.Second},
		log,
	))

	engine := gin.New()
	engine.Use(middleware.RequestID())

	engine.POST("/customers", customerH.Register)
	engine.GET("/customers", customerH.List)
	engine.GET("/customers/:id", customerH.Get)
	engine.PUT("/customers/:id/cycle", customerH.ChangeCycle)

	engine.POST("/usage", usageH.Record)
	engine.POST("/usage/correct", usageH.Correct)
	engine.GET("/usage/customers/:id", usageH.List)

	engine.GET("/analytics/customers/:id", analyticsH.GetCustomerAnalytics)

	engine.GET("/anomalies", anomalyH.List)
	engine.POST("/anomalies/detect", anomalyH.Detect)
	engine.POST("/anomalies/:id/review", anomalyH.Review)

	engine.GET("/forecasts/customers/:id", forecastH.GetForecast)
	engine.GET("/forecasts/customers/:id/bill", forecastH.GetForecastedBill)

	engine.POST("/bills/generate", billingH.Generate)
	engine.GET("/bills/summary", billingH.Summary)
	engine.GET("/bills", billingH.List)
	engine.GET("/bills/:id", billingH.Get)
	engine.POST("/bills/:id/send", billingH.Send)
	engine.POST("/bills/:id/pay", billingH.Pay)

	return &apiFixture{engine: engine, customers: customers, readings: readings}
}

func (f *apiFixture) seedCustomer(t *testing.T, cycle int, onboarded time.Time) uuid.UUID {
	t.Helper()
	c, err := customer.NewCustomerAt("Harbor Flats", "12 Quay Rd", customer.CustomerTypeResidential, cycle, onboarded)
	require.NoError(t, err)
	require.NoError(t, f.customers.Save(context.Background(), c))
	return c.ID
}

func (f *apiFixture) seedReadings(t *testing.T, customerID uuid.UUID, start time.Time, values ...float64) {
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

// dataMap asserts a success envelope and returns its data object
func dataMap(t *testing.T, data interface{}) map[string]interface{} {
	t.Helper()
	m, ok := data.(map[string]interface{})
	require.True(t, ok, "expected object data, got %T", data)
	return m
}

func dataList(t *testing.T, data interface{}) []interface{} {
	t.Helper()
	l, ok := data.([]interface{})
	require.True(t, ok, "expected array data, got %T", data)
	return l
}
