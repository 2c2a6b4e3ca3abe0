package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/hydrospark/backend/internal/domain/customer"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/domain/usage"
	"github.com/hydrospark/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Forecast is a usage projection together with its estimated charge
type Forecast struct {
	*analytics.UsageForecast
	Charge billing.Charge
}

// ForecastedBill estimates a whole calendar month's bill
type ForecastedBill struct {
	Month    time.Month
	Year     int
	Forecast *analytics.UsageForecast
	Charge   billing.Charge
}

// ForecastService projects usage and estimated charges
type ForecastService struct {
	customers      customer.CustomerRepository
	readings       usage.UsageRecordRepository
	engine         *analytics.ForecastEngine
	rates          *billing.RateSchedule
	clock          shared.Clock
	storageTimeout time.Duration
	logger         *zap.Logger
	metrics        *telemetry.EngineMetrics
}

// NewForecastService creates a new ForecastService
func NewForecastService(
	customers customer.CustomerRepository,
	readings usage.UsageRecordRepository,
	engine *analytics.ForecastEngine,
	rates *billing.RateSchedule,
	clock shared.Clock,
	storageTimeout time.Duration,
	logger *zap.Logger,
) *ForecastService {
	if clock == nil {
		clock = shared.SystemClock
	}
	if storageTimeout <= 0 {
		storageTimeout = DefaultStorageTimeout
	}
	return &ForecastService{
		customers:      customers,
		readings:       readings,
		engine:         engine,
		rates:          rates,
		clock:          clock,
		storageTimeout: storageTimeout,
		logger:         logger,
	}
}

// SetEngineMetrics sets the metrics collector
func (s *ForecastService) SetEngineMetrics(m *telemetry.EngineMetrics) {
	s.metrics = m
}

// GetForecast projects days of usage starting the day after the newest
// reading. The charge uses the season of the first forecast day.
func (s *ForecastService) GetForecast(ctx context.Context, customerID uuid.UUID, days int) (*Forecast, error) {
	if err := s.engine.ValidateHorizon(days); err != nil {
		return nil, err
	}
	f, err := s.project(ctx, customerID, func(last time.Time) time.Time {
		return last.AddDate(0, 0, 1)
	}, days)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordForecast(ctx, "usage")
	return &Forecast{
		UsageForecast: f,
		Charge:        s.rates.Charge(f.TotalPredictedUsage, f.StartDate.Month()),
	}, nil
}

// GetForecastedBill estimates the bill of a calendar month. Without month and
// year it targets the month after today; a month alone means its next
// occurrence, the current month included.
func (s *ForecastService) GetForecastedBill(ctx context.Context, customerID uuid.UUID, month, year *int) (*ForecastedBill, error) {
	target, err := s.targetMonth(month, year)
	if err != nil {
		return nil, err
	}
	days := target.AddDate(0, 1, 0).Sub(target).Hours() / 24

	f, err := s.project(ctx, customerID, func(time.Time) time.Time { return target }, int(days))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordForecast(ctx, "bill")
	return &ForecastedBill{
		Month:    target.Month(),
		Year:     target.Year(),
		Forecast: f,
		Charge:   s.rates.Charge(f.TotalPredictedUsage, target.Month()),
	}, nil
}

func (s *ForecastService) project(ctx context.Context, customerID uuid.UUID, startFor func(last time.Time) time.Time, days int) (*analytics.UsageForecast, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "forecast", "project",
		telemetry.SpanAttrCustomerID, customerID.String(),
		"days", days,
	)
	defer span.End()

	if _, err := findCustomer(ctx, s.customers, s.storageTimeout, customerID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	type lastReading struct {
		date time.Time
		ok   bool
	}
	lr, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (lastReading, error) {
		d, ok, err := s.readings.LastReadingDate(ctx, customerID)
		return lastReading{d, ok}, err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !lr.ok {
		return nil, shared.NewDomainError(shared.CodeInsufficientData,
			fmt.Sprintf("Customer %s has no usage history to forecast from", customerID))
	}

	from := s.engine.WindowStart(lr.date)
	history, err := storage(ctx, s.storageTimeout, func(ctx context.Context) ([]usage.UsageRecord, error) {
		return s.readings.FindEffective(ctx, usage.NewUsageFilter(customerID).WithRange(from, lr.date))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	f, err := s.engine.Forecast(customerID, history, startFor(lr.date), days)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Debug("Forecast computed",
		zap.String("customer_id", customerID.String()),
		zap.Int("days", days),
		zap.Int("data_points", f.DataPointsUsed),
	)
	return f, nil
}

func (s *ForecastService) targetMonth(month, year *int) (time.Time, error) {
	today := shared.Day(s.clock())
	next := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	m, y := int(next.Month()), next.Year()
	if month != nil {
		m = *month
		y = today.Year()
		if m < int(today.Month()) {
			y++
		}
	}
	if year != nil {
		y = *year
	}
	if m < 1 || m > 12 {
		return time.Time{}, shared.NewDomainError(shared.CodeValidation, "Month must be between 1 and 12")
	}
	if y < 1 {
		return time.Time{}, shared.NewDomainError(shared.CodeValidation, "Year must be positive")
	}
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC), nil
}
