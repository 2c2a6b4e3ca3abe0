package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/customer"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/domain/usage"
	"go.uber.org/zap"
)

// Window limits the readings an analysis looks at. The zero value means all
// history. LastDays counts back from today, inclusive; From/To are inclusive dates.
type Window struct {
	LastDays int
	From     *time.Time
	To       *time.Time
}

// CustomerAnalytics is the full analytics view of one customer
type CustomerAnalytics struct {
	Customer        *customer.Customer
	Profile         *analytics.StatisticalProfile
	AnomalySummary  analytics.AnomalySummary
	Pattern         *analytics.PatternAnalysis
	Recommendations []analytics.Recommendation
}

// AnalyticsService builds profiles and insights. It only reads.
type AnalyticsService struct {
	customers      customer.CustomerRepository
	readings       usage.UsageRecordRepository
	anomalies      analytics.AnomalyRepository
	insights       *analytics.InsightGenerator
	clock          shared.Clock
	storageTimeout time.Duration
	logger         *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	customers customer.CustomerRepository,
	readings usage.UsageRecordRepository,
	anomalies analytics.AnomalyRepository,
	insights *analytics.InsightGenerator,
	clock shared.Clock,
	storageTimeout time.Duration,
	logger *zap.Logger,
) *AnalyticsService {
	if insights == nil {
		insights = analytics.NewInsightGenerator(nil)
	}
	if clock == nil {
		clock = shared.SystemClock
	}
	if storageTimeout <= 0 {
		storageTimeout = DefaultStorageTimeout
	}
	return &AnalyticsService{
		customers:      customers,
		readings:       readings,
		anomalies:      anomalies,
		insights:       insights,
		clock:          clock,
		storageTimeout: storageTimeout,
		logger:         logger,
	}
}

// GetAnalytics returns profile, anomaly summary, pattern analysis and
// recommendations. Anomalies are counted within the same window as the profile.
func (s *AnalyticsService) GetAnalytics(ctx context.Context, customerID uuid.UUID, window Window) (*CustomerAnalytics, error) {
	c, err := findCustomer(ctx, s.customers, s.storageTimeout, customerID)
	if err != nil {
		return nil, err
	}

	from, to, err := s.resolve(window)
	if err != nil {
		return nil, err
	}

	filter := usage.NewUsageFilter(customerID)
	if from != nil {
		filter = filter.WithFrom(*from)
	}
	if to != nil {
		filter = filter.WithTo(*to)
	}
	records, err := storage(ctx, s.storageTimeout, func(ctx context.Context) ([]usage.UsageRecord, error) {
		return s.readings.FindEffective(ctx, filter)
	})
	if err != nil {
		return nil, err
	}

	anomalies, err := storage(ctx, s.storageTimeout, func(ctx context.Context) ([]analytics.Anomaly, error) {
		return s.anomalies.FindAll(ctx, analytics.AnomalyFilter{}.WithCustomer(customerID).WithDateRange(from, to))
	})
	if err != nil {
		return nil, err
	}

	profile := analytics.BuildProfile(customerID, records, from, to)
	pattern := analytics.AnalyzePattern(records)
	recs := s.insights.Generate(analytics.KeyFor(profile, len(anomalies), pattern))

	s.logger.Debug("Analytics computed",
		zap.String("customer_id", customerID.String()),
		zap.Int("readings", profile.Count),
		zap.Int("anomalies", len(anomalies)),
		zap.String("consistency", string(profile.Consistency)),
	)
	return &CustomerAnalytics{
		Customer:        c,
		Profile:         profile,
		AnomalySummary:  analytics.SummarizeAnomalies(anomalies),
		Pattern:         pattern,
		Recommendations: recs,
	}, nil
}

func (s *AnalyticsService) resolve(w Window) (from, to *time.Time, err error) {
	if w.LastDays < 0 {
		return nil, nil, shared.NewDomainError(shared.CodeValidation, "Window days cannot be negative")
	}
	if w.LastDays > 0 {
		if w.From != nil || w.To != nil {
			return nil, nil, shared.NewDomainError(shared.CodeValidation, "Use either a day count or an explicit date range")
		}
		today := shared.Day(s.clock())
		start := today.AddDate(0, 0, -(w.LastDays - 1))
		return &start, &today, nil
	}
	if w.From != nil {
		d := shared.Day(*w.From)
		from = &d
	}
	if w.To != nil {
		d := shared.Day(*w.To)
		to = &d
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, shared.NewDomainError(shared.CodeValidation, "Window end is before window start")
	}
	return from, to, nil
}
