package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/domain/usage"
)

// ForecastConfig holds forecasting parameters
type ForecastConfig struct {
	// WindowDays is the trailing history, ending at the newest reading, used as baseline
	WindowDays int
	// MinWeekdaySamples is the number of readings a weekday needs before its
	// own average replaces the overall mean
	MinWeekdaySamples int
	// ApplyTrend scales predictions by recent/previous 30-day means
	ApplyTrend bool
	// ConfidenceZ is the z-score of the prediction interval (1.96 for 95%)
	ConfidenceZ float64
	// MaxHorizonDays caps the requested horizon
	MaxHorizonDays int
}

// DefaultForecastConfig returns default configuration
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		WindowDays:        90,
		MinWeekdaySamples: 2,
		ApplyTrend:        true,
		ConfidenceZ:       1.96,
		MaxHorizonDays:    365,
	}
}

// DailyForecast is the projection for one day
type DailyForecast struct {
	Date              time.Time
	PredictedUsage    float64
	LowerBound        float64
	UpperBound        float64
	WeekdayMultiplier float64
}

// UsageForecast is a usage projection. It is never persisted.
type UsageForecast struct {
	CustomerID          uuid.UUID
	StartDate           time.Time
	HorizonDays         int
	Daily               []DailyForecast
	TotalPredictedUsage float64
	BaselineMean        float64
	TrendFactor         float64
	TrendDirection      Trend
	DataPointsUsed      int
	WindowStart         time.Time
	WindowEnd           time.Time
}

// AverageDailyUsage is the mean predicted usage per day
func (f *UsageForecast) AverageDailyUsage() float64 {
	if f.HorizonDays == 0 {
		return 0
	}
	return f.TotalPredictedUsage / float64(f.HorizonDays)
}

// ForecastEngine projects future usage from a customer's history
type ForecastEngine struct {
	config ForecastConfig
}

// NewForecastEngine creates a forecast engine, filling unset fields with defaults
func NewForecastEngine(config ForecastConfig) *ForecastEngine {
	def := DefaultForecastConfig()
	if config.WindowDays <= 0 {
		config.WindowDays = def.WindowDays
	}
	if config.MinWeekdaySamples <= 0 {
		config.MinWeekdaySamples = def.MinWeekdaySamples
	}
	if config.ConfidenceZ <= 0 {
		config.ConfidenceZ = def.ConfidenceZ
	}
	if config.MaxHorizonDays <= 0 {
		config.MaxHorizonDays = def.MaxHorizonDays
	}
	return &ForecastEngine{config: config}
}

// Config returns the engine configuration
func (e *ForecastEngine) Config() ForecastConfig {
	return e.config
}

// WindowStart returns the first date of the baseline window ending at lastReading
func (e *ForecastEngine) WindowStart(lastReading time.Time) time.Time {
	return shared.Day(lastReading).AddDate(0, 0, -(e.config.WindowDays - 1))
}

// ValidateHorizon checks a requested number of days
func (e *ForecastEngine) ValidateHorizon(days int) error {
	if days < 1 || days > e.config.MaxHorizonDays {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Forecast days must be between 1 and %d", e.config.MaxHorizonDays))
	}
	return nil
}

// Forecast projects usage for days consecutive dates starting at start.
// history may extend beyond the baseline window; older readings are ignored.
// An empty history fails with shared.ErrInsufficientData.
func (e *ForecastEngine) Forecast(customerID uuid.UUID, history []usage.UsageRecord, start time.Time, days int) (*UsageForecast, error) {
	if err := e.ValidateHorizon(days); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, shared.NewDomainError(shared.CodeInsufficientData,
			"No usage history available to forecast from")
	}

	window := e.window(history)
	values := usage.Values(window)
	overallMean, overallStd := MeanStdDev(values)
	byDay := weekdayStats(window)

	tw := compareTrendPeriods(window)
	factor := 1.0
	if e.config.ApplyTrend {
		factor = tw.factor()
	}

	f := &UsageForecast{
		CustomerID:     customerID,
		StartDate:      shared.Day(start),
		HorizonDays:    days,
		Daily:          make([]DailyForecast, 0, days),
		BaselineMean:   overallMean,
		TrendFactor:    factor,
		TrendDirection: tw.direction(),
		DataPointsUsed: len(window),
		WindowStart:    window[0].Date,
		WindowEnd:      window[len(window)-1].Date,
	}

	for i := 0; i < days; i++ {
		date := f.StartDate.AddDate(0, 0, i)
		multiplier, std := 1.0, overallStd
		if rs, ok := byDay[date.Weekday()]; ok && rs.Count() >= e.config.MinWeekdaySamples && overallMean > 0 {
			multiplier = rs.Mean() / overallMean
			std = rs.StdDev()
		}
		predicted := overallMean * multiplier * factor
		margin := e.config.ConfidenceZ * std
		f.Daily = append(f.Daily, DailyForecast{
			Date:              date,
			PredictedUsage:    predicted,
			LowerBound:        math.Max(0, predicted-margin),
			UpperBound:        predicted + margin,
			WeekdayMultiplier: multiplier,
		})
		f.TotalPredictedUsage += predicted
	}
	return f, nil
}

// window returns the ordered readings inside the baseline window
func (e *ForecastEngine) window(history []usage.UsageRecord) []usage.UsageRecord {
	ordered := make([]usage.UsageRecord, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})
	from := e.WindowStart(ordered[len(ordered)-1].Date)
	idx := sort.Search(len(ordered), func(i int) bool {
		return !ordered[i].Date.Before(from)
	})
	return ordered[idx:]
}
