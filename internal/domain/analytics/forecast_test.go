package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastEngine_Forecast(t *testing.T) {
	customerID := uuid.New()
	engine := NewForecastEngine(DefaultForecastConfig())

	t.Run("fails with insufficient data on empty history", func(t *testing.T) {
		f, err := engine.Forecast(customerID, nil, monday, 30)

		assert.Nil(t, f)
		assert.True(t, errors.Is(err, shared.ErrInsufficientData))
	})

	t.Run("rejects out of range horizon", func(t *testing.T) {
		history := dailyRecords(customerID, monday, 10)
		_, err := engine.Forecast(customerID, history, monday, 0)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		_, err = engine.Forecast(customerID, history, monday, 366)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("flat history projects its mean", func(t *testing.T) {
		history := dailyRecords(customerID, monday, repeat(8, 14)...)
		start := monday.AddDate(0, 0, 14)

		f, err := engine.Forecast(customerID, history, start, 7)

		require.NoError(t, err)
		require.Len(t, f.Daily, 7)
		assert.Equal(t, start, f.StartDate)
		assert.InDelta(t, 56.0, f.TotalPredictedUsage, 1e-9)
		assert.InDelta(t, 8.0, f.AverageDailyUsage(), 1e-9)
		for _, d := range f.Daily {
			assert.InDelta(t, 8.0, d.PredictedUsage, 1e-9)
			assert.InDelta(t, 8.0, d.LowerBound, 1e-9)
			assert.InDelta(t, 8.0, d.UpperBound, 1e-9)
		}
		assert.Equal(t, 1.0, f.TrendFactor)
		assert.Equal(t, TrendUnknown, f.TrendDirection)
	})

	t.Run("applies weekday multiplier with enough samples", func(t *testing.T) {
		// two weeks: weekdays 10, weekends 24
		week := []float64{10, 10, 10, 10, 10, 24, 24}
		history := dailyRecords(customerID, monday, append(append([]float64{}, week...), week...)...)
		saturday := monday.AddDate(0, 0, 19)

		f, err := engine.Forecast(customerID, history, saturday, 2)

		require.NoError(t, err)
		assert.InDelta(t, 24.0, f.Daily[0].PredictedUsage, 1e-9)
		assert.InDelta(t, 24.0/f.BaselineMean, f.Daily[0].WeekdayMultiplier, 1e-9)
		assert.InDelta(t, 24.0, f.Daily[1].PredictedUsage, 1e-9)
	})

	t.Run("falls back to overall mean when weekday is under-sampled", func(t *testing.T) {
		// one week only: each weekday has a single sample
		history := dailyRecords(customerID, monday, 10, 10, 10, 10, 10, 24, 24)

		f, err := engine.Forecast(customerID, history, monday.AddDate(0, 0, 12), 1)

		require.NoError(t, err)
		assert.Equal(t, 1.0, f.Daily[0].WeekdayMultiplier)
		assert.InDelta(t, f.BaselineMean, f.Daily[0].PredictedUsage, 1e-9)
	})

	t.Run("uses only the trailing window", func(t *testing.T) {
		values := append(repeat(1000, 30), repeat(5, 90)...)
		history := dailyRecords(customerID, monday, values...)

		f, err := engine.Forecast(customerID, history, monday.AddDate(0, 0, 120), 3)

		require.NoError(t, err)
		assert.Equal(t, 90, f.DataPointsUsed)
		assert.InDelta(t, 15.0, f.TotalPredictedUsage, 1e-9)
	})

	t.Run("applies trend factor", func(t *testing.T) {
		values := append(repeat(10, 30), repeat(20, 30)...)
		history := dailyRecords(customerID, monday, values...)
		noWeekday := NewForecastEngine(ForecastConfig{MinWeekdaySamples: 100, ApplyTrend: true})

		f, err := noWeekday.Forecast(customerID, history, monday.AddDate(0, 0, 60), 1)

		require.NoError(t, err)
		assert.Equal(t, 2.0, f.TrendFactor)
		assert.Equal(t, TrendIncreasing, f.TrendDirection)
		assert.InDelta(t, 30.0, f.Daily[0].PredictedUsage, 1e-9)
	})

	t.Run("lower bound never negative", func(t *testing.T) {
		history := dailyRecords(customerID, monday, 0, 0, 0, 0, 0, 0, 100)
		f, err := engine.Forecast(customerID, history, monday.AddDate(0, 0, 7), 7)

		require.NoError(t, err)
		for _, d := range f.Daily {
			assert.GreaterOrEqual(t, d.LowerBound, 0.0)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		history := dailyRecords(customerID, monday, 3, 9, 4, 12, 7, 15, 2, 8, 11, 6)
		start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

		a, err := engine.Forecast(customerID, history, start, 30)
		require.NoError(t, err)
		b, err := engine.Forecast(customerID, history, start, 30)
		require.NoError(t, err)

		assert.Equal(t, a, b)
	})
}

func TestForecastEngine_WindowStart(t *testing.T) {
	engine := NewForecastEngine(ForecastConfig{WindowDays: 90})
	last := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), engine.WindowStart(last))
}
