package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSeasonFor(t *testing.T) {
	assert.Equal(t, SeasonSummer, SeasonFor(time.July))
	assert.Equal(t, SeasonWinter, SeasonFor(time.December))
	assert.Equal(t, SeasonWinter, SeasonFor(time.February))
	assert.Equal(t, SeasonSpringFall, SeasonFor(time.March))
	assert.Equal(t, SeasonSpringFall, SeasonFor(time.November))
}

func TestRateSchedule_Charge(t *testing.T) {
	schedule := DefaultRateSchedule()

	t.Run("spans all tiers in spring", func(t *testing.T) {
		c := schedule.Charge(25, time.April)

		// 10*2.50 + 10*3.00 + 5*3.50
		assert.True(t, dec("72.5").Equal(c.BaseCharge), c.BaseCharge.String())
		require.Len(t, c.Tiers, 3)
		assert.True(t, dec("5").Equal(c.Tiers[2].Usage))
		assert.True(t, c.SeasonalAdjustment.IsZero())
		assert.True(t, dec("20").Equal(c.Fees))
		assert.True(t, dec("92.5").Equal(c.Total), c.Total.String())
	})

	t.Run("applies summer multiplier to usage charge only", func(t *testing.T) {
		c := schedule.Charge(10, time.July)

		assert.True(t, dec("25").Equal(c.BaseCharge))
		assert.True(t, dec("30").Equal(c.UsageCharge))
		assert.True(t, dec("5").Equal(c.SeasonalAdjustment))
		assert.True(t, dec("50").Equal(c.Total))
		assert.Equal(t, SeasonSummer, c.Season)
	})

	t.Run("winter discount", func(t *testing.T) {
		c := schedule.Charge(4, time.January)
		assert.True(t, dec("9").Equal(c.UsageCharge), c.UsageCharge.String())
		assert.True(t, dec("-1").Equal(c.SeasonalAdjustment))
	})

	t.Run("zero usage pays only fees", func(t *testing.T) {
		c := schedule.Charge(0, time.May)
		assert.Empty(t, c.Tiers)
		assert.True(t, dec("20").Equal(c.Total))
	})

	t.Run("flat schedule", func(t *testing.T) {
		flat, err := NewRateSchedule([]RateTier{{Min: decimal.Zero, Rate: dec("3.10")}}, SeasonalMultipliers{}, Fees{})
		require.NoError(t, err)

		c := flat.Charge(12.5, time.August)
		assert.True(t, dec("38.75").Equal(c.Total), c.Total.String())
		assert.True(t, dec("1").Equal(c.SeasonalMultiplier))
	})
}

func TestNewRateSchedule_Validation(t *testing.T) {
	tests := []struct {
		name  string
		tiers []RateTier
	}{
		{"no tiers", nil},
		{"does not start at zero", []RateTier{{Min: dec("1"), Rate: dec("1")}}},
		{"gap between tiers", []RateTier{
			{Min: dec("0"), Max: dec("10"), Rate: dec("1")},
			{Min: dec("11"), Rate: dec("1")},
		}},
		{"bounded last tier", []RateTier{{Min: dec("0"), Max: dec("10"), Rate: dec("1")}}},
		{"unbounded middle tier", []RateTier{
			{Min: dec("0"), Rate: dec("1")},
			{Min: dec("0"), Rate: dec("1")},
		}},
		{"negative rate", []RateTier{{Min: dec("0"), Rate: dec("-1")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRateSchedule(tt.tiers, SeasonalMultipliers{}, Fees{})
			assert.True(t, errors.Is(err, shared.ErrValidation))
		})
	}

	t.Run("negative fee", func(t *testing.T) {
		_, err := NewRateSchedule([]RateTier{{Min: dec("0"), Rate: dec("1")}}, SeasonalMultipliers{}, Fees{BaseService: dec("-1")})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}
