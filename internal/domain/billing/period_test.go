package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCycleAnchorOnOrBefore(t *testing.T) {
	tests := []struct {
		name  string
		at    time.Time
		cycle int
		want  time.Time
	}{
		{"same day", date(2024, 3, 15), 15, date(2024, 3, 15)},
		{"later in month", date(2024, 3, 20), 15, date(2024, 3, 15)},
		{"earlier in month", date(2024, 3, 10), 15, date(2024, 2, 15)},
		{"crosses year", date(2024, 1, 3), 5, date(2023, 12, 5)},
		{"time of day ignored", time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC), 15, date(2024, 3, 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CycleAnchorOnOrBefore(tt.at, tt.cycle))
		})
	}
}

func TestNextBillablePeriod(t *testing.T) {
	t.Run("first bill anchors on onboarding cycle", func(t *testing.T) {
		p := NextBillablePeriod(10, time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC), nil)

		assert.Equal(t, date(2024, 1, 10), p.Start)
		assert.Equal(t, date(2024, 2, 9), p.End)
	})

	t.Run("subsequent bills are contiguous", func(t *testing.T) {
		last := date(2024, 2, 9)
		p := NextBillablePeriod(10, date(2024, 1, 20), &last)

		assert.Equal(t, date(2024, 2, 10), p.Start)
		assert.Equal(t, date(2024, 3, 9), p.End)
	})

	t.Run("consecutive periods never overlap", func(t *testing.T) {
		p := NextBillablePeriod(28, date(2023, 11, 30), nil)
		for i := 0; i < 24; i++ {
			end := p.End
			next := NextBillablePeriod(28, date(2023, 11, 30), &end)
			assert.False(t, p.Overlaps(next))
			assert.Equal(t, p.End.AddDate(0, 0, 1), next.Start)
			assert.Equal(t, 28, next.Start.Day())
			p = next
		}
	})
}

func TestBillingPeriod(t *testing.T) {
	p, err := NewBillingPeriod(date(2024, 2, 1), date(2024, 2, 29))
	require.NoError(t, err)

	assert.Equal(t, 29, p.Days())
	assert.True(t, p.Contains(date(2024, 2, 1)))
	assert.True(t, p.Contains(time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(date(2024, 3, 1)))
	assert.False(t, p.IsClosed(date(2024, 2, 29)))
	assert.True(t, p.IsClosed(date(2024, 3, 1)))
	assert.Equal(t, "2024-02-01..2024-02-29", p.String())

	t.Run("overlap", func(t *testing.T) {
		touching := BillingPeriod{Start: date(2024, 2, 29), End: date(2024, 3, 5)}
		after := BillingPeriod{Start: date(2024, 3, 1), End: date(2024, 3, 5)}
		assert.True(t, p.Overlaps(touching))
		assert.False(t, p.Overlaps(after))
	})

	t.Run("rejects reversed range", func(t *testing.T) {
		_, err := NewBillingPeriod(date(2024, 2, 2), date(2024, 2, 1))
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestPeriodContaining(t *testing.T) {
	p := PeriodContaining(date(2024, 3, 20), 15)
	assert.Equal(t, date(2024, 3, 15), p.Start)
	assert.Equal(t, date(2024, 4, 14), p.End)

	p = PeriodContaining(date(2024, 3, 3), 15)
	assert.Equal(t, date(2024, 2, 15), p.Start)
	assert.True(t, p.Contains(date(2024, 3, 3)))
}
