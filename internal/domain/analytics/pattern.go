package analytics

import (
	"time"

	"github.com/hydrospark/backend/internal/domain/usage"
)

// Trend is the direction of recent usage against the prior period
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
	TrendUnknown    Trend = "unknown"
)

const (
	// TrendPeriodDays is the length of each period compared for trend
	TrendPeriodDays = 30
	// TrendBand is the relative change below which usage counts as stable
	TrendBand = 0.05
)

// PatternAnalysis describes the shape of usage beyond the basic profile
type PatternAnalysis struct {
	P25             float64
	P75             float64
	P90             float64
	WeekdayAverage  *float64
	WeekendAverage  *float64
	Trend           Trend
	RecentAverage   *float64
	PreviousAverage *float64
	// TrendChangePercent is only set when both periods have readings and the
	// previous average is positive.
	TrendChangePercent *float64
}

// AnalyzePattern computes percentiles, the weekday/weekend split and the
// 30-day trend. records must be ordered by date. It returns nil for an empty slice.
func AnalyzePattern(records []usage.UsageRecord) *PatternAnalysis {
	if len(records) == 0 {
		return nil
	}
	values := usage.Values(records)
	pa := &PatternAnalysis{
		P25:   Percentile(values, 25),
		P75:   Percentile(values, 75),
		P90:   Percentile(values, 90),
		Trend: TrendUnknown,
	}

	var weekday, weekend Sample
	for i := range records {
		switch records[i].Date.Weekday() {
		case time.Saturday, time.Sunday:
			weekend = append(weekend, records[i].UsageCCF)
		default:
			weekday = append(weekday, records[i].UsageCCF)
		}
	}
	if weekday.Count() > 0 {
		v := weekday.Mean()
		pa.WeekdayAverage = &v
	}
	if weekend.Count() > 0 {
		v := weekend.Mean()
		pa.WeekendAverage = &v
	}

	tw := compareTrendPeriods(records)
	if tw.ok {
		pa.RecentAverage = &tw.recent
		pa.PreviousAverage = &tw.previous
		pa.Trend = tw.direction()
		if tw.previous > 0 {
			change := (tw.recent - tw.previous) / tw.previous * 100
			pa.TrendChangePercent = &change
		}
	}
	return pa
}

// trendWindows holds the means of the last TrendPeriodDays and the period before
type trendWindows struct {
	recent   float64
	previous float64
	ok       bool
}

// factor is recent/previous, or 1 when the ratio is undefined
func (w trendWindows) factor() float64 {
	if !w.ok || w.previous <= 0 {
		return 1
	}
	return w.recent / w.previous
}

func (w trendWindows) direction() Trend {
	if !w.ok {
		return TrendUnknown
	}
	if w.previous <= 0 {
		if w.recent > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}
	return trendFromFactor(w.recent / w.previous)
}

func trendFromFactor(f float64) Trend {
	switch {
	case f > 1+TrendBand:
		return TrendIncreasing
	case f < 1-TrendBand:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// compareTrendPeriods splits ordered records into the TrendPeriodDays ending at
// the newest reading and the TrendPeriodDays before that.
func compareTrendPeriods(records []usage.UsageRecord) trendWindows {
	if len(records) == 0 {
		return trendWindows{}
	}
	last := records[len(records)-1].Date
	recentStart := last.AddDate(0, 0, -(TrendPeriodDays - 1))
	previousStart := recentStart.AddDate(0, 0, -TrendPeriodDays)

	var recent, previous Sample
	for i := range records {
		d := records[i].Date
		switch {
		case !d.Before(recentStart):
			recent = append(recent, records[i].UsageCCF)
		case !d.Before(previousStart):
			previous = append(previous, records[i].UsageCCF)
		}
	}
	if recent.Count() == 0 || previous.Count() == 0 {
		return trendWindows{}
	}
	return trendWindows{recent: recent.Mean(), previous: previous.Mean(), ok: true}
}
