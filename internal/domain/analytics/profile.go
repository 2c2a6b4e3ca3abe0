package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/usage"
	"gonum.org/v1/gonum/floats"
)

// Consistency classifies how steady a customer's usage is
type Consistency string

const (
	ConsistencyConsistent       Consistency = "consistent"
	ConsistencyModerate         Consistency = "moderate"
	ConsistencyVariable         Consistency = "variable"
	ConsistencyInsufficientData Consistency = "insufficient_data"
)

// Coefficient of variation cut-offs for Consistency
const (
	ConsistentCVThreshold = 0.15
	ModerateCVThreshold   = 0.35
)

// weekdayOrder lists Monday..Sunday, the order day buckets are reported in
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// StatisticalProfile is the descriptive statistics of a customer's readings
// over a window. Mean, Median, Min and Max are only meaningful when Count > 0.
type StatisticalProfile struct {
	CustomerID             uuid.UUID
	WindowStart            *time.Time
	WindowEnd              *time.Time
	Count                  int
	Mean                   float64
	Median                 float64
	StdDev                 float64
	Min                    float64
	Max                    float64
	Total                  float64
	CoefficientOfVariation float64
	// DayOfWeekAverages holds one entry per weekday that has readings.
	// Weekdays without readings are absent, not zero.
	DayOfWeekAverages map[time.Weekday]float64
	HighestUsageDay   *time.Weekday
	Consistency       Consistency
}

// HasData reports whether the window contained any reading
func (p *StatisticalProfile) HasData() bool {
	return p.Count > 0
}

// BuildProfile computes the profile of records. The window bounds are
// recorded as given; nil means unbounded.
func BuildProfile(customerID uuid.UUID, records []usage.UsageRecord, windowStart, windowEnd *time.Time) *StatisticalProfile {
	p := &StatisticalProfile{
		CustomerID:        customerID,
		WindowStart:       windowStart,
		WindowEnd:         windowEnd,
		Count:             len(records),
		DayOfWeekAverages: make(map[time.Weekday]float64),
		Consistency:       ConsistencyInsufficientData,
	}
	if len(records) == 0 {
		return p
	}

	values := usage.Values(records)
	p.Mean, p.StdDev = MeanStdDev(values)
	p.Median = Median(values)
	p.Min, p.Max = floats.Min(values), floats.Max(values)
	p.Total = floats.Sum(values)

	byDay := weekdayStats(records)
	for _, wd := range weekdayOrder {
		rs, ok := byDay[wd]
		if !ok {
			continue
		}
		p.DayOfWeekAverages[wd] = rs.Mean()
		if p.HighestUsageDay == nil || rs.Mean() > p.DayOfWeekAverages[*p.HighestUsageDay] {
			day := wd
			p.HighestUsageDay = &day
		}
	}

	p.CoefficientOfVariation, p.Consistency = classify(p.Count, p.Mean, p.StdDev)
	return p
}

// classify derives the coefficient of variation and its consistency bucket
func classify(count int, mean, std float64) (float64, Consistency) {
	if count <= 1 {
		return 0, ConsistencyInsufficientData
	}
	// Readings are non-negative, so a zero mean means every reading is zero.
	if mean == 0 {
		return 0, ConsistencyConsistent
	}
	cv := std / mean
	switch {
	case cv < ConsistentCVThreshold:
		return cv, ConsistencyConsistent
	case cv < ModerateCVThreshold:
		return cv, ConsistencyModerate
	default:
		return cv, ConsistencyVariable
	}
}

func weekdayStats(records []usage.UsageRecord) map[time.Weekday]Sample {
	out := make(map[time.Weekday]Sample, 7)
	for i := range records {
		wd := records[i].Date.Weekday()
		out[wd] = append(out[wd], records[i].UsageCCF)
	}
	return out
}
