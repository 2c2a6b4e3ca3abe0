package analytics

import "time"

// Severity grades the worst anomaly of a customer
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityForDeviation grades a deviation above baseline, in percent
func SeverityForDeviation(pct float64) Severity {
	switch {
	case pct > 200:
		return SeverityCritical
	case pct > 100:
		return SeverityHigh
	case pct > 50:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// AnomalySummary rolls up a customer's anomalies
type AnomalySummary struct {
	Total               int
	Unreviewed          int
	MaxSigma            float64
	MaxDeviationPercent float64
	MostRecentDate      *time.Time
	Severity            Severity
}

// SummarizeAnomalies computes the roll-up. An empty slice yields severity none.
func SummarizeAnomalies(anomalies []Anomaly) AnomalySummary {
	s := AnomalySummary{Total: len(anomalies), Severity: SeverityNone}
	if len(anomalies) == 0 {
		return s
	}
	for i := range anomalies {
		a := &anomalies[i]
		if !a.Reviewed {
			s.Unreviewed++
		}
		if a.SigmaValue > s.MaxSigma {
			s.MaxSigma = a.SigmaValue
		}
		if dev := a.DeviationPercent(); dev > s.MaxDeviationPercent {
			s.MaxDeviationPercent = dev
		}
		if s.MostRecentDate == nil || a.Date.After(*s.MostRecentDate) {
			d := a.Date
			s.MostRecentDate = &d
		}
	}
	s.Severity = SeverityForDeviation(s.MaxDeviationPercent)
	return s
}
