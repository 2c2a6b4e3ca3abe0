package analytics

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
)

// MaxReviewNotesLength bounds review notes
const MaxReviewNotesLength = 2000

// Anomaly is a reading that exceeded the customer's trailing baseline.
// At most one exists per (customer, date).
type Anomaly struct {
	shared.BaseAggregateRoot
	CustomerID   uuid.UUID
	Date         time.Time
	UsageCCF     float64
	AverageUsage float64
	StdDeviation float64
	SigmaValue   float64
	Reviewed     bool
	ReviewNotes  string
	ReviewedAt   *time.Time
	DetectedAt   time.Time
}

// NewAnomaly records a flagged reading together with the baseline it was judged against
func NewAnomaly(customerID uuid.UUID, date time.Time, usageCCF, mean, std float64, detectedAt time.Time) *Anomaly {
	a := &Anomaly{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(detectedAt),
		CustomerID:        customerID,
		Date:              shared.Day(date),
		UsageCCF:          usageCCF,
		AverageUsage:      mean,
		StdDeviation:      std,
		DetectedAt:        detectedAt,
	}
	if std > 0 {
		a.SigmaValue = (usageCCF - mean) / std
	}
	a.AddDomainEvent(NewAnomalyDetectedEvent(a))
	return a
}

// Review marks the anomaly reviewed. Reviewing again is allowed and replaces
// the notes and timestamp.
func (a *Anomaly) Review(notes string, now time.Time) error {
	notes = strings.TrimSpace(notes)
	if len(notes) > MaxReviewNotesLength {
		return shared.NewDomainError(shared.CodeValidation, "Review notes cannot exceed 2000 characters")
	}
	a.Reviewed = true
	a.ReviewNotes = notes
	a.ReviewedAt = &now
	a.Touch(now)
	a.IncrementVersion()
	a.AddDomainEvent(NewAnomalyReviewedEvent(a))
	return nil
}

// DeviationPercent is how far the reading sits above the baseline mean, in percent
func (a *Anomaly) DeviationPercent() float64 {
	if a.AverageUsage <= 0 {
		return 0
	}
	return (a.UsageCCF - a.AverageUsage) / a.AverageUsage * 100
}
