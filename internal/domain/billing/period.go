package billing

import (
	"fmt"
	"time"

	"github.com/hydrospark/backend/internal/domain/shared"
)

// BillingPeriod is an inclusive range of days
type BillingPeriod struct {
	Start time.Time
	End   time.Time
}

// NewBillingPeriod creates a period, normalizing both ends to midnight UTC
func NewBillingPeriod(start, end time.Time) (BillingPeriod, error) {
	p := BillingPeriod{Start: shared.Day(start), End: shared.Day(end)}
	if p.End.Before(p.Start) {
		return BillingPeriod{}, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Billing period end %s is before start %s", p.End.Format(time.DateOnly), p.Start.Format(time.DateOnly)))
	}
	return p, nil
}

// Days returns the number of days in the period
func (p BillingPeriod) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Contains reports whether day d falls inside the period
func (p BillingPeriod) Contains(d time.Time) bool {
	d = shared.Day(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Overlaps reports whether two periods share at least one day
func (p BillingPeriod) Overlaps(o BillingPeriod) bool {
	return !p.End.Before(o.Start) && !o.End.Before(p.Start)
}

// IsClosed reports whether the period has fully elapsed as of today
func (p BillingPeriod) IsClosed(today time.Time) bool {
	return shared.Day(today).After(p.End)
}

// String formats the period as start..end
func (p BillingPeriod) String() string {
	return p.Start.Format(time.DateOnly) + ".." + p.End.Format(time.DateOnly)
}

// CycleAnchorOnOrBefore returns the latest date on or before t whose day of
// month equals cycleNumber. cycleNumber must be in 1..28.
func CycleAnchorOnOrBefore(t time.Time, cycleNumber int) time.Time {
	d := shared.Day(t)
	anchor := time.Date(d.Year(), d.Month(), cycleNumber, 0, 0, 0, 0, time.UTC)
	if anchor.After(d) {
		anchor = anchor.AddDate(0, -1, 0)
	}
	return anchor
}

// PeriodStartingAt returns the one-month period that begins on start
func PeriodStartingAt(start time.Time) BillingPeriod {
	s := shared.Day(start)
	return BillingPeriod{Start: s, End: s.AddDate(0, 1, -1)}
}

// NextBillablePeriod returns the period the customer should be billed for
// next. The first period starts on the cycle anchor on or before onboarding;
// every later one starts the day after the previous bill ended.
func NextBillablePeriod(cycleNumber int, onboardedAt time.Time, lastBilledEnd *time.Time) BillingPeriod {
	if lastBilledEnd != nil {
		return PeriodStartingAt(shared.Day(*lastBilledEnd).AddDate(0, 0, 1))
	}
	return PeriodStartingAt(CycleAnchorOnOrBefore(onboardedAt, cycleNumber))
}

// PeriodContaining returns the cycle period that contains day
func PeriodContaining(day time.Time, cycleNumber int) BillingPeriod {
	return PeriodStartingAt(CycleAnchorOnOrBefore(day, cycleNumber))
}
