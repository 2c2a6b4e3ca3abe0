package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UsageRecordRepository persists readings. Every query method returns
// effective readings only: the highest revision per (customer, date).
type UsageRecordRepository interface {
	// Append stores a new revision. An initial reading for a date that already
	// has one fails with shared.ErrDuplicateReading.
	Append(ctx context.Context, record *UsageRecord) error

	// CurrentRevision returns the highest revision for the date, or 0 when none exists
	CurrentRevision(ctx context.Context, customerID uuid.UUID, date time.Time) (int, error)

	// FindEffective returns readings matching the filter ordered by date ascending
	FindEffective(ctx context.Context, filter UsageFilter) ([]UsageRecord, error)

	// SumEffective totals usage within [from, to] inclusive
	SumEffective(ctx context.Context, customerID uuid.UUID, from, to time.Time) (UsageTotal, error)

	// LastReadingDate returns the date of the newest reading; ok is false when there is none
	LastReadingDate(ctx context.Context, customerID uuid.UUID) (date time.Time, ok bool, err error)

	// FirstReadingDateAfter returns the earliest reading date strictly after day
	FirstReadingDateAfter(ctx context.Context, customerID uuid.UUID, day time.Time) (date time.Time, ok bool, err error)
}

// UsageTotal is the aggregate of effective readings over a date range
type UsageTotal struct {
	TotalCCF    float64
	RecordCount int64
}

// UsageFilter selects effective readings for one customer
type UsageFilter struct {
	CustomerID uuid.UUID
	From       *time.Time // inclusive
	To         *time.Time // inclusive
}

// NewUsageFilter returns a filter over a customer's full history
func NewUsageFilter(customerID uuid.UUID) UsageFilter {
	return UsageFilter{CustomerID: customerID}
}

// WithFrom bounds the filter from below
func (f UsageFilter) WithFrom(from time.Time) UsageFilter {
	f.From = &from
	return f
}

// WithTo bounds the filter from above
func (f UsageFilter) WithTo(to time.Time) UsageFilter {
	f.To = &to
	return f
}

// WithRange bounds the filter on both sides
func (f UsageFilter) WithRange(from, to time.Time) UsageFilter {
	return f.WithFrom(from).WithTo(to)
}
