package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AnomalyRepository defines the interface for anomaly persistence
type AnomalyRepository interface {
	// FindByID returns shared.ErrNotFound for an unknown id
	FindByID(ctx context.Context, id uuid.UUID) (*Anomaly, error)

	// FindAll returns anomalies ordered by detection time, newest first
	FindAll(ctx context.Context, filter AnomalyFilter) ([]Anomaly, error)

	// InsertNew stores anomalies whose (customer, date) is not yet taken and
	// returns only those that were actually inserted
	InsertNew(ctx context.Context, anomalies []*Anomaly) ([]*Anomaly, error)

	// Save updates an existing anomaly's review state
	Save(ctx context.Context, anomaly *Anomaly) error
}

// AnomalyFilter narrows anomaly listings
type AnomalyFilter struct {
	Reviewed   *bool
	CustomerID *uuid.UUID
	From       *time.Time // anomaly date, inclusive
	To         *time.Time // anomaly date, inclusive
}

// WithReviewed filters by review state
func (f AnomalyFilter) WithReviewed(reviewed bool) AnomalyFilter {
	f.Reviewed = &reviewed
	return f
}

// WithCustomer filters by customer
func (f AnomalyFilter) WithCustomer(customerID uuid.UUID) AnomalyFilter {
	f.CustomerID = &customerID
	return f
}

// WithDateRange filters by anomaly date
func (f AnomalyFilter) WithDateRange(from, to *time.Time) AnomalyFilter {
	f.From = from
	f.To = to
	return f
}
