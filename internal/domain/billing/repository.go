package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BillRepository defines the interface for bill persistence
type BillRepository interface {
	// FindByID returns shared.ErrNotFound for an unknown id
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindAll returns bills ordered by generation time, newest first
	FindAll(ctx context.Context, filter BillFilter) ([]Bill, error)

	// FindLatestForCustomer returns the bill with the latest period end, or
	// shared.ErrNotFound when the customer has never been billed
	FindLatestForCustomer(ctx context.Context, customerID uuid.UUID) (*Bill, error)

	// ExistsOverlapping reports whether any bill of the customer shares a day with period
	ExistsOverlapping(ctx context.Context, customerID uuid.UUID, period BillingPeriod) (bool, error)

	// CountForCustomer counts a customer's bills
	CountForCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// Create inserts a new bill. A clash on (customer, period start) fails
	// with shared.ErrDuplicatePeriod.
	Create(ctx context.Context, bill *Bill) error

	// UpdateStatus persists a status transition using the aggregate version
	// for optimistic locking
	UpdateStatus(ctx context.Context, bill *Bill) error

	// TotalsByStatus returns count and amount per status
	TotalsByStatus(ctx context.Context) ([]StatusTotal, error)
}

// BillFilter narrows bill listings
type BillFilter struct {
	Status     *BillStatus
	CustomerID *uuid.UUID
	From       *time.Time // period start on or after
	To         *time.Time // period end on or before
}

// WithStatus filters by status
func (f BillFilter) WithStatus(s BillStatus) BillFilter {
	f.Status = &s
	return f
}

// WithCustomer filters by customer
func (f BillFilter) WithCustomer(id uuid.UUID) BillFilter {
	f.CustomerID = &id
	return f
}
