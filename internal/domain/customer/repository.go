package customer

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID returns shared.ErrNotFound when the customer does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindAll returns every customer ordered by creation time
	FindAll(ctx context.Context) ([]Customer, error)

	// ExistsByID checks existence without loading the row
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// Save creates or updates a customer
	Save(ctx context.Context, c *Customer) error
}
