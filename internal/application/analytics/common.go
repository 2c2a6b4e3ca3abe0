package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/customer"
	"github.com/hydrospark/backend/internal/domain/shared"
)

// DefaultStorageTimeout bounds each repository call
const DefaultStorageTimeout = 5 * time.Second

// storage runs fn under the storage timeout
func storage[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(sctx)
}

func findCustomer(ctx context.Context, repo customer.CustomerRepository, timeout time.Duration, id uuid.UUID) (*customer.Customer, error) {
	c, err := storage(ctx, timeout, func(ctx context.Context) (*customer.Customer, error) {
		return repo.FindByID(ctx, id)
	})
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Customer %s not found", id))
	}
	return c, err
}

// lockError reports a lock wait that ran out of time as TIMEOUT
func lockError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.NewDomainError(shared.CodeTimeout, "Timed out waiting for customer lock")
	}
	return fmt.Errorf("acquire customer lock: %w", err)
}
