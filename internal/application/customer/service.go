// Package customer onboards service accounts and guards changes to their
// billing cycle.
package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/hydrospark/backend/internal/domain/customer"
	"github.com/hydrospark/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultStorageTimeout bounds each repository call
const DefaultStorageTimeout = 5 * time.Second

// RegisterInput describes a new service account
type RegisterInput struct {
	Name         string
	Address      string
	Type         customer.CustomerType
	CycleNumber  int
	LocationID   *int64
	Phone        string
	BusinessName string
	FacilityName string
}

// Service manages customers
type Service struct {
	customers      customer.CustomerRepository
	bills          billing.BillRepository
	locker         shared.KeyedLocker
	clock          shared.Clock
	storageTimeout time.Duration
	logger         *zap.Logger
}

// NewService creates a new customer Service
func NewService(
	customers customer.CustomerRepository,
	bills billing.BillRepository,
	locker shared.KeyedLocker,
	clock shared.Clock,
	storageTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	if clock == nil {
		clock = shared.SystemClock
	}
	if storageTimeout <= 0 {
		storageTimeout = DefaultStorageTimeout
	}
	return &Service{
		customers:      customers,
		bills:          bills,
		locker:         locker,
		clock:          clock,
		storageTimeout: storageTimeout,
		logger:         logger,
	}
}

// Register onboards a customer. The onboarding time anchors the first bill.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*customer.Customer, error) {
	c, err := customer.NewCustomerAt(in.Name, in.Address, in.Type, in.CycleNumber, s.clock())
	if err != nil {
		return nil, err
	}
	c.LocationID = in.LocationID
	c.Phone = in.Phone
	c.BusinessName = in.BusinessName
	c.FacilityName = in.FacilityName

	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	if err := s.customers.Save(sctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Customer registered",
		zap.String("customer_id", c.ID.String()),
		zap.String("type", string(c.Type)),
		zap.Int("cycle_number", c.CycleNumber),
	)
	return c, nil
}

// Get returns one customer
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	c, err := s.customers.FindByID(sctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Customer %s not found", id))
	}
	return c, err
}

// List returns every customer
func (s *Service) List(ctx context.Context) ([]customer.Customer, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	return s.customers.FindAll(sctx)
}

// ChangeCycle moves the billing anchor of a customer that has never been
// billed. It runs under the customer lock so a concurrent bill run cannot
// slip in between the check and the save.
func (s *Service) ChangeCycle(ctx context.Context, id uuid.UUID, cycleNumber int) (*customer.Customer, error) {
	unlock, err := s.locker.Lock(ctx, shared.CustomerLockKey(id))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, shared.NewDomainError(shared.CodeTimeout, "Timed out waiting for customer lock")
		}
		return nil, fmt.Errorf("acquire customer lock: %w", err)
	}
	defer unlock()

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	n, err := s.bills.CountForCustomer(sctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.ChangeCycle(cycleNumber, n > 0); err != nil {
		return nil, err
	}
	if err := s.customers.Save(sctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Customer cycle changed",
		zap.String("customer_id", id.String()),
		zap.Int("cycle_number", cycleNumber),
	)
	return c, nil
}
