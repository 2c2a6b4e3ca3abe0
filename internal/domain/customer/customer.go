package customer

import (
	"fmt"
	"strings"
	"time"

	"github.com/hydrospark/backend/internal/domain/shared"
)

// CustomerType distinguishes residential and commercial service accounts
type CustomerType string

const (
	CustomerTypeResidential CustomerType = "residential"
	CustomerTypeCommercial  CustomerType = "commercial"
)

// IsValid checks if the customer type is valid
func (t CustomerType) IsValid() bool {
	switch t {
	case CustomerTypeResidential, CustomerTypeCommercial:
		return true
	}
	return false
}

// MinCycleNumber and MaxCycleNumber bound the billing anchor day of month.
// 28 is the last day that exists in every month.
const (
	MinCycleNumber = 1
	MaxCycleNumber = 28
)

// Customer is a metered service account
type Customer struct {
	shared.BaseAggregateRoot
	Name         string
	Address      string
	LocationID   *int64
	Type         CustomerType
	CycleNumber  int
	Phone        string
	BusinessName string
	FacilityName string

	// SkippedThrough is the end of the latest billing period the bill run
	// closed without any usage. Nil until that happens.
	SkippedThrough *time.Time
}

// NewCustomer creates a new customer. cycleNumber is the day of month on which
// the customer's billing periods start.
func NewCustomer(name, address string, customerType CustomerType, cycleNumber int) (*Customer, error) {
	return NewCustomerAt(name, address, customerType, cycleNumber, time.Now().UTC())
}

// NewCustomerAt is NewCustomer with an explicit onboarding time
func NewCustomerAt(name, address string, customerType CustomerType, cycleNumber int, now time.Time) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer name cannot exceed 200 characters")
	}
	if strings.TrimSpace(address) == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer address cannot be empty")
	}
	if !customerType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Invalid customer type: %s", customerType))
	}
	if err := validateCycleNumber(cycleNumber); err != nil {
		return nil, err
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(now),
		Name:              name,
		Address:           strings.TrimSpace(address),
		Type:              customerType,
		CycleNumber:       cycleNumber,
	}, nil
}

// ChangeCycle moves the billing anchor. It is refused once any period has
// been closed, because those periods were computed from the old anchor.
func (c *Customer) ChangeCycle(cycleNumber int, hasBills bool) error {
	if hasBills || c.SkippedThrough != nil {
		return shared.NewDomainError(shared.CodeInvalidState, "Cycle number cannot change once bills exist")
	}
	if err := validateCycleNumber(cycleNumber); err != nil {
		return err
	}
	c.CycleNumber = cycleNumber
	c.Touch(time.Now().UTC())
	c.IncrementVersion()
	return nil
}

// SkipEmptyPeriod records that the period ending on end closed without usage.
// The cursor never moves backwards.
func (c *Customer) SkipEmptyPeriod(end, now time.Time) {
	end = shared.Day(end)
	if c.SkippedThrough != nil && !end.After(*c.SkippedThrough) {
		return
	}
	c.SkippedThrough = &end
	c.Touch(now)
	c.IncrementVersion()
}

// InSkippedPeriod reports whether day is on or before the end of a period
// closed without usage. Readings there would never be billed.
func (c *Customer) InSkippedPeriod(day time.Time) bool {
	return c.SkippedThrough != nil && !shared.Day(day).After(*c.SkippedThrough)
}

// IsCommercial reports whether the account is a commercial one
func (c *Customer) IsCommercial() bool {
	return c.Type == CustomerTypeCommercial
}

func validateCycleNumber(n int) error {
	if n < MinCycleNumber || n > MaxCycleNumber {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Cycle number must be between %d and %d, got %d", MinCycleNumber, MaxCycleNumber, n))
	}
	return nil
}
