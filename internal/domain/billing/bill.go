package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillStatus represents the lifecycle state of a bill
type BillStatus string

const (
	BillStatusPending BillStatus = "pending"
	BillStatusSent    BillStatus = "sent"
	BillStatusPaid    BillStatus = "paid"
)

// IsValid checks if the status is valid
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusPending, BillStatusSent, BillStatusPaid:
		return true
	}
	return false
}

// String returns the string representation
func (s BillStatus) String() string {
	return string(s)
}

// IsOutstanding reports whether money is still owed on a bill in this status
func (s BillStatus) IsOutstanding() bool {
	return s == BillStatusPending || s == BillStatusSent
}

// CanTransitionTo allows only pending -> sent -> paid, one step at a time
func (s BillStatus) CanTransitionTo(next BillStatus) bool {
	switch s {
	case BillStatusPending:
		return next == BillStatusSent
	case BillStatusSent:
		return next == BillStatusPaid
	}
	return false
}

// Bill is the charge for one customer over one billing period
type Bill struct {
	shared.BaseAggregateRoot
	CustomerID         uuid.UUID
	Period             BillingPeriod
	TotalUsage         float64
	BaseCharge         decimal.Decimal
	SeasonalAdjustment decimal.Decimal
	UsageCharge        decimal.Decimal
	Fees               decimal.Decimal
	TotalAmount        decimal.Decimal
	Status             BillStatus
	GeneratedAt        time.Time
	SentAt             *time.Time
	PaidAt             *time.Time
}

// NewBill creates a pending bill. A period without readings cannot be billed.
func NewBill(customerID uuid.UUID, period BillingPeriod, totalUsage float64, readings int64, charge Charge, now time.Time) (*Bill, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer ID cannot be empty")
	}
	if readings == 0 {
		return nil, shared.NewDomainError(shared.CodeNoUsageData,
			fmt.Sprintf("No usage records between %s and %s", period.Start.Format(time.DateOnly), period.End.Format(time.DateOnly)))
	}

	b := &Bill{
		BaseAggregateRoot:  shared.NewBaseAggregateRootAt(now),
		CustomerID:         customerID,
		Period:             period,
		TotalUsage:         totalUsage,
		BaseCharge:         charge.BaseCharge,
		SeasonalAdjustment: charge.SeasonalAdjustment,
		UsageCharge:        charge.UsageCharge,
		Fees:               charge.Fees,
		TotalAmount:        charge.Total,
		Status:             BillStatusPending,
		GeneratedAt:        now,
	}
	b.AddDomainEvent(NewBillGeneratedEvent(b))
	return b, nil
}

// Send moves a pending bill to sent
func (b *Bill) Send(now time.Time) error {
	if err := b.transition(BillStatusSent, now); err != nil {
		return err
	}
	b.SentAt = &now
	b.AddDomainEvent(NewBillSentEvent(b))
	return nil
}

// MarkPaid moves a sent bill to paid
func (b *Bill) MarkPaid(now time.Time) error {
	if err := b.transition(BillStatusPaid, now); err != nil {
		return err
	}
	b.PaidAt = &now
	b.AddDomainEvent(NewBillPaidEvent(b))
	return nil
}

func (b *Bill) transition(next BillStatus, now time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot move bill from %s to %s", b.Status, next))
	}
	b.Status = next
	b.Touch(now)
	b.IncrementVersion()
	return nil
}
