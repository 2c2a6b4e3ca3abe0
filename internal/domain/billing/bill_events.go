package billing

import (
	"time"

	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	// AggregateTypeBill is the aggregate type for bill events
	AggregateTypeBill = "Bill"

	EventTypeBillGenerated = "BillGenerated"
	EventTypeBillSent      = "BillSent"
	EventTypeBillPaid      = "BillPaid"
)

// BillGeneratedEvent is raised when a bill is created
type BillGeneratedEvent struct {
	shared.BaseDomainEvent
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	TotalUsage  float64         `json:"total_usage"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewBillGeneratedEvent creates a new BillGeneratedEvent
func NewBillGeneratedEvent(b *Bill) *BillGeneratedEvent {
	return &BillGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillGenerated, AggregateTypeBill, b.ID, b.CustomerID),
		PeriodStart:     b.Period.Start,
		PeriodEnd:       b.Period.End,
		TotalUsage:      b.TotalUsage,
		TotalAmount:     b.TotalAmount,
	}
}

// EventType returns the event type name
func (e *BillGeneratedEvent) EventType() string {
	return EventTypeBillGenerated
}

// BillSentEvent is raised when a bill moves to sent
type BillSentEvent struct {
	shared.BaseDomainEvent
	TotalAmount decimal.Decimal `json:"total_amount"`
	SentAt      time.Time       `json:"sent_at"`
}

// NewBillSentEvent creates a new BillSentEvent
func NewBillSentEvent(b *Bill) *BillSentEvent {
	e := &BillSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillSent, AggregateTypeBill, b.ID, b.CustomerID),
		TotalAmount:     b.TotalAmount,
	}
	if b.SentAt != nil {
		e.SentAt = *b.SentAt
	}
	return e
}

// EventType returns the event type name
func (e *BillSentEvent) EventType() string {
	return EventTypeBillSent
}

// BillPaidEvent is raised when a bill moves to paid
type BillPaidEvent struct {
	shared.BaseDomainEvent
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAt      time.Time       `json:"paid_at"`
}

// NewBillPaidEvent creates a new BillPaidEvent
func NewBillPaidEvent(b *Bill) *BillPaidEvent {
	e := &BillPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaid, AggregateTypeBill, b.ID, b.CustomerID),
		TotalAmount:     b.TotalAmount,
	}
	if b.PaidAt != nil {
		e.PaidAt = *b.PaidAt
	}
	return e
}

// EventType returns the event type name
func (e *BillPaidEvent) EventType() string {
	return EventTypeBillPaid
}
