package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// BillModel is the persistence model for bills
type BillModel struct {
	AggregateModel
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_bill_customer_period_start,priority:1"`
	PeriodStart        time.Time       `gorm:"column:billing_period_start;not null;uniqueIndex:uq_bill_customer_period_start,priority:2"`
	PeriodEnd          time.Time       `gorm:"column:billing_period_end;not null"`
	TotalUsage         float64         `gorm:"not null"`
	BaseCharge         decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	SeasonalAdjustment decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	UsageCharge        decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Fees               decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Status             string          `gorm:"type:varchar(20);not null;index"`
	GeneratedAt        time.Time       `gorm:"not null;index"`
	SentAt             *time.Time
	PaidAt             *time.Time
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the model to a domain Bill
func (m *BillModel) ToDomain() *billing.Bill {
	return &billing.Bill{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		CustomerID:         m.CustomerID,
		Period:             billing.BillingPeriod{Start: m.PeriodStart.UTC(), End: m.PeriodEnd.UTC()},
		TotalUsage:         m.TotalUsage,
		BaseCharge:         m.BaseCharge,
		SeasonalAdjustment: m.SeasonalAdjustment,
		UsageCharge:        m.UsageCharge,
		Fees:               m.Fees,
		TotalAmount:        m.TotalAmount,
		Status:             billing.BillStatus(m.Status),
		GeneratedAt:        m.GeneratedAt,
		SentAt:             m.SentAt,
		PaidAt:             m.PaidAt,
	}
}

// BillModelFromDomain creates a persistence model from a domain Bill
func BillModelFromDomain(b *billing.Bill) *BillModel {
	m := &BillModel{
		CustomerID:         b.CustomerID,
		PeriodStart:        b.Period.Start,
		PeriodEnd:          b.Period.End,
		TotalUsage:         b.TotalUsage,
		BaseCharge:         b.BaseCharge,
		SeasonalAdjustment: b.SeasonalAdjustment,
		UsageCharge:        b.UsageCharge,
		Fees:               b.Fees,
		TotalAmount:        b.TotalAmount,
		Status:             string(b.Status),
		GeneratedAt:        b.GeneratedAt,
		SentAt:             b.SentAt,
		PaidAt:             b.PaidAt,
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}
