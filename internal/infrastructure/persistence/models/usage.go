package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/usage"
)

// UsageRecordModel is one revision of a daily reading. Rows are never updated.
type UsageRecordModel struct {
	BaseModel
	CustomerID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_usage_customer_date_revision,priority:1"`
	Date             time.Time `gorm:"not null;uniqueIndex:uq_usage_customer_date_revision,priority:2"`
	Revision         int       `gorm:"not null;default:1;uniqueIndex:uq_usage_customer_date_revision,priority:3"`
	UsageCCF         float64   `gorm:"column:usage_ccf;not null"`
	CorrectionReason string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (UsageRecordModel) TableName() string {
	return "usage_records"
}

// ToDomain converts the model to a domain UsageRecord
func (m *UsageRecordModel) ToDomain() usage.UsageRecord {
	return usage.UsageRecord{
		BaseEntity:       m.BaseModel.ToDomain(),
		CustomerID:       m.CustomerID,
		Date:             m.Date.UTC(),
		UsageCCF:         m.UsageCCF,
		Revision:         m.Revision,
		CorrectionReason: m.CorrectionReason,
	}
}

// UsageRecordModelFromDomain creates a persistence model from a domain UsageRecord
func UsageRecordModelFromDomain(r *usage.UsageRecord) *UsageRecordModel {
	m := &UsageRecordModel{
		CustomerID:       r.CustomerID,
		Date:             r.Date,
		Revision:         r.Revision,
		UsageCCF:         r.UsageCCF,
		CorrectionReason: r.CorrectionReason,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
