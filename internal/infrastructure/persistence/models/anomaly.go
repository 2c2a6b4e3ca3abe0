package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/analytics"
)

// AnomalyModel is the persistence model for anomalies. The unique index on
// (customer_id, date) keeps re-runs of detection idempotent.
type AnomalyModel struct {
	AggregateModel
	CustomerID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_anomaly_customer_date,priority:1"`
	Date         time.Time  `gorm:"not null;uniqueIndex:uq_anomaly_customer_date,priority:2"`
	UsageCCF     float64    `gorm:"column:usage_ccf;not null"`
	AverageUsage float64    `gorm:"not null"`
	StdDeviation float64    `gorm:"not null"`
	SigmaValue   float64    `gorm:"not null"`
	Reviewed     bool       `gorm:"not null;default:false;index"`
	ReviewNotes  string     `gorm:"type:text"`
	ReviewedAt   *time.Time
	DetectedAt   time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AnomalyModel) TableName() string {
	return "anomalies"
}

// ToDomain converts the model to a domain Anomaly
func (m *AnomalyModel) ToDomain() *analytics.Anomaly {
	return &analytics.Anomaly{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CustomerID:        m.CustomerID,
		Date:              m.Date.UTC(),
		UsageCCF:          m.UsageCCF,
		AverageUsage:      m.AverageUsage,
		StdDeviation:      m.StdDeviation,
		SigmaValue:        m.SigmaValue,
		Reviewed:          m.Reviewed,
		ReviewNotes:       m.ReviewNotes,
		ReviewedAt:        m.ReviewedAt,
		DetectedAt:        m.DetectedAt,
	}
}

// AnomalyModelFromDomain creates a persistence model from a domain Anomaly
func AnomalyModelFromDomain(a *analytics.Anomaly) *AnomalyModel {
	m := &AnomalyModel{
		CustomerID:   a.CustomerID,
		Date:         a.Date,
		UsageCCF:     a.UsageCCF,
		AverageUsage: a.AverageUsage,
		StdDeviation: a.StdDeviation,
		SigmaValue:   a.SigmaValue,
		Reviewed:     a.Reviewed,
		ReviewNotes:  a.ReviewNotes,
		ReviewedAt:   a.ReviewedAt,
		DetectedAt:   a.DetectedAt,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}
