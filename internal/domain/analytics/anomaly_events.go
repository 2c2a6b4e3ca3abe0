package analytics

import (
	"time"

	"github.com/hydrospark/backend/internal/domain/shared"
)

const (
	// AggregateTypeAnomaly is the aggregate type for anomaly events
	AggregateTypeAnomaly = "Anomaly"

	EventTypeAnomalyDetected = "AnomalyDetected"
	EventTypeAnomalyReviewed = "AnomalyReviewed"
)

// AnomalyDetectedEvent is raised when a new anomaly is persisted
type AnomalyDetectedEvent struct {
	shared.BaseDomainEvent
	Date         time.Time `json:"date"`
	UsageCCF     float64   `json:"usage_ccf"`
	AverageUsage float64   `json:"average_usage"`
	SigmaValue   float64   `json:"sigma_value"`
}

// NewAnomalyDetectedEvent creates a new AnomalyDetectedEvent
func NewAnomalyDetectedEvent(a *Anomaly) *AnomalyDetectedEvent {
	return &AnomalyDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAnomalyDetected, AggregateTypeAnomaly, a.ID, a.CustomerID),
		Date:            a.Date,
		UsageCCF:        a.UsageCCF,
		AverageUsage:    a.AverageUsage,
		SigmaValue:      a.SigmaValue,
	}
}

// EventType returns the event type name
func (e *AnomalyDetectedEvent) EventType() string {
	return EventTypeAnomalyDetected
}

// AnomalyReviewedEvent is raised on every review, including re-reviews
type AnomalyReviewedEvent struct {
	shared.BaseDomainEvent
	Notes      string    `json:"notes"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// NewAnomalyReviewedEvent creates a new AnomalyReviewedEvent
func NewAnomalyReviewedEvent(a *Anomaly) *AnomalyReviewedEvent {
	e := &AnomalyReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAnomalyReviewed, AggregateTypeAnomaly, a.ID, a.CustomerID),
		Notes:           a.ReviewNotes,
	}
	if a.ReviewedAt != nil {
		e.ReviewedAt = *a.ReviewedAt
	}
	return e
}

// EventType returns the event type name
func (e *AnomalyReviewedEvent) EventType() string {
	return EventTypeAnomalyReviewed
}
