package event

import (
	"context"
	"fmt"

	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/infrastructure/timeseries"
	"go.uber.org/zap"
)

// Measurement names written by TimeSeriesHandler
const (
	MeasurementAnomaly       = "usage_anomaly"
	MeasurementBillGenerated = "bill_generated"
	MeasurementBillPaid      = "bill_paid"
)

// TimeSeriesHandler records anomalies and bill milestones as time-series points
type TimeSeriesHandler struct {
	writer timeseries.PointWriter
	logger *zap.Logger
}

// NewTimeSeriesHandler creates a new handler
func NewTimeSeriesHandler(writer timeseries.PointWriter, logger *zap.Logger) *TimeSeriesHandler {
	return &TimeSeriesHandler{writer: writer, logger: logger}
}

// EventTypes returns the event types this handler records
func (h *TimeSeriesHandler) EventTypes() []string {
	return []string{
		analytics.EventTypeAnomalyDetected,
		billing.EventTypeBillGenerated,
		billing.EventTypeBillPaid,
	}
}

// Handle converts the event into a point and writes it
func (h *TimeSeriesHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	point, ok := pointFor(event)
	if !ok {
		return nil
	}
	if err := h.writer.Write(ctx, point); err != nil {
		return fmt.Errorf("write %s point: %w", point.Measurement, err)
	}
	h.logger.Debug("time-series point written",
		zap.String("measurement", point.Measurement),
		zap.String("customer_id", event.CustomerID().String()),
	)
	return nil
}

func pointFor(event shared.DomainEvent) (timeseries.Point, bool) {
	tags := map[string]string{"customer_id": event.CustomerID().String()}

	switch e := event.(type) {
	case *analytics.AnomalyDetectedEvent:
		return timeseries.Point{
			Measurement: MeasurementAnomaly,
			Tags:        tags,
			Fields: map[string]any{
				"usage_ccf":     e.UsageCCF,
				"average_usage": e.AverageUsage,
				"sigma_value":   e.SigmaValue,
			},
			Time: e.Date,
		}, true
	case *billing.BillGeneratedEvent:
		tags["bill_id"] = e.AggregateID().String()
		return timeseries.Point{
			Measurement: MeasurementBillGenerated,
			Tags:        tags,
			Fields: map[string]any{
				"total_usage":  e.TotalUsage,
				"total_amount": e.TotalAmount.InexactFloat64(),
				"period_days":  int64(e.PeriodEnd.Sub(e.PeriodStart).Hours()/24) + 1,
			},
			Time: e.OccurredAt(),
		}, true
	case *billing.BillPaidEvent:
		tags["bill_id"] = e.AggregateID().String()
		at := e.PaidAt
		if at.IsZero() {
			at = e.OccurredAt()
		}
		return timeseries.Point{
			Measurement: MeasurementBillPaid,
			Tags:        tags,
			Fields:      map[string]any{"total_amount": e.TotalAmount.InexactFloat64()},
			Time:        at,
		}, true
	default:
		return timeseries.Point{}, false
	}
}

var _ shared.EventHandler = (*TimeSeriesHandler)(nil)
