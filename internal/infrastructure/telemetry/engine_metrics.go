package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineMetrics tracks the analytics and billing engine.
// A nil *EngineMetrics is valid and records nothing.
type EngineMetrics struct {
	logger *zap.Logger

	anomaliesDetected *Counter
	anomaliesReviewed *Counter
	billOutcomes      *Counter
	billTransitions   *Counter
	forecasts         *Counter
	usageWrites       *Counter
	batchDuration     *Histogram
}

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = &MetricsError{Op: "NewEngineMetrics", Err: "meter cannot be nil"}

// MetricsError describes a metrics setup failure
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewEngineMetrics registers the engine instruments on meter.
func NewEngineMetrics(meter metric.Meter, logger *zap.Logger) (*EngineMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &EngineMetrics{logger: logger}
	var err error

	if m.anomaliesDetected, err = NewCounter(meter, "hydro_anomalies_detected_total",
		"Anomalies created by detection sweeps", "{anomalies}"); err != nil {
		return nil, err
	}
	if m.anomaliesReviewed, err = NewCounter(meter, "hydro_anomalies_reviewed_total",
		"Anomaly review actions", "{reviews}"); err != nil {
		return nil, err
	}
	if m.billOutcomes, err = NewCounter(meter, "hydro_bill_generation_total",
		"Per-customer bill generation outcomes", "{customers}"); err != nil {
		return nil, err
	}
	if m.billTransitions, err = NewCounter(meter, "hydro_bill_transitions_total",
		"Bill status transitions", "{bills}"); err != nil {
		return nil, err
	}
	if m.forecasts, err = NewCounter(meter, "hydro_forecasts_total",
		"Forecast computations", "{forecasts}"); err != nil {
		return nil, err
	}
	if m.usageWrites, err = NewCounter(meter, "hydro_usage_writes_total",
		"Usage readings appended", "{records}"); err != nil {
		return nil, err
	}
	if m.batchDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "hydro_batch_duration_seconds",
		Description: "Duration of fleet-wide batch runs",
		Unit:        "s",
		Boundaries:  BatchDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAnomaliesDetected adds created anomalies
func (m *EngineMetrics) RecordAnomaliesDetected(ctx context.Context, created int) {
	if m == nil || created == 0 {
		return
	}
	m.anomaliesDetected.Add(ctx, int64(created))
}

// RecordAnomalyReviewed counts a review
func (m *EngineMetrics) RecordAnomalyReviewed(ctx context.Context) {
	if m == nil {
		return
	}
	m.anomaliesReviewed.Inc(ctx)
}

// RecordBillOutcome counts one customer's generation result; code is empty unless failed
func (m *EngineMetrics) RecordBillOutcome(ctx context.Context, outcome, code string) {
	if m == nil {
		return
	}
	m.billOutcomes.Inc(ctx, AttrOutcome.String(outcome), AttrErrorCode.String(code))
}

// RecordBillTransition counts a bill reaching status
func (m *EngineMetrics) RecordBillTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.billTransitions.Inc(ctx, AttrBillStatus.String(status))
}

// RecordForecast counts a forecast by operation (usage or bill)
func (m *EngineMetrics) RecordForecast(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.forecasts.Inc(ctx, AttrOperation.String(operation))
}

// RecordUsageWrite counts an appended reading; kind is initial or correction
func (m *EngineMetrics) RecordUsageWrite(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.usageWrites.Inc(ctx, AttrOperation.String(kind))
}

// RecordBatch records how long a batch operation took
func (m *EngineMetrics) RecordBatch(ctx context.Context, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.RecordDuration(ctx, d, AttrOperation.String(operation))
	m.logger.Debug("Batch finished", zap.String("operation", operation), zap.Duration("duration", d))
}
