package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/customer"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/domain/usage"
	"github.com/hydrospark/backend/internal/infrastructure/telemetry"
	"github.com/hydrospark/backend/internal/infrastructure/workerpool"
	"go.uber.org/zap"
)

// CustomerFailure is one customer a batch could not process
type CustomerFailure struct {
	CustomerID uuid.UUID
	Code       string
	Error      string
}

// DetectionResult summarizes a detection sweep
type DetectionResult struct {
	CreatedCount     int
	CustomersScanned int
	Failures         []CustomerFailure
}

// AnomalyService runs detection and manages anomaly review
type AnomalyService struct {
	customers      customer.CustomerRepository
	readings       usage.UsageRecordRepository
	anomalies      analytics.AnomalyRepository
	detector       *analytics.Detector
	locker         shared.KeyedLocker
	publisher      shared.EventPublisher
	clock          shared.Clock
	workers        int
	storageTimeout time.Duration
	logger         *zap.Logger
	metrics        *telemetry.EngineMetrics
}

// AnomalyServiceConfig holds the service's tunables
type AnomalyServiceConfig struct {
	Workers        int
	StorageTimeout time.Duration
}

// NewAnomalyService creates a new AnomalyService
func NewAnomalyService(
	customers customer.CustomerRepository,
	readings usage.UsageRecordRepository,
	anomalies analytics.AnomalyRepository,
	detector *analytics.Detector,
	locker shared.KeyedLocker,
	publisher shared.EventPublisher,
	clock shared.Clock,
	cfg AnomalyServiceConfig,
	logger *zap.Logger,
) *AnomalyService {
	if clock == nil {
		clock = shared.SystemClock
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = DefaultStorageTimeout
	}
	return &AnomalyService{
		customers:      customers,
		readings:       readings,
		anomalies:      anomalies,
		detector:       detector,
		locker:         locker,
		publisher:      publisher,
		clock:          clock,
		workers:        cfg.Workers,
		storageTimeout: cfg.StorageTimeout,
		logger:         logger,
	}
}

// SetEngineMetrics sets the metrics collector
func (s *AnomalyService) SetEngineMetrics(m *telemetry.EngineMetrics) {
	s.metrics = m
}

// DetectAll reconciles anomalies for every customer. A failing customer is
// reported in the result and does not stop the sweep. Running it again
// without new readings creates nothing.
func (s *AnomalyService) DetectAll(ctx context.Context) (*DetectionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "anomaly", "detect_all")
	defer span.End()
	started := time.Now()

	customers, err := storage(ctx, s.storageTimeout, s.customers.FindAll)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	created := make([]int, len(customers))
	index := make(map[uuid.UUID]int, len(customers))
	ids := make([]uuid.UUID, len(customers))
	for i := range customers {
		ids[i] = customers[i].ID
		index[customers[i].ID] = i
	}

	results := workerpool.Run(ctx, s.workers, ids, func(ctx context.Context, id uuid.UUID) error {
		n, err := s.DetectForCustomer(ctx, id)
		created[index[id]] = n
		return err
	})

	res := &DetectionResult{CustomersScanned: len(customers)}
	for _, n := range created {
		res.CreatedCount += n
	}
	for _, r := range workerpool.Failed(results) {
		f := failureOf(r.Item, r.Err)
		res.Failures = append(res.Failures, f)
		s.logger.Warn("Anomaly detection failed for customer",
			zap.String("customer_id", f.CustomerID.String()),
			zap.String("code", f.Code),
			zap.Error(r.Err),
		)
	}

	s.metrics.RecordAnomaliesDetected(ctx, res.CreatedCount)
	s.metrics.RecordBatch(ctx, "anomaly_sweep", time.Since(started))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCount, res.CreatedCount,
		"customers_scanned", res.CustomersScanned,
		"failures", len(res.Failures),
	)
	s.logger.Info("Anomaly sweep finished",
		zap.Int("created", res.CreatedCount),
		zap.Int("customers_scanned", res.CustomersScanned),
		zap.Int("failures", len(res.Failures)),
		zap.Duration("took", time.Since(started)),
	)
	return res, nil
}

// DetectForCustomer runs detection over one customer's full history under
// the customer lock and returns how many anomalies were newly stored.
func (s *AnomalyService) DetectForCustomer(ctx context.Context, customerID uuid.UUID) (int, error) {
	unlock, err := s.locker.Lock(ctx, shared.CustomerLockKey(customerID))
	if err != nil {
		return 0, lockError(err)
	}
	defer unlock()

	records, err := storage(ctx, s.storageTimeout, func(ctx context.Context) ([]usage.UsageRecord, error) {
		return s.readings.FindEffective(ctx, usage.NewUsageFilter(customerID))
	})
	if err != nil {
		return 0, err
	}

	found := s.detector.Detect(customerID, records, s.clock())
	if len(found) == 0 {
		return 0, nil
	}
	inserted, err := storage(ctx, s.storageTimeout, func(ctx context.Context) ([]*analytics.Anomaly, error) {
		return s.anomalies.InsertNew(ctx, found)
	})
	if err != nil {
		return 0, err
	}

	var events []shared.DomainEvent
	for _, a := range inserted {
		events = append(events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	s.publish(ctx, events)
	return len(inserted), nil
}

// Review marks an anomaly reviewed. Reviewing again replaces the notes.
func (s *AnomalyService) Review(ctx context.Context, id uuid.UUID, notes string) (*analytics.Anomaly, error) {
	a, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (*analytics.Anomaly, error) {
		return s.anomalies.FindByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Anomaly %s not found", id))
		}
		return nil, err
	}

	if err := a.Review(notes, s.clock()); err != nil {
		return nil, err
	}
	if _, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.anomalies.Save(ctx, a)
	}); err != nil {
		return nil, err
	}

	events := a.GetDomainEvents()
	a.ClearDomainEvents()
	s.publish(ctx, events)
	s.metrics.RecordAnomalyReviewed(ctx)
	return a, nil
}

// List returns anomalies newest first
func (s *AnomalyService) List(ctx context.Context, filter analytics.AnomalyFilter) ([]analytics.Anomaly, error) {
	return storage(ctx, s.storageTimeout, func(ctx context.Context) ([]analytics.Anomaly, error) {
		return s.anomalies.FindAll(ctx, filter)
	})
}

func (s *AnomalyService) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish anomaly events", zap.Int("events", len(events)), zap.Error(err))
	}
}

func failureOf(customerID uuid.UUID, err error) CustomerFailure {
	code := shared.ErrorCode(err)
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	return CustomerFailure{CustomerID: customerID, Code: code, Error: err.Error()}
}
