// Package usage records metered readings and their corrections.
package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/hydrospark/backend/internal/domain/customer"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/domain/usage"
	"github.com/hydrospark/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultStorageTimeout bounds each repository call
const DefaultStorageTimeout = 5 * time.Second

// RecordReadingInput is an initial daily reading
type RecordReadingInput struct {
	CustomerID uuid.UUID
	Date       time.Time
	UsageCCF   float64
}

// CorrectReadingInput replaces the effective reading for a date
type CorrectReadingInput struct {
	CustomerID uuid.UUID
	Date       time.Time
	UsageCCF   float64
	Reason     string
}

// Service appends readings under the customer's lock so that detection and
// billing never observe a half-applied correction.
type Service struct {
	customers      customer.CustomerRepository
	readings       usage.UsageRecordRepository
	bills          billing.BillRepository
	locker         shared.KeyedLocker
	logger         *zap.Logger
	storageTimeout time.Duration
	metrics        *telemetry.EngineMetrics
}

// NewService creates a new usage Service
func NewService(
	customers customer.CustomerRepository,
	readings usage.UsageRecordRepository,
	bills billing.BillRepository,
	locker shared.KeyedLocker,
	logger *zap.Logger,
	storageTimeout time.Duration,
) *Service {
	if storageTimeout <= 0 {
		storageTimeout = DefaultStorageTimeout
	}
	return &Service{
		customers:      customers,
		readings:       readings,
		bills:          bills,
		locker:         locker,
		logger:         logger,
		storageTimeout: storageTimeout,
	}
}

// SetEngineMetrics sets the metrics collector
func (s *Service) SetEngineMetrics(m *telemetry.EngineMetrics) {
	s.metrics = m
}

// RecordReading stores revision 1 for a date. A second initial reading for
// the same date fails with DUPLICATE_READING, and a date the bill run has
// already closed fails with ALREADY_BILLED.
func (s *Service) RecordReading(ctx context.Context, in RecordReadingInput) (*usage.UsageRecord, error) {
	rec, err := usage.NewUsageRecord(in.CustomerID, in.Date, in.UsageCCF)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, shared.CustomerLockKey(in.CustomerID))
	if err != nil {
		return nil, lockError(err)
	}
	defer unlock()

	if err := s.ensureOpen(ctx, in.CustomerID, rec.Date, "recorded"); err != nil {
		return nil, err
	}
	if err := s.append(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.RecordUsageWrite(ctx, "initial")
	return rec, nil
}

// CorrectReading appends the next revision for a date. Dates inside a billed
// period cannot be corrected because bill amounts are immutable.
func (s *Service) CorrectReading(ctx context.Context, in CorrectReadingInput) (*usage.UsageRecord, error) {
	unlock, err := s.locker.Lock(ctx, shared.CustomerLockKey(in.CustomerID))
	if err != nil {
		return nil, lockError(err)
	}
	defer unlock()

	day := shared.Day(in.Date)
	if err := s.ensureOpen(ctx, in.CustomerID, day, "corrected"); err != nil {
		return nil, err
	}

	current, err := s.currentRevision(ctx, in.CustomerID, day)
	if err != nil {
		return nil, err
	}
	rec, err := usage.NewCorrection(in.CustomerID, day, in.UsageCCF, current, in.Reason)
	if err != nil {
		return nil, err
	}
	if err := s.append(ctx, rec); err != nil {
		return nil, err
	}

	s.metrics.RecordUsageWrite(ctx, "correction")
	s.logger.Info("Usage reading corrected",
		zap.String("customer_id", in.CustomerID.String()),
		zap.String("date", day.Format(time.DateOnly)),
		zap.Int("revision", rec.Revision),
	)
	return rec, nil
}

// ListReadings returns a customer's effective readings, optionally bounded
func (s *Service) ListReadings(ctx context.Context, customerID uuid.UUID, from, to *time.Time) ([]usage.UsageRecord, error) {
	if err := s.ensureCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	filter := usage.NewUsageFilter(customerID)
	if from != nil {
		filter = filter.WithFrom(shared.Day(*from))
	}
	if to != nil {
		filter = filter.WithTo(shared.Day(*to))
	}

	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	return s.readings.FindEffective(sctx, filter)
}

func (s *Service) ensureCustomer(ctx context.Context, id uuid.UUID) error {
	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	exists, err := s.customers.ExistsByID(sctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Customer %s not found", id))
	}
	return nil
}

// ensureOpen loads the customer and refuses a date whose billing period is
// already closed, either by a bill or by a run that found it empty.
func (s *Service) ensureOpen(ctx context.Context, customerID uuid.UUID, day time.Time, verb string) error {
	c, err := s.findCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	closed := c.InSkippedPeriod(day)
	if !closed {
		sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
		defer cancel()
		closed, err = s.bills.ExistsOverlapping(sctx, customerID, billing.BillingPeriod{Start: day, End: day})
		if err != nil {
			return err
		}
	}
	if closed {
		return shared.NewDomainError(shared.CodeAlreadyBilled,
			fmt.Sprintf("Reading on %s belongs to a billed period and cannot be %s", day.Format(time.DateOnly), verb))
	}
	return nil
}

func (s *Service) findCustomer(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	c, err := s.customers.FindByID(sctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Customer %s not found", id))
	}
	return c, err
}

func (s *Service) currentRevision(ctx context.Context, customerID uuid.UUID, day time.Time) (int, error) {
	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	return s.readings.CurrentRevision(sctx, customerID, day)
}

func (s *Service) append(ctx context.Context, rec *usage.UsageRecord) error {
	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	return s.readings.Append(sctx, rec)
}

// lockError reports a lock wait that ran out of time as TIMEOUT
func lockError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.NewDomainError(shared.CodeTimeout, "Timed out waiting for customer lock")
	}
	return fmt.Errorf("acquire customer lock: %w", err)
}
