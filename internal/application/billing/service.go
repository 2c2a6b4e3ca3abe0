// Package billing generates bills for closed billing periods and moves them
// through their lifecycle.
package billing

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
	"github.com/hydrospark/backend/internal/infrastructure/workerpool"
	"go.uber.org/zap"
)

// DefaultStorageTimeout bounds each repository call
const DefaultStorageTimeout = 5 * time.Second

// Outcome is what a bill run did for one customer
type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// CustomerResult is one customer's line in a bill run
type CustomerResult struct {
	CustomerID uuid.UUID
	Outcome    Outcome
	BillID     *uuid.UUID
	Code       string
	Error      string
}

// GenerationResult summarizes a bill run
type GenerationResult struct {
	Message   string
	Generated int
	Skipped   int
	Failed    int
	Results   []CustomerResult
}

// Config holds the service's tunables
type Config struct {
	Workers        int
	StorageTimeout time.Duration
}

// Service generates bills and applies status transitions
type Service struct {
	customers      customer.CustomerRepository
	readings       usage.UsageRecordRepository
	bills          billing.BillRepository
	rates          *billing.RateSchedule
	locker         shared.KeyedLocker
	publisher      shared.EventPublisher
	clock          shared.Clock
	workers        int
	storageTimeout time.Duration
	logger         *zap.Logger
	metrics        *telemetry.EngineMetrics
}

// NewService creates a new billing Service
func NewService(
	customers customer.CustomerRepository,
	readings usage.UsageRecordRepository,
	bills billing.BillRepository,
	rates *billing.RateSchedule,
	locker shared.KeyedLocker,
	publisher shared.EventPublisher,
	clock shared.Clock,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if clock == nil {
		clock = shared.SystemClock
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = DefaultStorageTimeout
	}
	return &Service{
		customers:      customers,
		readings:       readings,
		bills:          bills,
		rates:          rates,
		locker:         locker,
		publisher:      publisher,
		clock:          clock,
		workers:        cfg.Workers,
		storageTimeout: cfg.StorageTimeout,
		logger:         logger,
	}
}

// SetEngineMetrics sets the metrics collector
func (s *Service) SetEngineMetrics(m *telemetry.EngineMetrics) {
	s.metrics = m
}

// GenerateAll bills every customer whose next period has closed. Each
// customer yields at most one bill per run; a customer several periods behind
// catches up over successive runs.
func (s *Service) GenerateAll(ctx context.Context) (*GenerationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "generate_all")
	defer span.End()
	started := time.Now()
	today := shared.Day(s.clock())

	customers, err := storage(ctx, s.storageTimeout, s.customers.FindAll)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	lines := make([]CustomerResult, len(customers))
	results := workerpool.Run(ctx, s.workers, indexes(len(customers)), func(ctx context.Context, i int) error {
		lines[i] = s.generateFor(ctx, &customers[i], today).CustomerResult
		return nil
	})
	for _, r := range workerpool.Failed(results) {
		lines[r.Item] = failed(customers[r.Item].ID, r.Err)
	}

	res := &GenerationResult{Results: lines}
	for _, l := range lines {
		switch l.Outcome {
		case OutcomeGenerated:
			res.Generated++
		case OutcomeSkipped:
			res.Skipped++
		case OutcomeFailed:
			res.Failed++
			s.logger.Warn("Bill generation failed for customer",
				zap.String("customer_id", l.CustomerID.String()),
				zap.String("code", l.Code),
				zap.String("error", l.Error),
			)
		}
		s.metrics.RecordBillOutcome(ctx, string(l.Outcome), l.Code)
	}
	res.Message = fmt.Sprintf("Generated %d bills (%d skipped, %d failed)", res.Generated, res.Skipped, res.Failed)

	s.metrics.RecordBatch(ctx, "bill_run", time.Since(started))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCount, res.Generated,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	s.logger.Info("Bill run finished",
		zap.Int("generated", res.Generated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("took", time.Since(started)),
	)
	return res, nil
}

// GenerateForCustomer bills one customer's next closed period. It returns
// nil without error when that period is still open.
func (s *Service) GenerateForCustomer(ctx context.Context, customerID uuid.UUID) (*billing.Bill, error) {
	c, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (*customer.Customer, error) {
		return s.customers.FindByID(ctx, customerID)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Customer %s not found", customerID))
		}
		return nil, err
	}
	line := s.generateFor(ctx, c, shared.Day(s.clock()))
	if line.Outcome == OutcomeFailed {
		return nil, line.err
	}
	if line.BillID == nil {
		return nil, nil
	}
	return storage(ctx, s.storageTimeout, func(ctx context.Context) (*billing.Bill, error) {
		return s.bills.FindByID(ctx, *line.BillID)
	})
}

type generation struct {
	CustomerResult
	err error
}

func (s *Service) generateFor(ctx context.Context, c *customer.Customer, today time.Time) generation {
	bill, err := s.generate(ctx, c, today)
	switch {
	case err != nil:
		return generation{CustomerResult: failed(c.ID, err), err: err}
	case bill == nil:
		return generation{CustomerResult: CustomerResult{CustomerID: c.ID, Outcome: OutcomeSkipped}}
	default:
		id := bill.ID
		return generation{CustomerResult: CustomerResult{CustomerID: c.ID, Outcome: OutcomeGenerated, BillID: &id}}
	}
}

func (s *Service) generate(ctx context.Context, c *customer.Customer, today time.Time) (*billing.Bill, error) {
	unlock, err := s.locker.Lock(ctx, shared.CustomerLockKey(c.ID))
	if err != nil {
		return nil, lockError(err)
	}
	defer unlock()

	// reload under the lock so a concurrent run's skip cursor is seen
	c, err = storage(ctx, s.storageTimeout, func(ctx context.Context) (*customer.Customer, error) {
		return s.customers.FindByID(ctx, c.ID)
	})
	if err != nil {
		return nil, err
	}

	var lastEnd *time.Time
	latest, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (*billing.Bill, error) {
		return s.bills.FindLatestForCustomer(ctx, c.ID)
	})
	switch {
	case err == nil:
		lastEnd = &latest.Period.End
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	period, err := s.nextPeriod(ctx, c, lastEnd)
	if err != nil {
		return nil, err
	}
	if !period.IsClosed(today) {
		return nil, nil
	}

	overlapping, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (bool, error) {
		return s.bills.ExistsOverlapping(ctx, c.ID, period)
	})
	if err != nil {
		return nil, err
	}
	if overlapping {
		return nil, shared.NewDomainError(shared.CodeDuplicatePeriod,
			fmt.Sprintf("Billing period %s overlaps an existing bill", period))
	}

	total, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (usage.UsageTotal, error) {
		return s.readings.SumEffective(ctx, c.ID, period.Start, period.End)
	})
	if err != nil {
		return nil, err
	}
	if total.RecordCount == 0 {
		return nil, s.skipEmpty(ctx, c, period)
	}

	charge := s.rates.Charge(total.TotalCCF, period.Start.Month())
	bill, err := billing.NewBill(c.ID, period, total.TotalCCF, total.RecordCount, charge, s.clock())
	if err != nil {
		return nil, err
	}
	if _, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.bills.Create(ctx, bill)
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("Bill generated",
		zap.String("customer_id", c.ID.String()),
		zap.String("bill_id", bill.ID.String()),
		zap.String("period", period.String()),
		zap.String("total_amount", bill.TotalAmount.StringFixed(2)),
	)
	s.publish(ctx, bill)
	return bill, nil
}

// nextPeriod picks the period after the later of the last bill and the last
// period closed without usage. After an empty period the next one is aligned
// to the first reading that follows it, so a run of vacant months is passed
// over at once.
func (s *Service) nextPeriod(ctx context.Context, c *customer.Customer, lastEnd *time.Time) (billing.BillingPeriod, error) {
	if c.SkippedThrough == nil || (lastEnd != nil && !c.SkippedThrough.After(*lastEnd)) {
		return billing.NextBillablePeriod(c.CycleNumber, c.CreatedAt, lastEnd), nil
	}

	cursor := *c.SkippedThrough
	period := billing.NextBillablePeriod(c.CycleNumber, c.CreatedAt, &cursor)
	type next struct {
		date time.Time
		ok   bool
	}
	first, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (next, error) {
		d, ok, err := s.readings.FirstReadingDateAfter(ctx, c.ID, cursor)
		return next{d, ok}, err
	})
	if err != nil {
		return billing.BillingPeriod{}, err
	}
	if first.ok {
		if aligned := billing.PeriodContaining(first.date, c.CycleNumber); aligned.Start.After(period.Start) {
			period = aligned
		}
	}
	return period, nil
}

// skipEmpty reports NO_USAGE_DATA for the period and moves the customer's
// cursor past it so the following run bills the next period with readings.
func (s *Service) skipEmpty(ctx context.Context, c *customer.Customer, period billing.BillingPeriod) error {
	c.SkipEmptyPeriod(period.End, s.clock())
	if _, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.customers.Save(ctx, c)
	}); err != nil {
		return err
	}
	s.logger.Info("Billing period closed without usage",
		zap.String("customer_id", c.ID.String()),
		zap.String("period", period.String()),
	)
	return shared.NewDomainError(shared.CodeNoUsageData,
		fmt.Sprintf("No usage records in billing period %s", period))
}

// Send moves a pending bill to sent
func (s *Service) Send(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	return s.transition(ctx, id, "send", func(b *billing.Bill, now time.Time) error { return b.Send(now) })
}

// MarkPaid moves a sent bill to paid
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	return s.transition(ctx, id, "mark_paid", func(b *billing.Bill, now time.Time) error { return b.MarkPaid(now) })
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, op string, apply func(*billing.Bill, time.Time) error) (*billing.Bill, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing", op, telemetry.SpanAttrBillID, id.String())
	defer span.End()

	bill, err := s.Get(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, shared.CustomerLockKey(bill.CustomerID))
	if err != nil {
		return nil, lockError(err)
	}
	defer unlock()

	// reload under the lock so a concurrent transition is seen
	bill, err = s.Get(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := apply(bill, s.clock()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if _, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.bills.UpdateStatus(ctx, bill)
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordBillTransition(ctx, bill.Status.String())
	s.logger.Info("Bill status changed",
		zap.String("bill_id", id.String()),
		zap.String("customer_id", bill.CustomerID.String()),
		zap.String("status", bill.Status.String()),
	)
	s.publish(ctx, bill)
	return bill, nil
}

// Get returns one bill
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	b, err := storage(ctx, s.storageTimeout, func(ctx context.Context) (*billing.Bill, error) {
		return s.bills.FindByID(ctx, id)
	})
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Bill %s not found", id))
	}
	return b, err
}

// List returns bills newest first
func (s *Service) List(ctx context.Context, filter billing.BillFilter) ([]billing.Bill, error) {
	return storage(ctx, s.storageTimeout, func(ctx context.Context) ([]billing.Bill, error) {
		return s.bills.FindAll(ctx, filter)
	})
}

// Summary aggregates bill counts and revenue by status
func (s *Service) Summary(ctx context.Context) (billing.RevenueSummary, error) {
	totals, err := storage(ctx, s.storageTimeout, s.bills.TotalsByStatus)
	if err != nil {
		return billing.RevenueSummary{}, err
	}
	return billing.NewRevenueSummary(totals), nil
}

func (s *Service) publish(ctx context.Context, bill *billing.Bill) {
	events := bill.GetDomainEvents()
	bill.ClearDomainEvents()
	if len(events) == 0 || s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish bill events",
			zap.String("bill_id", bill.ID.String()),
			zap.Error(err),
		)
	}
}

func storage[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(sctx)
}

func lockError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.NewDomainError(shared.CodeTimeout, "Timed out waiting for customer lock")
	}
	return fmt.Errorf("acquire customer lock: %w", err)
}

func failed(customerID uuid.UUID, err error) CustomerResult {
	code := shared.ErrorCode(err)
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	return CustomerResult{CustomerID: customerID, Outcome: OutcomeFailed, Code: code, Error: err.Error()}
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
