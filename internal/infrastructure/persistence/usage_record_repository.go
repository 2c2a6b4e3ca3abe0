package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/domain/usage"
	"github.com/hydrospark/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUsageRecordRepository implements usage.UsageRecordRepository. Rows are
// append-only; reads see only the highest revision per (customer, date).
type GormUsageRecordRepository struct {
	db *gorm.DB
}

// NewGormUsageRecordRepository creates a new GormUsageRecordRepository
func NewGormUsageRecordRepository(db *gorm.DB) *GormUsageRecordRepository {
	return &GormUsageRecordRepository{db: db}
}

const effectiveRevisionCondition = `usage_records.revision = (
	SELECT MAX(r.revision) FROM usage_records r
	WHERE r.customer_id = usage_records.customer_id AND r.date = usage_records.date)`

func effectiveOnly(db *gorm.DB) *gorm.DB {
	return db.Where(effectiveRevisionCondition)
}

// Append stores a new revision
func (r *GormUsageRecordRepository) Append(ctx context.Context, record *usage.UsageRecord) error {
	model := models.UsageRecordModelFromDomain(record)
	err := r.db.WithContext(ctx).Create(model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		day := record.Date.Format(time.DateOnly)
		if record.Revision == usage.FirstRevision {
			return shared.NewDomainError(shared.CodeDuplicateReading,
				fmt.Sprintf("A reading for %s already exists; submit a correction instead", day))
		}
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Reading for %s was corrected concurrently; retry", day))
	}
	return mapError(ctx, "append usage record", err)
}

// CurrentRevision returns the highest revision for a date, 0 when none exists
func (r *GormUsageRecordRepository) CurrentRevision(ctx context.Context, customerID uuid.UUID, date time.Time) (int, error) {
	var revision int
	err := r.db.WithContext(ctx).
		Model(&models.UsageRecordModel{}).
		Select("COALESCE(MAX(revision), 0)").
		Where("customer_id = ? AND date = ?", customerID, shared.Day(date)).
		Scan(&revision).Error
	if err != nil {
		return 0, mapError(ctx, "read usage revision", err)
	}
	return revision, nil
}

// FindEffective returns effective readings ordered by date ascending
func (r *GormUsageRecordRepository) FindEffective(ctx context.Context, filter usage.UsageFilter) ([]usage.UsageRecord, error) {
	query := r.db.WithContext(ctx).
		Model(&models.UsageRecordModel{}).
		Scopes(effectiveOnly).
		Where("customer_id = ?", filter.CustomerID)
	query = applyDateRange(query, "date", filter.From, filter.To)

	var rows []models.UsageRecordModel
	if err := query.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, mapError(ctx, "list usage records", err)
	}
	out := make([]usage.UsageRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// SumEffective totals effective usage within [from, to]
func (r *GormUsageRecordRepository) SumEffective(ctx context.Context, customerID uuid.UUID, from, to time.Time) (usage.UsageTotal, error) {
	var total usage.UsageTotal
	err := r.db.WithContext(ctx).
		Model(&models.UsageRecordModel{}).
		Scopes(effectiveOnly).
		Select("COALESCE(SUM(usage_ccf), 0) AS total_ccf, COUNT(*) AS record_count").
		Where("customer_id = ? AND date >= ? AND date <= ?", customerID, shared.Day(from), shared.Day(to)).
		Scan(&total).Error
	if err != nil {
		return usage.UsageTotal{}, mapError(ctx, "sum usage", err)
	}
	return total, nil
}

// LastReadingDate returns the date of the newest reading
func (r *GormUsageRecordRepository) LastReadingDate(ctx context.Context, customerID uuid.UUID) (time.Time, bool, error) {
	var rows []models.UsageRecordModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("date DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return time.Time{}, false, mapError(ctx, "read last usage date", err)
	}
	if len(rows) == 0 {
		return time.Time{}, false, nil
	}
	return rows[0].Date.UTC(), true, nil
}

// FirstReadingDateAfter returns the earliest reading date after day
func (r *GormUsageRecordRepository) FirstReadingDateAfter(ctx context.Context, customerID uuid.UUID, day time.Time) (time.Time, bool, error) {
	var rows []models.UsageRecordModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND date > ?", customerID, shared.Day(day)).
		Order("date ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return time.Time{}, false, mapError(ctx, "read next usage date", err)
	}
	if len(rows) == 0 {
		return time.Time{}, false, nil
	}
	return rows[0].Date.UTC(), true, nil
}

func applyDateRange(query *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where(column+" >= ?", shared.Day(*from))
	}
	if to != nil {
		query = query.Where(column+" <= ?", shared.Day(*to))
	}
	return query
}

var _ usage.UsageRecordRepository = (*GormUsageRecordRepository)(nil)
