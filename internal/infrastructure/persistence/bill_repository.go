package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBillRepository implements billing.BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// FindByID finds a bill by ID
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Bill")
		}
		return nil, mapError(ctx, "find bill", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists bills, newest first
func (r *GormBillRepository) FindAll(ctx context.Context, filter billing.BillFilter) ([]billing.Bill, error) {
	query := r.db.WithContext(ctx).Model(&models.BillModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.From != nil {
		query = query.Where("billing_period_start >= ?", shared.Day(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("billing_period_end <= ?", shared.Day(*filter.To))
	}

	var rows []models.BillModel
	if err := query.Order("generated_at DESC, billing_period_start DESC").Find(&rows).Error; err != nil {
		return nil, mapError(ctx, "list bills", err)
	}
	out := make([]billing.Bill, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// FindLatestForCustomer returns the bill with the latest period end
func (r *GormBillRepository) FindLatestForCustomer(ctx context.Context, customerID uuid.UUID) (*billing.Bill, error) {
	var model models.BillModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("billing_period_end DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Bill")
		}
		return nil, mapError(ctx, "find latest bill", err)
	}
	return model.ToDomain(), nil
}

// ExistsOverlapping reports whether a bill of the customer shares a day with period
func (r *GormBillRepository) ExistsOverlapping(ctx context.Context, customerID uuid.UUID, period billing.BillingPeriod) (bool, error) {
	overlapping, err := countOverlapping(r.db.WithContext(ctx), customerID, period)
	if err != nil {
		return false, mapError(ctx, "check bill overlap", err)
	}
	return overlapping > 0, nil
}

func countOverlapping(db *gorm.DB, customerID uuid.UUID, period billing.BillingPeriod) (int64, error) {
	var count int64
	err := db.Model(&models.BillModel{}).
		Where("customer_id = ? AND billing_period_start <= ? AND billing_period_end >= ?",
			customerID, period.End, period.Start).
		Count(&count).Error
	return count, err
}

// CountForCustomer counts a customer's bills
func (r *GormBillRepository) CountForCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BillModel{}).Where("customer_id = ?", customerID).Count(&count).Error; err != nil {
		return 0, mapError(ctx, "count bills", err)
	}
	return count, nil
}

// Create inserts a bill after re-checking for overlap in the same transaction
func (r *GormBillRepository) Create(ctx context.Context, bill *billing.Bill) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		overlapping, err := countOverlapping(tx, bill.CustomerID, bill.Period)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return duplicatePeriod(bill.Period)
		}
		return tx.Create(models.BillModelFromDomain(bill)).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicatePeriod(bill.Period)
	}
	return mapError(ctx, "create bill", err)
}

func duplicatePeriod(p billing.BillingPeriod) error {
	return shared.NewDomainError(shared.CodeDuplicatePeriod,
		fmt.Sprintf("Billing period %s overlaps an existing bill", p))
}

// UpdateStatus persists a status transition with an optimistic version check
func (r *GormBillRepository) UpdateStatus(ctx context.Context, bill *billing.Bill) error {
	res := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Where("id = ? AND version = ?", bill.ID, bill.Version-1).
		Updates(map[string]any{
			"status":     bill.Status.String(),
			"sent_at":    bill.SentAt,
			"paid_at":    bill.PaidAt,
			"updated_at": bill.UpdatedAt,
			"version":    bill.Version,
		})
	if res.Error != nil {
		return mapError(ctx, "update bill status", res.Error)
	}
	if res.RowsAffected == 0 {
		exists, err := r.exists(ctx, bill.ID)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("Bill")
		}
		return shared.NewDomainError(shared.CodeInvalidState, "Bill was modified concurrently; reload and retry")
	}
	return nil
}

func (r *GormBillRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BillModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, mapError(ctx, "check bill", err)
	}
	return count > 0, nil
}

type statusTotalRow struct {
	Status string
	Count  int64
	Amount decimal.Decimal
}

// TotalsByStatus returns count and summed total per status
func (r *GormBillRepository) TotalsByStatus(ctx context.Context) ([]billing.StatusTotal, error) {
	var rows []statusTotalRow
	err := r.db.WithContext(ctx).
		Model(&models.BillModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS amount").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError(ctx, "sum bills by status", err)
	}
	out := make([]billing.StatusTotal, len(rows))
	for i, row := range rows {
		out[i] = billing.StatusTotal{
			Status: billing.BillStatus(row.Status),
			Count:  row.Count,
			Amount: row.Amount,
		}
	}
	return out, nil
}

var _ billing.BillRepository = (*GormBillRepository)(nil)
