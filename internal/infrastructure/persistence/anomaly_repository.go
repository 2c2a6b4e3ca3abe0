package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/hydrospark/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAnomalyRepository implements analytics.AnomalyRepository using GORM
type GormAnomalyRepository struct {
	db *gorm.DB
}

// NewGormAnomalyRepository creates a new GormAnomalyRepository
func NewGormAnomalyRepository(db *gorm.DB) *GormAnomalyRepository {
	return &GormAnomalyRepository{db: db}
}

// FindByID finds an anomaly by ID
func (r *GormAnomalyRepository) FindByID(ctx context.Context, id uuid.UUID) (*analytics.Anomaly, error) {
	var model models.AnomalyModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Anomaly")
		}
		return nil, mapError(ctx, "find anomaly", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists anomalies, most recently detected first
func (r *GormAnomalyRepository) FindAll(ctx context.Context, filter analytics.AnomalyFilter) ([]analytics.Anomaly, error) {
	query := r.db.WithContext(ctx).Model(&models.AnomalyModel{})
	if filter.Reviewed != nil {
		query = query.Where("reviewed = ?", *filter.Reviewed)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	query = applyDateRange(query, "date", filter.From, filter.To)

	var rows []models.AnomalyModel
	if err := query.Order("detected_at DESC, date DESC").Find(&rows).Error; err != nil {
		return nil, mapError(ctx, "list anomalies", err)
	}
	out := make([]analytics.Anomaly, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// InsertNew inserts anomalies inside one transaction, skipping any whose
// (customer, date) already exists, and returns those actually inserted.
func (r *GormAnomalyRepository) InsertNew(ctx context.Context, anomalies []*analytics.Anomaly) ([]*analytics.Anomaly, error) {
	if len(anomalies) == 0 {
		return nil, nil
	}
	inserted := make([]*analytics.Anomaly, 0, len(anomalies))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range anomalies {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(models.AnomalyModelFromDomain(a))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				inserted = append(inserted, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError(ctx, "insert anomalies", err)
	}
	return inserted, nil
}

// Save persists the review state. The aggregate's version must be exactly one
// ahead of the stored row.
func (r *GormAnomalyRepository) Save(ctx context.Context, a *analytics.Anomaly) error {
	res := r.db.WithContext(ctx).
		Model(&models.AnomalyModel{}).
		Where("id = ? AND version = ?", a.ID, a.Version-1).
		Updates(map[string]any{
			"reviewed":     a.Reviewed,
			"review_notes": a.ReviewNotes,
			"reviewed_at":  a.ReviewedAt,
			"updated_at":   a.UpdatedAt,
			"version":      a.Version,
		})
	if res.Error != nil {
		return mapError(ctx, "save anomaly", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.staleOrMissing(ctx, a.ID)
	}
	return nil
}

func (r *GormAnomalyRepository) staleOrMissing(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.AnomalyModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return mapError(ctx, "check anomaly", err)
	}
	if count == 0 {
		return notFound("Anomaly")
	}
	return shared.NewDomainError(shared.CodeInvalidState, "Anomaly was modified concurrently; reload and retry")
}

var _ analytics.AnomalyRepository = (*GormAnomalyRepository)(nil)
