package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/analytics"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormAnomalyRepository(t *testing.T) {
	ctx := context.Background()
	detectedAt := time.Date(2024, 4, 10, 2, 0, 0, 0, time.UTC)

	t.Run("insert new skips existing customer dates", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAnomalyRepository(db)
		customerID := seedCustomer(t, db)

		first := []*analytics.Anomaly{
			analytics.NewAnomaly(customerID, day(2024, 4, 7), 50, 15, 14, detectedAt),
			analytics.NewAnomaly(customerID, day(2024, 4, 8), 60, 15, 14, detectedAt),
		}
		inserted, err := repo.InsertNew(ctx, first)
		require.NoError(t, err)
		assert.Len(t, inserted, 2)

		rerun := []*analytics.Anomaly{
			analytics.NewAnomaly(customerID, day(2024, 4, 8), 60, 15, 14, detectedAt.Add(time.Hour)),
			analytics.NewAnomaly(customerID, day(2024, 4, 9), 70, 15, 14, detectedAt.Add(time.Hour)),
		}
		inserted, err = repo.InsertNew(ctx, rerun)
		require.NoError(t, err)
		require.Len(t, inserted, 1)
		assert.True(t, inserted[0].Date.Equal(day(2024, 4, 9)))

		all, err := repo.FindAll(ctx, analytics.AnomalyFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		repo := NewGormAnomalyRepository(setupTestDB(t))
		inserted, err := repo.InsertNew(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, inserted)
	})

	t.Run("review round trip and filters", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAnomalyRepository(db)
		customerID := seedCustomer(t, db)
		other := seedCustomer(t, db)

		a := analytics.NewAnomaly(customerID, day(2024, 4, 7), 50, 15, 14, detectedAt)
		b := analytics.NewAnomaly(other, day(2024, 4, 7), 40, 10, 5, detectedAt)
		_, err := repo.InsertNew(ctx, []*analytics.Anomaly{a, b})
		require.NoError(t, err)

		loaded, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.InDelta(t, 2.5, loaded.SigmaValue, 1e-9)
		require.NoError(t, loaded.Review("pool fill", detectedAt.Add(24*time.Hour)))
		require.NoError(t, repo.Save(ctx, loaded))

		reviewed, err := repo.FindAll(ctx, analytics.AnomalyFilter{}.WithReviewed(true))
		require.NoError(t, err)
		require.Len(t, reviewed, 1)
		assert.Equal(t, "pool fill", reviewed[0].ReviewNotes)
		assert.NotNil(t, reviewed[0].ReviewedAt)
		assert.Equal(t, 2, reviewed[0].Version)

		pending, err := repo.FindAll(ctx, analytics.AnomalyFilter{}.WithReviewed(false).WithCustomer(other))
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, b.ID, pending[0].ID)

		from, to := day(2024, 4, 8), day(2024, 4, 30)
		none, err := repo.FindAll(ctx, analytics.AnomalyFilter{}.WithDateRange(&from, &to))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("stale save is INVALID_STATE and unknown is NOT_FOUND", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewGormAnomalyRepository(db)
		customerID := seedCustomer(t, db)
		a := analytics.NewAnomaly(customerID, day(2024, 4, 7), 50, 15, 14, detectedAt)
		_, err := repo.InsertNew(ctx, []*analytics.Anomaly{a})
		require.NoError(t, err)

		stale, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		fresh, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)

		require.NoError(t, fresh.Review("ok", detectedAt))
		require.NoError(t, repo.Save(ctx, fresh))

		require.NoError(t, stale.Review("late", detectedAt))
		assert.ErrorIs(t, repo.Save(ctx, stale), shared.ErrInvalidState)

		ghost := analytics.NewAnomaly(customerID, day(2024, 4, 9), 1, 1, 1, detectedAt)
		require.NoError(t, ghost.Review("x", detectedAt))
		assert.ErrorIs(t, repo.Save(ctx, ghost), shared.ErrNotFound)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
