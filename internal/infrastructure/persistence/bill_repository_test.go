package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hydrospark/backend/internal/domain/billing"
	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBill(t *testing.T, customerID uuid.UUID, start time.Time, usageCCF float64) *billing.Bill {
	t.Helper()
	period := billing.PeriodStartingAt(start)
	charge := billing.DefaultRateSchedule().Charge(usageCCF, start.Month())
	b, err := billing.NewBill(customerID, period, usageCCF, 30, charge, period.End.AddDate(0, 0, 1))
	require.NoError(t, err)
	return b
}

func setupBillRepo(t *testing.T) (*GormBillRepository, *gorm.DB, uuid.UUID) {
	t.Helper()
	db := setupTestDB(t)
	return NewGormBillRepository(db), db, seedCustomer(t, db)
}

func TestGormBillRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips amounts and period", func(t *testing.T) {
		repo, _, customerID := setupBillRepo(t)
		b := newBill(t, customerID, day(2024, 4, 1), 25)
		require.NoError(t, repo.Create(ctx, b))

		found, err := repo.FindByID(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, found.TotalAmount.Equal(decimal.RequireFromString("92.5")), found.TotalAmount.String())
		assert.True(t, found.BaseCharge.Equal(decimal.RequireFromString("72.5")))
		assert.True(t, found.Period.Start.Equal(day(2024, 4, 1)))
		assert.True(t, found.Period.End.Equal(day(2024, 4, 30)))
		assert.Equal(t, billing.BillStatusPending, found.Status)
	})

	t.Run("overlapping period is DUPLICATE_PERIOD", func(t *testing.T) {
		repo, _, customerID := setupBillRepo(t)
		require.NoError(t, repo.Create(ctx, newBill(t, customerID, day(2024, 4, 1), 25)))

		err := repo.Create(ctx, newBill(t, customerID, day(2024, 4, 15), 25))
		assert.ErrorIs(t, err, shared.ErrDuplicatePeriod)

		overlapping, err := repo.ExistsOverlapping(ctx, customerID, billing.PeriodStartingAt(day(2024, 4, 30)))
		require.NoError(t, err)
		assert.True(t, overlapping)

		overlapping, err = repo.ExistsOverlapping(ctx, customerID, billing.PeriodStartingAt(day(2024, 5, 1)))
		require.NoError(t, err)
		assert.False(t, overlapping)
	})

	t.Run("same start for another customer is fine", func(t *testing.T) {
		repo, db, customerID := setupBillRepo(t)
		other := seedCustomer(t, db)
		require.NoError(t, repo.Create(ctx, newBill(t, customerID, day(2024, 4, 1), 25)))
		require.NoError(t, repo.Create(ctx, newBill(t, other, day(2024, 4, 1), 25)))

		n, err := repo.CountForCustomer(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestGormBillRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo, db, customerID := setupBillRepo(t)
	other := seedCustomer(t, db)

	april := newBill(t, customerID, day(2024, 4, 1), 10)
	may := newBill(t, customerID, day(2024, 5, 1), 20)
	otherApril := newBill(t, other, day(2024, 4, 1), 30)
	for _, b := range []*billing.Bill{april, may, otherApril} {
		require.NoError(t, repo.Create(ctx, b))
	}

	t.Run("latest for customer uses period end", func(t *testing.T) {
		latest, err := repo.FindLatestForCustomer(ctx, customerID)
		require.NoError(t, err)
		assert.Equal(t, may.ID, latest.ID)

		_, err = repo.FindLatestForCustomer(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find all newest first with filters", func(t *testing.T) {
		all, err := repo.FindAll(ctx, billing.BillFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, may.ID, all[0].ID)

		mine, err := repo.FindAll(ctx, billing.BillFilter{}.WithCustomer(customerID))
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		from, to := day(2024, 4, 1), day(2024, 4, 30)
		inApril, err := repo.FindAll(ctx, billing.BillFilter{From: &from, To: &to})
		require.NoError(t, err)
		assert.Len(t, inApril, 2)
	})

	t.Run("status transitions persist and feed totals", func(t *testing.T) {
		now := day(2024, 6, 2)
		require.NoError(t, april.Send(now))
		require.NoError(t, repo.UpdateStatus(ctx, april))
		require.NoError(t, april.MarkPaid(now.Add(time.Hour)))
		require.NoError(t, repo.UpdateStatus(ctx, april))
		require.NoError(t, may.Send(now))
		require.NoError(t, repo.UpdateStatus(ctx, may))

		found, err := repo.FindByID(ctx, april.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.BillStatusPaid, found.Status)
		require.NotNil(t, found.PaidAt)
		require.NotNil(t, found.SentAt)
		assert.Equal(t, 3, found.Version)

		sent, err := repo.FindAll(ctx, billing.BillFilter{}.WithStatus(billing.BillStatusSent))
		require.NoError(t, err)
		require.Len(t, sent, 1)
		assert.Equal(t, may.ID, sent[0].ID)

		totals, err := repo.TotalsByStatus(ctx)
		require.NoError(t, err)
		summary := billing.NewRevenueSummary(totals)
		assert.Equal(t, int64(1), summary.Counts.Pending)
		assert.Equal(t, int64(1), summary.Counts.Sent)
		assert.Equal(t, int64(1), summary.Counts.Paid)
		assert.Equal(t, int64(3), summary.Counts.Total)
		assert.True(t, summary.Revenue.TotalCollected.Equal(april.TotalAmount), summary.Revenue.TotalCollected.String())
	})

	t.Run("stale status update is INVALID_STATE", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, otherApril.ID)
		require.NoError(t, err)
		require.NoError(t, otherApril.Send(day(2024, 6, 2)))
		require.NoError(t, repo.UpdateStatus(ctx, otherApril))

		require.NoError(t, stale.Send(day(2024, 6, 3)))
		assert.ErrorIs(t, repo.UpdateStatus(ctx, stale), shared.ErrInvalidState)
	})

	t.Run("unknown bill update is NOT_FOUND", func(t *testing.T) {
		ghost := newBill(t, customerID, day(2025, 1, 1), 5)
		require.NoError(t, ghost.Send(day(2025, 2, 2)))
		assert.ErrorIs(t, repo.UpdateStatus(ctx, ghost), shared.ErrNotFound)
	})
}

func TestGormBillRepository_TotalsByStatus_SQL(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormBillRepository(gormDB)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count, COALESCE\(SUM\(total_amount\), 0\) AS amount FROM "bills" GROUP BY "status"`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "amount"}).
			AddRow("pending", 2, "150.5000").
			AddRow("paid", 1, "92.5000"))

	totals, err := repo.TotalsByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, billing.BillStatusPending, totals[0].Status)
	assert.Equal(t, int64(2), totals[0].Count)
	assert.True(t, totals[0].Amount.Equal(decimal.RequireFromString("150.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
