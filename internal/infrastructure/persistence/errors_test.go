package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	ctx := context.Background()

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, mapError(ctx, "op", nil))
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		err := mapError(ctx, "op", shared.ErrDuplicatePeriod)
		assert.Same(t, shared.ErrDuplicatePeriod, err)
	})

	t.Run("record not found maps to NOT_FOUND", func(t *testing.T) {
		assert.ErrorIs(t, mapError(ctx, "op", gorm.ErrRecordNotFound), shared.ErrNotFound)
	})

	t.Run("deadline exceeded maps to TIMEOUT", func(t *testing.T) {
		err := mapError(ctx, "sum usage", fmt.Errorf("driver: %w", context.DeadlineExceeded))
		assert.ErrorIs(t, err, shared.ErrTimeout)
		assert.Contains(t, err.Error(), "sum usage")
	})

	t.Run("expired context maps to TIMEOUT whatever the driver said", func(t *testing.T) {
		expired, cancel := context.WithTimeout(ctx, 0)
		defer cancel()
		<-expired.Done()
		assert.ErrorIs(t, mapError(expired, "op", errors.New("canceling query due to user request")), shared.ErrTimeout)
	})

	t.Run("postgres query_canceled maps to TIMEOUT", func(t *testing.T) {
		assert.ErrorIs(t, mapError(ctx, "op", &pq.Error{Code: "57014"}), shared.ErrTimeout)
		assert.ErrorIs(t, mapError(ctx, "op", &pgconn.PgError{Code: "57014"}), shared.ErrTimeout)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := mapError(ctx, "list bills", cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "list bills: connection refused", err.Error())
		var de *shared.DomainError
		assert.False(t, errors.As(err, &de))
	})
}
