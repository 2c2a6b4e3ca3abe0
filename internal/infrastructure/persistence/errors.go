package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/hydrospark/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// pgQueryCanceled is SQLSTATE 57014, raised when a statement is cancelled by
// statement_timeout or by the client's context.
const pgQueryCanceled = "57014"

// mapError turns storage failures into domain errors. Deadline expiry becomes
// TIMEOUT; everything else unknown is wrapped with the operation name.
func mapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if isTimeout(ctx, err) {
		return shared.NewDomainError(shared.CodeTimeout, fmt.Sprintf("Storage operation %s timed out", op))
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgQueryCanceled {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgQueryCanceled {
		return true
	}
	return false
}

func notFound(what string) error {
	return shared.NewDomainError(shared.CodeNotFound, what+" not found")
}
