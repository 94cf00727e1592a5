package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	apperrors "github.com/target/campus-auth/internal/errors"
)

// mapDBError maps database errors to AppError instances:
//   - sql.ErrNoRows / pgx.ErrNoRows → not_found
//   - context deadline / cancellation → timeout / canceled
//   - connection exceptions and shutdown → service_unavailable
//   - missing kv_entries table → internal, with a hint to run migrations
//
// Anything else is returned unchanged.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "Request timed out. Please try again.")
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "key not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch {
	case pgErr.Code == pgerrcode.UndefinedTable:
		return apperrors.Wrap(pgErr, apperrors.ErrCodeInternal, "kv_entries table is missing; run migrations")
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgErr.Code == pgerrcode.AdminShutdown,
		pgErr.Code == pgerrcode.CannotConnectNow,
		pgErr.Code == pgerrcode.TooManyConnections:
		return apperrors.ServiceUnavailable("database unavailable", pgErr)
	default:
		return apperrors.Wrap(pgErr, apperrors.ErrCodeInternal, "A database error occurred. Please try again.")
	}
}
