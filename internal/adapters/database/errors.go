package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

func isNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// translateError maps driver and context errors onto the AppError taxonomy.
// Errors that already are AppErrors pass through unchanged.
func translateError(table, op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewTimeoutError(fmt.Sprintf("%s on %s did not complete in time", op, table), err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return apperrors.NewConstraintError(
				fmt.Sprintf("unique constraint %s violated on %s", pqErr.Constraint, table),
				pqErr.Constraint, err)
		case pqErr.Code == "23503":
			return apperrors.NewConstraintError(
				fmt.Sprintf("foreign key constraint %s violated on %s", pqErr.Constraint, table),
				pqErr.Constraint, err)
		case pqErr.Code == "23502", pqErr.Code == "23514", pqErr.Code.Class() == "22":
			return &apperrors.AppError{
				Type:    apperrors.ErrorTypeValidation,
				Message: fmt.Sprintf("invalid value for %s: %s", table, pqErr.Message),
				Err:     err,
			}
		case pqErr.Code == "57014":
			return apperrors.NewTimeoutError(fmt.Sprintf("%s on %s was cancelled by the server", op, table), err)
		case pqErr.Code == "40001", pqErr.Code == "40P01":
			return &apperrors.AppError{
				Type:    apperrors.ErrorTypeConflict,
				Message: fmt.Sprintf("%s on %s conflicted with a concurrent transaction", op, table),
				Err:     err,
			}
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "53", pqErr.Code == "57P01", pqErr.Code == "57P02", pqErr.Code == "57P03":
			return apperrors.NewUnavailableError("database is unavailable", err)
		}
		return apperrors.NewInternalError(fmt.Sprintf("failed to %s %s", op, table), err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return apperrors.NewUnavailableError("database connection lost", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return apperrors.NewTimeoutError("database connection timed out", err)
		}
		return apperrors.NewUnavailableError("database is unreachable", err)
	}

	return apperrors.NewInternalError(fmt.Sprintf("failed to %s %s", op, table), err)
}
