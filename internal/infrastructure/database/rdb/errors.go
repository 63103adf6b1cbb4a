package rdb

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/pannpers/go-apperr/apperr"
	"github.com/pannpers/go-apperr/apperr/codes"
	"github.com/uptrace/bun/driver/pgdriver"
)

// toAppErr converts a database error into a structured application error,
// mapping the PostgreSQL SQLSTATE class pgdriver surfaces on its Error type.
func toAppErr(err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(err, codes.NotFound, msg, attrs...)
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "23505": // unique_violation
			return apperr.Wrap(err, codes.AlreadyExists, msg, attrs...)
		case "23503": // foreign_key_violation
			return apperr.Wrap(err, codes.FailedPrecondition, msg, attrs...)
		case "23502", "23514", "23P01": // not_null, check, exclusion
			return apperr.Wrap(err, codes.InvalidArgument, msg, attrs...)
		case "22P02", "22001", "22003", "22007", "22012": // data exceptions
			return apperr.Wrap(err, codes.InvalidArgument, msg, attrs...)
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return apperr.Wrap(err, codes.Aborted, msg, attrs...)
		case "08000", "08003", "08006", "08001", "08004", "08007", "08P01":
			return apperr.Wrap(err, codes.Unavailable, msg, attrs...)
		case "53000", "53100", "53200", "53300", "53400":
			return apperr.Wrap(err, codes.Unavailable, msg, attrs...)
		case "57000", "57014", "57P01", "57P02", "57P03":
			return apperr.Wrap(err, codes.Unavailable, msg, attrs...)
		}
	}

	return apperr.Wrap(err, codes.Internal, msg, attrs...)
}

// IsUniqueViolation returns true if the error is a PostgreSQL unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
