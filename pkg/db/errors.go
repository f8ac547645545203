package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
// Postgres errors are matched on SQLSTATE and, when constraintName is set, on
// the constraint name. SQLite does not report index names, so any unique
// failure matches.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.Postgres(err); ok {
		return pg.Code == pgUniqueViolation && (constraintName == "" || pg.Constraint == constraintName)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return true
	case constraintName != "":
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

// IsTxConflict reports whether Postgres aborted the transaction because of a
// concurrent one and it is safe to run again.
func IsTxConflict(err error) bool {
	pg, ok := pkgerrors.Postgres(err)
	return ok && (pg.Code == pgSerializationFailure || pg.Code == pgDeadlockDetected)
}
