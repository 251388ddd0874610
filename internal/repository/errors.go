package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-core/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrOverlap   = errors.New("overlapping active booking")
	ErrDuplicate = errors.New("duplicate record")
	// ErrRetryable marks a transaction the database aborted to break a
	// lock cycle or a serialization conflict. Retrying it may succeed.
	ErrRetryable = errors.New("transaction aborted by concurrent update")
)

const (
	pgExclusionViolation   = "23P01"
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsRetryable reports a deadlock or serialization abort, mapped or raw.
// Commit errors reach callers without passing through mapError.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRetryable) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// mapError translates driver errors into repository sentinels. Unknown
// errors pass through untouched.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			return ErrOverlap
		case pgUniqueViolation:
			return ErrDuplicate
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", ErrRetryable, pgErr.Message)
		}
		return err
	}

	// sqlite reports trigger aborts and unique violations as plain text
	msg := err.Error()
	switch {
	case strings.Contains(msg, model.OverlapConstraintName):
		return ErrOverlap
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrDuplicate
	}
	return err
}
