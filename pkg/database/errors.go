package database

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"strings"
	"syscall"

	"github.com/lib/pq"

	"github.com/fuelshift/fuelshift-backend/pkg/errors"
)

// Constraint names referenced by MapPQError
const (
	ConstraintShiftSlot     = "uq_shifts_pump_date_type"
	ConstraintShiftReadings = "chk_shifts_readings"
	ConstraintShiftReview   = "chk_shifts_review_state"
	ConstraintUsername      = "uq_users_username"
	ConstraintPumpName      = "uq_pumps_name"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error or has no mapping.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23514":
		return mapCheckConstraint(pqErr)

	case "23505":
		return mapUniqueConstraint(pqErr)

	case "23503":
		return errors.BadRequest("referenced record does not exist")

	case "22P02":
		// malformed input such as a non-UUID path parameter
		return errors.BadRequest("invalid identifier or value")

	case "22003":
		// a value exceeds its NUMERIC column precision
		col := pqErr.Column
		if col == "" {
			return errors.BadRequest("numeric value out of range")
		}
		return errors.Validation(map[string]string{col: "value is out of range"})

	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{col: "must not be empty"})

	default:
		return nil
	}
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	switch {
	case pqErr.Constraint == ConstraintShiftReadings:
		return errors.Validation(map[string]string{
			"closing_reading": "closing reading must not be less than opening reading",
		})
	case pqErr.Constraint == ConstraintShiftReview:
		return errors.InvalidTransition("approved", "fix_requested")
	case strings.HasPrefix(pqErr.Constraint, "chk_shifts_") && strings.HasSuffix(pqErr.Constraint, "_nonneg"):
		field := strings.TrimSuffix(strings.TrimPrefix(pqErr.Constraint, "chk_shifts_"), "_nonneg")
		return errors.Validation(map[string]string{field: "amount must not be negative"})
	default:
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)
	}
}

func mapUniqueConstraint(pqErr *pq.Error) *errors.AppError {
	switch pqErr.Constraint {
	case ConstraintShiftSlot:
		return errors.DuplicateShift()
	case ConstraintUsername:
		return errors.Conflict("a user with this username already exists")
	case ConstraintPumpName:
		return errors.Conflict("a pump with this name already exists")
	default:
		return errors.Conflict("a record with these values already exists")
	}
}

// IsUniqueViolation reports whether err is a unique violation on the named constraint
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == constraint
}

// IsConnectionError reports whether err means the database could not be reached,
// as opposed to a query failing.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, driver.ErrBadConn) ||
		stderrors.Is(err, syscall.ECONNREFUSED) ||
		stderrors.Is(err, syscall.ECONNRESET) ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return true
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		// Class 08: connection exception, 57P0x: server shutting down
		return pqErr.Code.Class() == "08" || strings.HasPrefix(string(pqErr.Code), "57P0")
	}
	return false
}

// MapError maps err to an AppError when the database gave it a meaning,
// otherwise returns it unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	if IsConnectionError(err) {
		return errors.ServiceUnavailable(err)
	}
	return err
}
