// Package repository defines the data access layer and the sentinel errors
// shared across repositories. Handlers translate these into HTTP statuses:
// ErrNotFound (and every error wrapping it) becomes 404, ErrConflict 409,
// ErrInsufficientBalance 400.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is wrapped by every "<entity> not found" error below.
var ErrNotFound = errors.New("not found")

var (
	ErrMemberNotFound       = fmt.Errorf("member %w", ErrNotFound)
	ErrTerminalNotFound     = fmt.Errorf("terminal %w", ErrNotFound)
	ErrSessionNotFound      = fmt.Errorf("session %w", ErrNotFound)
	ErrPackageNotFound      = fmt.Errorf("time package %w", ErrNotFound)
	ErrHappyHourNotFound    = fmt.Errorf("happy hour %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
)

// ErrForbidden is returned when the caller acts on a resource owned by
// someone else.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals an operation blocked by existing state.
var ErrConflict = errors.New("conflict")

var (
	ErrUsernameTaken = fmt.Errorf("username already exists: %w", ErrConflict)
	ErrTerminalBusy  = fmt.Errorf("terminal already has an active session: %w", ErrConflict)
	ErrTerminalName  = fmt.Errorf("terminal name already exists: %w", ErrConflict)
)

// ErrInsufficientBalance is returned by a covered debit when the member's
// balance is lower than the amount.
var ErrInsufficientBalance = errors.New("Insufficient balance")

// ErrCorruptSession is returned when a sessions row has a status that
// contradicts its end_time.
var ErrCorruptSession = errors.New("session row has inconsistent status and end_time")

// notFound maps sql.ErrNoRows to the entity-specific error.
func notFound(err, entity error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return entity
	}
	return err
}

// isDuplicate recognizes unique-key violations from MySQL (1062) and SQLite.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint failed")
}
