// Package repository defines error values and helpers reused across
// multiple repositories.  Sentinel values allow handlers to distinguish
// failure scenarios, e.g. ErrConflict signals that a delete cannot
// proceed because dependent records exist (deleting a session that
// already has sold tickets).
package repository

import (
	"errors"
	"strings"
)

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state.  Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062).  The go-sql-driver error string always contains the
// numeric code, which avoids depending on the driver's error type.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isDeadlock reports whether err is an InnoDB deadlock (error 1213).
// Two reservations racing for the same free seat both gap-lock the
// missing ledger row; the losing insert is killed with 1213 and its
// whole transaction rolled back, so the caller must not reuse the tx.
func isDeadlock(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1213")
}
