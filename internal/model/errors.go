package model

import (
	"errors"
	"fmt"
)

// Order placement failures are part of the API contract: handlers
// translate each kind into a structured JSON body so clients can react
// (resubmit without the losing seats, fix coordinates, and so on).
// Sentinels cover the payload-free kinds; the rest are typed errors.

// ErrEmptyOrder is returned when an order is submitted with no tickets.
var ErrEmptyOrder = errors.New("empty order")

// ErrSessionNotFound is returned when an order references a movie session
// that does not exist.
var ErrSessionNotFound = errors.New("movie session not found")

// ErrConsistency signals that the ticket table disagrees with the hall
// geometry (sold count above capacity).  It indicates a bug or a write
// that bypassed the ledger, never a user mistake, and is surfaced as a
// generic server error.
var ErrConsistency = errors.New("ledger consistency violation")

// DuplicateSeatError is returned when the same (session, row, seat)
// triple appears more than once within a single submission.
type DuplicateSeatError struct {
	Seats []TicketLine
}

func (e *DuplicateSeatError) Error() string {
	return fmt.Sprintf("duplicate seat in request: %d repeated line(s)", len(e.Seats))
}

// SeatOutOfBoundsError is returned when a requested coordinate falls
// outside the hall's grid.  It carries the offending coordinate and the
// hall dimensions so the client can render a useful message.
type SeatOutOfBoundsError struct {
	Row        uint32
	Seat       uint32
	Rows       uint32
	SeatsInRow uint32
}

func (e *SeatOutOfBoundsError) Error() string {
	return fmt.Sprintf("seat (%d,%d) outside hall grid %dx%d", e.Row, e.Seat, e.Rows, e.SeatsInRow)
}

// SeatsUnavailableError is returned when one or more requested seats are
// already sold for their session.  Seats lists exactly the conflicting
// lines so the caller can retry with a reduced selection.
type SeatsUnavailableError struct {
	Seats []TicketLine
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %d seat(s) already sold", len(e.Seats))
}
