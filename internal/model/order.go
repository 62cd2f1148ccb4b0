package model

import "time"

// TicketLine is one requested seat in an order submission: a session plus
// a 1-indexed (row, seat) coordinate.  It doubles as the ledger key, so
// two lines are duplicates exactly when all three fields match.
type TicketLine struct {
	SessionID uint64 `json:"movie_session"`
	Row       uint32 `json:"row"`
	Seat      uint32 `json:"seat"`
}

// Ticket is a sold seat.  Tickets are created only as part of an order
// commit and are never mutated afterwards; the unique ledger key on
// (session, row, seat) lives on this table.
type Ticket struct {
	ID        uint64    // tickets.id
	SessionID uint64    // tickets.session_id
	OrderID   uint64    // tickets.order_id
	Row       uint32    // tickets.row_no
	Seat      uint32    // tickets.seat_no
	CreatedAt time.Time // tickets.created_at
}

// Order is a user's batch purchase of one or more tickets, committed
// atomically.  Reference is an opaque public identifier safe to expose
// outside the API (internal IDs are sequential).
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – user who placed the order.
//	Reference – public UUID string.
//	CreatedAt – commit timestamp.
//	Tickets   – the tickets created with this order.
type Order struct {
	ID        uint64    // orders.id
	UserID    uint64    // orders.user_id
	Reference string    // orders.reference
	CreatedAt time.Time // orders.created_at
	Tickets   []Ticket
}
