package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/cinema-booking-api/internal/model"
)

// TicketRepo is the reservation ledger: the only code path that writes
// ticket rows.  The tickets table carries a unique key on
// (session_id, row_no, seat_no), so every insert is checked against the
// authoritative record of sold seats at commit time.  All other
// repositories treat tickets as read-only.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// IsTaken reports whether the given seat is already sold for the session.
func (r *TicketRepo) IsTaken(ctx context.Context, sessionID uint64, row, seat uint32) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM tickets WHERE session_id = ? AND row_no = ? AND seat_no = ?)`
	var taken bool
	if err := r.db.QueryRowContext(ctx, q, sessionID, row, seat).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// CountBySession returns the number of tickets sold for a session.  It is
// the soldCount input to the live availability computation and is never
// cached or persisted.
func (r *TicketRepo) CountBySession(ctx context.Context, sessionID uint64) (int64, error) {
	const q = `SELECT COUNT(*) FROM tickets WHERE session_id = ?`
	var n int64
	if err := r.db.QueryRowContext(ctx, q, sessionID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// TakenPlaces returns the sold (row, seat) pairs for a session ordered by
// row then seat.  Used by the session detail endpoint.
func (r *TicketRepo) TakenPlaces(ctx context.Context, sessionID uint64) ([]model.TicketLine, error) {
	const q = `SELECT row_no, seat_no FROM tickets WHERE session_id = ? ORDER BY row_no, seat_no`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	places := make([]model.TicketLine, 0)
	for rows.Next() {
		line := model.TicketLine{SessionID: sessionID}
		if err := rows.Scan(&line.Row, &line.Seat); err != nil {
			return nil, err
		}
		places = append(places, line)
	}
	return places, rows.Err()
}

// ReserveBatchTx atomically reserves every seat in lines for the given
// order within the caller's transaction.  It first locks the requested
// coordinates with SELECT ... FOR UPDATE and returns a
// model.SeatsUnavailableError naming the already-sold pairs when any are
// found.  The subsequent multi-row insert is still guarded by the unique
// ledger key: a racing transaction that slipped past the locks surfaces
// as a duplicate-key error (re-read in-tx and reported the same way) or
// as an InnoDB deadlock, which rolls this transaction back and is left
// for the caller to translate (see OrderRepo.CreateWithTickets).  Either
// every line is inserted or none are.
func (r *TicketRepo) ReserveBatchTx(ctx context.Context, tx *sql.Tx, orderID uint64, lines []model.TicketLine) ([]model.Ticket, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	conflicts, err := r.lockConflictsTx(ctx, tx, lines)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &model.SeatsUnavailableError{Seats: conflicts}
	}

	query := `INSERT INTO tickets (session_id, order_id, row_no, seat_no) VALUES `
	args := make([]interface{}, 0, len(lines)*4)
	for i, l := range lines {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, l.SessionID, orderID, l.Row, l.Seat)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			// A 1062 rolls back only the statement; report whichever
			// pairs now exist.
			conflicts, cerr := r.lockConflictsTx(ctx, tx, lines)
			if cerr == nil && len(conflicts) > 0 {
				return nil, &model.SeatsUnavailableError{Seats: conflicts}
			}
			return nil, &model.SeatsUnavailableError{Seats: lines}
		}
		return nil, err
	}

	// Read the assigned IDs back by key.  Auto-increment allocation
	// order is not guaranteed to match statement order under interleaved
	// lock mode, so the IDs cannot be derived from LastInsertId.
	where, whereArgs := seatPredicates(lines)
	rows, err := tx.QueryContext(ctx,
		`SELECT id, session_id, row_no, seat_no FROM tickets WHERE `+where, whereArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make(map[model.TicketLine]uint64, len(lines))
	for rows.Next() {
		var id uint64
		var l model.TicketLine
		if err := rows.Scan(&id, &l.SessionID, &l.Row, &l.Seat); err != nil {
			return nil, err
		}
		ids[l] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tickets := make([]model.Ticket, 0, len(lines))
	for _, l := range lines {
		id, ok := ids[l]
		if !ok {
			// We just inserted this line in the same transaction.
			return nil, model.ErrConsistency
		}
		tickets = append(tickets, model.Ticket{
			ID:        id,
			SessionID: l.SessionID,
			OrderID:   orderID,
			Row:       l.Row,
			Seat:      l.Seat,
		})
	}
	return tickets, nil
}

// Conflicts returns the subset of lines already present in the ledger,
// read outside any transaction.  Used to rebuild a conflict report after
// InnoDB has rolled a reservation attempt back.
func (r *TicketRepo) Conflicts(ctx context.Context, lines []model.TicketLine) ([]model.TicketLine, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	where, args := seatPredicates(lines)
	query := `SELECT session_id, row_no, seat_no FROM tickets WHERE ` + where
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLines(rows)
}

// lockConflictsTx locks the requested coordinates and returns the subset
// already present in the ledger.  Under InnoDB the FOR UPDATE read takes
// next-key locks, serializing concurrent reservations that touch the
// same (session, row, seat) keys.
func (r *TicketRepo) lockConflictsTx(ctx context.Context, tx *sql.Tx, lines []model.TicketLine) ([]model.TicketLine, error) {
	where, args := seatPredicates(lines)
	query := `SELECT session_id, row_no, seat_no FROM tickets WHERE ` + where + ` FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLines(rows)
}

// seatPredicates builds the OR-joined coordinate predicates matching
// exactly the given lines.
func seatPredicates(lines []model.TicketLine) (string, []interface{}) {
	preds := make([]string, 0, len(lines))
	args := make([]interface{}, 0, len(lines)*3)
	for _, l := range lines {
		preds = append(preds, "(session_id = ? AND row_no = ? AND seat_no = ?)")
		args = append(args, l.SessionID, l.Row, l.Seat)
	}
	return strings.Join(preds, " OR "), args
}

func scanLines(rows *sql.Rows) ([]model.TicketLine, error) {
	var out []model.TicketLine
	for rows.Next() {
		var l model.TicketLine
		if err := rows.Scan(&l.SessionID, &l.Row, &l.Seat); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
