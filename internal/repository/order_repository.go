package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking-api/internal/model"
)

// OrderRepo persists orders and reads a user's order history.  Order
// creation and ticket reservation happen in one transaction: a crash or
// conflict between the two leaves neither visible.
type OrderRepo struct {
	db      *sql.DB
	tickets *TicketRepo
}

// NewOrderRepo returns an OrderRepo writing through the given ledger.
func NewOrderRepo(db *sql.DB, tickets *TicketRepo) *OrderRepo {
	return &OrderRepo{db: db, tickets: tickets}
}

// CreateWithTickets inserts the order row and reserves every line in the
// same transaction.  On success the order's ID, CreatedAt and Tickets
// are populated.  A seat conflict surfaces as model.SeatsUnavailableError
// and rolls the whole order back.
func (r *OrderRepo) CreateWithTickets(ctx context.Context, order *model.Order, lines []model.TicketLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, reference) VALUES (?, ?)`,
		order.UserID, order.Reference)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = uint64(id)

	tickets, err := r.tickets.ReserveBatchTx(ctx, tx, order.ID, lines)
	if err != nil {
		if isDeadlock(err) {
			// InnoDB already rolled the whole transaction back, so the
			// conflict must be re-read outside it.  The winner may not
			// have committed yet; fall back to the full request.
			conflicts, cerr := r.tickets.Conflicts(ctx, lines)
			if cerr != nil || len(conflicts) == 0 {
				conflicts = lines
			}
			return &model.SeatsUnavailableError{Seats: conflicts}
		}
		return err
	}

	// Read back the commit timestamp set by the database default.
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM orders WHERE id = ?`, order.ID,
	).Scan(&order.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	order.Tickets = tickets
	return nil
}

// TicketDetail is a ticket in an order listing together with its session
// summary.  Availability is computed live against the ticket table at
// read time.
type TicketDetail struct {
	ID                 uint64    `json:"id"`
	SessionID          uint64    `json:"movie_session"`
	Row                uint32    `json:"row"`
	Seat               uint32    `json:"seat"`
	MovieTitle         string    `json:"movie_title"`
	MovieImage         *string   `json:"movie_image"`
	CinemaHallName     string    `json:"cinema_hall_name"`
	CinemaHallCapacity uint32    `json:"cinema_hall_capacity"`
	TicketsAvailable   int64     `json:"tickets_available"`
	ShowTime           time.Time `json:"show_time"`
}

// OrderDetail is one order in a user's history with its tickets nested.
type OrderDetail struct {
	ID        uint64         `json:"id"`
	Reference string         `json:"reference"`
	CreatedAt time.Time      `json:"created_at"`
	Tickets   []TicketDetail `json:"tickets"`
}

// ListByUser returns one page of the user's orders, newest first, along
// with the total number of orders for pagination.  Page numbering is
// 1-based; pageSize must already be clamped by the caller.  The count and
// the page rows are read inside one read-only transaction so they see the
// same snapshot; tickets for the whole page are fetched in a single query
// and folded into their orders.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]OrderDetail, int64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	var total int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `SELECT id, reference, created_at
	           FROM orders
	           WHERE user_id = ?
	           ORDER BY created_at DESC, id DESC
	           LIMIT ? OFFSET ?`
	rows, err := tx.QueryContext(ctx, q, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details := make([]OrderDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d OrderDetail
		if err := rows.Scan(&d.ID, &d.Reference, &d.CreatedAt); err != nil {
			return nil, 0, err
		}
		d.Tickets = []TicketDetail{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(details) == 0 {
		return details, total, nil
	}

	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	ticketQ := `SELECT t.order_id, t.id, t.session_id, t.row_no, t.seat_no,
	                   m.title, m.image, h.name,
	                   h.seat_rows * h.seats_in_row,
	                   h.seat_rows * h.seats_in_row -
	                     (SELECT COUNT(*) FROM tickets t2 WHERE t2.session_id = t.session_id),
	                   s.show_time
	            FROM tickets t
	            JOIN movie_sessions s ON s.id = t.session_id
	            JOIN movies m ON m.id = s.movie_id
	            JOIN cinema_halls h ON h.id = s.hall_id
	            WHERE t.order_id IN (` + strings.Join(placeholders, ",") + `)
	            ORDER BY t.order_id, t.row_no, t.seat_no`
	trows, err := tx.QueryContext(ctx, ticketQ, ids...)
	if err != nil {
		return nil, 0, err
	}
	defer trows.Close()
	for trows.Next() {
		var orderID uint64
		var td TicketDetail
		var image sql.NullString
		if err := trows.Scan(
			&orderID, &td.ID, &td.SessionID, &td.Row, &td.Seat,
			&td.MovieTitle, &image, &td.CinemaHallName,
			&td.CinemaHallCapacity, &td.TicketsAvailable, &td.ShowTime,
		); err != nil {
			return nil, 0, err
		}
		if image.Valid {
			img := image.String
			td.MovieImage = &img
		}
		if idx, ok := index[orderID]; ok {
			details[idx].Tickets = append(details[idx].Tickets, td)
		}
	}
	if err := trows.Err(); err != nil {
		return nil, 0, err
	}
	return details, total, nil
}
