package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-booking-api/internal/model"
)

// ErrHallNotFound is returned when a hall lookup fails.
var ErrHallNotFound = errors.New("cinema hall not found")

// HallRepo provides methods to create and retrieve cinema halls.  Halls
// are simple seat grids; once a session references one its dimensions are
// never updated, so there is no update method.
type HallRepo struct {
	db *sql.DB
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

// Create inserts a new hall and populates the generated ID.
func (r *HallRepo) Create(ctx context.Context, h *model.CinemaHall) error {
	const q = `INSERT INTO cinema_halls (name, seat_rows, seats_in_row) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Rows, h.SeatsInRow)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetByID retrieves a hall by its ID.  Returns ErrHallNotFound when no
// row is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.CinemaHall, error) {
	const q = `SELECT id, name, seat_rows, seats_in_row FROM cinema_halls WHERE id = ?`
	var h model.CinemaHall
	err := r.db.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// List returns every hall ordered by id.
func (r *HallRepo) List(ctx context.Context) ([]model.CinemaHall, error) {
	const q = `SELECT id, name, seat_rows, seats_in_row FROM cinema_halls ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.CinemaHall, 0)
	for rows.Next() {
		var h model.CinemaHall
		if err := rows.Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
