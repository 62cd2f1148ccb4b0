package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-booking-api/internal/model"
)

// SessionRepo provides CRUD operations for movie sessions plus the joined
// reads the order placer and the listing endpoints need.  All timestamps
// are stored in UTC.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a new session and populates the generated ID.  Movie and
// hall references are validated by the handler before the insert; the
// foreign keys are the backstop.
func (r *SessionRepo) Create(ctx context.Context, s *model.MovieSession) error {
	const q = `INSERT INTO movie_sessions (movie_id, hall_id, show_time) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.HallID, s.ShowTime.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update rewrites the movie, hall and show time of an existing session.
// Returns model.ErrSessionNotFound when no row matches.
func (r *SessionRepo) Update(ctx context.Context, s *model.MovieSession) error {
	const q = `UPDATE movie_sessions SET movie_id = ?, hall_id = ?, show_time = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.HallID, s.ShowTime.UTC(), s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session.  Sessions with sold tickets cannot be
// deleted; attempting to do so returns ErrConflict so the handler can
// answer 409 instead of breaking the ledger.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	var hasTickets bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tickets WHERE session_id = ?)`, id,
	).Scan(&hasTickets); err != nil {
		return err
	}
	if hasTickets {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM movie_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

// SessionSummary is one row of the session listing.  TicketsAvailable is
// annotated in SQL from the hall geometry minus the sold count, so it is
// always consistent with the ticket table at read time.
type SessionSummary struct {
	ID                 uint64    `json:"id"`
	ShowTime           time.Time `json:"show_time"`
	MovieTitle         string    `json:"movie_title"`
	MovieImage         *string   `json:"movie_image"`
	CinemaHallName     string    `json:"cinema_hall_name"`
	CinemaHallCapacity uint32    `json:"cinema_hall_capacity"`
	TicketsAvailable   int64     `json:"tickets_available"`
}

// List returns session summaries, optionally filtered by show date
// (UTC day) and movie.  Zero values disable the respective filter.
func (r *SessionRepo) List(ctx context.Context, date *time.Time, movieID uint64) ([]SessionSummary, error) {
	query := `SELECT s.id, s.show_time, m.title, m.image, h.name,
	                 h.seat_rows * h.seats_in_row,
	                 h.seat_rows * h.seats_in_row - COUNT(t.id)
	          FROM movie_sessions s
	          JOIN movies m ON m.id = s.movie_id
	          JOIN cinema_halls h ON h.id = s.hall_id
	          LEFT JOIN tickets t ON t.session_id = s.id
	          WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if date != nil {
		query += ` AND DATE(s.show_time) = ?`
		args = append(args, date.UTC().Format("2006-01-02"))
	}
	if movieID != 0 {
		query += ` AND s.movie_id = ?`
		args = append(args, movieID)
	}
	query += ` GROUP BY s.id, s.show_time, m.title, m.image, h.name, h.seat_rows, h.seats_in_row
	           ORDER BY s.show_time, s.id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]SessionSummary, 0)
	for rows.Next() {
		var s SessionSummary
		var image sql.NullString
		if err := rows.Scan(&s.ID, &s.ShowTime, &s.MovieTitle, &image,
			&s.CinemaHallName, &s.CinemaHallCapacity, &s.TicketsAvailable); err != nil {
			return nil, err
		}
		if image.Valid {
			img := image.String
			s.MovieImage = &img
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SessionInfo bundles a session with its hall geometry and movie title.
// It is what the order placer validates seat coordinates against and what
// the event publisher describes orders with.
type SessionInfo struct {
	ID         uint64
	MovieID    uint64
	MovieTitle string
	HallID     uint64
	HallName   string
	Rows       uint32
	SeatsInRow uint32
	ShowTime   time.Time
}

// Hall returns the hall grid of the session as a model value.
func (s *SessionInfo) Hall() model.CinemaHall {
	return model.CinemaHall{ID: s.HallID, Name: s.HallName, Rows: s.Rows, SeatsInRow: s.SeatsInRow}
}

// GetWithHall loads a session together with its hall dimensions and movie
// title.  Returns model.ErrSessionNotFound when the session does not
// exist.
func (r *SessionRepo) GetWithHall(ctx context.Context, id uint64) (*SessionInfo, error) {
	const q = `SELECT s.id, s.movie_id, m.title, h.id, h.name, h.seat_rows, h.seats_in_row, s.show_time
	           FROM movie_sessions s
	           JOIN movies m ON m.id = s.movie_id
	           JOIN cinema_halls h ON h.id = s.hall_id
	           WHERE s.id = ?`
	var info SessionInfo
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&info.ID, &info.MovieID, &info.MovieTitle,
		&info.HallID, &info.HallName, &info.Rows, &info.SeatsInRow,
		&info.ShowTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return &info, nil
}
