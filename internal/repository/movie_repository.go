package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-booking-api/internal/model"
)

// ErrMovieNotFound is returned when a movie lookup fails.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo provides access to movies and their genre/actor links.  The
// many-to-many links live in join tables and are written together with
// the movie row in one transaction.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

// Create inserts a movie together with its genre and actor links.  The
// referenced genre and actor IDs must exist; a broken reference fails the
// foreign key and rolls everything back.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error {
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
		`INSERT INTO movies (title, description, duration) VALUES (?, ?, ?)`,
		m.Title, m.Description, m.Duration)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	for _, gid := range genreIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO movie_genres (movie_id, genre_id) VALUES (?, ?)`, m.ID, gid); err != nil {
			return err
		}
	}
	for _, aid := range actorIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO movie_actors (movie_id, actor_id) VALUES (?, ?)`, m.ID, aid); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// MovieFilter narrows a movie listing.  Title matches as a case-blind
// substring; GenreIDs and ActorIDs match movies linked to ANY of the
// given IDs.  Zero values disable the respective filter.
type MovieFilter struct {
	Title    string
	GenreIDs []uint64
	ActorIDs []uint64
}

// MovieDetail is a movie with its linked genre names and actor full
// names, as exposed by the list and detail endpoints.
type MovieDetail struct {
	ID          uint64   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    uint32   `json:"duration"`
	Image       *string  `json:"image"`
	Genres      []string `json:"genres"`
	Actors      []string `json:"actors"`
}

// List returns movies matching the filter with genres and actors
// attached.  Links are loaded in two follow-up queries and folded in,
// rather than one exploding join.
func (r *MovieRepo) List(ctx context.Context, f MovieFilter) ([]MovieDetail, error) {
	query := `SELECT DISTINCT m.id, m.title, m.description, m.duration, m.image FROM movies m`
	args := make([]interface{}, 0, 4)
	if len(f.GenreIDs) > 0 {
		query += ` JOIN movie_genres mg ON mg.movie_id = m.id AND mg.genre_id IN (` + placeholders(len(f.GenreIDs)) + `)`
		for _, id := range f.GenreIDs {
			args = append(args, id)
		}
	}
	if len(f.ActorIDs) > 0 {
		query += ` JOIN movie_actors ma ON ma.movie_id = m.id AND ma.actor_id IN (` + placeholders(len(f.ActorIDs)) + `)`
		for _, id := range f.ActorIDs {
			args = append(args, id)
		}
	}
	query += ` WHERE 1=1`
	if f.Title != "" {
		query += ` AND m.title LIKE ?`
		args = append(args, "%"+f.Title+"%")
	}
	query += ` ORDER BY m.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]MovieDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d MovieDetail
		var image sql.NullString
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Duration, &image); err != nil {
			return nil, err
		}
		if image.Valid {
			img := image.String
			d.Image = &img
		}
		d.Genres = []string{}
		d.Actors = []string{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	ids := make([]interface{}, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
	}
	in := placeholders(len(ids))

	grows, err := r.db.QueryContext(ctx,
		`SELECT mg.movie_id, g.name FROM movie_genres mg
		 JOIN genres g ON g.id = mg.genre_id
		 WHERE mg.movie_id IN (`+in+`) ORDER BY g.name`, ids...)
	if err != nil {
		return nil, err
	}
	defer grows.Close()
	for grows.Next() {
		var movieID uint64
		var name string
		if err := grows.Scan(&movieID, &name); err != nil {
			return nil, err
		}
		if idx, ok := index[movieID]; ok {
			details[idx].Genres = append(details[idx].Genres, name)
		}
	}
	if err := grows.Err(); err != nil {
		return nil, err
	}

	arows, err := r.db.QueryContext(ctx,
		`SELECT ma.movie_id, a.first_name, a.last_name FROM movie_actors ma
		 JOIN actors a ON a.id = ma.actor_id
		 WHERE ma.movie_id IN (`+in+`) ORDER BY a.last_name, a.first_name`, ids...)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var movieID uint64
		var actor model.Actor
		if err := arows.Scan(&movieID, &actor.FirstName, &actor.LastName); err != nil {
			return nil, err
		}
		if idx, ok := index[movieID]; ok {
			details[idx].Actors = append(details[idx].Actors, actor.FullName())
		}
	}
	return details, arows.Err()
}

// GetByID returns one movie with genres and actors attached.  Returns
// ErrMovieNotFound when no row is found.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*MovieDetail, error) {
	var d MovieDetail
	var image sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, duration, image FROM movies WHERE id = ?`, id,
	).Scan(&d.ID, &d.Title, &d.Description, &d.Duration, &image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	if image.Valid {
		img := image.String
		d.Image = &img
	}
	d.Genres = []string{}
	d.Actors = []string{}

	grows, err := r.db.QueryContext(ctx,
		`SELECT g.name FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
		 WHERE mg.movie_id = ? ORDER BY g.name`, id)
	if err != nil {
		return nil, err
	}
	defer grows.Close()
	for grows.Next() {
		var name string
		if err := grows.Scan(&name); err != nil {
			return nil, err
		}
		d.Genres = append(d.Genres, name)
	}
	if err := grows.Err(); err != nil {
		return nil, err
	}

	arows, err := r.db.QueryContext(ctx,
		`SELECT a.first_name, a.last_name FROM movie_actors ma JOIN actors a ON a.id = ma.actor_id
		 WHERE ma.movie_id = ? ORDER BY a.last_name, a.first_name`, id)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var a model.Actor
		if err := arows.Scan(&a.FirstName, &a.LastName); err != nil {
			return nil, err
		}
		d.Actors = append(d.Actors, a.FullName())
	}
	return &d, arows.Err()
}

// UpdateImage stores the poster path for a movie.  Returns
// ErrMovieNotFound when no row matches.
func (r *MovieRepo) UpdateImage(ctx context.Context, id uint64, path string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE movies SET image = ? WHERE id = ?`, path, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// placeholders returns n comma-separated "?" marks for an IN clause.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
