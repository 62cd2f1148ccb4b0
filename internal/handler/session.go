package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking-api/internal/model"
	"github.com/iliyamo/cinema-booking-api/internal/repository"
	"github.com/iliyamo/cinema-booking-api/internal/service"
)

// SessionHandler serves movie sessions: public listing and detail plus
// admin CRUD.
type SessionHandler struct {
	Sessions *repository.SessionRepo
	Movies   *repository.MovieRepo
	Halls    *repository.HallRepo
	Orders   *service.OrderService
}

func NewSessionHandler(s *repository.SessionRepo, m *repository.MovieRepo, h *repository.HallRepo, o *service.OrderService) *SessionHandler {
	return &SessionHandler{Sessions: s, Movies: m, Halls: h, Orders: o}
}

type sessionReq struct {
	MovieID  uint64    `json:"movie_id"`
	HallID   uint64    `json:"hall_id"`
	ShowTime time.Time `json:"show_time"`
}

type sessionResp struct {
	ID       uint64    `json:"id"`
	MovieID  uint64    `json:"movie_id"`
	HallID   uint64    `json:"hall_id"`
	ShowTime time.Time `json:"show_time"`
}

type takenPlace struct {
	Row  uint32 `json:"row"`
	Seat uint32 `json:"seat"`
}

type sessionDetailResp struct {
	ID               uint64                  `json:"id"`
	ShowTime         time.Time               `json:"show_time"`
	Movie            *repository.MovieDetail `json:"movie"`
	CinemaHall       hallResp                `json:"cinema_hall"`
	TicketsAvailable int64                   `json:"tickets_available"`
	TakenPlaces      []takenPlace            `json:"taken_places"`
}

// validateRefs checks the movie and hall referenced by a session request.
func (h *SessionHandler) validateRefs(ctx context.Context, req sessionReq) (int, string) {
	if req.MovieID == 0 || req.HallID == 0 || req.ShowTime.IsZero() {
		return http.StatusBadRequest, "movie_id, hall_id and show_time required"
	}
	if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
		if err == repository.ErrMovieNotFound {
			return http.StatusBadRequest, "unknown movie_id"
		}
		return http.StatusInternalServerError, "query failed"
	}
	if _, err := h.Halls.GetByID(ctx, req.HallID); err != nil {
		if err == repository.ErrHallNotFound {
			return http.StatusBadRequest, "unknown hall_id"
		}
		return http.StatusInternalServerError, "query failed"
	}
	return 0, ""
}

// Create schedules a session.
func (h *SessionHandler) Create(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if code, msg := h.validateRefs(ctx, req); code != 0 {
		return c.JSON(code, echo.Map{"error": msg})
	}

	s := model.MovieSession{MovieID: req.MovieID, HallID: req.HallID, ShowTime: req.ShowTime}
	if err := h.Sessions.Create(ctx, &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusCreated, sessionResp{ID: s.ID, MovieID: s.MovieID, HallID: s.HallID, ShowTime: s.ShowTime})
}

// Update reschedules a session.
func (h *SessionHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if code, msg := h.validateRefs(ctx, req); code != 0 {
		return c.JSON(code, echo.Map{"error": msg})
	}

	s := model.MovieSession{ID: id, MovieID: req.MovieID, HallID: req.HallID, ShowTime: req.ShowTime}
	if err := h.Sessions.Update(ctx, &s); err != nil {
		if err == model.ErrSessionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update session failed"})
	}
	return c.JSON(http.StatusOK, sessionResp{ID: s.ID, MovieID: s.MovieID, HallID: s.HallID, ShowTime: s.ShowTime})
}

// Delete removes a session without sold tickets.
func (h *SessionHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "session has sold tickets"})
		case model.ErrSessionNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete session failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns session summaries, filterable with ?date=YYYY-MM-DD and
// ?movie=<id>.
func (h *SessionHandler) List(c echo.Context) error {
	var date *time.Time
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
		}
		date = &d
	}
	var movieID uint64
	if raw := c.QueryParam("movie"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie filter"})
		}
		movieID = id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.Sessions.List(ctx, date, movieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, sessions)
}

// SeatStatus reports whether a single seat of the session is already
// sold, e.g. GET /v1/movie-sessions/1/seat?row=2&seat=3.
func (h *SessionHandler) SeatStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	row, err1 := strconv.ParseUint(c.QueryParam("row"), 10, 32)
	seat, err2 := strconv.ParseUint(c.QueryParam("seat"), 10, 32)
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "row and seat query params required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	taken, err := h.Orders.SeatTaken(ctx, id, uint32(row), uint32(seat))
	if err != nil {
		var oob *model.SeatOutOfBoundsError
		switch {
		case err == model.ErrSessionNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie session not found"})
		case errors.As(err, &oob):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "seat out of bounds",
				"row":   oob.Row, "seat": oob.Seat,
				"rows": oob.Rows, "seats_in_row": oob.SeatsInRow,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"row": row, "seat": seat, "taken": taken})
}

// Get returns one session with its movie, hall, live availability and
// the already-sold places.
func (h *SessionHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	info, err := h.Sessions.GetWithHall(ctx, id)
	if err != nil {
		if err == model.ErrSessionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	movie, err := h.Movies.GetByID(ctx, info.MovieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	available, err := h.Orders.AvailableSeats(ctx, id)
	if err != nil {
		// A consistency violation is a server fault, never the client's.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	places, err := h.Orders.TakenPlaces(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	taken := make([]takenPlace, 0, len(places))
	for _, p := range places {
		taken = append(taken, takenPlace{Row: p.Row, Seat: p.Seat})
	}
	return c.JSON(http.StatusOK, sessionDetailResp{
		ID:               info.ID,
		ShowTime:         info.ShowTime,
		Movie:            movie,
		CinemaHall:       toHallResp(info.Hall()),
		TicketsAvailable: available,
		TakenPlaces:      taken,
	})
}
