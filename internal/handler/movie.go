package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking-api/internal/model"
	"github.com/iliyamo/cinema-booking-api/internal/repository"
	"github.com/iliyamo/cinema-booking-api/internal/service"
)

// MovieHandler serves the movie catalog: listing with filters, detail,
// creation and poster upload.
type MovieHandler struct {
	Movies *repository.MovieRepo
	Images *service.ImageService
}

func NewMovieHandler(m *repository.MovieRepo, img *service.ImageService) *MovieHandler {
	return &MovieHandler{Movies: m, Images: img}
}

type movieReq struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    uint32   `json:"duration"`
	Genres      []uint64 `json:"genres"`
	Actors      []uint64 `json:"actors"`
}

// Create adds a movie with its genre and actor links.
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.Duration < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and duration >= 1 required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := model.Movie{Title: req.Title, Description: req.Description, Duration: req.Duration}
	if err := h.Movies.Create(ctx, &m, req.Genres, req.Actors); err != nil {
		// Broken genre/actor references fail the foreign keys.
		if strings.Contains(err.Error(), "1452") {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown genre or actor id"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}

	detail, err := h.Movies.GetByID(ctx, m.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load movie failed"})
	}
	return c.JSON(http.StatusCreated, detail)
}

// List returns movies, filterable with ?title= (substring) and
// ?genres=1,2 / ?actors=3,4 (linked to any of the IDs).
func (h *MovieHandler) List(c echo.Context) error {
	filter := repository.MovieFilter{Title: strings.TrimSpace(c.QueryParam("title"))}
	var err error
	if filter.GenreIDs, err = parseIDList(c.QueryParam("genres")); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid genres filter"})
	}
	if filter.ActorIDs, err = parseIDList(c.QueryParam("actors")); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid actors filter"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	movies, err := h.Movies.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, movies)
}

// Get returns one movie with genres and actors.
func (h *MovieHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, detail)
}

// UploadImage stores a poster for the movie from the multipart "image"
// field and records its path.
func (h *MovieHandler) UploadImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// The movie must exist before we accept the upload.
	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer src.Close()

	path, err := h.Images.SavePoster(id, src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid image"})
	}
	if err := h.Movies.UpdateImage(ctx, id, path); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save image failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "image": path})
}

// parseIDList splits a comma-separated query value into IDs.  An empty
// value yields nil.
func parseIDList(raw string) ([]uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil || id == 0 {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
