package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking-api/internal/model"
	"github.com/iliyamo/cinema-booking-api/internal/repository"
)

// GenreHandler serves the genre catalog.  Listing is public; creation is
// admin-only (enforced by route middleware).
type GenreHandler struct {
	Genres *repository.GenreRepo
}

func NewGenreHandler(g *repository.GenreRepo) *GenreHandler {
	return &GenreHandler{Genres: g}
}

type genreReq struct {
	Name string `json:"name"`
}

type genreResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Create adds a genre.
func (h *GenreHandler) Create(c echo.Context) error {
	var req genreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g := model.Genre{Name: req.Name}
	if err := h.Genres.Create(ctx, &g); err != nil {
		if err == repository.ErrGenreExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "genre already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create genre failed"})
	}
	return c.JSON(http.StatusCreated, genreResp{ID: g.ID, Name: g.Name})
}

// List returns all genres.
func (h *GenreHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	genres, err := h.Genres.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]genreResp, 0, len(genres))
	for _, g := range genres {
		out = append(out, genreResp{ID: g.ID, Name: g.Name})
	}
	return c.JSON(http.StatusOK, out)
}
