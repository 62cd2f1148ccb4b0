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

// ActorHandler serves the actor catalog.
type ActorHandler struct {
	Actors *repository.ActorRepo
}

func NewActorHandler(a *repository.ActorRepo) *ActorHandler {
	return &ActorHandler{Actors: a}
}

type actorReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type actorResp struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

// Create adds an actor.
func (h *ActorHandler) Create(c echo.Context) error {
	var req actorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name and last_name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a := model.Actor{FirstName: req.FirstName, LastName: req.LastName}
	if err := h.Actors.Create(ctx, &a); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create actor failed"})
	}
	return c.JSON(http.StatusCreated, actorResp{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, FullName: a.FullName()})
}

// List returns all actors.
func (h *ActorHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actors, err := h.Actors.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]actorResp, 0, len(actors))
	for _, a := range actors {
		out = append(out, actorResp{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, FullName: a.FullName()})
	}
	return c.JSON(http.StatusOK, out)
}
