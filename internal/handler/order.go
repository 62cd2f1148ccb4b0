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

// HistoryStore reads a user's committed order pages.  Satisfied by
// *repository.OrderRepo.
type HistoryStore interface {
	ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]repository.OrderDetail, int64, error)
}

// OrderHandler serves order placement and the user's order history.
type OrderHandler struct {
	Orders   *service.OrderService
	History  HistoryStore
	PageSize int
	MaxPage  int
}

func NewOrderHandler(svc *service.OrderService, history HistoryStore, pageSize, maxPageSize int) *OrderHandler {
	return &OrderHandler{Orders: svc, History: history, PageSize: pageSize, MaxPage: maxPageSize}
}

type orderReq struct {
	Tickets []model.TicketLine `json:"tickets"`
}

type orderTicketResp struct {
	ID        uint64 `json:"id"`
	SessionID uint64 `json:"movie_session"`
	Row       uint32 `json:"row"`
	Seat      uint32 `json:"seat"`
}

type orderResp struct {
	ID        uint64            `json:"id"`
	Reference string            `json:"reference"`
	CreatedAt time.Time         `json:"created_at"`
	Tickets   []orderTicketResp `json:"tickets"`
}

type orderPageResp struct {
	Count    int64                    `json:"count"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
	Results  []repository.OrderDetail `json:"results"`
}

// Create places an order for the authenticated user.  Each failure kind
// maps to a structured body so clients can fix the request: losing seats
// are listed, out-of-grid coordinates come back with the hall dimensions.
func (h *OrderHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req orderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := h.Orders.PlaceOrder(ctx, uid, req.Tickets)
	if err != nil {
		return orderError(c, err)
	}

	tickets := make([]orderTicketResp, 0, len(order.Tickets))
	for _, t := range order.Tickets {
		tickets = append(tickets, orderTicketResp{ID: t.ID, SessionID: t.SessionID, Row: t.Row, Seat: t.Seat})
	}
	return c.JSON(http.StatusCreated, orderResp{
		ID:        order.ID,
		Reference: order.Reference,
		CreatedAt: order.CreatedAt,
		Tickets:   tickets,
	})
}

// orderError translates placement failures into HTTP responses.
func orderError(c echo.Context, err error) error {
	var (
		dup     *model.DuplicateSeatError
		oob     *model.SeatOutOfBoundsError
		unavail *model.SeatsUnavailableError
	)
	switch {
	case errors.Is(err, model.ErrEmptyOrder):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty order"})
	case errors.Is(err, model.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie session not found"})
	case errors.As(err, &dup):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate seat in request", "seats": dup.Seats})
	case errors.As(err, &oob):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "seat out of bounds",
			"row":   oob.Row, "seat": oob.Seat,
			"rows": oob.Rows, "seats_in_row": oob.SeatsInRow,
		})
	case errors.As(err, &unavail):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats unavailable", "seats": unavail.Seats})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// List returns one page of the user's orders, newest first.  ?page= is
// 1-based; ?page_size= is clamped to the configured maximum.
func (h *OrderHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		} else {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
		}
	}
	pageSize := h.PageSize
	if raw := c.QueryParam("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page_size"})
		}
		pageSize = n
	}
	if pageSize > h.MaxPage {
		pageSize = h.MaxPage
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, total, err := h.History.ListByUser(ctx, uid, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, orderPageResp{
		Count:    total,
		Page:     page,
		PageSize: pageSize,
		Results:  details,
	})
}
