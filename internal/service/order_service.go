// Package service implements the business rules of order placement on
// top of narrow store interfaces, keeping validation independent from the
// SQL layer.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking-api/internal/model"
	"github.com/iliyamo/cinema-booking-api/internal/queue"
	"github.com/iliyamo/cinema-booking-api/internal/repository"
)

// SessionStore loads sessions with their hall geometry.
type SessionStore interface {
	GetWithHall(ctx context.Context, id uint64) (*repository.SessionInfo, error)
}

// OrderStore persists an order together with its ticket lines atomically.
type OrderStore interface {
	CreateWithTickets(ctx context.Context, order *model.Order, lines []model.TicketLine) error
}

// TicketStore reads the reservation ledger.
type TicketStore interface {
	IsTaken(ctx context.Context, sessionID uint64, row, seat uint32) (bool, error)
	CountBySession(ctx context.Context, sessionID uint64) (int64, error)
	TakenPlaces(ctx context.Context, sessionID uint64) ([]model.TicketLine, error)
}

// Publisher emits an event after an order commits.  A nil Publisher
// disables eventing.
type Publisher func(ctx context.Context, event queue.OrderPlacedEvent) error

// OrderService validates and places ticket orders.  All seat bookkeeping
// is derived from the ticket ledger; the service never persists
// availability counters.
type OrderService struct {
	sessions SessionStore
	orders   OrderStore
	tickets  TicketStore
	publish  Publisher
	log      *logrus.Logger
}

// NewOrderService wires an OrderService.  publish may be nil.
func NewOrderService(sessions SessionStore, orders OrderStore, tickets TicketStore, publish Publisher, log *logrus.Logger) *OrderService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OrderService{sessions: sessions, orders: orders, tickets: tickets, publish: publish, log: log}
}

// ValidateSeat checks a 1-indexed coordinate against the hall grid and
// returns a SeatOutOfBoundsError carrying the hall dimensions when it
// falls outside.
func ValidateSeat(row, seat uint32, hall model.CinemaHall) error {
	if !hall.Contains(row, seat) {
		return &model.SeatOutOfBoundsError{Row: row, Seat: seat, Rows: hall.Rows, SeatsInRow: hall.SeatsInRow}
	}
	return nil
}

// PlaceOrder validates the requested lines and reserves them atomically
// under a fresh order.  Validation order: empty request, duplicate
// (session, row, seat) triples within the request, unknown sessions, then
// out-of-grid coordinates.  Seats already sold surface from the store as
// model.SeatsUnavailableError with the whole order rolled back.  One
// order may span multiple sessions.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint64, lines []model.TicketLine) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, model.ErrEmptyOrder
	}

	seen := make(map[model.TicketLine]struct{}, len(lines))
	var dupes []model.TicketLine
	for _, l := range lines {
		if _, ok := seen[l]; ok {
			dupes = append(dupes, l)
			continue
		}
		seen[l] = struct{}{}
	}
	if len(dupes) > 0 {
		return nil, &model.DuplicateSeatError{Seats: dupes}
	}

	// Resolve every referenced session once; validation and the event
	// payload both need the hall geometry.
	sessions := make(map[uint64]*repository.SessionInfo)
	for _, l := range lines {
		if _, ok := sessions[l.SessionID]; ok {
			continue
		}
		info, err := s.sessions.GetWithHall(ctx, l.SessionID)
		if err != nil {
			return nil, err
		}
		sessions[l.SessionID] = info
	}

	for _, l := range lines {
		if err := ValidateSeat(l.Row, l.Seat, sessions[l.SessionID].Hall()); err != nil {
			return nil, err
		}
	}

	order := &model.Order{
		UserID:    userID,
		Reference: uuid.NewString(),
	}
	if err := s.orders.CreateWithTickets(ctx, order, lines); err != nil {
		return nil, err
	}

	if s.publish != nil {
		event := queue.OrderPlacedEvent{
			OrderID:   order.ID,
			Reference: order.Reference,
			UserID:    order.UserID,
			PlacedAt:  order.CreatedAt.UTC().Format(time.RFC3339),
		}
		for _, t := range order.Tickets {
			info := sessions[t.SessionID]
			event.Tickets = append(event.Tickets, queue.PlacedTicket{
				SessionID:  t.SessionID,
				MovieTitle: info.MovieTitle,
				HallName:   info.HallName,
				Row:        t.Row,
				Seat:       t.Seat,
				ShowTime:   info.ShowTime.UTC().Format(time.RFC3339),
			})
		}
		// The order is committed; eventing is best-effort and must not
		// block or fail the request.
		go func() {
			pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.publish(pctx, event)
		}()
	}
	return order, nil
}

// AvailableSeats returns the number of unsold seats for a session,
// computed live as hall capacity minus the sold count.  A sold count
// above capacity means writes bypassed the ledger; it is logged and
// reported as model.ErrConsistency.
func (s *OrderService) AvailableSeats(ctx context.Context, sessionID uint64) (int64, error) {
	info, err := s.sessions.GetWithHall(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	sold, err := s.tickets.CountBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	capacity := int64(info.Hall().Capacity())
	if sold > capacity {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"sold":       sold,
			"capacity":   capacity,
		}).Error("ticket ledger exceeds hall capacity")
		return 0, model.ErrConsistency
	}
	return capacity - sold, nil
}

// SeatTaken reports whether one seat of a session is already sold.  The
// coordinate must lie inside the hall grid or a SeatOutOfBoundsError is
// returned.
func (s *OrderService) SeatTaken(ctx context.Context, sessionID uint64, row, seat uint32) (bool, error) {
	info, err := s.sessions.GetWithHall(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if err := ValidateSeat(row, seat, info.Hall()); err != nil {
		return false, err
	}
	return s.tickets.IsTaken(ctx, sessionID, row, seat)
}

// TakenPlaces returns the sold coordinates of a session ordered by row
// then seat, verifying the session exists first.
func (s *OrderService) TakenPlaces(ctx context.Context, sessionID uint64) ([]model.TicketLine, error) {
	if _, err := s.sessions.GetWithHall(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.tickets.TakenPlaces(ctx, sessionID)
}
