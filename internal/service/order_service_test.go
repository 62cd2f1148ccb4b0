package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking-api/internal/model"
	"github.com/iliyamo/cinema-booking-api/internal/repository"
)

// fakeStore is an in-memory stand-in for the SQL repositories.  It
// enforces the same uniqueness guarantee as the ticket ledger's unique
// key, under a mutex so concurrent placements exercise the same
// first-wins behavior.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[uint64]*repository.SessionInfo
	taken    map[model.TicketLine]uint64 // line -> order ID
	nextID   uint64
	orders   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uint64]*repository.SessionInfo),
		taken:    make(map[model.TicketLine]uint64),
	}
}

func (f *fakeStore) addSession(id uint64, rows, seats uint32) {
	f.sessions[id] = &repository.SessionInfo{
		ID:         id,
		MovieID:    1,
		MovieTitle: "Blade Runner",
		HallID:     id,
		HallName:   "Hall A",
		Rows:       rows,
		SeatsInRow: seats,
		ShowTime:   time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) GetWithHall(_ context.Context, id uint64) (*repository.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return info, nil
}

func (f *fakeStore) CreateWithTickets(_ context.Context, order *model.Order, lines []model.TicketLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var conflicts []model.TicketLine
	for _, l := range lines {
		if _, sold := f.taken[l]; sold {
			conflicts = append(conflicts, l)
		}
	}
	if len(conflicts) > 0 {
		return &model.SeatsUnavailableError{Seats: conflicts}
	}
	f.orders++
	order.ID = uint64(f.orders)
	order.CreatedAt = time.Now().UTC()
	for _, l := range lines {
		f.nextID++
		f.taken[l] = order.ID
		order.Tickets = append(order.Tickets, model.Ticket{
			ID:        f.nextID,
			SessionID: l.SessionID,
			OrderID:   order.ID,
			Row:       l.Row,
			Seat:      l.Seat,
		})
	}
	return nil
}

func (f *fakeStore) IsTaken(_ context.Context, sessionID uint64, row, seat uint32) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, sold := f.taken[model.TicketLine{SessionID: sessionID, Row: row, Seat: seat}]
	return sold, nil
}

func (f *fakeStore) CountBySession(_ context.Context, sessionID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for l := range f.taken {
		if l.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) TakenPlaces(_ context.Context, sessionID uint64) ([]model.TicketLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.TicketLine, 0)
	for l := range f.taken {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Seat < out[j].Seat
	})
	return out, nil
}

func newTestService(store *fakeStore) *OrderService {
	return NewOrderService(store, store, store, nil, nil)
}

func line(session uint64, row, seat uint32) model.TicketLine {
	return model.TicketLine{SessionID: session, Row: row, Seat: seat}
}

func TestPlaceOrderEmptyRejected(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), 1, nil)
	assert.ErrorIs(t, err, model.ErrEmptyOrder)

	_, err = svc.PlaceOrder(context.Background(), 1, []model.TicketLine{})
	assert.ErrorIs(t, err, model.ErrEmptyOrder)
}

func TestPlaceOrderDuplicateLinesRejected(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 5, 5)
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), 1, []model.TicketLine{
		line(1, 2, 3),
		line(1, 2, 4),
		line(1, 2, 3),
	})
	var dup *model.DuplicateSeatError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, []model.TicketLine{line(1, 2, 3)}, dup.Seats)

	// Nothing was reserved.
	free, err := svc.AvailableSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(25), free)
}

func TestPlaceOrderSameSeatDifferentSessionsAllowed(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 5, 5)
	store.addSession(2, 5, 5)
	svc := newTestService(store)

	order, err := svc.PlaceOrder(context.Background(), 1, []model.TicketLine{
		line(1, 2, 3),
		line(2, 2, 3),
	})
	require.NoError(t, err)
	assert.Len(t, order.Tickets, 2)
}

func TestPlaceOrderUnknownSession(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 5, 5)
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), 1, []model.TicketLine{
		line(1, 1, 1),
		line(99, 1, 1),
	})
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	// Atomic: the valid line must not have been reserved either.
	free, ferr := svc.AvailableSeats(context.Background(), 1)
	require.NoError(t, ferr)
	assert.Equal(t, int64(25), free)
}

func TestPlaceOrderSeatBounds(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 5, 5)
	svc := newTestService(store)

	cases := []struct {
		row, seat uint32
	}{
		{0, 1},
		{1, 0},
		{6, 5},
		{5, 6},
	}
	for _, tc := range cases {
		_, err := svc.PlaceOrder(context.Background(), 1, []model.TicketLine{line(1, tc.row, tc.seat)})
		var oob *model.SeatOutOfBoundsError
		require.ErrorAs(t, err, &oob, "seat (%d,%d)", tc.row, tc.seat)
		assert.Equal(t, tc.row, oob.Row)
		assert.Equal(t, tc.seat, oob.Seat)
		assert.Equal(t, uint32(5), oob.Rows)
		assert.Equal(t, uint32(5), oob.SeatsInRow)
	}

	// Both bounds are inclusive: the far corner is valid.
	order, err := svc.PlaceOrder(context.Background(), 1, []model.TicketLine{line(1, 5, 5)})
	require.NoError(t, err)
	assert.Len(t, order.Tickets, 1)
}

func TestPlaceOrderSoldSeatConflict(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 5, 5)
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), 1, []model.TicketLine{line(1, 3, 3)})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), 2, []model.TicketLine{
		line(1, 3, 3),
		line(1, 3, 4),
	})
	var unavail *model.SeatsUnavailableError
	require.ErrorAs(t, err, &unavail)
	assert.Equal(t, []model.TicketLine{line(1, 3, 3)}, unavail.Seats)

	// The losing order reserved nothing, including its free seat.
	free, ferr := svc.AvailableSeats(context.Background(), 1)
	require.NoError(t, ferr)
	assert.Equal(t, int64(24), free)
}

func TestPlaceOrderConcurrentSingleSeat(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 1, 1)
	svc := newTestService(store)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), uint64(i+1), []model.TicketLine{line(1, 1, 1)})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		var unavail *model.SeatsUnavailableError
		assert.ErrorAs(t, err, &unavail)
	}
	assert.Equal(t, 1, won, "exactly one placement must win the seat")

	free, err := svc.AvailableSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), free)
}

func TestAvailableSeats(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 10, 10)
	svc := newTestService(store)

	free, err := svc.AvailableSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), free)

	_, err = svc.PlaceOrder(context.Background(), 1, []model.TicketLine{
		line(1, 1, 1), line(1, 1, 2), line(1, 1, 3),
	})
	require.NoError(t, err)

	free, err = svc.AvailableSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(97), free)

	// Reading availability does not change it.
	free, err = svc.AvailableSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(97), free)

	_, err = svc.AvailableSeats(context.Background(), 42)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestAvailableSeatsConsistencyViolation(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 1, 2)
	svc := newTestService(store)

	// Simulate writes that bypassed the ledger invariant.
	store.taken[line(1, 1, 1)] = 1
	store.taken[line(1, 1, 2)] = 1
	store.taken[line(1, 2, 1)] = 1

	_, err := svc.AvailableSeats(context.Background(), 1)
	assert.ErrorIs(t, err, model.ErrConsistency)
}

func TestTakenPlaces(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 5, 5)
	svc := newTestService(store)

	_, err := svc.PlaceOrder(context.Background(), 1, []model.TicketLine{
		line(1, 2, 4), line(1, 1, 5), line(1, 2, 1),
	})
	require.NoError(t, err)

	places, err := svc.TakenPlaces(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []model.TicketLine{line(1, 1, 5), line(1, 2, 1), line(1, 2, 4)}, places)

	_, err = svc.TakenPlaces(context.Background(), 9)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestSeatTaken(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 5, 5)
	svc := newTestService(store)

	taken, err := svc.SeatTaken(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = svc.PlaceOrder(context.Background(), 1, []model.TicketLine{line(1, 2, 2)})
	require.NoError(t, err)

	taken, err = svc.SeatTaken(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	assert.True(t, taken)

	_, err = svc.SeatTaken(context.Background(), 1, 9, 9)
	var oob *model.SeatOutOfBoundsError
	assert.ErrorAs(t, err, &oob)

	_, err = svc.SeatTaken(context.Background(), 7, 1, 1)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestValidateSeat(t *testing.T) {
	hall := model.CinemaHall{Rows: 3, SeatsInRow: 4}

	assert.NoError(t, ValidateSeat(1, 1, hall))
	assert.NoError(t, ValidateSeat(3, 4, hall))

	err := ValidateSeat(4, 1, hall)
	var oob *model.SeatOutOfBoundsError
	require.True(t, errors.As(err, &oob))
	assert.Equal(t, uint32(3), oob.Rows)
	assert.Equal(t, uint32(4), oob.SeatsInRow)
}

func TestPlaceOrderGeneratesUniqueReferences(t *testing.T) {
	store := newFakeStore()
	store.addSession(1, 5, 5)
	svc := newTestService(store)

	refs := make(map[string]struct{})
	for seat := uint32(1); seat <= 5; seat++ {
		order, err := svc.PlaceOrder(context.Background(), 1, []model.TicketLine{line(1, 1, seat)})
		require.NoError(t, err)
		require.NotEmpty(t, order.Reference)
		refs[order.Reference] = struct{}{}
	}
	assert.Len(t, refs, 5)
}
