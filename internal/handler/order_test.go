package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking-api/internal/model"
	"github.com/iliyamo/cinema-booking-api/internal/repository"
	"github.com/iliyamo/cinema-booking-api/internal/service"
)

// memStore backs the order service with an in-memory ledger so the
// handler can be exercised without a database.
type memStore struct {
	mu       sync.Mutex
	sessions map[uint64]*repository.SessionInfo
	taken    map[model.TicketLine]struct{}
	nextID   uint64
	orders   uint64
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[uint64]*repository.SessionInfo),
		taken:    make(map[model.TicketLine]struct{}),
	}
}

func (m *memStore) GetWithHall(_ context.Context, id uint64) (*repository.SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return info, nil
}

func (m *memStore) CreateWithTickets(_ context.Context, order *model.Order, lines []model.TicketLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var conflicts []model.TicketLine
	for _, l := range lines {
		if _, sold := m.taken[l]; sold {
			conflicts = append(conflicts, l)
		}
	}
	if len(conflicts) > 0 {
		return &model.SeatsUnavailableError{Seats: conflicts}
	}
	m.orders++
	order.ID = m.orders
	order.CreatedAt = time.Now().UTC()
	for _, l := range lines {
		m.nextID++
		m.taken[l] = struct{}{}
		order.Tickets = append(order.Tickets, model.Ticket{
			ID: m.nextID, SessionID: l.SessionID, OrderID: order.ID, Row: l.Row, Seat: l.Seat,
		})
	}
	return nil
}

func (m *memStore) IsTaken(_ context.Context, sessionID uint64, row, seat uint32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, sold := m.taken[model.TicketLine{SessionID: sessionID, Row: row, Seat: seat}]
	return sold, nil
}

func (m *memStore) CountBySession(_ context.Context, sessionID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for l := range m.taken {
		if l.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) TakenPlaces(_ context.Context, sessionID uint64) ([]model.TicketLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.TicketLine, 0)
	for l := range m.taken {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func newOrderTestHandler(store *memStore) *OrderHandler {
	svc := service.NewOrderService(store, store, store, nil, nil)
	return NewOrderHandler(svc, nil, 10, 100)
}

func postOrder(t *testing.T, h *OrderHandler, userID interface{}, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set("user_id", userID)
	}
	require.NoError(t, h.Create(c))
	return rec
}

func TestCreateOrderSuccess(t *testing.T) {
	store := newMemStore()
	store.sessions[1] = &repository.SessionInfo{ID: 1, Rows: 5, SeatsInRow: 5, MovieTitle: "Dune", HallName: "Hall A"}
	h := newOrderTestHandler(store)

	rec := postOrder(t, h, uint64(7), `{"tickets":[{"movie_session":1,"row":2,"seat":3},{"movie_session":1,"row":2,"seat":4}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID        uint64 `json:"id"`
		Reference string `json:"reference"`
		Tickets   []struct {
			SessionID uint64 `json:"movie_session"`
			Row       uint32 `json:"row"`
			Seat      uint32 `json:"seat"`
		} `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.ID)
	assert.NotEmpty(t, resp.Reference)
	require.Len(t, resp.Tickets, 2)
	assert.Equal(t, uint32(3), resp.Tickets[0].Seat)
}

func TestCreateOrderUnauthorized(t *testing.T) {
	h := newOrderTestHandler(newMemStore())
	rec := postOrder(t, h, nil, `{"tickets":[]}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrderEmpty(t *testing.T) {
	h := newOrderTestHandler(newMemStore())
	rec := postOrder(t, h, uint64(1), `{"tickets":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty order")
}

func TestCreateOrderUnknownSession(t *testing.T) {
	h := newOrderTestHandler(newMemStore())
	rec := postOrder(t, h, uint64(1), `{"tickets":[{"movie_session":99,"row":1,"seat":1}]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "movie session not found")
}

func TestCreateOrderOutOfBoundsBody(t *testing.T) {
	store := newMemStore()
	store.sessions[1] = &repository.SessionInfo{ID: 1, Rows: 5, SeatsInRow: 5}
	h := newOrderTestHandler(store)

	rec := postOrder(t, h, uint64(1), `{"tickets":[{"movie_session":1,"row":6,"seat":1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "seat out of bounds", body["error"])
	assert.EqualValues(t, 6, body["row"])
	assert.EqualValues(t, 5, body["rows"])
	assert.EqualValues(t, 5, body["seats_in_row"])
}

func TestCreateOrderSeatsUnavailableBody(t *testing.T) {
	store := newMemStore()
	store.sessions[1] = &repository.SessionInfo{ID: 1, Rows: 5, SeatsInRow: 5}
	h := newOrderTestHandler(store)

	rec := postOrder(t, h, uint64(1), `{"tickets":[{"movie_session":1,"row":1,"seat":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postOrder(t, h, uint64(2), `{"tickets":[{"movie_session":1,"row":1,"seat":1},{"movie_session":1,"row":1,"seat":2}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error string             `json:"error"`
		Seats []model.TicketLine `json:"seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "seats unavailable", body.Error)
	require.Len(t, body.Seats, 1)
	assert.Equal(t, model.TicketLine{SessionID: 1, Row: 1, Seat: 1}, body.Seats[0])
}

func TestCreateOrderDuplicateBody(t *testing.T) {
	store := newMemStore()
	store.sessions[1] = &repository.SessionInfo{ID: 1, Rows: 5, SeatsInRow: 5}
	h := newOrderTestHandler(store)

	rec := postOrder(t, h, uint64(1), `{"tickets":[{"movie_session":1,"row":1,"seat":1},{"movie_session":1,"row":1,"seat":1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate seat in request")
}

// fakeHistory records the page arguments the handler resolves and serves
// canned order details.
type fakeHistory struct {
	gotUser uint64
	gotPage int
	gotSize int
	details []repository.OrderDetail
	total   int64
}

func (f *fakeHistory) ListByUser(_ context.Context, userID uint64, page, pageSize int) ([]repository.OrderDetail, int64, error) {
	f.gotUser, f.gotPage, f.gotSize = userID, page, pageSize
	return f.details, f.total, nil
}

func getOrders(t *testing.T, h *OrderHandler, userID interface{}, query string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/orders"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set("user_id", userID)
	}
	require.NoError(t, h.List(c))
	return rec
}

func TestListOrdersDefaults(t *testing.T) {
	history := &fakeHistory{total: 3}
	svc := service.NewOrderService(newMemStore(), newMemStore(), newMemStore(), nil, nil)
	h := NewOrderHandler(svc, history, 10, 100)

	rec := getOrders(t, h, uint64(7), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), history.gotUser)
	assert.Equal(t, 1, history.gotPage)
	assert.Equal(t, 10, history.gotSize)

	var page orderPageResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Count)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
}

func TestListOrdersPageSizeCapped(t *testing.T) {
	history := &fakeHistory{}
	svc := service.NewOrderService(newMemStore(), newMemStore(), newMemStore(), nil, nil)
	h := NewOrderHandler(svc, history, 10, 100)

	rec := getOrders(t, h, uint64(7), "?page_size=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, history.gotSize)

	var page orderPageResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 100, page.PageSize)
}

func TestListOrdersExplicitPage(t *testing.T) {
	history := &fakeHistory{
		details: []repository.OrderDetail{
			{ID: 9, Reference: "ref-newest", CreatedAt: time.Now().UTC()},
			{ID: 4, Reference: "ref-older", CreatedAt: time.Now().UTC().Add(-time.Hour)},
		},
		total: 12,
	}
	svc := service.NewOrderService(newMemStore(), newMemStore(), newMemStore(), nil, nil)
	h := NewOrderHandler(svc, history, 10, 100)

	rec := getOrders(t, h, uint64(7), "?page=3&page_size=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, history.gotPage)
	assert.Equal(t, 5, history.gotSize)

	// The store's newest-first ordering must reach the client untouched.
	var page orderPageResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Results, 2)
	assert.Equal(t, uint64(9), page.Results[0].ID)
	assert.Equal(t, uint64(4), page.Results[1].ID)
}

func TestListOrdersInvalidParams(t *testing.T) {
	history := &fakeHistory{}
	svc := service.NewOrderService(newMemStore(), newMemStore(), newMemStore(), nil, nil)
	h := NewOrderHandler(svc, history, 10, 100)

	for _, query := range []string{"?page=0", "?page=abc", "?page_size=0", "?page_size=-3"} {
		rec := getOrders(t, h, uint64(7), query)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestListOrdersUnauthorized(t *testing.T) {
	svc := service.NewOrderService(newMemStore(), newMemStore(), newMemStore(), nil, nil)
	h := NewOrderHandler(svc, &fakeHistory{}, 10, 100)
	rec := getOrders(t, h, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
