// Package queue defines message payloads exchanged over the message
// broker, the publisher that emits them and the background consumer that
// processes them.
package queue

// PlacedTicket describes one reserved seat inside an OrderPlacedEvent.
type PlacedTicket struct {
	SessionID  uint64 `json:"movie_session"`
	MovieTitle string `json:"movie_title"`
	HallName   string `json:"cinema_hall_name"`
	Row        uint32 `json:"row"`
	Seat       uint32 `json:"seat"`
	ShowTime   string `json:"show_time"`
}

// OrderPlacedEvent is published when an order is successfully placed.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type OrderPlacedEvent struct {
	OrderID   uint64         `json:"order_id"`
	Reference string         `json:"reference"`
	UserID    uint64         `json:"user_id"`
	Tickets   []PlacedTicket `json:"tickets"`
	PlacedAt  string         `json:"placed_at"`
}
