package model

// CinemaHall describes the physical seating grid of a hall.  Seats are
// addressed by 1-indexed (row, seat) coordinates; there are no per-seat
// records.  Halls are treated as immutable once sessions reference them.
//
// Fields:
//
//	ID         – primary key identifier.
//	Name       – human readable label for the hall.
//	Rows       – number of seating rows (>= 1).
//	SeatsInRow – number of seats per row (>= 1).
type CinemaHall struct {
	ID         uint64 // cinema_halls.id
	Name       string // cinema_halls.name
	Rows       uint32 // cinema_halls.seat_rows
	SeatsInRow uint32 // cinema_halls.seats_in_row
}

// Capacity returns the total number of seats in the hall.
func (h CinemaHall) Capacity() uint32 {
	return h.Rows * h.SeatsInRow
}

// Contains reports whether the 1-indexed (row, seat) coordinate lies
// inside the hall's grid.  Bounds are inclusive on both ends.
func (h CinemaHall) Contains(row, seat uint32) bool {
	return row >= 1 && row <= h.Rows && seat >= 1 && seat <= h.SeatsInRow
}
