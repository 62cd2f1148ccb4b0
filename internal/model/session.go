package model

import "time"

// MovieSession is a scheduled screening of a movie in a specific hall at
// a specific time.  Nothing prevents two sessions from sharing a hall at
// overlapping times; scheduling sanity is an operator concern.
type MovieSession struct {
	ID       uint64    // movie_sessions.id
	MovieID  uint64    // movie_sessions.movie_id
	HallID   uint64    // movie_sessions.hall_id
	ShowTime time.Time // movie_sessions.show_time (UTC)
}
