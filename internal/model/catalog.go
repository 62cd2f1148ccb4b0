package model

// Genre is a movie category such as "Drama" or "Comedy".  Names are
// unique across the table.
type Genre struct {
	ID   uint64 // genres.id
	Name string // genres.name
}

// Actor is a cast member.  FullName joins the two name parts and is what
// list endpoints expose.
type Actor struct {
	ID        uint64 // actors.id
	FirstName string // actors.first_name
	LastName  string // actors.last_name
}

// FullName returns "First Last" for display in movie listings.
func (a Actor) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Movie represents a film in the catalog.  Genres and actors are linked
// through join tables and loaded separately by the repository.
//
// Fields:
//
//	ID          – primary key identifier.
//	Title       – movie title.
//	Description – synopsis text.
//	Duration    – running time in minutes.
//	Image       – stored poster path (nil until one is uploaded).
type Movie struct {
	ID          uint64  // movies.id
	Title       string  // movies.title
	Description string  // movies.description
	Duration    uint32  // movies.duration
	Image       *string // movies.image (nullable)
}
