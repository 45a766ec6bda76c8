package domain

// Movie is the candidate payload as assembled for a room. It is stored
// verbatim (JSONB) and served back to clients untouched, so the JSON shape
// is the wire shape.
type Movie struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview"`
	PosterPath   string   `json:"poster_path"`
	BackdropPath *string  `json:"backdrop_path"`
	ReleaseDate  string   `json:"release_date"`
	VoteAverage  float64  `json:"vote_average"`
	VoteCount    int64    `json:"vote_count"`
	Genres       []string `json:"genres"`
	Runtime      *int     `json:"runtime"`
}
