package domain

// Progress is derived from the participant set and the vote ledger at the
// moment of computation. It is never stored; see internal/consensus.
type Progress struct {
	TotalMovies        int `json:"total_movies"`
	MoviesWithAllVotes int `json:"movies_with_all_votes"`
	Participants       int `json:"participants"`
}
