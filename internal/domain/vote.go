package domain

import "time"

// Vote is one participant's current decision on one candidate.
// The ledger keeps at most one row per (room, user, movie); a re-vote
// replaces the previous value.
type Vote struct {
	RoomCode string    `db:"room_code"`
	UserID   string    `db:"user_id"`
	MovieID  int64     `db:"movie_id"`
	Yes      bool      `db:"vote"`
	VotedAt  time.Time `db:"voted_at"`
}
