package domain

import "time"

type Participant struct {
	UserID   string    `db:"user_id"`
	Username string    `db:"username"`
	RoomCode string    `db:"room_code"`
	JoinedAt time.Time `db:"joined_at"`
	LastSeen time.Time `db:"last_seen"`
}
