package domain

import "time"

type RoomStatus string

const (
	RoomOpen   RoomStatus = "open"
	RoomClosed RoomStatus = "closed"
)

type Room struct {
	Code      string     `db:"code"`
	CreatedAt time.Time  `db:"created_at"`
	Status    RoomStatus `db:"status"`
}
