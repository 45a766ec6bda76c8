package domain

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomClosed     = errors.New("room is closed")
	ErrNotInRoom      = errors.New("user not in the room")
	ErrMovieNotInRoom = errors.New("movie not in the room")
	ErrCodesExhausted = errors.New("room code space exhausted")
	ErrStoreUnavail   = errors.New("store unavailable")
)
