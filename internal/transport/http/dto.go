package http

import (
	"time"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
	Message  string `json:"message"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"room_code"`
	Username string `json:"username"`
}

type JoinRoomResponse struct {
	UserID   string `json:"user_id"`
	RoomCode string `json:"room_code"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type CloseRoomResponse struct {
	RoomCode string `json:"room_code"`
	Message  string `json:"message"`
}

type ParticipantItem struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

type ParticipantsResponse struct {
	Participants []ParticipantItem `json:"participants"`
}

type MoviesResponse struct {
	Movies []domain.Movie `json:"movies"`
}

type MatchesResponse struct {
	Matches []domain.Movie `json:"matches"`
}

// VoteRequest carries the ballot; Vote is 1 for YES, 0 for NO.
type VoteRequest struct {
	UserID   string `json:"user_id"`
	MovieID  int64  `json:"movie_id"`
	RoomCode string `json:"room_code"`
	Vote     int    `json:"vote"`
}

type VoteResponse struct {
	Message  string          `json:"message"`
	Progress domain.Progress `json:"progress"`
}

type SearchResponse struct {
	Results []domain.Movie `json:"results"`
}
