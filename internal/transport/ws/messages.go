package ws

// Inbound frame types a client may send
const (
	FrameVote  = "vote"  // cast or change a ballot
	FrameLeave = "leave" // explicit leave, same effect as closing
)

// Frame is the client→server message; Vote is 1 for YES, 0 for NO.
// Server→client events are produced by the hub and arrive here
// already marshaled.
type Frame struct {
	Type    string `json:"type"`
	MovieID int64  `json:"movie_id"`
	Vote    int    `json:"vote"`
}
