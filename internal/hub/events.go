package hub

import (
	"fmt"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"
)

// Server-to-client event types.
const (
	TypeConnected  = "connected"
	TypeVoteUpdate = "vote_update"
	TypeUserJoined = "user_joined"
	TypeUserLeft   = "user_left"
)

type ParticipantInfo struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// ConnectedEvent is sent once to a fresh subscriber and carries the complete
// room state, so clients never need to reconcile missed events.
type ConnectedEvent struct {
	Type         string            `json:"type"`
	Message      string            `json:"message"`
	Participants []ParticipantInfo `json:"participants"`
	Progress     domain.Progress   `json:"progress"`
}

type VoteUpdateEvent struct {
	Type     string          `json:"type"`
	MovieID  int64           `json:"movie_id"`
	Progress domain.Progress `json:"progress"`
}

type UserJoinedEvent struct {
	Type         string            `json:"type"`
	Username     string            `json:"username"`
	Participants []ParticipantInfo `json:"participants"`
}

type UserLeftEvent struct {
	Type         string            `json:"type"`
	UserID       string            `json:"user_id"`
	Participants []ParticipantInfo `json:"participants"`
}

func participantInfos(list []domain.Participant) []ParticipantInfo {
	out := make([]ParticipantInfo, 0, len(list))
	for _, p := range list {
		out = append(out, ParticipantInfo{UserID: p.UserID, Username: p.Username})
	}
	return out
}

func connectedEvent(roomCode string, list []domain.Participant, progress domain.Progress) ConnectedEvent {
	return ConnectedEvent{
		Type:         TypeConnected,
		Message:      fmt.Sprintf("Connected to room %s", roomCode),
		Participants: participantInfos(list),
		Progress:     progress,
	}
}
