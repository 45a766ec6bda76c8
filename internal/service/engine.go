package service

import (
	"context"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"
)

// Engine bundles the room operations the broadcast hub drives. It keeps the
// hub decoupled from the individual services.
type Engine struct {
	rooms   *RoomService
	members *MemberService
	votes   *VoteService
}

func NewEngine(rooms *RoomService, members *MemberService, votes *VoteService) *Engine {
	return &Engine{rooms: rooms, members: members, votes: votes}
}

func (e *Engine) Admit(ctx context.Context, roomCode, username string) (*domain.Participant, error) {
	return e.members.Admit(ctx, roomCode, username)
}

func (e *Engine) Remove(ctx context.Context, roomCode, userID string) (bool, error) {
	return e.members.Remove(ctx, roomCode, userID)
}

func (e *Engine) Participants(ctx context.Context, roomCode string) ([]domain.Participant, error) {
	return e.members.List(ctx, roomCode)
}

func (e *Engine) RecordVote(ctx context.Context, roomCode, userID string, movieID int64, yes bool) error {
	return e.votes.Record(ctx, roomCode, userID, movieID, yes)
}

func (e *Engine) Progress(ctx context.Context, roomCode string) (domain.Progress, error) {
	return e.rooms.Progress(ctx, roomCode)
}
