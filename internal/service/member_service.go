package service

import (
	"context"
	"fmt"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"

	"github.com/google/uuid"
)

type ParticipantRepo interface {
	Add(ctx context.Context, p *domain.Participant) error
	Remove(ctx context.Context, roomCode, userID string) (bool, error)
	Exists(ctx context.Context, roomCode, userID string) (bool, error)
	ListByRoom(ctx context.Context, roomCode string) ([]domain.Participant, error)
	TouchHeartbeat(ctx context.Context, roomCode, userID string) error
}

type MemberService struct {
	roomRepo        RoomRepo
	participantRepo ParticipantRepo
}

func NewMemberService(rooms RoomRepo, participants ParticipantRepo) *MemberService {
	return &MemberService{
		roomRepo:        rooms,
		participantRepo: participants,
	}
}

// Admit adds a user to an open room under a fresh user_id. Each admission
// is a distinct participant; rejoining after removal produces a new id.
func (s *MemberService) Admit(ctx context.Context, roomCode, username string) (*domain.Participant, error) {
	room, err := s.roomRepo.Get(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if room.Status != domain.RoomOpen {
		return nil, domain.ErrRoomClosed
	}

	p := &domain.Participant{
		UserID:   uuid.NewString(),
		Username: username,
		RoomCode: roomCode,
	}
	if err := s.participantRepo.Add(ctx, p); err != nil {
		return nil, fmt.Errorf("participantRepo.Add: %w", err)
	}
	return p, nil
}

// Remove drops the participant and their votes. Removing an absent user is
// a no-op; the bool tells the caller whether anything actually changed.
func (s *MemberService) Remove(ctx context.Context, roomCode, userID string) (bool, error) {
	removed, err := s.participantRepo.Remove(ctx, roomCode, userID)
	if err != nil {
		return false, fmt.Errorf("participantRepo.Remove: %w", err)
	}
	return removed, nil
}

func (s *MemberService) List(ctx context.Context, roomCode string) ([]domain.Participant, error) {
	if _, err := s.roomRepo.Get(ctx, roomCode); err != nil {
		return nil, err
	}
	return s.participantRepo.ListByRoom(ctx, roomCode)
}

func (s *MemberService) Exists(ctx context.Context, roomCode, userID string) (bool, error) {
	return s.participantRepo.Exists(ctx, roomCode, userID)
}

func (s *MemberService) TouchHeartbeat(ctx context.Context, roomCode, userID string) error {
	return s.participantRepo.TouchHeartbeat(ctx, roomCode, userID)
}
