package service

import (
	"context"
	"fmt"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"
)

type VoteRepo interface {
	Upsert(ctx context.Context, v *domain.Vote) error
	ListByRoom(ctx context.Context, roomCode string) ([]domain.Vote, error)
	VotesForMovie(ctx context.Context, roomCode string, movieID int64) (map[string]bool, error)
	HasVoted(ctx context.Context, roomCode, userID string, movieID int64) (bool, error)
}

type VoteService struct {
	roomRepo        RoomRepo
	participantRepo ParticipantRepo
	movieRepo       MovieRepo
	voteRepo        VoteRepo
}

func NewVoteService(rooms RoomRepo, participants ParticipantRepo, movies MovieRepo, votes VoteRepo) *VoteService {
	return &VoteService{
		roomRepo:        rooms,
		participantRepo: participants,
		movieRepo:       movies,
		voteRepo:        votes,
	}
}

// Record validates the vote target against the room and upserts the ledger
// row. The latest vote per (user, movie) wins. The ledger is left untouched
// when validation fails.
func (s *VoteService) Record(ctx context.Context, roomCode, userID string, movieID int64, yes bool) error {
	if _, err := s.roomRepo.Get(ctx, roomCode); err != nil {
		return err
	}

	ok, err := s.participantRepo.Exists(ctx, roomCode, userID)
	if err != nil {
		return fmt.Errorf("participantRepo.Exists: %w", err)
	}
	if !ok {
		return domain.ErrNotInRoom
	}

	ok, err = s.movieRepo.Exists(ctx, roomCode, movieID)
	if err != nil {
		return fmt.Errorf("movieRepo.Exists: %w", err)
	}
	if !ok {
		return domain.ErrMovieNotInRoom
	}

	v := &domain.Vote{RoomCode: roomCode, UserID: userID, MovieID: movieID, Yes: yes}
	if err := s.voteRepo.Upsert(ctx, v); err != nil {
		return fmt.Errorf("voteRepo.Upsert: %w", err)
	}
	return nil
}

func (s *VoteService) VotesForMovie(ctx context.Context, roomCode string, movieID int64) (map[string]bool, error) {
	return s.voteRepo.VotesForMovie(ctx, roomCode, movieID)
}

func (s *VoteService) HasVoted(ctx context.Context, roomCode, userID string, movieID int64) (bool, error) {
	return s.voteRepo.HasVoted(ctx, roomCode, userID, movieID)
}
