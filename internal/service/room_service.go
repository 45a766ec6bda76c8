package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/abhikumar45444/movie-night-decider/internal/consensus"
	"github.com/abhikumar45444/movie-night-decider/internal/domain"
)

type RoomRepo interface {
	Create(ctx context.Context, room *domain.Room) (bool, error)
	Get(ctx context.Context, code string) (*domain.Room, error)
	SetStatus(ctx context.Context, code string, status domain.RoomStatus) error
	Delete(ctx context.Context, code string) error
}

type MovieRepo interface {
	AddBatch(ctx context.Context, roomCode string, movies []domain.Movie) error
	ListByRoom(ctx context.Context, roomCode string) ([]domain.Movie, error)
	Exists(ctx context.Context, roomCode string, movieID int64) (bool, error)
}

// MovieCatalog supplies the candidate list for a new room.
type MovieCatalog interface {
	PopularMovies(ctx context.Context, n int) ([]domain.Movie, error)
}

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// Collisions are resolved by regenerating; past this many the code
	// space is treated as saturated.
	createAttempts = 10
)

type RoomService struct {
	roomRepo        RoomRepo
	movieRepo       MovieRepo
	participantRepo ParticipantRepo
	voteRepo        VoteRepo
	catalog         MovieCatalog

	moviesPerRoom int
}

func NewRoomService(rooms RoomRepo, movies MovieRepo, participants ParticipantRepo, votes VoteRepo, catalog MovieCatalog) *RoomService {
	return &RoomService{
		roomRepo:        rooms,
		movieRepo:       movies,
		participantRepo: participants,
		voteRepo:        votes,
		catalog:         catalog,
		moviesPerRoom:   20,
	}
}

func (s *RoomService) SetMoviesPerRoom(n int) {
	if n > 0 {
		s.moviesPerRoom = n
	}
}

// CreateRoom fetches the candidate list, reserves a fresh 6-character code
// and stores the room with its movies. The candidate list is fixed from
// this point on.
func (s *RoomService) CreateRoom(ctx context.Context) (*domain.Room, error) {
	movies, err := s.catalog.PopularMovies(ctx, s.moviesPerRoom)
	if err != nil {
		return nil, fmt.Errorf("catalog.PopularMovies: %w", err)
	}

	room := &domain.Room{Status: domain.RoomOpen}
	inserted := false
	for i := 0; i < createAttempts && !inserted; i++ {
		room.Code = generateCode()
		inserted, err = s.roomRepo.Create(ctx, room)
		if err != nil {
			return nil, fmt.Errorf("roomRepo.Create: %w", err)
		}
	}
	if !inserted {
		return nil, domain.ErrCodesExhausted
	}

	if err := s.movieRepo.AddBatch(ctx, room.Code, movies); err != nil {
		_ = s.roomRepo.Delete(ctx, room.Code)
		return nil, fmt.Errorf("movieRepo.AddBatch: %w", err)
	}
	return room, nil
}

func (s *RoomService) GetRoom(ctx context.Context, code string) (*domain.Room, error) {
	return s.roomRepo.Get(ctx, code)
}

// CloseRoom stops further joins. Participants already admitted keep voting
// and the room's code stays resolvable.
func (s *RoomService) CloseRoom(ctx context.Context, code string) error {
	return s.roomRepo.SetStatus(ctx, code, domain.RoomClosed)
}

// Movies returns the room's candidate list in room order.
func (s *RoomService) Movies(ctx context.Context, code string) ([]domain.Movie, error) {
	if _, err := s.roomRepo.Get(ctx, code); err != nil {
		return nil, err
	}
	return s.movieRepo.ListByRoom(ctx, code)
}

// Matches recomputes the unanimous set at call time.
func (s *RoomService) Matches(ctx context.Context, code string) ([]domain.Movie, error) {
	if _, err := s.roomRepo.Get(ctx, code); err != nil {
		return nil, err
	}
	res, err := s.snapshot(ctx, code)
	if err != nil {
		return nil, err
	}
	return res.Matches, nil
}

func (s *RoomService) Progress(ctx context.Context, code string) (domain.Progress, error) {
	res, err := s.snapshot(ctx, code)
	if err != nil {
		return domain.Progress{}, err
	}
	return res.Progress, nil
}

func (s *RoomService) snapshot(ctx context.Context, code string) (consensus.Result, error) {
	participants, err := s.participantRepo.ListByRoom(ctx, code)
	if err != nil {
		return consensus.Result{}, fmt.Errorf("participantRepo.ListByRoom: %w", err)
	}
	movies, err := s.movieRepo.ListByRoom(ctx, code)
	if err != nil {
		return consensus.Result{}, fmt.Errorf("movieRepo.ListByRoom: %w", err)
	}
	votes, err := s.voteRepo.ListByRoom(ctx, code)
	if err != nil {
		return consensus.Result{}, fmt.Errorf("voteRepo.ListByRoom: %w", err)
	}
	return consensus.Compute(participants, movies, votes), nil
}

func generateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(b)
}
