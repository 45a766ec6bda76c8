package postgres

import (
	"context"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type VoteRepository struct {
	db *pgxpool.Pool
}

func NewVoteRepository(db *pgxpool.Pool) *VoteRepository {
	return &VoteRepository{db: db}
}

// Upsert records a vote. A repeat vote by the same user on the same movie
// replaces the previous value.
func (r *VoteRepository) Upsert(ctx context.Context, v *domain.Vote) error {
	query := `
		INSERT INTO votes (room_code, user_id, movie_id, vote)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (room_code, user_id, movie_id)
		DO UPDATE SET vote=EXCLUDED.vote, voted_at=now()
		RETURNING voted_at`
	return r.db.QueryRow(ctx, query, v.RoomCode, v.UserID, v.MovieID, v.Yes).
		Scan(&v.VotedAt)
}

func (r *VoteRepository) ListByRoom(ctx context.Context, roomCode string) ([]domain.Vote, error) {
	rows, err := r.db.Query(ctx,
		`SELECT room_code, user_id, movie_id, vote, voted_at
		 FROM votes WHERE room_code=$1`,
		roomCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Vote
	for rows.Next() {
		var v domain.Vote
		if err := rows.Scan(&v.RoomCode, &v.UserID, &v.MovieID, &v.Yes, &v.VotedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// VotesForMovie returns user_id -> vote for one movie in a room.
func (r *VoteRepository) VotesForMovie(ctx context.Context, roomCode string, movieID int64) (map[string]bool, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, vote FROM votes WHERE room_code=$1 AND movie_id=$2`,
		roomCode, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var userID string
		var yes bool
		if err := rows.Scan(&userID, &yes); err != nil {
			return nil, err
		}
		out[userID] = yes
	}
	return out, rows.Err()
}

func (r *VoteRepository) HasVoted(ctx context.Context, roomCode, userID string, movieID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM votes WHERE room_code=$1 AND user_id=$2 AND movie_id=$3)`,
		roomCode, userID, movieID).Scan(&exists)
	return exists, err
}
