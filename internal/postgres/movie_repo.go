package postgres

import (
	"context"
	"encoding/json"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MovieRepository struct {
	db *pgxpool.Pool
}

func NewMovieRepository(db *pgxpool.Pool) *MovieRepository {
	return &MovieRepository{db: db}
}

// AddBatch stores the room's candidate list. Movies already present under
// the same (room_code, movie_id) are left untouched.
func (r *MovieRepository) AddBatch(ctx context.Context, roomCode string, movies []domain.Movie) error {
	if len(movies) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range movies {
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO room_movies (room_code, movie_id, payload)
			VALUES ($1, $2, $3)
			ON CONFLICT (room_code, movie_id) DO NOTHING`,
			roomCode, m.ID, payload)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range movies {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return br.Close()
}

// ListByRoom returns candidates in insertion order.
func (r *MovieRepository) ListByRoom(ctx context.Context, roomCode string) ([]domain.Movie, error) {
	rows, err := r.db.Query(ctx,
		`SELECT payload FROM room_movies WHERE room_code=$1 ORDER BY id ASC`,
		roomCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Movie
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var m domain.Movie
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *MovieRepository) Exists(ctx context.Context, roomCode string, movieID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM room_movies WHERE room_code=$1 AND movie_id=$2)`,
		roomCode, movieID).Scan(&exists)
	return exists, err
}

func (r *MovieRepository) CountByRoom(ctx context.Context, roomCode string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_movies WHERE room_code=$1`, roomCode).Scan(&count)
	return count, err
}
