package postgres

import (
	"context"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a room under the given code. It returns false without an
// error when the code is already taken, so the caller can retry with a
// fresh one.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) (bool, error) {
	query := `
		INSERT INTO rooms (code, status)
		VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
		RETURNING created_at`
	err := r.db.QueryRow(ctx, query, room.Code, room.Status).Scan(&room.CreatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RoomRepository) Get(ctx context.Context, code string) (*domain.Room, error) {
	var rm domain.Room
	query := `SELECT code, created_at, status FROM rooms WHERE code=$1`
	err := r.db.QueryRow(ctx, query, code).
		Scan(&rm.Code, &rm.CreatedAt, &rm.Status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

func (r *RoomRepository) SetStatus(ctx context.Context, code string, status domain.RoomStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE rooms SET status=$2 WHERE code=$1`, code, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (r *RoomRepository) Delete(ctx context.Context, code string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE code=$1`, code)
	return err
}
