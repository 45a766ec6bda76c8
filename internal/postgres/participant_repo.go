package postgres

import (
	"context"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Add(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (user_id, username, room_code)
		VALUES ($1, $2, $3)
		RETURNING joined_at, last_seen`
	return r.db.QueryRow(ctx, query, p.UserID, p.Username, p.RoomCode).
		Scan(&p.JoinedAt, &p.LastSeen)
}

// Remove deletes the participant together with every vote they cast in the
// room. It reports whether a participant row actually existed, so removing
// an already-gone user stays a no-op for the caller.
func (r *ParticipantRepository) Remove(ctx context.Context, roomCode, userID string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM votes WHERE room_code=$1 AND user_id=$2`,
		roomCode, userID); err != nil {
		return false, err
	}

	cmd, err := tx.Exec(ctx,
		`DELETE FROM participants WHERE room_code=$1 AND user_id=$2`,
		roomCode, userID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ParticipantRepository) Exists(ctx context.Context, roomCode, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE room_code=$1 AND user_id=$2)`,
		roomCode, userID).Scan(&exists)
	return exists, err
}

func (r *ParticipantRepository) ListByRoom(ctx context.Context, roomCode string) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, username, room_code, joined_at, last_seen
		 FROM participants WHERE room_code=$1 ORDER BY joined_at ASC, user_id ASC`,
		roomCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.UserID, &p.Username, &p.RoomCode, &p.JoinedAt, &p.LastSeen); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ParticipantRepository) TouchHeartbeat(ctx context.Context, roomCode, userID string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE participants SET last_seen=now() WHERE room_code=$1 AND user_id=$2`,
		roomCode, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotInRoom
	}
	return nil
}
