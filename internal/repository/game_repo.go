package repository

import (
	"context"
	"errors"

	"playearn/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameRepository stores play sessions and the set of games each user played.
type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) CreateSession(ctx context.Context, s *domain.GameSession) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO game_sessions (id, user_id, game_id, started_at)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.UserID, s.GameID, s.StartedAt)
	return err
}

// GetSession returns nil when the session does not exist.
func (r *GameRepository) GetSession(ctx context.Context, id string) (*domain.GameSession, error) {
	var s domain.GameSession
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, game_id, started_at, ended_at, elapsed_seconds
		FROM game_sessions WHERE id = $1
	`, id).Scan(&s.ID, &s.UserID, &s.GameID, &s.StartedAt, &s.EndedAt, &s.ElapsedSeconds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// FinishSessionWithTx closes an open session. A session that is already
// closed, or belongs to someone else, yields ErrSessionClosed.
func (r *GameRepository) FinishSessionWithTx(ctx context.Context, tx pgx.Tx, p *domain.GamePlay) error {
	tag, err := tx.Exec(ctx, `
		UPDATE game_sessions SET ended_at = $3, elapsed_seconds = $4
		WHERE id = $1 AND user_id = $2 AND ended_at IS NULL
	`, p.SessionID, p.UserID, p.EndedAt, p.SessionSeconds)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionClosed
	}
	return nil
}

// MarkPlayedWithTx records the game in the user's set and reports whether it
// was new.
func (r *GameRepository) MarkPlayedWithTx(ctx context.Context, tx pgx.Tx, p *domain.GamePlay) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO user_games (user_id, game_id, first_played_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, game_id) DO NOTHING
	`, p.UserID, p.GameID, p.EndedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
