package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"playearn/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, device_id, status, coins, total_play_seconds,
	distinct_games, ads_today, bonus_ads_today, daily_unlocked, first_game_ad_done, ads_total,
	suspect, last_ad_at, last_daily_reset, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.DeviceID, &u.Status, &u.Coins, &u.TotalPlaySeconds,
		&u.DistinctGames, &u.AdsToday, &u.BonusAdsToday, &u.DailyUnlocked, &u.FirstGameAdDone, &u.AdsTotal,
		&u.Suspect, &u.LastAdAt, &u.LastDailyReset, &u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.DeviceID, u.Status, u.Coins, u.TotalPlaySeconds,
		u.DistinctGames, u.AdsToday, u.BonusAdsToday, u.DailyUnlocked, u.FirstGameAdDone, u.AdsTotal,
		u.Suspect, u.LastAdAt, u.LastDailyReset, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
}

// ResetDaily clears the per-day counters once per UTC day. The WHERE clause
// makes concurrent callers race harmlessly: only one of them matches.
func (r *UserRepository) ResetDaily(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET ads_today = 0, bonus_ads_today = 0, daily_unlocked = FALSE,
		    first_game_ad_done = FALSE, last_daily_reset = $2
		WHERE id = $1 AND last_daily_reset < $3
	`, id, now, domain.StartOfDay(now))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyAdWatchWithTx applies the counter deltas of one completed ad.
func (r *UserRepository) ApplyAdWatchWithTx(ctx context.Context, tx pgx.Tx, w *domain.AdWatch) error {
	ev := w.Event
	var reward, inc, bonusInc int64
	if ev.Rewarded {
		reward, inc = ev.RewardCoins, 1
		if w.BonusUsed {
			bonusInc = 1
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET coins = coins + $2,
		    ads_today = ads_today + $3,
		    ads_total = ads_total + $3,
		    bonus_ads_today = bonus_ads_today + $4,
		    daily_unlocked = daily_unlocked OR ($3 > 0 AND ads_today + $3 >= $5),
		    first_game_ad_done = first_game_ad_done OR $6,
		    last_ad_at = $7
		WHERE id = $1
	`, ev.UserID, reward, inc, bonusInc, w.UnlockThreshold, ev.GameID != "", ev.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// DebitWithTx removes coins only if the balance covers them.
func (r *UserRepository) DebitWithTx(ctx context.Context, tx pgx.Tx, id string, coins int64) error {
	var balance int64
	err := tx.QueryRow(ctx,
		`UPDATE users SET coins = coins - $1 WHERE id = $2 AND coins >= $1 RETURNING coins`,
		coins, id,
	).Scan(&balance)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return domain.ErrInsufficientFunds
}

// LockWithTx holds the user row until tx ends so per-user checks made inside
// tx cannot interleave with another transaction's.
func (r *UserRepository) LockWithTx(ctx context.Context, tx pgx.Tx, id string) error {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	return err
}

func (r *UserRepository) CreditWithTx(ctx context.Context, tx pgx.Tx, id string, coins int64) error {
	tag, err := tx.Exec(ctx, `UPDATE users SET coins = coins + $1 WHERE id = $2`, coins, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// AddPlayWithTx credits a finished game and returns the new totals.
func (r *UserRepository) AddPlayWithTx(ctx context.Context, tx pgx.Tx, p *domain.GamePlay, newGame bool) (domain.GamePlayResult, error) {
	res := domain.GamePlayResult{NewGame: newGame}
	inc := 0
	if newGame {
		inc = 1
	}
	err := tx.QueryRow(ctx, `
		UPDATE users
		SET total_play_seconds = total_play_seconds + $2,
		    distinct_games = distinct_games + $3,
		    coins = coins + $4
		WHERE id = $1
		RETURNING total_play_seconds, distinct_games, coins
	`, p.UserID, p.SessionSeconds, inc, p.BonusCoins).Scan(&res.TotalPlaySeconds, &res.DistinctGames, &res.Coins)
	if errors.Is(err, pgx.ErrNoRows) {
		return res, domain.ErrUserNotFound
	}
	return res, err
}

func (r *UserRepository) SetSuspectWithTx(ctx context.Context, q querier, id string, suspect bool) error {
	tag, err := q.Exec(ctx, `UPDATE users SET suspect = $1 WHERE id = $2`, suspect, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ClearSuspect(ctx context.Context, id string) error {
	return r.SetSuspectWithTx(ctx, r.db, id, false)
}

func (r *UserRepository) SetStatus(ctx context.Context, id string, status domain.UserStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListSuspects(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE suspect ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}
