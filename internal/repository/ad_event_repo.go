package repository

import (
	"context"
	"time"

	"playearn/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdEventRepository struct {
	db *pgxpool.Pool
}

func NewAdEventRepository(db *pgxpool.Pool) *AdEventRepository {
	return &AdEventRepository{db: db}
}

func (r *AdEventRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, e *domain.AdEvent) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ad_events (id, user_id, ad_type, game_id, reward_coins, rewarded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.UserID, e.AdType, e.GameID, e.RewardCoins, e.Rewarded, e.CreatedAt)
	return err
}

// Window counts the user's events since the given instant.
func (r *AdEventRepository) Window(ctx context.Context, userID string, since time.Time, rewardedOnly bool) (domain.WindowCount, error) {
	var wc domain.WindowCount
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(reward_coins), 0), MIN(created_at)
		FROM ad_events
		WHERE user_id = $1 AND created_at >= $2 AND (NOT $3 OR rewarded)
	`, userID, since, rewardedOnly).Scan(&wc.Count, &wc.SumCoins, &wc.Oldest)
	return wc, err
}

func (r *AdEventRepository) RecentRewarded(ctx context.Context, userID string, limit int) ([]domain.AdEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, ad_type, game_id, reward_coins, rewarded, created_at
		FROM ad_events
		WHERE user_id = $1 AND rewarded
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.AdEvent
	for rows.Next() {
		var e domain.AdEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.AdType, &e.GameID, &e.RewardCoins, &e.Rewarded, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// TopEarners ranks users by coins earned from ads since the given instant.
func (r *AdEventRepository) TopEarners(ctx context.Context, since time.Time, limit int) ([]domain.RankEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.user_id, u.name, SUM(e.reward_coins) AS coins
		FROM ad_events e
		JOIN users u ON u.id = e.user_id
		WHERE e.rewarded AND e.created_at >= $1
		GROUP BY e.user_id, u.name
		ORDER BY coins DESC, e.user_id
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.RankEntry
	rank := 1
	for rows.Next() {
		var e domain.RankEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Coins); err != nil {
			return nil, err
		}
		e.Rank = rank
		res = append(res, e)
		rank++
	}
	return res, rows.Err()
}
