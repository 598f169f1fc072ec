package repository

import (
	"context"
	"errors"
	"time"

	"playearn/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

const withdrawalColumns = `id, user_id, device_id, amount_cents, coins_deducted, method, destination,
	status, reject_reason, requested_at, processed_at`

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	if err := row.Scan(
		&w.ID, &w.UserID, &w.DeviceID, &w.AmountCents, &w.CoinsDeducted, &w.Method, &w.Destination,
		&w.Status, &w.RejectReason, &w.RequestedAt, &w.ProcessedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &w, nil
}

func scanWithdrawals(rows pgx.Rows) ([]domain.Withdrawal, error) {
	defer rows.Close()
	var res []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *w)
	}
	return res, rows.Err()
}

func (r *WithdrawalRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO withdrawals (id, user_id, device_id, amount_cents, coins_deducted, method, destination, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, w.ID, w.UserID, w.DeviceID, w.AmountCents, w.CoinsDeducted, w.Method, w.Destination, w.Status, w.RequestedAt)
	return err
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	return scanWithdrawal(r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
}

// GetForUpdateWithTx locks the withdrawal row until the transaction ends.
func (r *WithdrawalRepository) GetForUpdateWithTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Withdrawal, error) {
	return scanWithdrawal(tx.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id))
}

func (r *WithdrawalRepository) ResolveWithTx(ctx context.Context, tx pgx.Tx, id string, status domain.WithdrawalStatus, reason string, now time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = $2, reject_reason = $3, processed_at = $4
		WHERE id = $1 AND status = 'pending'
	`, id, status, reason, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *WithdrawalRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY requested_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanWithdrawals(rows)
}

func (r *WithdrawalRepository) GetPending(ctx context.Context) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE status = 'pending'
		ORDER BY requested_at ASC
	`)
	if err != nil {
		return nil, err
	}
	return scanWithdrawals(rows)
}

// LastProcessedAtForDevice returns nil when the device never had a processed withdrawal.
func (r *WithdrawalRepository) LastProcessedAtForDevice(ctx context.Context, deviceID string) (*time.Time, error) {
	var last *time.Time
	err := r.db.QueryRow(ctx, `
		SELECT MAX(processed_at) FROM withdrawals
		WHERE device_id = $1 AND status = 'processed'
	`, deviceID).Scan(&last)
	return last, err
}

func (r *WithdrawalRepository) ProcessedSumSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return processedSumSince(ctx, r.db, userID, since)
}

// ProcessedSumSinceWithTx is ProcessedSumSince inside tx, so it sees rows the
// transaction already wrote.
func (r *WithdrawalRepository) ProcessedSumSinceWithTx(ctx context.Context, tx pgx.Tx, userID string, since time.Time) (int64, error) {
	return processedSumSince(ctx, tx, userID, since)
}

func processedSumSince(ctx context.Context, q querier, userID string, since time.Time) (int64, error) {
	var total int64
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM withdrawals
		WHERE user_id = $1 AND status = 'processed' AND processed_at >= $2
	`, userID, since).Scan(&total)
	return total, err
}
