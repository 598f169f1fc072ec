package repository

import (
	"context"

	"playearn/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FraudRepository struct {
	db *pgxpool.Pool
}

func NewFraudRepository(db *pgxpool.Pool) *FraudRepository {
	return &FraudRepository{db: db}
}

func (r *FraudRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, f *domain.FraudFlag) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO fraud_flags (id, user_id, flag_type, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, f.ID, f.UserID, f.Type, f.Details, f.CreatedAt)
	return err
}

func (r *FraudRepository) GetByUserID(ctx context.Context, userID string, limit int) ([]domain.FraudFlag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, flag_type, details, created_at
		FROM fraud_flags
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.FraudFlag
	for rows.Next() {
		var f domain.FraudFlag
		if err := rows.Scan(&f.ID, &f.UserID, &f.Type, &f.Details, &f.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}
