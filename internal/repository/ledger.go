package repository

import (
	"context"
	"fmt"
	"time"

	"playearn/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ledger is the Postgres implementation of the reward ledger. Multi-row
// changes run inside a single transaction.
type Ledger struct {
	db          *pgxpool.Pool
	users       *UserRepository
	adEvents    *AdEventRepository
	withdrawals *WithdrawalRepository
	fraud       *FraudRepository
	games       *GameRepository
	audit       *AuditRepository
}

func NewLedger(db *pgxpool.Pool) *Ledger {
	return &Ledger{
		db:          db,
		users:       NewUserRepository(db),
		adEvents:    NewAdEventRepository(db),
		withdrawals: NewWithdrawalRepository(db),
		fraud:       NewFraudRepository(db),
		games:       NewGameRepository(db),
		audit:       NewAuditRepository(db),
	}
}

func (l *Ledger) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.Ping(ctx)
}

func (l *Ledger) CreateUser(ctx context.Context, u *domain.User) error {
	return l.users.Create(ctx, u)
}

func (l *Ledger) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return l.users.GetByID(ctx, id)
}

func (l *Ledger) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return l.users.GetByEmail(ctx, email)
}

func (l *Ledger) ResetDaily(ctx context.Context, userID string, now time.Time) (bool, error) {
	return l.users.ResetDaily(ctx, userID, now)
}

func (l *Ledger) AdWindow(ctx context.Context, userID string, since time.Time, rewardedOnly bool) (domain.WindowCount, error) {
	return l.adEvents.Window(ctx, userID, since, rewardedOnly)
}

func (l *Ledger) RecordAdWatch(ctx context.Context, w *domain.AdWatch) error {
	return l.inTx(ctx, func(tx pgx.Tx) error {
		if err := l.users.ApplyAdWatchWithTx(ctx, tx, w); err != nil {
			return err
		}
		return l.adEvents.CreateWithTx(ctx, tx, &w.Event)
	})
}

func (l *Ledger) RecentRewards(ctx context.Context, userID string, limit int) ([]domain.AdEvent, error) {
	return l.adEvents.RecentRewarded(ctx, userID, limit)
}

func (l *Ledger) TopEarners(ctx context.Context, since time.Time, limit int) ([]domain.RankEntry, error) {
	return l.adEvents.TopEarners(ctx, since, limit)
}

func (l *Ledger) FlagUser(ctx context.Context, f *domain.FraudFlag) error {
	return l.inTx(ctx, func(tx pgx.Tx) error {
		if err := l.users.SetSuspectWithTx(ctx, tx, f.UserID, true); err != nil {
			return err
		}
		return l.fraud.CreateWithTx(ctx, tx, f)
	})
}

func (l *Ledger) ClearSuspect(ctx context.Context, userID string) error {
	return l.users.ClearSuspect(ctx, userID)
}

func (l *Ledger) SetUserStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	return l.users.SetStatus(ctx, userID, status)
}

func (l *Ledger) ListSuspects(ctx context.Context) ([]domain.User, error) {
	return l.users.ListSuspects(ctx)
}

func (l *Ledger) ListFraudFlags(ctx context.Context, userID string, limit int) ([]domain.FraudFlag, error) {
	return l.fraud.GetByUserID(ctx, userID, limit)
}

func (l *Ledger) StartGameSession(ctx context.Context, s *domain.GameSession) error {
	return l.games.CreateSession(ctx, s)
}

func (l *Ledger) GetGameSession(ctx context.Context, id string) (*domain.GameSession, error) {
	return l.games.GetSession(ctx, id)
}

func (l *Ledger) RecordGamePlay(ctx context.Context, p *domain.GamePlay) (domain.GamePlayResult, error) {
	var res domain.GamePlayResult
	err := l.inTx(ctx, func(tx pgx.Tx) error {
		if p.SessionID != "" {
			if err := l.games.FinishSessionWithTx(ctx, tx, p); err != nil {
				return err
			}
		}
		newGame, err := l.games.MarkPlayedWithTx(ctx, tx, p)
		if err != nil {
			return err
		}
		res, err = l.users.AddPlayWithTx(ctx, tx, p, newGame)
		return err
	})
	return res, err
}

func (l *Ledger) LastProcessedWithdrawalAt(ctx context.Context, deviceID string) (*time.Time, error) {
	return l.withdrawals.LastProcessedAtForDevice(ctx, deviceID)
}

func (l *Ledger) ProcessedWithdrawalSum(ctx context.Context, userID string, since time.Time) (int64, error) {
	return l.withdrawals.ProcessedSumSince(ctx, userID, since)
}

func (l *Ledger) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	return l.inTx(ctx, func(tx pgx.Tx) error {
		if err := l.users.DebitWithTx(ctx, tx, w.UserID, w.CoinsDeducted); err != nil {
			return err
		}
		return l.withdrawals.CreateWithTx(ctx, tx, w)
	})
}

func (l *Ledger) ResolveWithdrawal(ctx context.Context, id string, r domain.Resolution) (*domain.Withdrawal, error) {
	var out *domain.Withdrawal
	at := r.At.UTC()
	err := l.inTx(ctx, func(tx pgx.Tx) error {
		w, err := l.withdrawals.GetForUpdateWithTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if w.Status != domain.WithdrawalPending {
			return domain.ErrInvalidTransition
		}
		if r.Status == domain.WithdrawalProcessed && r.WeeklyCapCents > 0 {
			if err := l.users.LockWithTx(ctx, tx, w.UserID); err != nil {
				return err
			}
			processed, err := l.withdrawals.ProcessedSumSinceWithTx(ctx, tx, w.UserID, at.Add(-domain.WeeklyWindow))
			if err != nil {
				return err
			}
			if processed+w.AmountCents > r.WeeklyCapCents {
				return domain.ErrWeeklyCapExceeded
			}
		}
		if err := l.withdrawals.ResolveWithTx(ctx, tx, id, r.Status, r.Reason, at); err != nil {
			return err
		}
		if r.Status == domain.WithdrawalRejected {
			if err := l.users.CreditWithTx(ctx, tx, w.UserID, w.CoinsDeducted); err != nil {
				return err
			}
		}
		w.Status = r.Status
		w.RejectReason = r.Reason
		w.ProcessedAt = &at
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) GetWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error) {
	return l.withdrawals.GetByID(ctx, id)
}

func (l *Ledger) ListWithdrawals(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	return l.withdrawals.GetByUserID(ctx, userID, limit)
}

func (l *Ledger) ListPendingWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	return l.withdrawals.GetPending(ctx)
}

func (l *Ledger) CreateAuditLog(ctx context.Context, log *domain.AuditLog) error {
	return l.audit.Create(ctx, log)
}

func (l *Ledger) RecentAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return l.audit.GetRecent(ctx, limit)
}

func (l *Ledger) UserAuditLogs(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error) {
	return l.audit.GetByUserID(ctx, userID, limit)
}
