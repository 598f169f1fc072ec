package service

import (
	"context"
	"sync"
	"time"

	"playearn/internal/domain"
)

// Ledger is the persistent per-user state behind the reward and withdrawal
// gates. Every mutating method applies its changes atomically.
type Ledger interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// ResetDaily clears the per-day counters when the stored reset predates
	// the UTC day of now. It reports whether a reset happened.
	ResetDaily(ctx context.Context, userID string, now time.Time) (bool, error)

	AdWindow(ctx context.Context, userID string, since time.Time, rewardedOnly bool) (domain.WindowCount, error)
	RecordAdWatch(ctx context.Context, w *domain.AdWatch) error
	RecentRewards(ctx context.Context, userID string, limit int) ([]domain.AdEvent, error)
	TopEarners(ctx context.Context, since time.Time, limit int) ([]domain.RankEntry, error)

	FlagUser(ctx context.Context, f *domain.FraudFlag) error
	ClearSuspect(ctx context.Context, userID string) error
	SetUserStatus(ctx context.Context, userID string, status domain.UserStatus) error
	ListSuspects(ctx context.Context) ([]domain.User, error)
	ListFraudFlags(ctx context.Context, userID string, limit int) ([]domain.FraudFlag, error)

	StartGameSession(ctx context.Context, s *domain.GameSession) error
	GetGameSession(ctx context.Context, id string) (*domain.GameSession, error)
	RecordGamePlay(ctx context.Context, p *domain.GamePlay) (domain.GamePlayResult, error)

	LastProcessedWithdrawalAt(ctx context.Context, deviceID string) (*time.Time, error)
	ProcessedWithdrawalSum(ctx context.Context, userID string, since time.Time) (int64, error)
	// CreateWithdrawal debits CoinsDeducted and inserts the pending record in
	// one transaction.
	CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error
	// ResolveWithdrawal moves a pending withdrawal to r.Status, refunding the
	// deducted coins on rejection. An approval that would push the processed
	// weekly total over r.WeeklyCapCents fails with ErrWeeklyCapExceeded and
	// leaves the withdrawal pending.
	ResolveWithdrawal(ctx context.Context, id string, r domain.Resolution) (*domain.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id string) (*domain.Withdrawal, error)
	ListWithdrawals(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error)
	ListPendingWithdrawals(ctx context.Context) ([]domain.Withdrawal, error)

	Ping(ctx context.Context) error
}

// AuditStore persists audit log entries.
type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *domain.AuditLog) error
	RecentAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
	UserAuditLogs(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error)
}

// Notifier receives admin facing events. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, e domain.AdminEvent)
}

// Dispatcher fans an event out to every registered notifier. Notifiers can
// be added after the services are built.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

func (d *Dispatcher) Add(n Notifier) {
	d.mu.Lock()
	d.notifiers = append(d.notifiers, n)
	d.mu.Unlock()
}

func (d *Dispatcher) Notify(ctx context.Context, e domain.AdminEvent) {
	d.mu.RLock()
	ns := d.notifiers
	d.mu.RUnlock()
	for _, n := range ns {
		n.Notify(ctx, e)
	}
}
