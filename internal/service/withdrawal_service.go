package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"playearn/internal/domain"
	"playearn/internal/logger"

	"github.com/google/uuid"
)

// WithdrawalRequest is a user's cash-out request.
type WithdrawalRequest struct {
	UserID      string
	AmountCents int64
	Method      string
	Destination string
}

// WithdrawalService runs the withdrawal gate and the pending → processed /
// rejected lifecycle.
type WithdrawalService struct {
	ledger   Ledger
	windows  *WindowCounter
	limits   domain.Limits
	audit    *AuditService
	notifier Notifier
	locks    *userLocks
	log      *slog.Logger
}

func NewWithdrawalService(ledger Ledger, windows *WindowCounter, limits domain.Limits, audit *AuditService, notifier Notifier) *WithdrawalService {
	return &WithdrawalService{
		ledger:   ledger,
		windows:  windows,
		limits:   limits,
		audit:    audit,
		notifier: notifier,
		locks:    newUserLocks(),
		log:      logger.With("component", "withdrawal_service"),
	}
}

// Evaluate reports every reason the user cannot withdraw amountCents now.
// It does not modify any state.
func (s *WithdrawalService) Evaluate(ctx context.Context, userID string, amountCents int64, now time.Time) (domain.WithdrawalVerdict, error) {
	v, _, err := s.evaluate(ctx, userID, amountCents, now)
	return v, err
}

func (s *WithdrawalService) evaluate(ctx context.Context, userID string, amountCents int64, now time.Time) (domain.WithdrawalVerdict, *domain.User, error) {
	if amountCents <= 0 {
		return domain.WithdrawalVerdict{}, nil, domain.ErrInvalidAmount
	}

	u, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return domain.WithdrawalVerdict{}, nil, err
	}
	view, _ := u.WithDailyReset(now)

	lastDevice, err := s.windows.SinceDeviceWithdrawal(ctx, view.DeviceID)
	if err != nil {
		return domain.WithdrawalVerdict{}, nil, fmt.Errorf("device cooldown: %w", err)
	}
	weekly, err := s.windows.ProcessedWithdrawals(ctx, userID, domain.WeeklyWindow, now)
	if err != nil {
		return domain.WithdrawalVerdict{}, nil, fmt.Errorf("weekly window: %w", err)
	}

	v := domain.EvaluateWithdrawal(domain.WithdrawalSnapshot{
		User:                  view,
		RequestedCents:        amountCents,
		LastDeviceProcessedAt: lastDevice,
		WeeklyProcessedCents:  weekly,
	}, s.limits, now)
	return v, &view, nil
}

// Create re-runs the gate and, when it passes, debits the coins and stores a
// pending withdrawal. Ineligible requests return *domain.EligibilityError.
func (s *WithdrawalService) Create(ctx context.Context, req WithdrawalRequest, now time.Time) (*domain.Withdrawal, error) {
	req.Method = strings.TrimSpace(req.Method)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Method == "" || req.Destination == "" {
		return nil, domain.ErrInvalidDestination
	}

	unlock := s.locks.Lock(req.UserID)
	defer unlock()

	if _, err := s.ledger.ResetDaily(ctx, req.UserID, now); err != nil {
		WithdrawalRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("daily reset: %w", err)
	}

	v, u, err := s.evaluate(ctx, req.UserID, req.AmountCents, now)
	if err != nil {
		WithdrawalRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	if !v.OK {
		WithdrawalRequests.WithLabelValues("ineligible").Inc()
		for _, x := range v.Violations {
			WithdrawalViolations.WithLabelValues(x.Code).Inc()
		}
		return nil, &domain.EligibilityError{Violations: v.Violations}
	}

	w := &domain.Withdrawal{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		DeviceID:      u.DeviceID,
		AmountCents:   req.AmountCents,
		CoinsDeducted: domain.CentsToCoins(req.AmountCents),
		Method:        req.Method,
		Destination:   req.Destination,
		Status:        domain.WithdrawalPending,
		RequestedAt:   now,
	}
	if err := s.ledger.CreateWithdrawal(ctx, w); err != nil {
		WithdrawalRequests.WithLabelValues("error").Inc()
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return nil, err
		}
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	WithdrawalRequests.WithLabelValues("created").Inc()
	s.log.Info("withdrawal requested", "withdrawal_id", w.ID, "user_id", w.UserID, "amount", w.Amount())
	s.audit.LogWithdrawRequest(ctx, w)
	if s.notifier != nil {
		s.notifier.Notify(ctx, domain.AdminEvent{Type: domain.EventWithdrawalRequested, UserID: w.UserID, Withdrawal: w, At: now})
	}
	return w, nil
}

// Resolve approves or rejects a pending withdrawal. Rejection refunds
// exactly the coins that were deducted. Approval re-checks the weekly cap
// against processed withdrawals; a refused approval stays pending.
func (s *WithdrawalService) Resolve(ctx context.Context, adminID, id string, action domain.WithdrawalAction, reason string, now time.Time) (*domain.Withdrawal, error) {
	status, err := action.Target()
	if err != nil {
		return nil, err
	}
	if status == domain.WithdrawalProcessed {
		reason = ""
	} else if strings.TrimSpace(reason) == "" {
		reason = "rejected by admin"
	}

	w, err := s.ledger.ResolveWithdrawal(ctx, id, domain.Resolution{
		Status:         status,
		Reason:         reason,
		At:             now,
		WeeklyCapCents: s.limits.WeeklyWithdrawCapCents,
	})
	if err != nil {
		if errors.Is(err, domain.ErrWeeklyCapExceeded) {
			WithdrawalResolutions.WithLabelValues("cap_exceeded").Inc()
			s.log.Warn("approval refused by weekly cap", "withdrawal_id", id, "admin_id", adminID)
		}
		return nil, err
	}

	WithdrawalResolutions.WithLabelValues(string(w.Status)).Inc()
	s.log.Info("withdrawal resolved", "withdrawal_id", w.ID, "status", w.Status, "admin_id", adminID)
	s.audit.LogWithdrawResolve(ctx, adminID, w)
	if s.notifier != nil {
		s.notifier.Notify(ctx, domain.AdminEvent{Type: domain.EventWithdrawalResolved, UserID: w.UserID, Withdrawal: w, At: now})
	}
	return w, nil
}

func (s *WithdrawalService) Get(ctx context.Context, id string) (*domain.Withdrawal, error) {
	return s.ledger.GetWithdrawal(ctx, id)
}

// ListForUser returns the user's withdrawals, newest first.
func (s *WithdrawalService) ListForUser(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	return s.ledger.ListWithdrawals(ctx, userID, limit)
}

func (s *WithdrawalService) Pending(ctx context.Context) ([]domain.Withdrawal, error) {
	return s.ledger.ListPendingWithdrawals(ctx)
}
