package service

import (
	"context"
	"fmt"
	"time"

	"playearn/internal/domain"
)

// AdminService provides the admin views over pending payouts and suspects.
type AdminService struct {
	ledger      Ledger
	withdrawals *WithdrawalService
	audit       *AuditService
}

// NewAdminService creates a new admin service
func NewAdminService(ledger Ledger, withdrawals *WithdrawalService, audit *AuditService) *AdminService {
	return &AdminService{ledger: ledger, withdrawals: withdrawals, audit: audit}
}

// PendingWithdrawal is a pending request with the requester's account.
type PendingWithdrawal struct {
	domain.Withdrawal
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Suspect   bool   `json:"suspect"`
	Amount    string `json:"amount"`
}

// Suspect is a flagged user with their recent flags.
type Suspect struct {
	User  domain.User        `json:"user"`
	Flags []domain.FraudFlag `json:"flags"`
}

// Stats summarises the admin queues.
type Stats struct {
	PendingWithdrawals int    `json:"pending_withdrawals"`
	PendingAmount      string `json:"pending_amount"`
	Suspects           int    `json:"suspects"`
}

// GetPendingWithdrawals returns pending requests, oldest first.
func (s *AdminService) GetPendingWithdrawals(ctx context.Context) ([]PendingWithdrawal, error) {
	ws, err := s.withdrawals.Pending(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]PendingWithdrawal, 0, len(ws))
	for _, w := range ws {
		pw := PendingWithdrawal{Withdrawal: w, Amount: w.Amount()}
		u, err := s.ledger.GetUser(ctx, w.UserID)
		if err != nil {
			return nil, fmt.Errorf("load user %s: %w", w.UserID, err)
		}
		pw.UserName = u.Name
		pw.UserEmail = u.Email
		pw.Suspect = u.Suspect
		res = append(res, pw)
	}
	return res, nil
}

func (s *AdminService) ApproveWithdrawal(ctx context.Context, adminID, id string) (*domain.Withdrawal, error) {
	return s.withdrawals.Resolve(ctx, adminID, id, domain.WithdrawalApprove, "", time.Now().UTC())
}

func (s *AdminService) RejectWithdrawal(ctx context.Context, adminID, id, reason string) (*domain.Withdrawal, error) {
	return s.withdrawals.Resolve(ctx, adminID, id, domain.WithdrawalReject, reason, time.Now().UTC())
}

// GetSuspects returns flagged users with up to flagLimit flags each.
func (s *AdminService) GetSuspects(ctx context.Context, flagLimit int) ([]Suspect, error) {
	users, err := s.ledger.ListSuspects(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]Suspect, 0, len(users))
	for _, u := range users {
		flags, err := s.ledger.ListFraudFlags(ctx, u.ID, flagLimit)
		if err != nil {
			return nil, fmt.Errorf("load flags for %s: %w", u.ID, err)
		}
		res = append(res, Suspect{User: u, Flags: flags})
	}
	return res, nil
}

// ClearSuspect lifts the review flag. Existing fraud flags are kept.
func (s *AdminService) ClearSuspect(ctx context.Context, adminID, userID string) error {
	if err := s.ledger.ClearSuspect(ctx, userID); err != nil {
		return err
	}
	s.audit.LogAdminAction(ctx, adminID, domain.AuditActionClearSuspect, userID, nil)
	return nil
}

// SetUserStatus bans or reinstates a user.
func (s *AdminService) SetUserStatus(ctx context.Context, adminID, userID string, status domain.UserStatus) error {
	if status != domain.UserStatusActive && status != domain.UserStatusBanned {
		return fmt.Errorf("unknown status %q", status)
	}
	if err := s.ledger.SetUserStatus(ctx, userID, status); err != nil {
		return err
	}
	s.audit.LogAdminAction(ctx, adminID, domain.AuditActionSetStatus, userID, map[string]any{"status": status})
	return nil
}

// GetUser returns a user with their recent withdrawals.
func (s *AdminService) GetUser(ctx context.Context, userID string) (*domain.User, []domain.Withdrawal, error) {
	u, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	ws, err := s.withdrawals.ListForUser(ctx, userID, 10)
	if err != nil {
		return nil, nil, err
	}
	return u, ws, nil
}

// GetStats returns queue sizes for the admin dashboard.
func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	pending, err := s.withdrawals.Pending(ctx)
	if err != nil {
		return nil, err
	}
	suspects, err := s.ledger.ListSuspects(ctx)
	if err != nil {
		return nil, err
	}

	var cents int64
	for _, w := range pending {
		cents += w.AmountCents
	}
	return &Stats{
		PendingWithdrawals: len(pending),
		PendingAmount:      domain.FormatCents(cents),
		Suspects:           len(suspects),
	}, nil
}

func (s *AdminService) RecentAudit(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return s.audit.Recent(ctx, limit)
}
