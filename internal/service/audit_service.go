package service

import (
	"context"
	"time"

	"playearn/internal/domain"
	"playearn/internal/logger"
)

// AuditService handles audit logging. Failures are logged, never returned.
type AuditService struct {
	store AuditStore
	now   func() time.Time
}

// NewAuditService creates a new audit service
func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store, now: time.Now}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, userID, action, category string, details map[string]any) {
	s.write(ctx, &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
		Details:  details,
	})
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, userID, action, category, ip, userAgent string, details map[string]any) {
	s.write(ctx, &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        ip,
		UserAgent: userAgent,
	})
}

func (s *AuditService) write(ctx context.Context, log *domain.AuditLog) {
	if s == nil || s.store == nil {
		return
	}
	if log.Details == nil {
		log.Details = make(map[string]any)
	}
	log.CreatedAt = s.now().UTC()
	if err := s.store.CreateAuditLog(ctx, log); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", log.Action, "user_id", log.UserID)
	}
}

// LogWithdrawRequest logs a withdrawal request
func (s *AuditService) LogWithdrawRequest(ctx context.Context, w *domain.Withdrawal) {
	s.Log(ctx, w.UserID, domain.AuditActionWithdrawRequest, domain.AuditCategoryWithdrawal, map[string]any{
		"withdrawal_id":  w.ID,
		"amount":         w.Amount(),
		"coins_deducted": w.CoinsDeducted,
		"method":         w.Method,
	})
}

// LogWithdrawResolve logs an approval or rejection
func (s *AuditService) LogWithdrawResolve(ctx context.Context, adminID string, w *domain.Withdrawal) {
	action := domain.AuditActionWithdrawApprove
	details := map[string]any{"withdrawal_id": w.ID, "admin_id": adminID}
	if w.Status == domain.WithdrawalRejected {
		action = domain.AuditActionWithdrawReject
		details["reason"] = w.RejectReason
		details["refunded_coins"] = w.CoinsDeducted
	}
	s.Log(ctx, w.UserID, action, domain.AuditCategoryWithdrawal, details)
}

// LogAdminAction logs an admin action
func (s *AuditService) LogAdminAction(ctx context.Context, adminID, action, targetUserID string, details map[string]any) {
	if details == nil {
		details = make(map[string]any)
	}
	details["admin_id"] = adminID
	details["target_user_id"] = targetUserID

	s.Log(ctx, targetUserID, action, domain.AuditCategoryAdmin, details)
}

// LogLogin logs a user login
func (s *AuditService) LogLogin(ctx context.Context, userID, ip, userAgent string) {
	s.LogWithRequest(ctx, userID, domain.AuditActionLogin, domain.AuditCategoryAuth, ip, userAgent, nil)
}

// Recent returns the newest audit entries
func (s *AuditService) Recent(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	return s.store.RecentAuditLogs(ctx, limit)
}

// GetUserAuditLogs returns audit logs for a user
func (s *AuditService) GetUserAuditLogs(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error) {
	return s.store.UserAuditLogs(ctx, userID, limit)
}
