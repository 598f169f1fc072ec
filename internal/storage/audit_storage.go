package storage

import (
	"context"
	"encoding/json"

	"playearn/internal/domain"

	"github.com/google/uuid"
)

func (s *SqliteStorage) CreateAuditLog(ctx context.Context, log *domain.AuditLog) error {
	details, err := json.Marshal(log.Details)
	if err != nil {
		details = []byte("{}")
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(&AuditLogRecord{
		ID:        log.ID,
		UserID:    log.UserID,
		Action:    log.Action,
		Category:  log.Category,
		Details:   string(details),
		IP:        log.IP,
		UserAgent: log.UserAgent,
		CreatedAt: log.CreatedAt.UTC(),
	}).Error
}

func (s *SqliteStorage) RecentAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	var recs []AuditLogRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, err
	}
	return auditLogsToDomain(recs), nil
}

func (s *SqliteStorage) UserAuditLogs(ctx context.Context, userID string, limit int) ([]domain.AuditLog, error) {
	var recs []AuditLogRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return auditLogsToDomain(recs), nil
}

func auditLogsToDomain(recs []AuditLogRecord) []domain.AuditLog {
	out := make([]domain.AuditLog, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out
}
