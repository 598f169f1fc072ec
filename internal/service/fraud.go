package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"playearn/internal/domain"
	"playearn/internal/logger"

	"github.com/google/uuid"
)

// FraudDetector flags users whose ad velocity looks automated. Flags are a
// soft signal: they only block withdrawals until an admin clears them.
type FraudDetector struct {
	ledger   Ledger
	windows  *WindowCounter
	limits   domain.Limits
	audit    *AuditService
	notifier Notifier
	log      *slog.Logger
}

func NewFraudDetector(ledger Ledger, windows *WindowCounter, limits domain.Limits, audit *AuditService, notifier Notifier) *FraudDetector {
	return &FraudDetector{
		ledger:   ledger,
		windows:  windows,
		limits:   limits,
		audit:    audit,
		notifier: notifier,
		log:      logger.With("component", "fraud_detector"),
	}
}

// Inspect checks the user's trailing ad window and flags on a hit.
func (d *FraudDetector) Inspect(ctx context.Context, userID string, now time.Time) (bool, error) {
	wc, err := d.windows.Ads(ctx, userID, Window{Span: d.limits.FraudWindow}, now)
	if err != nil {
		return false, fmt.Errorf("fraud window: %w", err)
	}

	rate, hit := domain.AdVelocity(wc.Count, d.limits)
	if !hit {
		return false, nil
	}

	flag := &domain.FraudFlag{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      domain.FraudTypeHighAdRate,
		Details:   domain.HighAdRateDetails(wc.Count, rate, d.limits.FraudWindow),
		CreatedAt: now,
	}
	if err := d.ledger.FlagUser(ctx, flag); err != nil {
		return false, fmt.Errorf("flag user: %w", err)
	}

	FraudFlags.Inc()
	d.log.Warn("user flagged", "user_id", userID, "events", wc.Count, "rate", rate)
	d.audit.Log(ctx, userID, domain.AuditActionFraudFlag, domain.AuditCategoryFraud, map[string]any{
		"flag_id": flag.ID,
		"events":  wc.Count,
		"rate":    rate,
	})
	if d.notifier != nil {
		d.notifier.Notify(ctx, domain.AdminEvent{Type: domain.EventUserFlagged, UserID: userID, Flag: flag, At: now})
	}
	return true, nil
}
