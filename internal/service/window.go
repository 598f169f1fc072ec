package service

import (
	"context"
	"time"

	"playearn/internal/domain"
)

// Window is a trailing time range over a user's ad events.
type Window struct {
	Span         time.Duration
	RewardedOnly bool
}

// WindowCounter answers "how many events in the last D" questions.
type WindowCounter struct {
	ledger Ledger
}

func NewWindowCounter(ledger Ledger) *WindowCounter {
	return &WindowCounter{ledger: ledger}
}

// HourlyAds counts rewarded ads in the trailing hour.
var HourlyAds = Window{Span: time.Hour, RewardedOnly: true}

// Ads counts the user's ad events inside w ending at now.
func (c *WindowCounter) Ads(ctx context.Context, userID string, w Window, now time.Time) (domain.WindowCount, error) {
	return c.ledger.AdWindow(ctx, userID, now.Add(-w.Span), w.RewardedOnly)
}

// ProcessedWithdrawals sums the user's processed withdrawals (in cents)
// inside the trailing span.
func (c *WindowCounter) ProcessedWithdrawals(ctx context.Context, userID string, span time.Duration, now time.Time) (int64, error) {
	return c.ledger.ProcessedWithdrawalSum(ctx, userID, now.Add(-span))
}

// SinceDeviceWithdrawal returns the time of the device's latest processed
// withdrawal, or nil if it never had one.
func (c *WindowCounter) SinceDeviceWithdrawal(ctx context.Context, deviceID string) (*time.Time, error) {
	if deviceID == "" {
		return nil, nil
	}
	return c.ledger.LastProcessedWithdrawalAt(ctx, deviceID)
}
