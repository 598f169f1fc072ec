package service

import (
	"context"
	"fmt"
	"time"

	"playearn/internal/domain"
)

// AdGate decides whether a user may watch an ad and whether it pays.
// It never writes.
type AdGate struct {
	ledger  Ledger
	windows *WindowCounter
	limits  domain.Limits
}

func NewAdGate(ledger Ledger, windows *WindowCounter, limits domain.Limits) *AdGate {
	return &AdGate{ledger: ledger, windows: windows, limits: limits}
}

// Evaluate returns the verdict for userID at now.
func (g *AdGate) Evaluate(ctx context.Context, userID string, now time.Time) (domain.AdVerdict, error) {
	v, _, err := g.evaluate(ctx, userID, now)
	return v, err
}

func (g *AdGate) evaluate(ctx context.Context, userID string, now time.Time) (domain.AdVerdict, *domain.User, error) {
	u, err := g.ledger.GetUser(ctx, userID)
	if err != nil {
		return domain.AdVerdict{}, nil, err
	}
	view, _ := u.WithDailyReset(now)

	hour, err := g.windows.Ads(ctx, userID, HourlyAds, now)
	if err != nil {
		return domain.AdVerdict{}, nil, fmt.Errorf("hourly window: %w", err)
	}

	v := domain.EvaluateAd(domain.AdSnapshot{
		AdsToday: view.AdsToday,
		LastHour: hour,
		LastAdAt: view.LastAdAt,
	}, g.limits, now)
	return v, &view, nil
}
