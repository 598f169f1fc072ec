package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"playearn/internal/domain"
	"playearn/internal/logger"

	"github.com/google/uuid"
)

// AdService records completed ads and pays rewards.
type AdService struct {
	ledger Ledger
	gate   *AdGate
	fraud  *FraudDetector
	limits domain.Limits
	locks  *userLocks
	log    *slog.Logger
}

var ErrUnknownPeriod = errors.New("unknown ranking period")

func NewAdService(ledger Ledger, gate *AdGate, fraud *FraudDetector, limits domain.Limits) *AdService {
	return &AdService{
		ledger: ledger,
		gate:   gate,
		fraud:  fraud,
		limits: limits,
		locks:  newUserLocks(),
		log:    logger.With("component", "ad_service"),
	}
}

// Request is the client's pre-check before showing an ad.
func (s *AdService) Request(ctx context.Context, userID string, now time.Time) (domain.AdVerdict, error) {
	return s.gate.Evaluate(ctx, userID, now)
}

// CompleteAd records an ad the user finished watching. The verdict is always
// derived again here; a client pre-check is never trusted.
func (s *AdService) CompleteAd(ctx context.Context, userID string, adType domain.AdType, gameID string, now time.Time) (*domain.AdCompletion, error) {
	if !adType.Valid() {
		return nil, domain.ErrInvalidAdType
	}
	if gameID != "" {
		if _, ok := domain.LookupGame(gameID); !ok {
			return nil, domain.ErrUnknownGame
		}
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	if _, err := s.ledger.ResetDaily(ctx, userID, now); err != nil {
		return nil, fmt.Errorf("daily reset: %w", err)
	}

	verdict, user, err := s.gate.evaluate(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	res := &domain.AdCompletion{Reason: verdict.Reason, Verdict: verdict}
	watch := &domain.AdWatch{
		Event: domain.AdEvent{
			ID:        uuid.NewString(),
			UserID:    userID,
			AdType:    adType,
			GameID:    gameID,
			CreatedAt: now,
		},
		UnlockThreshold: s.limits.DailyUnlockAds,
	}
	if verdict.AllowReward {
		coins, bonus := domain.RewardFor(user.BonusAdsToday, s.limits)
		watch.Event.RewardCoins = coins
		watch.Event.Rewarded = true
		watch.BonusUsed = bonus
		res.Granted = true
		res.RewardCoins = coins
		res.Bonus = bonus
	}

	if err := s.ledger.RecordAdWatch(ctx, watch); err != nil {
		return nil, fmt.Errorf("record ad: %w", err)
	}

	switch {
	case res.Granted:
		AdCompletions.WithLabelValues("rewarded").Inc()
		AdRewardCoins.Add(float64(res.RewardCoins))
	case verdict.Allow:
		AdCompletions.WithLabelValues("unrewarded").Inc()
	default:
		AdCompletions.WithLabelValues("denied").Inc()
	}

	if s.fraud != nil {
		flagged, err := s.fraud.Inspect(ctx, userID, now)
		if err != nil {
			s.log.Error("fraud check failed", "user_id", userID, "error", err)
		}
		res.Flagged = flagged
	}

	s.log.Debug("ad completed", "user_id", userID, "granted", res.Granted, "coins", res.RewardCoins, "reason", res.Reason)
	return res, nil
}

// History returns the user's most recent rewarded ads.
func (s *AdService) History(ctx context.Context, userID string, limit int) ([]domain.AdEvent, error) {
	return s.ledger.RecentRewards(ctx, userID, limit)
}

// Ranking returns the top earners of the given period ("today", "week", "month").
func (s *AdService) Ranking(ctx context.Context, period string, limit int, now time.Time) ([]domain.RankEntry, error) {
	var since time.Time
	switch period {
	case "", "today":
		since = domain.StartOfDay(now)
	case "week":
		since = now.Add(-7 * 24 * time.Hour)
	case "month":
		since = now.Add(-30 * 24 * time.Hour)
	default:
		return nil, ErrUnknownPeriod
	}
	return s.ledger.TopEarners(ctx, since, limit)
}
