package domain

import "time"

// CoinsPerUnit is the fixed conversion rate between coins and one currency unit.
const CoinsPerUnit int64 = 10000

// coinsPerCent converts between coins and the smallest money unit we store.
const coinsPerCent = CoinsPerUnit / 100

// Limits holds every tunable threshold of the reward and withdrawal gates.
type Limits struct {
	StandardRewardCoins int64
	BonusRewardCoins    int64
	BonusAdsPerDay      int

	AdCooldown     time.Duration
	HourlyAdLimit  int
	DailyAdLimit   int
	DailyUnlockAds int

	MinWithdrawCents       int64
	WeeklyWithdrawCapCents int64
	DeviceCooldown         time.Duration
	MinPlayTime            time.Duration
	MinDistinctGames       int

	FraudWindow          time.Duration
	FraudMinEvents       int
	FraudMaxAdsPerMinute float64

	LevelCompleteCoins int64
}

// DefaultLimits returns the production thresholds.
func DefaultLimits() Limits {
	return Limits{
		StandardRewardCoins: 200,
		BonusRewardCoins:    5000,
		BonusAdsPerDay:      5,

		AdCooldown:     45 * time.Second,
		HourlyAdLimit:  15,
		DailyAdLimit:   80,
		DailyUnlockAds: 5,

		MinWithdrawCents:       1000,
		WeeklyWithdrawCapCents: 2000,
		DeviceCooldown:         48 * time.Hour,
		MinPlayTime:            60 * time.Minute,
		MinDistinctGames:       3,

		FraudWindow:          10 * time.Minute,
		FraudMinEvents:       5,
		FraudMaxAdsPerMinute: 0.5,

		LevelCompleteCoins: 50,
	}
}
