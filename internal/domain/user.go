package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusBanned UserStatus = "banned"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	DeviceID     string     `db:"device_id" json:"device_id"`
	Status       UserStatus `db:"status" json:"status"`

	Coins            int64 `db:"coins" json:"coins"`
	TotalPlaySeconds int64 `db:"total_play_seconds" json:"total_play_seconds"`
	DistinctGames    int   `db:"distinct_games" json:"distinct_games"`

	AdsToday        int   `db:"ads_today" json:"ads_today"`
	BonusAdsToday   int   `db:"bonus_ads_today" json:"bonus_ads_today"`
	DailyUnlocked   bool  `db:"daily_unlocked" json:"daily_unlocked"`
	FirstGameAdDone bool  `db:"first_game_ad_done" json:"first_game_ad_done"`
	AdsTotal        int64 `db:"ads_total" json:"ads_total"`

	Suspect        bool       `db:"suspect" json:"suspect"`
	LastAdAt       *time.Time `db:"last_ad_at" json:"last_ad_at,omitempty"`
	LastDailyReset time.Time  `db:"last_daily_reset" json:"last_daily_reset"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// MoneyBalance is the coin balance expressed in currency units.
func (u User) MoneyBalance() decimal.Decimal {
	return CoinsToMoney(u.Coins)
}

// PlayTime returns the accumulated play time.
func (u User) PlayTime() time.Duration {
	return time.Duration(u.TotalPlaySeconds) * time.Second
}

// WithDailyReset returns a copy with the per-day counters cleared when the
// last reset happened before the UTC day containing now. The second value
// reports whether a reset was applied.
func (u User) WithDailyReset(now time.Time) (User, bool) {
	if !u.LastDailyReset.Before(StartOfDay(now)) {
		return u, false
	}
	u.AdsToday = 0
	u.BonusAdsToday = 0
	u.DailyUnlocked = false
	u.FirstGameAdDone = false
	u.LastDailyReset = now.UTC()
	return u, true
}

// StartOfDay returns UTC midnight of the day containing t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextDay returns UTC midnight of the day after t.
func NextDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
