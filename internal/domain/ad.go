package domain

import "time"

type AdType string

const (
	AdTypeRewarded     AdType = "rewarded"
	AdTypeInterstitial AdType = "interstitial"
	AdTypeBanner       AdType = "banner"
)

// Valid reports whether t is an ad format the platform serves.
func (t AdType) Valid() bool {
	switch t {
	case AdTypeRewarded, AdTypeInterstitial, AdTypeBanner:
		return true
	}
	return false
}

// Verdict reasons.
const (
	ReasonOK                 = "ok"
	ReasonDailyLimitReached  = "daily_limit_reached"
	ReasonHourlyLimitReached = "hourly_limit_reached"
	ReasonCooldown           = "cooldown"
)

// AdEvent is one completed ad view. Events are never modified after insert.
type AdEvent struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	AdType      AdType    `db:"ad_type" json:"ad_type"`
	GameID      string    `db:"game_id" json:"game_id,omitempty"`
	RewardCoins int64     `db:"reward_coins" json:"reward_coins"`
	Rewarded    bool      `db:"rewarded" json:"rewarded"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AdWatch is the set of changes recorded atomically for one completed ad.
type AdWatch struct {
	Event AdEvent
	// BonusUsed consumes one slot of the first-N bonus counter.
	BonusUsed bool
	// UnlockThreshold is the ads_today value at which daily access unlocks.
	UnlockThreshold int
}

// WindowCount summarises the events inside a trailing time window.
type WindowCount struct {
	Count    int
	SumCoins int64
	Oldest   *time.Time
}

// AdSnapshot is the per-user state the ad gate decides on.
type AdSnapshot struct {
	AdsToday int
	LastHour WindowCount
	LastAdAt *time.Time
}

type AdVerdict struct {
	Allow            bool       `json:"allow"`
	AllowReward      bool       `json:"allow_reward"`
	Reason           string     `json:"reason"`
	NextAllowedAt    *time.Time `json:"next_allowed_at,omitempty"`
	SecondsRemaining int        `json:"seconds_remaining,omitempty"`
	AdsToday         int        `json:"ads_today"`
	AdsLastHour      int        `json:"ads_last_hour"`
}

// EvaluateAd applies the ad rules in order: daily cap, hourly cap, cooldown.
// The first rule that matches decides the verdict.
func EvaluateAd(s AdSnapshot, l Limits, now time.Time) AdVerdict {
	v := AdVerdict{AdsToday: s.AdsToday, AdsLastHour: s.LastHour.Count}

	if s.AdsToday >= l.DailyAdLimit {
		next := NextDay(now)
		v.Allow = true
		v.Reason = ReasonDailyLimitReached
		v.NextAllowedAt = &next
		return v
	}

	if s.LastHour.Count >= l.HourlyAdLimit {
		v.Allow = true
		v.Reason = ReasonHourlyLimitReached
		if s.LastHour.Oldest != nil {
			next := s.LastHour.Oldest.Add(time.Hour)
			v.NextAllowedAt = &next
		}
		return v
	}

	if s.LastAdAt != nil {
		elapsed := now.Sub(*s.LastAdAt)
		if elapsed < l.AdCooldown {
			next := s.LastAdAt.Add(l.AdCooldown)
			v.Reason = ReasonCooldown
			v.NextAllowedAt = &next
			v.SecondsRemaining = int((l.AdCooldown - elapsed) / time.Second)
			return v
		}
	}

	v.Allow = true
	v.AllowReward = true
	v.Reason = ReasonOK
	return v
}
