package domain

// RewardFor returns the coins for the next rewarded ad. The bonus tier
// applies while fewer than BonusAdsPerDay bonus ads were granted today.
func RewardFor(bonusAdsToday int, l Limits) (coins int64, bonus bool) {
	if bonusAdsToday < l.BonusAdsPerDay {
		return l.BonusRewardCoins, true
	}
	return l.StandardRewardCoins, false
}

// AdCompletion is the outcome of a completed ad as reported to the client.
type AdCompletion struct {
	Granted     bool      `json:"granted"`
	RewardCoins int64     `json:"reward_coins"`
	Bonus       bool      `json:"bonus"`
	Reason      string    `json:"reason"`
	Flagged     bool      `json:"-"`
	Verdict     AdVerdict `json:"verdict"`
}
