package domain

import (
	"fmt"
	"time"
)

const FraudTypeHighAdRate = "high_ad_rate"

type FraudFlag struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      string    `db:"flag_type" json:"type"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AdVelocity reports the per-minute ad rate over the fraud window and whether
// it trips the high rate rule.
func AdVelocity(events int, l Limits) (rate float64, suspicious bool) {
	minutes := l.FraudWindow.Minutes()
	if minutes <= 0 {
		return 0, false
	}
	rate = float64(events) / minutes
	return rate, events > l.FraudMinEvents && rate > l.FraudMaxAdsPerMinute
}

// HighAdRateDetails formats the flag details for a velocity trigger.
func HighAdRateDetails(events int, rate float64, window time.Duration) string {
	return fmt.Sprintf("%d ads in %s (%.2f/min)", events, window, rate)
}
