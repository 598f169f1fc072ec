package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AdCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ad_completions_total",
			Help: "Completed ads by outcome (rewarded, unrewarded, denied)",
		},
		[]string{"outcome"},
	)
	AdRewardCoins = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ad_reward_coins_total",
			Help: "Coins granted for rewarded ads",
		},
	)
	FraudFlags = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fraud_flags_total",
			Help: "Users flagged by the fraud detector",
		},
	)
	WithdrawalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_requests_total",
			Help: "Withdrawal requests by result (created, ineligible, error)",
		},
		[]string{"result"},
	)
	WithdrawalViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_violations_total",
			Help: "Failed withdrawal checks by violation code",
		},
		[]string{"code"},
	)
	WithdrawalResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawal_resolutions_total",
			Help: "Withdrawal resolutions by outcome",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(AdCompletions)
	prometheus.MustRegister(AdRewardCoins)
	prometheus.MustRegister(FraudFlags)
	prometheus.MustRegister(WithdrawalRequests)
	prometheus.MustRegister(WithdrawalViolations)
	prometheus.MustRegister(WithdrawalResolutions)
}
