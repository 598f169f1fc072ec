package domain

import (
	"fmt"
	"math"
	"time"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalProcessed WithdrawalStatus = "processed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

// WeeklyWindow is the trailing span the weekly withdrawal cap applies to.
const WeeklyWindow = 7 * 24 * time.Hour

type WithdrawalAction string

const (
	WithdrawalApprove WithdrawalAction = "approve"
	WithdrawalReject  WithdrawalAction = "reject"
)

// Target returns the status an action moves a pending withdrawal to.
func (a WithdrawalAction) Target() (WithdrawalStatus, error) {
	switch a {
	case WithdrawalApprove:
		return WithdrawalProcessed, nil
	case WithdrawalReject:
		return WithdrawalRejected, nil
	}
	return "", ErrInvalidAction
}

// Resolution is an admin decision on a pending withdrawal. When
// WeeklyCapCents is positive an approval is refused if the user's processed
// total over WeeklyWindow would exceed it.
type Resolution struct {
	Status         WithdrawalStatus
	Reason         string
	At             time.Time
	WeeklyCapCents int64
}

type Withdrawal struct {
	ID            string           `db:"id" json:"id"`
	UserID        string           `db:"user_id" json:"user_id"`
	DeviceID      string           `db:"device_id" json:"device_id"`
	AmountCents   int64            `db:"amount_cents" json:"amount_cents"`
	CoinsDeducted int64            `db:"coins_deducted" json:"coins_deducted"`
	Method        string           `db:"method" json:"method"`
	Destination   string           `db:"destination" json:"destination"`
	Status        WithdrawalStatus `db:"status" json:"status"`
	RejectReason  string           `db:"reject_reason" json:"reject_reason,omitempty"`
	RequestedAt   time.Time        `db:"requested_at" json:"requested_at"`
	ProcessedAt   *time.Time       `db:"processed_at" json:"processed_at,omitempty"`
}

// Amount returns the requested amount as a two-decimal string.
func (w Withdrawal) Amount() string {
	return FormatCents(w.AmountCents)
}

// Violation codes.
const (
	ViolationAccountInactive     = "account_inactive"
	ViolationDailyAdsRequired    = "daily_ads_required"
	ViolationEntryAdRequired     = "entry_ad_required"
	ViolationMinBalance          = "min_balance"
	ViolationInsufficientBalance = "insufficient_balance"
	ViolationMinPlayTime         = "min_play_time"
	ViolationMinGames            = "min_games"
	ViolationUnderReview         = "under_review"
	ViolationDeviceCooldown      = "device_cooldown"
	ViolationWeeklyLimit         = "weekly_limit"
)

type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WithdrawalSnapshot is everything the withdrawal gate needs to decide.
type WithdrawalSnapshot struct {
	User                  User
	RequestedCents        int64
	LastDeviceProcessedAt *time.Time
	WeeklyProcessedCents  int64
}

type WithdrawalVerdict struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations"`
}

// Messages returns the human readable reasons.
func (v WithdrawalVerdict) Messages() []string {
	out := make([]string, 0, len(v.Violations))
	for _, x := range v.Violations {
		out = append(out, x.Message)
	}
	return out
}

// EvaluateWithdrawal runs every withdrawal check and collects all failures.
func EvaluateWithdrawal(s WithdrawalSnapshot, l Limits, now time.Time) WithdrawalVerdict {
	var out []Violation
	add := func(code, format string, args ...any) {
		out = append(out, Violation{Code: code, Message: fmt.Sprintf(format, args...)})
	}
	u := s.User

	if u.Status != UserStatusActive {
		add(ViolationAccountInactive, "account is not active")
	}
	if !u.DailyUnlocked {
		add(ViolationDailyAdsRequired, "watch %d ads today to unlock withdrawals", l.DailyUnlockAds)
	}
	if !u.FirstGameAdDone {
		add(ViolationEntryAdRequired, "watch the game entry ad today")
	}
	if u.Coins < CentsToCoins(l.MinWithdrawCents) {
		add(ViolationMinBalance, "minimum balance is %s", FormatCents(l.MinWithdrawCents))
	}
	if CentsToCoins(s.RequestedCents) > u.Coins {
		add(ViolationInsufficientBalance, "requested %s exceeds balance %s",
			FormatCents(s.RequestedCents), u.MoneyBalance().StringFixed(2))
	}
	if u.PlayTime() < l.MinPlayTime {
		add(ViolationMinPlayTime, "play at least %d minutes (played %d)",
			int(l.MinPlayTime.Minutes()), int(u.PlayTime().Minutes()))
	}
	if u.DistinctGames < l.MinDistinctGames {
		add(ViolationMinGames, "play at least %d different games (played %d)", l.MinDistinctGames, u.DistinctGames)
	}
	if u.Suspect {
		add(ViolationUnderReview, "account under review")
	}
	if s.LastDeviceProcessedAt != nil {
		since := now.Sub(*s.LastDeviceProcessedAt)
		if since < l.DeviceCooldown {
			wait := math.Ceil((l.DeviceCooldown - since).Hours())
			add(ViolationDeviceCooldown, "this device withdrew recently, wait %dh", int(wait))
		}
	}
	if s.WeeklyProcessedCents+s.RequestedCents > l.WeeklyWithdrawCapCents {
		add(ViolationWeeklyLimit, "weekly limit is %s (already withdrawn %s)",
			FormatCents(l.WeeklyWithdrawCapCents), FormatCents(s.WeeklyProcessedCents))
	}

	return WithdrawalVerdict{OK: len(out) == 0, Violations: out}
}
