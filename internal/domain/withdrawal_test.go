package domain

import (
	"testing"
	"time"
)

func eligibleUser() User {
	return User{
		ID:               "u1",
		Status:           UserStatusActive,
		DeviceID:         "dev-1",
		Coins:            150000,
		TotalPlaySeconds: 3600,
		DistinctGames:    3,
		DailyUnlocked:    true,
		FirstGameAdDone:  true,
	}
}

func codes(v WithdrawalVerdict) map[string]bool {
	m := make(map[string]bool)
	for _, x := range v.Violations {
		m[x.Code] = true
	}
	return m
}

func TestEvaluateWithdrawalEligible(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	v := EvaluateWithdrawal(WithdrawalSnapshot{User: eligibleUser(), RequestedCents: 1000}, DefaultLimits(), now)
	if !v.OK || len(v.Violations) != 0 {
		t.Fatalf("expected eligible, got %+v", v.Violations)
	}
}

func TestEvaluateWithdrawalAccumulates(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	u := User{Status: UserStatusActive, Coins: 50000, TotalPlaySeconds: 600, DistinctGames: 1, Suspect: true}
	v := EvaluateWithdrawal(WithdrawalSnapshot{User: u, RequestedCents: 1000}, DefaultLimits(), now)
	if v.OK {
		t.Fatalf("expected violations")
	}
	got := codes(v)
	for _, want := range []string{
		ViolationDailyAdsRequired,
		ViolationEntryAdRequired,
		ViolationMinBalance,
		ViolationInsufficientBalance,
		ViolationMinPlayTime,
		ViolationMinGames,
		ViolationUnderReview,
	} {
		if !got[want] {
			t.Fatalf("missing violation %s in %+v", want, v.Violations)
		}
	}
	if len(v.Messages()) != len(v.Violations) {
		t.Fatalf("messages out of sync")
	}
}

func TestEvaluateWithdrawalDeviceCooldown(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := DefaultLimits()

	recent := now.Add(-47 * time.Hour)
	v := EvaluateWithdrawal(WithdrawalSnapshot{User: eligibleUser(), RequestedCents: 1000, LastDeviceProcessedAt: &recent}, l, now)
	if !codes(v)[ViolationDeviceCooldown] {
		t.Fatalf("expected device cooldown, got %+v", v.Violations)
	}

	old := now.Add(-49 * time.Hour)
	v = EvaluateWithdrawal(WithdrawalSnapshot{User: eligibleUser(), RequestedCents: 1000, LastDeviceProcessedAt: &old}, l, now)
	if !v.OK {
		t.Fatalf("expected eligible after cooldown, got %+v", v.Violations)
	}
}

func TestEvaluateWithdrawalWeeklyCap(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := DefaultLimits()

	v := EvaluateWithdrawal(WithdrawalSnapshot{User: eligibleUser(), RequestedCents: 1000, WeeklyProcessedCents: 1500}, l, now)
	if !codes(v)[ViolationWeeklyLimit] {
		t.Fatalf("15.00 + 10.00 must exceed the weekly cap")
	}

	v = EvaluateWithdrawal(WithdrawalSnapshot{User: eligibleUser(), RequestedCents: 1000, WeeklyProcessedCents: 1000}, l, now)
	if !v.OK {
		t.Fatalf("10.00 + 10.00 is exactly the cap, got %+v", v.Violations)
	}
}

func TestWithdrawalActionTarget(t *testing.T) {
	if s, err := WithdrawalApprove.Target(); err != nil || s != WithdrawalProcessed {
		t.Fatalf("approve: %v %v", s, err)
	}
	if s, err := WithdrawalReject.Target(); err != nil || s != WithdrawalRejected {
		t.Fatalf("reject: %v %v", s, err)
	}
	if _, err := WithdrawalAction("cancel").Target(); err != ErrInvalidAction {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}
