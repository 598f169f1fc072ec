package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"playearn/internal/domain"
)

func hasViolation(v domain.WithdrawalVerdict, code string) bool {
	for _, x := range v.Violations {
		if x.Code == code {
			return true
		}
	}
	return false
}

func request(userID string, cents int64) WithdrawalRequest {
	return WithdrawalRequest{UserID: userID, AmountCents: cents, Method: "paypal", Destination: userID + "@pay.example"}
}

func TestWithdrawalCreateAndReject(t *testing.T) {
	svc, st := newTestServices(t)
	seedUser(t, st, "u1", "dev-1", nil)
	ctx := context.Background()

	w, err := svc.Withdrawals.Create(ctx, request("u1", 1000), testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.Status != domain.WithdrawalPending || w.CoinsDeducted != 100000 || w.DeviceID != "dev-1" {
		t.Fatalf("unexpected withdrawal %+v", w)
	}
	if got := mustUser(t, st, "u1").Coins; got != 50000 {
		t.Fatalf("expected 50000 coins after debit, got %d", got)
	}

	pending, err := svc.Admin.GetPendingWithdrawals(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != w.ID || pending[0].Amount != "10.00" {
		t.Fatalf("unexpected pending list %+v", pending)
	}

	rejected, err := svc.Withdrawals.Resolve(ctx, "admin", w.ID, domain.WithdrawalReject, "", testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.WithdrawalRejected || rejected.RejectReason == "" || rejected.ProcessedAt == nil {
		t.Fatalf("unexpected rejected withdrawal %+v", rejected)
	}
	if got := mustUser(t, st, "u1").Coins; got != 150000 {
		t.Fatalf("rejection must refund, got %d coins", got)
	}

	if _, err := svc.Withdrawals.Resolve(ctx, "admin", w.ID, domain.WithdrawalApprove, "", testNow.Add(2*time.Hour)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got := mustUser(t, st, "u1").Coins; got != 150000 {
		t.Fatalf("failed transition must not move coins, got %d", got)
	}
	if _, err := svc.Withdrawals.Resolve(ctx, "admin", "missing", domain.WithdrawalApprove, "", testNow); !errors.Is(err, domain.ErrWithdrawalNotFound) {
		t.Fatalf("expected ErrWithdrawalNotFound, got %v", err)
	}
	if _, err := svc.Withdrawals.Resolve(ctx, "admin", w.ID, domain.WithdrawalAction("hold"), "", testNow); !errors.Is(err, domain.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestWithdrawalApproveKeepsDebit(t *testing.T) {
	svc, st := newTestServices(t)
	seedUser(t, st, "u1", "dev-1", nil)
	ctx := context.Background()

	w, err := svc.Withdrawals.Create(ctx, request("u1", 1200), testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	done, err := svc.Withdrawals.Resolve(ctx, "admin", w.ID, domain.WithdrawalApprove, "ignored", testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if done.Status != domain.WithdrawalProcessed || done.RejectReason != "" {
		t.Fatalf("unexpected processed withdrawal %+v", done)
	}
	if got := mustUser(t, st, "u1").Coins; got != 30000 {
		t.Fatalf("approval keeps the debit, got %d coins", got)
	}

	list, err := svc.Withdrawals.ListForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != domain.WithdrawalProcessed {
		t.Fatalf("unexpected history %+v", list)
	}
}

func TestWithdrawalIneligibleUser(t *testing.T) {
	svc, st := newTestServices(t)
	seedUser(t, st, "u1", "dev-1", freshUser)

	_, err := svc.Withdrawals.Create(context.Background(), request("u1", 1000), testNow)
	var ee *domain.EligibilityError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EligibilityError, got %v", err)
	}

	want := []string{
		domain.ViolationDailyAdsRequired,
		domain.ViolationEntryAdRequired,
		domain.ViolationMinBalance,
		domain.ViolationInsufficientBalance,
		domain.ViolationMinPlayTime,
		domain.ViolationMinGames,
	}
	if len(ee.Violations) != len(want) {
		t.Fatalf("expected %d violations, got %+v", len(want), ee.Violations)
	}
	for i, code := range want {
		if ee.Violations[i].Code != code {
			t.Fatalf("violation %d: expected %s, got %s", i, code, ee.Violations[i].Code)
		}
	}

	list, err := svc.Withdrawals.ListForUser(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("ineligible request must not be stored")
	}
}

func TestWithdrawalValidation(t *testing.T) {
	svc, st := newTestServices(t)
	seedUser(t, st, "u1", "dev-1", nil)
	ctx := context.Background()

	if _, err := svc.Withdrawals.Create(ctx, request("u1", 0), testNow); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	req := request("u1", 1000)
	req.Destination = "  "
	if _, err := svc.Withdrawals.Create(ctx, req, testNow); !errors.Is(err, domain.ErrInvalidDestination) {
		t.Fatalf("expected ErrInvalidDestination, got %v", err)
	}
	if _, err := svc.Withdrawals.Create(ctx, request("ghost", 1000), testNow); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestWithdrawalSuspectUnderReview(t *testing.T) {
	svc, st := newTestServices(t)
	seedUser(t, st, "u1", "dev-1", func(u *domain.User) { u.Suspect = true })
	ctx := context.Background()

	v, err := svc.Withdrawals.Evaluate(ctx, "u1", 1000, testNow)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v.OK || !hasViolation(v, domain.ViolationUnderReview) {
		t.Fatalf("suspect must be under review, got %+v", v)
	}

	if err := svc.Admin.ClearSuspect(ctx, "admin", "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	v, err = svc.Withdrawals.Evaluate(ctx, "u1", 1000, testNow)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !v.OK {
		t.Fatalf("cleared user should be eligible, got %+v", v.Violations)
	}
}

func TestWithdrawalDeviceCooldown(t *testing.T) {
	svc, st := newTestServices(t)
	seedUser(t, st, "a", "shared-device", nil)
	seedUser(t, st, "b", "shared-device", nil)
	seedUser(t, st, "c", "shared-device", nil)
	ctx := context.Background()

	// A rejected withdrawal never starts the cooldown.
	wc, err := svc.Withdrawals.Create(ctx, request("c", 1000), testNow)
	if err != nil {
		t.Fatalf("create c: %v", err)
	}
	if _, err := svc.Withdrawals.Resolve(ctx, "admin", wc.ID, domain.WithdrawalReject, "dup", testNow); err != nil {
		t.Fatalf("reject c: %v", err)
	}
	v, err := svc.Withdrawals.Evaluate(ctx, "b", 1000, testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if hasViolation(v, domain.ViolationDeviceCooldown) {
		t.Fatalf("rejected withdrawal must not block the device")
	}

	wa, err := svc.Withdrawals.Create(ctx, request("a", 1000), testNow)
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	processedAt := testNow.Add(time.Hour)
	if _, err := svc.Withdrawals.Resolve(ctx, "admin", wa.ID, domain.WithdrawalApprove, "", processedAt); err != nil {
		t.Fatalf("approve a: %v", err)
	}

	cases := []struct {
		name  string
		after time.Duration
		block bool
	}{
		{"47h later", 47 * time.Hour, true},
		{"49h later", 49 * time.Hour, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := svc.Withdrawals.Evaluate(ctx, "b", 1000, processedAt.Add(tc.after))
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if got := hasViolation(v, domain.ViolationDeviceCooldown); got != tc.block {
				t.Fatalf("device cooldown: expected %v, got %v (%+v)", tc.block, got, v.Violations)
			}
		})
	}
}

func TestWithdrawalWeeklyCap(t *testing.T) {
	svc, st := newTestServices(t)
	seedUser(t, st, "u1", "dev-1", func(u *domain.User) { u.Coins = 400000 })
	ctx := context.Background()

	w, err := svc.Withdrawals.Create(ctx, request("u1", 1500), testNow)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Withdrawals.Resolve(ctx, "admin", w.ID, domain.WithdrawalApprove, "", testNow); err != nil {
		t.Fatalf("approve: %v", err)
	}

	v, err := svc.Withdrawals.Evaluate(ctx, "u1", 1000, testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !hasViolation(v, domain.ViolationWeeklyLimit) {
		t.Fatalf("15 + 10 must exceed the weekly cap, got %+v", v.Violations)
	}

	v, err = svc.Withdrawals.Evaluate(ctx, "u1", 500, testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if hasViolation(v, domain.ViolationWeeklyLimit) {
		t.Fatalf("15 + 5 fits the weekly cap, got %+v", v.Violations)
	}

	v, err = svc.Withdrawals.Evaluate(ctx, "u1", 1000, testNow.Add(8*24*time.Hour))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if hasViolation(v, domain.ViolationWeeklyLimit) {
		t.Fatalf("withdrawals older than a week must not count")
	}
}

func TestWithdrawalApproveEnforcesWeeklyCap(t *testing.T) {
	svc, st := newTestServices(t)
	seedUser(t, st, "u1", "dev-1", func(u *domain.User) { u.Coins = 400000 })
	ctx := context.Background()

	// Both requests pass the gate while nothing is processed yet.
	first, err := svc.Withdrawals.Create(ctx, request("u1", 1500), testNow)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Withdrawals.Create(ctx, request("u1", 1500), testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if _, err := svc.Withdrawals.Resolve(ctx, "admin", first.ID, domain.WithdrawalApprove, "", testNow.Add(time.Hour)); err != nil {
		t.Fatalf("approve first: %v", err)
	}
	_, err = svc.Withdrawals.Resolve(ctx, "admin", second.ID, domain.WithdrawalApprove, "", testNow.Add(2*time.Hour))
	if !errors.Is(err, domain.ErrWeeklyCapExceeded) {
		t.Fatalf("expected ErrWeeklyCapExceeded, got %v", err)
	}

	got, err := svc.Withdrawals.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.WithdrawalPending || got.ProcessedAt != nil {
		t.Fatalf("refused approval must leave the withdrawal pending, got %+v", got)
	}
	sum, err := st.ProcessedWithdrawalSum(ctx, "u1", testNow.Add(-domain.WeeklyWindow))
	if err != nil {
		t.Fatalf("processed sum: %v", err)
	}
	if sum != 1500 {
		t.Fatalf("expected 1500 cents processed, got %d", sum)
	}

	if _, err := svc.Withdrawals.Resolve(ctx, "admin", second.ID, domain.WithdrawalReject, "weekly cap", testNow.Add(3*time.Hour)); err != nil {
		t.Fatalf("reject second: %v", err)
	}
	if got := mustUser(t, st, "u1").Coins; got != 250000 {
		t.Fatalf("expected 250000 coins after refund, got %d", got)
	}
}

func TestConcurrentWithdrawalsDebitOnce(t *testing.T) {
	svc, st := newTestServices(t)
	seedUser(t, st, "u1", "dev-1", nil)
	ctx := context.Background()

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdrawals.Create(ctx, request("u1", 1000), testNow)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one withdrawal, got %d", ok)
	}
	if got := mustUser(t, st, "u1").Coins; got != 50000 {
		t.Fatalf("expected 50000 coins, got %d", got)
	}
}
