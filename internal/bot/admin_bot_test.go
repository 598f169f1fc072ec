package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"playearn/internal/domain"
	"playearn/internal/service"
	"playearn/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func newTestBot(t *testing.T) (*AdminBot, *fakeSender, *service.Services, *storage.SqliteStorage) {
	t.Helper()
	service.InitJWT("bot-test")

	st, err := storage.NewSqliteStorage(storage.MemoryDSN(strings.ReplaceAll(t.Name(), "/", "_")))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	svc := service.NewServices(st, domain.DefaultLimits(), nil)
	out := &fakeSender{}
	b := newAdminBot(out, svc.Admin, []int64{100, 200})
	return b, out, svc, st
}

func seedEligible(t *testing.T, st *storage.SqliteStorage, id string, now time.Time) {
	t.Helper()
	err := st.CreateUser(context.Background(), &domain.User{
		ID: id, Name: "Player " + id, Email: id + "@example.com", DeviceID: "dev-" + id,
		Status: domain.UserStatusActive, Coins: 150000, TotalPlaySeconds: 3600, DistinctGames: 3,
		AdsToday: 5, DailyUnlocked: true, FirstGameAdDone: true, LastDailyReset: now, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestIsAdmin(t *testing.T) {
	b, _, _, _ := newTestBot(t)
	if !b.isAdmin(100) || b.isAdmin(300) {
		t.Fatalf("admin list not respected")
	}
}

func TestWithdrawalCommands(t *testing.T) {
	b, _, svc, st := newTestBot(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedEligible(t, st, "u1", now)

	w, err := svc.Withdrawals.Create(ctx, service.WithdrawalRequest{
		UserID: "u1", AmountCents: 1000, Method: "paypal", Destination: "u1@pay",
	}, now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	list := b.handleCommand(ctx, 100, "withdrawals", "")
	if !strings.Contains(list, w.ID) || !strings.Contains(list, "10.00") {
		t.Fatalf("pending list missing withdrawal:\n%s", list)
	}

	stats := b.handleCommand(ctx, 100, "stats", "")
	if !strings.Contains(stats, "Pending withdrawals: 1") {
		t.Fatalf("unexpected stats:\n%s", stats)
	}

	res := b.handleCommand(ctx, 100, "reject", w.ID+" duplicate account")
	if !strings.Contains(res, "rejected") {
		t.Fatalf("unexpected reject reply: %s", res)
	}
	got, _ := st.GetWithdrawal(ctx, w.ID)
	if got.Status != domain.WithdrawalRejected || got.RejectReason != "duplicate account" {
		t.Fatalf("unexpected withdrawal %+v", got)
	}
	if u, _ := st.GetUser(ctx, "u1"); u.Coins != 150000 {
		t.Fatalf("reject must refund, got %d", u.Coins)
	}

	if res := b.handleCommand(ctx, 100, "approve", w.ID); !strings.Contains(res, "Error") {
		t.Fatalf("approving a rejected withdrawal must fail, got %s", res)
	}
	if res := b.handleCommand(ctx, 100, "approve", ""); !strings.Contains(res, "Usage") {
		t.Fatalf("expected usage, got %s", res)
	}
}

func TestUserCommands(t *testing.T) {
	b, _, _, st := newTestBot(t)
	ctx := context.Background()
	seedEligible(t, st, "u1", time.Now().UTC())

	if err := st.FlagUser(ctx, &domain.FraudFlag{ID: "f1", UserID: "u1", Type: domain.FraudTypeHighAdRate, Details: "6 ads in 10m0s", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("flag: %v", err)
	}

	suspects := b.handleCommand(ctx, 100, "suspects", "")
	if !strings.Contains(suspects, "u1") || !strings.Contains(suspects, domain.FraudTypeHighAdRate) {
		t.Fatalf("unexpected suspects:\n%s", suspects)
	}
	b.handleCommand(ctx, 100, "clear", "u1")
	if u, _ := st.GetUser(ctx, "u1"); u.Suspect {
		t.Fatalf("clear did not lift the flag")
	}

	b.handleCommand(ctx, 100, "ban", "u1")
	if u, _ := st.GetUser(ctx, "u1"); u.Status != domain.UserStatusBanned {
		t.Fatalf("ban did not apply")
	}
	b.handleCommand(ctx, 100, "unban", "u1")
	if u, _ := st.GetUser(ctx, "u1"); u.Status != domain.UserStatusActive {
		t.Fatalf("unban did not apply")
	}

	info := b.handleCommand(ctx, 100, "user", "u1")
	if !strings.Contains(info, "15.00") || !strings.Contains(info, "dev-u1") {
		t.Fatalf("unexpected user info:\n%s", info)
	}
	if res := b.handleCommand(ctx, 100, "nope", ""); !strings.Contains(res, "Unknown command") {
		t.Fatalf("unexpected reply %s", res)
	}
}

func TestNotifySendsToEveryAdmin(t *testing.T) {
	b, out, _, _ := newTestBot(t)

	b.Notify(context.Background(), domain.AdminEvent{
		Type:   domain.EventWithdrawalRequested,
		UserID: "u1",
		Withdrawal: &domain.Withdrawal{
			ID: "w1", UserID: "u1", AmountCents: 1000, CoinsDeducted: 100000, Method: "paypal", Destination: "<x>",
		},
	})
	b.Notify(context.Background(), domain.AdminEvent{Type: domain.EventWithdrawalResolved, UserID: "u1"})
	b.wg.Wait()

	out.mu.Lock()
	defer out.mu.Unlock()
	if len(out.sent) != 2 {
		t.Fatalf("expected one message per admin, got %d", len(out.sent))
	}
	if out.sent[0].ChatID != 100 && out.sent[0].ChatID != 200 {
		t.Fatalf("unexpected chat %d", out.sent[0].ChatID)
	}
	if !strings.Contains(out.sent[0].Text, "&lt;x&gt;") || out.sent[0].ParseMode != "HTML" {
		t.Fatalf("destination must be escaped: %s", out.sent[0].Text)
	}
}
