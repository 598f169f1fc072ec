package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"playearn/internal/domain"
	"playearn/internal/storage"
)

var (
	_ Store = (*storage.SqliteStorage)(nil)

	testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
)

func newTestServices(t *testing.T) (*Services, *storage.SqliteStorage) {
	t.Helper()
	InitJWT("test-secret")

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := storage.NewSqliteStorage(storage.MemoryDSN(name))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return NewServices(st, domain.DefaultLimits(), []string{"admin@example.com"}), st
}

// seedUser inserts a user that already passes every withdrawal check.
func seedUser(t *testing.T, st *storage.SqliteStorage, id, device string, mutate func(u *domain.User)) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:               id,
		Name:             "user " + id,
		Email:            id + "@example.com",
		PasswordHash:     "x",
		DeviceID:         device,
		Status:           domain.UserStatusActive,
		Coins:            150000,
		TotalPlaySeconds: 3600,
		DistinctGames:    3,
		AdsToday:         5,
		DailyUnlocked:    true,
		FirstGameAdDone:  true,
		LastDailyReset:   testNow,
		CreatedAt:        testNow.Add(-24 * time.Hour),
	}
	if mutate != nil {
		mutate(u)
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return u
}

func mustUser(t *testing.T, st *storage.SqliteStorage, id string) *domain.User {
	t.Helper()
	u, err := st.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("get user %s: %v", id, err)
	}
	return u
}

func freshUser(u *domain.User) {
	u.Coins = 0
	u.TotalPlaySeconds = 0
	u.DistinctGames = 0
	u.AdsToday = 0
	u.DailyUnlocked = false
	u.FirstGameAdDone = false
}
