package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"playearn/internal/config"
	"playearn/internal/domain"
	"playearn/internal/service"
	"playearn/internal/storage"

	"github.com/gin-gonic/gin"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *storage.SqliteStorage
	svc    *service.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	service.InitJWT("routes-test")

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := storage.NewSqliteStorage(storage.MemoryDSN(name))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		AllowedOrigin: "*",
		APIRateLimit:  10000,
		AuthRateLimit: 10000,
		AdsRateLimit:  10000,
		RateWindow:    time.Minute,
		Limits:        domain.DefaultLimits(),
	}
	svc := service.NewServices(st, cfg.Limits, []string{"admin@example.com"})

	r := gin.New()
	h := RegisterRoutes(r, Deps{Services: svc, Config: cfg, Version: "test"})
	h.Now = func() time.Time { return testNow }

	return &testServer{router: r, store: st, svc: svc}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// seed inserts a user that passes every withdrawal check and returns a token.
func (s *testServer) seed(t *testing.T, id string) string {
	t.Helper()
	u := &domain.User{
		ID:               id,
		Name:             "user " + id,
		Email:            id + "@example.com",
		PasswordHash:     "x",
		DeviceID:         "dev-" + id,
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
	if err := s.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	token, err := service.GenerateJWT(id, false)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)

	reg := map[string]string{"name": "Ana", "email": "Ana@Example.com", "password": "secret123", "device_id": "dev-a"}
	w := s.do("POST", "/api/v1/auth/register", "", reg)
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	token, _ := decode(t, w)["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}

	if w := s.do("POST", "/api/v1/auth/register", "", reg); w.Code != nethttp.StatusConflict {
		t.Fatalf("duplicate register: %d", w.Code)
	}
	if w := s.do("POST", "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope"}); w.Code != nethttp.StatusUnauthorized {
		t.Fatalf("bad login: %d", w.Code)
	}
	if w := s.do("POST", "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret123"}); w.Code != nethttp.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}

	w = s.do("GET", "/api/v1/me", token, nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("me: %d", w.Code)
	}
	if got := decode(t, w)["money_balance"]; got != "0.00" {
		t.Fatalf("money_balance = %v", got)
	}

	if w := s.do("GET", "/api/v1/me", "", nil); w.Code != nethttp.StatusUnauthorized {
		t.Fatalf("me without token: %d", w.Code)
	}
}

func TestAdRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.seed(t, "u1")

	w := s.do("POST", "/api/v1/ads/request", token, nil)
	if w.Code != nethttp.StatusOK || decode(t, w)["allow_reward"] != true {
		t.Fatalf("request: %d %s", w.Code, w.Body.String())
	}

	w = s.do("POST", "/api/v1/ads/complete", token, map[string]string{"ad_type": "rewarded", "game_id": "memory"})
	if w.Code != nethttp.StatusOK {
		t.Fatalf("complete: %d %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["reward_granted"] != true || body["reward_amount"] != float64(5000) || body["bonus"] != true {
		t.Fatalf("unexpected completion %v", body)
	}
	if body["money_earned"] != "0.5000" {
		t.Fatalf("money_earned = %v", body["money_earned"])
	}

	// second ad inside the cooldown is answered, not rejected
	w = s.do("POST", "/api/v1/ads/complete", token, map[string]string{"ad_type": "rewarded"})
	if w.Code != nethttp.StatusOK {
		t.Fatalf("cooldown complete: %d", w.Code)
	}
	if body := decode(t, w); body["reward_granted"] != false || body["reason"] != domain.ReasonCooldown {
		t.Fatalf("expected cooldown denial, got %v", body)
	}

	if w := s.do("POST", "/api/v1/ads/complete", token, map[string]string{"ad_type": "popup"}); w.Code != nethttp.StatusBadRequest {
		t.Fatalf("bad ad type: %d", w.Code)
	}

	w = s.do("GET", "/api/v1/coins/history", token, nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("history: %d", w.Code)
	}
	if hist, _ := decode(t, w)["history"].([]any); len(hist) != 1 {
		t.Fatalf("history has %d rewards, want 1", len(hist))
	}

	w = s.do("GET", "/api/v1/ranking?period=today", "", nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("ranking: %d", w.Code)
	}
	if w := s.do("GET", "/api/v1/ranking?period=year", "", nil); w.Code != nethttp.StatusBadRequest {
		t.Fatalf("unknown period: %d", w.Code)
	}
}

func TestGameRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.seed(t, "u1")

	if w := s.do("GET", "/api/v1/games", "", nil); w.Code != nethttp.StatusOK {
		t.Fatalf("games: %d", w.Code)
	}
	w := s.do("POST", "/api/v1/game/start", token, map[string]string{"game_id": "memory"})
	if w.Code != nethttp.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	session, _ := decode(t, w)["session_id"].(string)
	if session == "" {
		t.Fatal("start returned no session")
	}
	if w := s.do("POST", "/api/v1/game/start", token, map[string]string{"game_id": "chess"}); w.Code != nethttp.StatusBadRequest {
		t.Fatalf("unknown game: %d", w.Code)
	}
	w = s.do("POST", "/api/v1/game/complete", token, map[string]any{"game_id": "memory", "session_id": session, "session_time": 120, "level_completed": true})
	if w.Code != nethttp.StatusOK {
		t.Fatalf("complete: %d %s", w.Code, w.Body.String())
	}
	if w := s.do("POST", "/api/v1/game/complete", token, map[string]any{"game_id": "memory", "session_id": session, "session_time": 120}); w.Code != nethttp.StatusConflict {
		t.Fatalf("completing a finished session: %d", w.Code)
	}
	if w := s.do("POST", "/api/v1/game/complete", token, map[string]any{"game_id": "memory", "session_time": -1}); w.Code != nethttp.StatusBadRequest {
		t.Fatalf("negative session: %d", w.Code)
	}
}

func TestWithdrawAndAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.seed(t, "u1")
	admin, err := service.GenerateJWT("admin-1", true)
	if err != nil {
		t.Fatal(err)
	}

	w := s.do("POST", "/api/v1/withdraw/check", token, map[string]string{"amount": "10.00"})
	if w.Code != nethttp.StatusOK || decode(t, w)["ok"] != true {
		t.Fatalf("check: %d %s", w.Code, w.Body.String())
	}
	w = s.do("POST", "/api/v1/withdraw/check", token, map[string]string{"amount": "20.00"})
	if body := decode(t, w); body["ok"] != false {
		t.Fatalf("expected insufficient balance, got %v", body)
	}
	if w := s.do("POST", "/api/v1/withdraw/check", token, map[string]string{"amount": "abc"}); w.Code != nethttp.StatusBadRequest {
		t.Fatalf("bad amount: %d", w.Code)
	}

	w = s.do("POST", "/api/v1/withdraw", token, map[string]string{"amount": "10.00", "method": "paypal", "destination": "u1@pay.example"})
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("withdraw: %d %s", w.Code, w.Body.String())
	}
	wd, _ := decode(t, w)["withdrawal"].(map[string]any)
	id, _ := wd["id"].(string)
	if id == "" {
		t.Fatal("withdrawal has no id")
	}

	// a second request fails the balance check
	w = s.do("POST", "/api/v1/withdraw", token, map[string]string{"amount": "10.00", "method": "paypal", "destination": "u1@pay.example"})
	if w.Code != nethttp.StatusUnprocessableEntity {
		t.Fatalf("second withdraw: %d %s", w.Code, w.Body.String())
	}

	if w := s.do("GET", "/api/v1/admin/withdrawals", token, nil); w.Code != nethttp.StatusForbidden {
		t.Fatalf("non-admin list: %d", w.Code)
	}
	w = s.do("GET", "/api/v1/admin/withdrawals", admin, nil)
	if list, _ := decode(t, w)["withdrawals"].([]any); w.Code != nethttp.StatusOK || len(list) != 1 {
		t.Fatalf("admin list: %d %s", w.Code, w.Body.String())
	}

	w = s.do("POST", "/api/v1/admin/withdrawals/"+id+"/reject", admin, map[string]string{"reason": "duplicate"})
	if w.Code != nethttp.StatusOK {
		t.Fatalf("reject: %d %s", w.Code, w.Body.String())
	}
	if w := s.do("POST", "/api/v1/admin/withdrawals/"+id+"/approve", admin, nil); w.Code != nethttp.StatusConflict {
		t.Fatalf("approve after reject: %d", w.Code)
	}
	if w := s.do("POST", "/api/v1/admin/withdrawals/missing/approve", admin, nil); w.Code != nethttp.StatusNotFound {
		t.Fatalf("approve missing: %d", w.Code)
	}
	if w := s.do("POST", "/api/v1/admin/withdrawal-action", admin, map[string]string{"withdrawal_id": id, "action": "cancel"}); w.Code != nethttp.StatusBadRequest {
		t.Fatalf("bad action: %d", w.Code)
	}

	u, err := s.store.GetUser(context.Background(), "u1")
	if err != nil || u.Coins != 150000 {
		t.Fatalf("refund not applied: %+v %v", u, err)
	}

	w = s.do("GET", "/api/v1/withdrawals", token, nil)
	if list, _ := decode(t, w)["withdrawals"].([]any); len(list) != 1 {
		t.Fatalf("user list: %s", w.Body.String())
	}

	for _, path := range []string{"/api/v1/admin/stats", "/api/v1/admin/suspects", "/api/v1/admin/audit", "/api/v1/admin/audit?user_id=u1"} {
		if w := s.do("GET", path, admin, nil); w.Code != nethttp.StatusOK {
			t.Fatalf("%s: %d", path, w.Code)
		}
	}
}

func TestWithdrawIneligible(t *testing.T) {
	s := newTestServer(t)
	w := s.do("POST", "/api/v1/auth/register", "", map[string]string{"name": "New", "email": "new@example.com", "password": "secret123", "device_id": "dev-n"})
	token, _ := decode(t, w)["token"].(string)

	w = s.do("POST", "/api/v1/withdraw", token, map[string]string{"amount": "10.00", "method": "paypal", "destination": "new@pay.example"})
	if w.Code != nethttp.StatusUnprocessableEntity {
		t.Fatalf("withdraw: %d %s", w.Code, w.Body.String())
	}
	if errs, _ := decode(t, w)["errors"].([]any); len(errs) == 0 {
		t.Fatalf("expected violation messages, got %s", w.Body.String())
	}
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/healthz", "/readyz", "/api/health", "/metrics"} {
		if w := s.do("GET", path, "", nil); w.Code != nethttp.StatusOK {
			t.Fatalf("%s: %d", path, w.Code)
		}
	}
}
