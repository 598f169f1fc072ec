package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"playearn/internal/service"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	service.InitJWT("middleware-test")
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAndAdminOnly(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWT(), func(c *gin.Context) {
		id, _ := UserID(c)
		c.String(http.StatusOK, id)
	})
	r.GET("/admin", JWT(), AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

	userToken, _ := service.GenerateJWT("u1", false)
	adminToken, _ := service.GenerateJWT("a1", true)

	cases := []struct {
		name  string
		path  string
		token string
		code  int
	}{
		{"no token", "/me", "", http.StatusUnauthorized},
		{"garbage token", "/me", "abc", http.StatusUnauthorized},
		{"user", "/me", userToken, http.StatusOK},
		{"user on admin route", "/admin", userToken, http.StatusForbidden},
		{"admin", "/admin", adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tc.path, tc.token)
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, w.Code)
			}
		})
	}

	if w := do(r, http.MethodGet, "/me", userToken); w.Body.String() != "u1" {
		t.Fatalf("expected user id in context, got %q", w.Body.String())
	}
}

func TestUserRateLimitInMemory(t *testing.T) {
	CloseRedis()

	r := gin.New()
	r.POST("/ads", JWT(), UserRateLimit("ads-test", 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	a, _ := service.GenerateJWT("rl-a", false)
	b, _ := service.GenerateJWT("rl-b", false)

	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodPost, "/ads", a); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := do(r, http.MethodPost, "/ads", a)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header %q", w.Header().Get("X-RateLimit-Remaining"))
	}
	if w := do(r, http.MethodPost, "/ads", b); w.Code != http.StatusOK {
		t.Fatalf("other users are not limited, got %d", w.Code)
	}
}

func TestMemoryWindowResets(t *testing.T) {
	m := &memoryWindow{clients: make(map[string]*clientInfo)}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		if got := m.hit("k", time.Minute, now); got != i {
			t.Fatalf("hit %d: got %d", i, got)
		}
	}
	if got := m.hit("k", time.Minute, now.Add(61*time.Second)); got != 1 {
		t.Fatalf("window should reset, got %d", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodGet, "/", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "given" {
		t.Fatalf("caller id should be reused")
	}
}
