package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func TestReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		ledger     Pinger
		deps       []Dependency
		wantCode   int
		wantStatus string
	}{
		{"all up", up, []Dependency{{Name: "redis", Pinger: up, Optional: true}}, http.StatusOK, "healthy"},
		{"optional down", up, []Dependency{{Name: "redis", Pinger: down, Optional: true}}, http.StatusOK, "degraded"},
		{"ledger down", down, []Dependency{{Name: "redis", Pinger: up, Optional: true}}, http.StatusServiceUnavailable, "unhealthy"},
		{"nil dependency skipped", up, []Dependency{{Name: "redis", Pinger: nil, Optional: true}}, http.StatusOK, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.ledger, "test", tt.deps...)
			r := gin.New()
			r.GET("/readyz", h.Readiness)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", w.Code, tt.wantCode)
			}

			var resp HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantStatus {
				t.Fatalf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if _, ok := resp.Checks["redis"]; ok != (tt.deps[0].Pinger != nil) {
				t.Fatalf("redis check presence = %v, checks %v", ok, resp.Checks)
			}
		})
	}
}
