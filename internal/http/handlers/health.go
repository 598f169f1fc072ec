package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything whose availability the probes check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a named Pinger. Optional dependencies degrade readiness
// without failing it.
type Dependency struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	ledger    Pinger
	deps      []Dependency
	startTime time.Time
	version   string
}

// NewHealthHandler creates a health handler for the ledger plus any extra
// dependencies. Dependencies with a nil Pinger are skipped.
func NewHealthHandler(ledger Pinger, version string, deps ...Dependency) *HealthHandler {
	h := &HealthHandler{
		ledger:    ledger,
		deps:      []Dependency{{Name: "ledger", Pinger: ledger}},
		startTime: time.Now(),
		version:   version,
	}
	for _, d := range deps {
		if d.Pinger != nil {
			h.deps = append(h.deps, d)
		}
	}
	return h
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness only reports that the process serves requests.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness pings every dependency. A failing required dependency makes the
// instance unready; a failing optional one only marks it degraded.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps)+1)
	status, code := "healthy", http.StatusOK
	for _, d := range h.deps {
		err := d.Pinger.Ping(ctx)
		switch {
		case err == nil:
			checks[d.Name] = "healthy"
		case d.Optional:
			checks[d.Name] = "degraded: " + err.Error()
			if status == "healthy" {
				status = "degraded"
			}
		default:
			checks[d.Name] = "unhealthy: " + err.Error()
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	checks["memory_alloc_mb"] = fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024)

	c.JSON(code, HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Health is the quick check used by load balancers: the ledger only.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.ledger.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "ledger unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}
