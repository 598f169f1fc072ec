package http

import (
	"playearn/internal/config"
	"playearn/internal/http/handlers"
	"playearn/internal/http/middleware"
	"playearn/internal/service"
	"playearn/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the router needs.
type Deps struct {
	Services *service.Services
	Hub      *ws.Hub
	Config   *config.Config
	Version  string
}

func RegisterRoutes(r *gin.Engine, d Deps) *handlers.Handler {
	cfg := d.Config
	h := handlers.NewHandler(d.Services)
	healthHandler := handlers.NewHealthHandler(d.Services.Ledger, d.Version,
		handlers.Dependency{Name: "redis", Pinger: middleware.RedisPinger(), Optional: true})

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit("api", cfg.APIRateLimit, cfg.RateWindow))
	registerAPIRoutes(v1, h, cfg)

	// Legacy /api routes
	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit("api", cfg.APIRateLimit, cfg.RateWindow))
	api.GET("/health", healthHandler.Health)
	registerAPIRoutes(api, h, cfg)

	// Live admin feed. Authenticates on its own since browsers cannot send
	// headers on the upgrade request.
	if d.Hub != nil {
		r.GET("/admin/ws", ws.HandleWS(d.Hub, cfg.AllowedOrigin))
	}

	return h
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg *config.Config) {
	authRL := middleware.RedisRateLimit("auth", cfg.AuthRateLimit, cfg.RateWindow)

	// Auth
	api.POST("/auth/register", authRL, h.Register)
	api.POST("/auth/login", authRL, h.Login)

	// User
	api.GET("/me", middleware.JWT(), h.Me)
	api.GET("/coins/history", middleware.JWT(), h.CoinsHistory)
	api.GET("/ranking", h.Ranking)

	// Games
	api.GET("/games", h.Games)
	api.POST("/game/start", middleware.JWT(), h.GameStart)
	api.POST("/game/complete", middleware.JWT(), h.GameComplete)

	// Ads, limited per user on top of the per IP limit
	adsRL := middleware.UserRateLimit("ads", cfg.AdsRateLimit, cfg.RateWindow)
	ads := api.Group("/ads")
	ads.Use(middleware.JWT(), adsRL)
	{
		ads.POST("/request", h.AdRequest)
		ads.POST("/complete", h.AdComplete)
	}

	// Withdrawals
	api.POST("/withdraw/check", middleware.JWT(), h.WithdrawCheck)
	api.POST("/withdraw", middleware.JWT(), h.Withdraw)
	api.GET("/withdrawals", middleware.JWT(), h.Withdrawals)

	// Admin
	admin := api.Group("/admin")
	admin.Use(middleware.JWT(), middleware.AdminOnly())
	{
		admin.GET("/withdrawals", h.AdminWithdrawals)
		admin.POST("/withdrawals/:id/approve", h.AdminApprove)
		admin.POST("/withdrawals/:id/reject", h.AdminReject)
		admin.POST("/withdrawal-action", h.AdminWithdrawalAction)
		admin.GET("/suspects", h.AdminSuspects)
		admin.POST("/suspects/:id/clear", h.AdminClearSuspect)
		admin.GET("/stats", h.AdminStats)
		admin.GET("/audit", h.AdminAudit)
	}
}
