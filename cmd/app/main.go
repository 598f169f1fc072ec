package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playearn/internal/bot"
	"playearn/internal/config"
	"playearn/internal/db"
	httpServer "playearn/internal/http"
	"playearn/internal/http/middleware"
	"playearn/internal/logger"
	"playearn/internal/service"
	"playearn/internal/ws"

	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	store, closeStore := db.OpenStore(cfg)
	defer closeStore()

	svc := service.NewServices(store, cfg.Limits, cfg.AdminEmails)

	hub := ws.NewHub()
	defer hub.Close()
	svc.Events.Add(hub)

	var adminBot *bot.AdminBot
	if cfg.AdminBotEnabled {
		b, err := bot.NewAdminBot(cfg.BotToken, svc.Admin, cfg.AdminTelegramIDs)
		if err != nil {
			logger.Error("admin bot disabled", "error", err)
		} else {
			adminBot = b
			svc.Events.Add(adminBot)
			adminBot.Start()
		}
	}

	if middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB) {
		logger.Info("redis rate limiter enabled", "addr", cfg.RedisAddr)
	}
	defer middleware.CloseRedis()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Metrics(), middleware.CORS(cfg.AllowedOrigin))

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Services: svc,
		Hub:      hub,
		Config:   cfg,
		Version:  version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "driver", cfg.StoreDriver, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if adminBot != nil {
		adminBot.Stop()
	}

	logger.Info("server exited")
}
