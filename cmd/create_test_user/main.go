package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"playearn/internal/config"
	"playearn/internal/db"
	"playearn/internal/domain"
	"playearn/internal/logger"
	"playearn/internal/service"
)

// create_test_user registers an account (or logs into an existing one) and
// prints a bearer token for manual API testing.
func main() {
	email := flag.String("email", "tester@example.com", "account email")
	password := flag.String("password", "tester-password", "account password")
	device := flag.String("device", "test-device", "device id")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, false)
	service.InitJWT(cfg.JWTSecret)

	store, closeStore := db.OpenStore(cfg)
	defer closeStore()

	svc := service.NewServices(store, cfg.Limits, cfg.AdminEmails)
	ctx := context.Background()

	sess, err := svc.Accounts.Register(ctx, service.Registration{
		Name:     "Tester",
		Email:    *email,
		Password: *password,
		DeviceID: *device,
	}, time.Now().UTC())
	if errors.Is(err, domain.ErrEmailTaken) {
		logger.Info("user already exists, logging in", "email", *email)
		sess, err = svc.Accounts.Login(ctx, *email, *password, "127.0.0.1", "create_test_user")
	}
	if err != nil {
		logger.Fatal("create test user failed", "error", err)
	}

	logger.Info("test user ready", "id", sess.User.ID, "email", sess.User.Email, "admin", sess.Admin)
	fmt.Println(sess.Token)
}
