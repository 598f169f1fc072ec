package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"playearn/internal/domain"
	"playearn/internal/logger"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

type Config struct {
	AppPort     string
	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AdminEmails      []string
	BotToken         string
	AdminTelegramIDs []int64 // tg ids of bot admins, comma separated in env
	AdminBotEnabled  bool

	LogLevel      string
	LogJSON       bool
	AllowedOrigin string

	// Request limits, per client per window
	APIRateLimit  int
	AuthRateLimit int
	AdsRateLimit  int
	RateWindow    time.Duration

	Limits domain.Limits
}

// Load reads the config from env and exits on error.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

// Parse builds the config from the current environment.
func Parse() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		AppPort:       getenv("APP_PORT", "8080"),
		StoreDriver:   strings.ToLower(getenv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    os.Getenv("SQLITE_PATH"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       p.getInt("REDIS_DB", 0),
		AdminEmails:   splitList(os.Getenv("ADMIN_EMAILS")),
		BotToken:      os.Getenv("BOT_TOKEN"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogJSON:       os.Getenv("LOG_JSON") == "true",
		AllowedOrigin: getenv("ALLOWED_ORIGIN", "*"),

		APIRateLimit:  p.getPositive("API_RATE_LIMIT", 120),
		AuthRateLimit: p.getPositive("AUTH_RATE_LIMIT", 10),
		AdsRateLimit:  p.getPositive("ADS_RATE_LIMIT", 30),
		RateWindow:    time.Duration(p.getPositive("RATE_WINDOW_SECONDS", 60)) * time.Second,
	}

	cfg.AdminBotEnabled = os.Getenv("ADMIN_BOT_ENABLED") == "true"
	for _, s := range splitList(os.Getenv("ADMIN_TELEGRAM_IDS")) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			p.fail("ADMIN_TELEGRAM_IDS", s)
			continue
		}
		cfg.AdminTelegramIDs = append(cfg.AdminTelegramIDs, id)
	}

	cfg.Limits = p.limits()

	if p.err != nil {
		return nil, p.err
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is not set")
		}
	case DriverSqlite:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.AdminBotEnabled && cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is not set but ADMIN_BOT_ENABLED=true")
	}
	return cfg, nil
}

// limits applies env overrides on top of the default thresholds.
func (p *parser) limits() domain.Limits {
	l := domain.DefaultLimits()

	l.StandardRewardCoins = p.getInt64("REWARD_STANDARD_COINS", l.StandardRewardCoins)
	l.BonusRewardCoins = p.getInt64("REWARD_BONUS_COINS", l.BonusRewardCoins)
	l.BonusAdsPerDay = p.getInt("BONUS_ADS_PER_DAY", l.BonusAdsPerDay)

	l.AdCooldown = p.getSeconds("AD_COOLDOWN_SECONDS", l.AdCooldown)
	l.HourlyAdLimit = p.getPositive("ADS_HOURLY_LIMIT", l.HourlyAdLimit)
	l.DailyAdLimit = p.getPositive("ADS_DAILY_LIMIT", l.DailyAdLimit)
	l.DailyUnlockAds = p.getInt("ADS_DAILY_UNLOCK", l.DailyUnlockAds)

	l.MinWithdrawCents = p.getAmount("WITHDRAW_MIN_AMOUNT", l.MinWithdrawCents)
	l.WeeklyWithdrawCapCents = p.getAmount("WITHDRAW_WEEKLY_CAP", l.WeeklyWithdrawCapCents)
	l.DeviceCooldown = time.Duration(p.getInt("DEVICE_COOLDOWN_HOURS", int(l.DeviceCooldown/time.Hour))) * time.Hour
	l.MinPlayTime = time.Duration(p.getInt("MIN_PLAY_MINUTES", int(l.MinPlayTime/time.Minute))) * time.Minute
	l.MinDistinctGames = p.getInt("MIN_DISTINCT_GAMES", l.MinDistinctGames)

	l.FraudWindow = time.Duration(p.getPositive("FRAUD_WINDOW_MINUTES", int(l.FraudWindow/time.Minute))) * time.Minute
	l.FraudMinEvents = p.getInt("FRAUD_MIN_EVENTS", l.FraudMinEvents)
	l.FraudMaxAdsPerMinute = p.getFloat("FRAUD_MAX_ADS_PER_MINUTE", l.FraudMaxAdsPerMinute)

	l.LevelCompleteCoins = p.getInt64("LEVEL_COMPLETE_COINS", l.LevelCompleteCoins)
	return l
}

// parser keeps the first malformed variable so Parse can report it.
type parser struct {
	err error
}

func (p *parser) fail(key, value string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %q", key, value)
	}
}

func (p *parser) getInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		p.fail(key, v)
		return def
	}
	return n
}

func (p *parser) getInt(key string, def int) int {
	return int(p.getInt64(key, int64(def)))
}

func (p *parser) getPositive(key string, def int) int {
	n := p.getInt(key, def)
	if n == 0 {
		p.fail(key, os.Getenv(key))
		return def
	}
	return n
}

func (p *parser) getSeconds(key string, def time.Duration) time.Duration {
	return time.Duration(p.getInt64(key, int64(def/time.Second))) * time.Second
}

func (p *parser) getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f < 0 {
		p.fail(key, v)
		return def
	}
	return f
}

// getAmount parses a money value such as "10" or "12.50" into cents.
func (p *parser) getAmount(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	cents, err := domain.ParseAmount(strings.TrimSpace(v))
	if err != nil {
		p.fail(key, v)
		return def
	}
	return cents
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
