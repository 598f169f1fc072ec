package db

import (
	"context"
	"time"

	"playearn/internal/config"
	"playearn/internal/logger"
	"playearn/internal/repository"
	"playearn/internal/service"
	"playearn/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(dsn string) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Fatal("invalid database url", "error", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	db, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	if err := db.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	logger.Info("database connected", "driver", "postgres")
	return db
}

// OpenSqlite opens the embedded ledger used for local runs. An empty path
// keeps everything in memory.
func OpenSqlite(path string) *storage.SqliteStorage {
	dsn := storage.MemoryDSN("playearn")
	if path != "" {
		dsn = storage.FileDSN(path)
	}

	st, err := storage.NewSqliteStorage(dsn)
	if err != nil {
		logger.Fatal("failed to open sqlite", "error", err, "path", path)
	}

	logger.Info("database connected", "driver", "sqlite", "path", path)
	return st
}

// OpenStore opens the ledger selected by cfg.StoreDriver. The returned func
// releases it.
func OpenStore(cfg *config.Config) (service.Store, func()) {
	if cfg.StoreDriver == config.DriverSqlite {
		st := OpenSqlite(cfg.SQLitePath)
		return st, func() { _ = st.Close() }
	}

	pool := Connect(cfg.DatabaseURL)
	return repository.NewLedger(pool), pool.Close
}
