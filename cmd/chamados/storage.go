package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lorrc/chamados/internal/adapters/secondary/memory"
	"github.com/lorrc/chamados/internal/adapters/secondary/postgres"
	"github.com/lorrc/chamados/internal/adapters/secondary/sqlite"
	"github.com/lorrc/chamados/internal/config"
	"github.com/lorrc/chamados/internal/core/ports"
	"github.com/lorrc/chamados/migrations"
)

// storage bundles the repositories of the configured driver.
type storage struct {
	tickets ports.TicketRepository
	users   ports.UserRepository
	ping    func(ctx context.Context) error
	close   func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage, tickets are lost on restart")
		return &storage{
			tickets: memory.NewTicketRepository(),
			users:   memory.NewUserRepository(),
			ping:    func(context.Context) error { return nil },
			close:   func() {},
		}, nil

	case config.DriverSQLite:
		if cfg.Storage.AutoMigrate {
			if err := migrations.Up(migrations.SQLite, migrations.SQLiteURL(cfg.Storage.SQLitePath)); err != nil {
				return nil, err
			}
		}
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite database opened", zap.String("path", cfg.Storage.SQLitePath))
		return &storage{
			tickets: sqlite.NewTicketRepository(db),
			users:   sqlite.NewUserRepository(db),
			ping:    db.PingContext,
			close:   func() { _ = db.Close() },
		}, nil

	case config.DriverPostgres:
		if cfg.Storage.AutoMigrate {
			if err := migrations.Up(migrations.Postgres, cfg.Storage.DatabaseURL); err != nil {
				return nil, err
			}
		}
		pool, err := openPool(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		logger.Info("database connection established")
		return &storage{
			tickets: postgres.NewTicketRepository(pool),
			users:   postgres.NewUserRepository(pool),
			ping:    pool.Ping,
			close:   pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func openPool(ctx context.Context, cfg config.StorageConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// migrationTarget returns the dialect and URL golang-migrate needs for the
// configured driver.
func migrationTarget(cfg *config.Config) (dialect, url string, err error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return migrations.SQLite, migrations.SQLiteURL(cfg.Storage.SQLitePath), nil
	case config.DriverPostgres:
		return migrations.Postgres, cfg.Storage.DatabaseURL, nil
	}
	return "", "", fmt.Errorf("storage driver %q has no schema to migrate", cfg.Storage.Driver)
}
