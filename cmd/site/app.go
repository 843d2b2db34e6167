package main

import (
	"context"
	"fmt"
	"log/slog"

	"localsphere/internal/config"
	"localsphere/internal/observability/logging"
	"localsphere/internal/store"
	"localsphere/pkg/db"
)

// bootstrap loads configuration and installs the process logger.
func bootstrap(ctx context.Context) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openStore returns nil without error when DATABASE_URL is unset.
func openStore(cfg config.Config) (*store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, nil
	}
	gdb, err := db.OpenGorm(db.Config{Driver: cfg.DatabaseDriver, DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		return nil, func() {}, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, func() {}, err
	}
	return store.New(gdb), func() { _ = sqlDB.Close() }, nil
}

func requireStore(cfg config.Config) (*store.Store, func(), error) {
	st, closeFn, err := openStore(cfg)
	if err != nil {
		return nil, closeFn, err
	}
	if st == nil {
		return nil, closeFn, fmt.Errorf("DATABASE_URL is not set")
	}
	return st, closeFn, nil
}
