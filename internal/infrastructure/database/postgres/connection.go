package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"loan-engine/internal/config"
)

const (
	defaultMaxConns int32 = 10
	applicationName       = "loan-engine"
	pingTimeout           = 5 * time.Second
)

var errEmptyDatabaseURL = errors.New("database URL is empty in configuration")

// NewConnectionPool opens the pool and fails unless the database answers a ping.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := configurePool(cfg)
	if err != nil {
		return nil, err
	}
	target := slog.Group("database",
		slog.String("host", poolConfig.ConnConfig.Host),
		slog.String("name", poolConfig.ConnConfig.Database),
		slog.Int("maxConns", int(poolConfig.MaxConns)),
	)

	logger.Info("Opening PostgreSQL connection pool", target)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.Error("PostgreSQL did not answer ping", target, slog.Any("error", err))
		return nil, fmt.Errorf("failed to ping database on connect: %w", err)
	}

	logger.Info("PostgreSQL connection pool ready", target)
	return pool, nil
}

func configurePool(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg.URL == "" {
		return nil, errEmptyDatabaseURL
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	poolConfig.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.HealthCheckPeriod = time.Minute
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	return poolConfig, nil
}
