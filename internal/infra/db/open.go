package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"universitas/internal/pkg/config"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// ConnectionConfigFromEnv reads DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME. Invalid values fall back
// to the defaults and are returned as warnings.
func ConnectionConfigFromEnv() (ConnectionConfig, []string) {
	def := DefaultConnectionConfig()
	positive := func(v int) error { return config.ValidateIntRange(v, 1, 10000) }

	maxOpen := config.LoadEnvInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns, positive)
	maxIdle := config.LoadEnvInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns, positive)
	lifetime := config.LoadEnvDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, config.ValidatePositiveDuration)
	idle := config.LoadEnvDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, config.ValidatePositiveDuration)

	var warnings []string
	warnings = append(warnings, maxOpen.Warnings...)
	warnings = append(warnings, maxIdle.Warnings...)
	warnings = append(warnings, lifetime.Warnings...)
	warnings = append(warnings, idle.Warnings...)

	return ConnectionConfig{
		MaxOpenConns:    maxOpen.Value,
		MaxIdleConns:    maxIdle.Value,
		ConnMaxLifetime: lifetime.Value,
		ConnMaxIdleTime: idle.Value,
	}, warnings
}

// Open connects to DATABASE_URL with the pgx driver, applies the pool
// configuration and pings the server.
func Open(ctx context.Context) (*sql.DB, error) {
	dsn := config.LoadEnvString("DATABASE_URL", "")
	if dsn == "" {
		return nil, errors.New("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg, warnings := ConnectionConfigFromEnv()
	for _, w := range warnings {
		slog.Warn("database configuration fallback", slog.String("warning", w))
	}
	Configure(db, cfg)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Configure applies pool settings to db.
func Configure(db *sql.DB, cfg ConnectionConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}
